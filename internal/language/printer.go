package language

import (
	"fmt"
	"strconv"
	"strings"
)

// PrintDocument renders a document back to GraphQL source. Printing a
// parsed document and re-parsing the output yields a structurally equal
// AST (comments are not preserved; they never reach the AST).
func PrintDocument(doc *Document) string {
	var w printer
	for i, op := range doc.Operations {
		if i > 0 {
			w.line()
		}
		w.printOperation(op)
	}
	for i, frag := range doc.Fragments {
		if i > 0 || len(doc.Operations) > 0 {
			w.line()
		}
		w.printFragment(frag)
	}
	return w.String()
}

// PrintValue renders a value literal.
func PrintValue(v *Value) string {
	var w printer
	w.printValue(v)
	return w.String()
}

// PrintType renders a type reference.
func PrintType(t *Type) string {
	var w printer
	w.printType(t)
	return w.String()
}

type printer struct {
	strings.Builder
	indent int
}

func (w *printer) line() {
	w.WriteByte('\n')
	w.WriteString(strings.Repeat("  ", w.indent))
}

func (w *printer) printOperation(op *OperationDefinition) {
	w.WriteString(string(op.Operation))
	if op.Name != "" {
		w.WriteByte(' ')
		w.WriteString(op.Name)
	}
	if len(op.VariableDefinitions) > 0 {
		w.WriteByte('(')
		for i, def := range op.VariableDefinitions {
			if i > 0 {
				w.WriteString(", ")
			}
			w.WriteByte('$')
			w.WriteString(def.Variable)
			w.WriteString(": ")
			w.printType(def.Type)
			if def.DefaultValue != nil {
				w.WriteString(" = ")
				w.printValue(def.DefaultValue)
			}
			w.printDirectives(def.Directives)
		}
		w.WriteByte(')')
	}
	w.printDirectives(op.Directives)
	w.WriteByte(' ')
	w.printSelectionSet(op.SelectionSet)
	w.WriteByte('\n')
}

func (w *printer) printFragment(frag *FragmentDefinition) {
	w.WriteString("fragment ")
	w.WriteString(frag.Name)
	w.WriteString(" on ")
	w.WriteString(frag.TypeCondition)
	w.printDirectives(frag.Directives)
	w.WriteByte(' ')
	w.printSelectionSet(frag.SelectionSet)
	w.WriteByte('\n')
}

func (w *printer) printSelectionSet(set SelectionSet) {
	w.WriteByte('{')
	w.indent++
	for _, sel := range set {
		w.line()
		switch s := sel.(type) {
		case *Field:
			w.printField(s)
		case *FragmentSpread:
			w.WriteString("...")
			w.WriteString(s.Name)
			w.printDirectives(s.Directives)
		case *InlineFragment:
			w.WriteString("...")
			if s.TypeCondition != "" {
				w.WriteString(" on ")
				w.WriteString(s.TypeCondition)
			}
			w.printDirectives(s.Directives)
			w.WriteByte(' ')
			w.printSelectionSet(s.SelectionSet)
		default:
			panic(fmt.Sprintf("unknown selection type %T", sel))
		}
	}
	w.indent--
	w.line()
	w.WriteByte('}')
}

func (w *printer) printField(f *Field) {
	if f.Alias != "" {
		w.WriteString(f.Alias)
		w.WriteString(": ")
	}
	w.WriteString(f.Name)
	if len(f.Arguments) > 0 {
		w.WriteByte('(')
		for i, arg := range f.Arguments {
			if i > 0 {
				w.WriteString(", ")
			}
			w.WriteString(arg.Name)
			w.WriteString(": ")
			w.printValue(arg.Value)
		}
		w.WriteByte(')')
	}
	if f.Nullability != nil {
		w.printNullability(f.Nullability)
	}
	w.printDirectives(f.Directives)
	if len(f.SelectionSet) > 0 {
		w.WriteByte(' ')
		w.printSelectionSet(f.SelectionSet)
	}
}

func (w *printer) printNullability(n *Nullability) {
	switch n.Kind {
	case NullabilityOptional:
		w.WriteByte('?')
	case NullabilityRequired:
		w.WriteByte('!')
	case NullabilityList:
		w.WriteByte('[')
		if n.Element != nil {
			w.printNullability(n.Element)
		}
		w.WriteByte(']')
		if n.Modifier != nil {
			w.printNullability(n.Modifier)
		}
	default:
		panic(fmt.Sprintf("unknown nullability kind %d", n.Kind))
	}
}

func (w *printer) printDirectives(directives DirectiveList) {
	for _, d := range directives {
		w.WriteString(" @")
		w.WriteString(d.Name)
		if len(d.Arguments) > 0 {
			w.WriteByte('(')
			for i, arg := range d.Arguments {
				if i > 0 {
					w.WriteString(", ")
				}
				w.WriteString(arg.Name)
				w.WriteString(": ")
				w.printValue(arg.Value)
			}
			w.WriteByte(')')
		}
	}
}

func (w *printer) printValue(v *Value) {
	switch v.Kind {
	case VariableValue:
		w.WriteByte('$')
		w.WriteString(v.Raw)
	case IntValue, FloatValue, BooleanValue, NullValue, EnumValue:
		w.WriteString(v.Raw)
	case StringValue:
		w.WriteString(strconv.Quote(v.Raw))
	case BlockValue:
		w.WriteString(printBlockString(v.Raw))
	case ListValue:
		w.WriteByte('[')
		for i, item := range v.List {
			if i > 0 {
				w.WriteString(", ")
			}
			w.printValue(item)
		}
		w.WriteByte(']')
	case ObjectValue:
		w.WriteByte('{')
		for i, field := range v.Fields {
			if i > 0 {
				w.WriteString(", ")
			}
			w.WriteString(field.Name)
			w.WriteString(": ")
			w.printValue(field.Value)
		}
		w.WriteByte('}')
	default:
		panic(fmt.Sprintf("unknown value kind %d", v.Kind))
	}
}

// printBlockString renders a block string so that re-parsing recovers
// the same value: multi-line content moves to its own lines, while
// single-line content with leading whitespace stays inline so the
// indentation stripping cannot eat it.
func printBlockString(raw string) string {
	escaped := strings.ReplaceAll(raw, `"""`, `\"""`)
	singleLine := !strings.Contains(raw, "\n")
	leadingWS := strings.HasPrefix(raw, " ") || strings.HasPrefix(raw, "\t")
	endsWithQuote := strings.HasSuffix(raw, `"`)

	var b strings.Builder
	b.WriteString(`"""`)
	if (!singleLine || endsWithQuote) && !(singleLine && leadingWS) {
		b.WriteByte('\n')
	}
	b.WriteString(escaped)
	if !singleLine || endsWithQuote {
		b.WriteByte('\n')
	}
	b.WriteString(`"""`)
	return b.String()
}

func (w *printer) printType(t *Type) {
	if t.Elem != nil {
		w.WriteByte('[')
		w.printType(t.Elem)
		w.WriteByte(']')
	} else {
		w.WriteString(t.NamedType)
	}
	if t.NonNull {
		w.WriteByte('!')
	}
}
