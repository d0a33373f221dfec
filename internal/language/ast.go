package language

// The AST is immutable after parsing: nodes are shared rather than
// copied (the same fragment definition may be reachable from several
// spread sites), so no consumer may modify a node in place.

// OperationType distinguishes the three operation kinds.
type OperationType string

const (
	Query        OperationType = "query"
	Mutation     OperationType = "mutation"
	Subscription OperationType = "subscription"
)

// Document is a parsed GraphQL source.
type Document struct {
	Operations []*OperationDefinition
	Fragments  []*FragmentDefinition
}

// Fragment returns the fragment definition with the given name, or nil.
func (d *Document) Fragment(name string) *FragmentDefinition {
	for _, f := range d.Fragments {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Operation returns the operation with the given name, or nil. The empty
// name matches an unnamed operation.
func (d *Document) Operation(name string) *OperationDefinition {
	for _, op := range d.Operations {
		if op.Name == name {
			return op
		}
	}
	return nil
}

type OperationDefinition struct {
	Operation           OperationType
	Name                string // empty for anonymous operations
	VariableDefinitions []*VariableDefinition
	Directives          DirectiveList
	SelectionSet        SelectionSet
	Loc                 *Location
}

type FragmentDefinition struct {
	Name          string
	TypeCondition string
	Directives    DirectiveList
	SelectionSet  SelectionSet
	Loc           *Location
}

type VariableDefinition struct {
	Variable     string
	Type         *Type
	DefaultValue *Value
	Directives   DirectiveList
	Loc          *Location
}

// SelectionSet holds one or more selections.
type SelectionSet []Selection

// Selection is one entry of a selection set: a Field, a FragmentSpread
// or an InlineFragment. The interface is sealed so that consumers can
// switch exhaustively.
type Selection interface {
	isSelection()
	GetDirectives() DirectiveList
	Location() *Location
}

func (*Field) isSelection()          {}
func (*FragmentSpread) isSelection() {}
func (*InlineFragment) isSelection() {}

type Field struct {
	Alias        string // empty when no alias was written
	Name         string
	Arguments    ArgumentList
	Nullability  *Nullability // client-controlled nullability suffix, nil when absent
	Directives   DirectiveList
	SelectionSet SelectionSet // nil for leaf fields
	Loc          *Location
}

// ResponseName is the key under which the field appears in the response:
// the alias when present, the field name otherwise.
func (f *Field) ResponseName() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

func (f *Field) GetDirectives() DirectiveList { return f.Directives }
func (f *Field) Location() *Location          { return f.Loc }

type FragmentSpread struct {
	Name       string
	Directives DirectiveList
	Loc        *Location
}

func (s *FragmentSpread) GetDirectives() DirectiveList { return s.Directives }
func (s *FragmentSpread) Location() *Location          { return s.Loc }

type InlineFragment struct {
	TypeCondition string // empty when no type condition was written
	Directives    DirectiveList
	SelectionSet  SelectionSet
	Loc           *Location
}

func (f *InlineFragment) GetDirectives() DirectiveList { return f.Directives }
func (f *InlineFragment) Location() *Location          { return f.Loc }

type Argument struct {
	Name  string
	Value *Value
	Loc   *Location
}

type ArgumentList []*Argument

// ForName returns the argument with the given name, or nil.
func (l ArgumentList) ForName(name string) *Argument {
	for _, a := range l {
		if a.Name == name {
			return a
		}
	}
	return nil
}

type Directive struct {
	Name      string
	Arguments ArgumentList
	Loc       *Location
}

type DirectiveList []*Directive

// ForName returns the directive with the given name, or nil.
func (l DirectiveList) ForName(name string) *Directive {
	for _, d := range l {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// ValueKind identifies the variant of a Value.
type ValueKind int

const (
	VariableValue ValueKind = iota
	IntValue
	FloatValue
	StringValue
	BlockValue
	BooleanValue
	NullValue
	EnumValue
	ListValue
	ObjectValue
)

// Value is an input value literal. Raw holds the scalar text (for
// VariableValue the name without '$', for EnumValue the enum name);
// List and Fields hold children for the two composite variants.
type Value struct {
	Kind   ValueKind
	Raw    string
	List   []*Value
	Fields []*ObjectField
	Loc    *Location
}

type ObjectField struct {
	Name  string
	Value *Value
	Loc   *Location
}

// Type is a type reference. Exactly one of NamedType or Elem is set:
// NamedType for a named type, Elem for a list type. NonNull wraps
// either form.
type Type struct {
	NamedType string
	Elem      *Type
	NonNull   bool
	Loc       *Location
}

// Name returns the innermost named type.
func (t *Type) Name() string {
	if t.NamedType != "" {
		return t.NamedType
	}
	if t.Elem != nil {
		return t.Elem.Name()
	}
	return ""
}

// IsList reports whether the reference is a list type at its outermost
// level (ignoring non-null wrapping).
func (t *Type) IsList() bool { return t.Elem != nil }

// NullabilityKind identifies the variant of a nullability assertion.
type NullabilityKind int

const (
	// NullabilityOptional is the '?' modifier: the field may be null
	// even if the schema says otherwise.
	NullabilityOptional NullabilityKind = iota
	// NullabilityRequired is the '!' modifier: a null value propagates
	// as an error even for schema-nullable fields.
	NullabilityRequired
	// NullabilityList is a bracketed assertion mirroring one level of
	// list nesting.
	NullabilityList
)

// Nullability is a client-controlled nullability assertion written after
// a field. For NullabilityList, Element carries the assertion applying
// to list items (nil when unspecified) and Modifier the '?' or '!'
// applying to the list itself (nil when unspecified). Bracket nesting
// mirrors the list nesting of the field's type; validating the depth
// against the schema belongs to the metadata-aware layers, not the
// parser.
type Nullability struct {
	Kind     NullabilityKind
	Element  *Nullability
	Modifier *Nullability
	Loc      *Location
}
