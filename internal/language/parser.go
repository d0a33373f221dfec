package language

import "fmt"

// maxNestingDepth bounds selection-set and value nesting so that
// adversarial documents cannot exhaust the parser's stack.
const maxNestingDepth = 256

// ParseQuery parses a full executable document.
func ParseQuery(source string) (*Document, error) {
	p, err := newParser(source)
	if err != nil {
		return nil, err
	}
	doc, err := p.parseDocument()
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseValue parses a standalone constant value literal.
func ParseValue(source string) (*Value, error) {
	p, err := newParser(source)
	if err != nil {
		return nil, err
	}
	v, err := p.parseValue(true)
	if err != nil {
		return nil, err
	}
	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	return v, nil
}

// ParseType parses a standalone type reference.
func ParseType(source string) (*Type, error) {
	p, err := newParser(source)
	if err != nil {
		return nil, err
	}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.expectEOF(); err != nil {
		return nil, err
	}
	return t, nil
}

// parser holds the lexer and a one-token lookahead. Any unexpected token
// aborts the parse; there is no error recovery.
type parser struct {
	lexer *Lexer
	tok   Token
	depth int
}

func newParser(source string) (*parser, error) {
	p := &parser{lexer: NewLexer(source)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *parser) advance() error {
	tok, err := p.lexer.Next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) loc() *Location {
	return &Location{Offset: p.tok.Start, Line: p.tok.Line, Column: p.tok.Column}
}

// skip consumes the current token if it has the given kind.
func (p *parser) skip(kind TokenKind) (bool, error) {
	if p.tok.Kind != kind {
		return false, nil
	}
	return true, p.advance()
}

// expect consumes and returns the current token, which must have the
// given kind.
func (p *parser) expect(kind TokenKind) (Token, error) {
	if p.tok.Kind != kind {
		return Token{}, p.unexpected(kind.String())
	}
	tok := p.tok
	return tok, p.advance()
}

func (p *parser) expectKeyword(keyword string) error {
	if p.tok.Kind != TokenName || p.tok.Value != keyword {
		return p.unexpected(fmt.Sprintf("%q", keyword))
	}
	return p.advance()
}

func (p *parser) expectEOF() error {
	if p.tok.Kind != TokenEOF {
		return p.unexpected(TokenEOF.String())
	}
	return nil
}

func (p *parser) unexpected(expected string) error {
	return &SyntaxError{
		Expected: expected,
		Found:    p.tok.Description(),
		Location: Location{Offset: p.tok.Start, Line: p.tok.Line, Column: p.tok.Column},
	}
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > maxNestingDepth {
		return &SyntaxError{
			Message:  "exceeded maximum nesting depth",
			Location: Location{Offset: p.tok.Start, Line: p.tok.Line, Column: p.tok.Column},
		}
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

func (p *parser) parseDocument() (*Document, error) {
	doc := &Document{}
	for p.tok.Kind != TokenEOF {
		switch {
		case p.tok.Kind == TokenBraceL:
			// Shorthand form: a bare selection set is a query.
			op := &OperationDefinition{Operation: Query, Loc: p.loc()}
			sel, err := p.parseSelectionSet()
			if err != nil {
				return nil, err
			}
			op.SelectionSet = sel
			doc.Operations = append(doc.Operations, op)
		case p.tok.Kind == TokenName && p.tok.Value == "fragment":
			frag, err := p.parseFragmentDefinition()
			if err != nil {
				return nil, err
			}
			doc.Fragments = append(doc.Fragments, frag)
		case p.tok.Kind == TokenName:
			op, err := p.parseOperationDefinition()
			if err != nil {
				return nil, err
			}
			doc.Operations = append(doc.Operations, op)
		default:
			return nil, p.unexpected("definition")
		}
	}
	return doc, nil
}

func (p *parser) parseOperationDefinition() (*OperationDefinition, error) {
	op := &OperationDefinition{Loc: p.loc()}
	switch p.tok.Value {
	case "query":
		op.Operation = Query
	case "mutation":
		op.Operation = Mutation
	case "subscription":
		op.Operation = Subscription
	default:
		return nil, p.unexpected("operation type")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	if p.tok.Kind == TokenName {
		op.Name = p.tok.Value
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if p.tok.Kind == TokenParenL {
		defs, err := p.parseVariableDefinitions()
		if err != nil {
			return nil, err
		}
		op.VariableDefinitions = defs
	}
	directives, err := p.parseDirectives(false)
	if err != nil {
		return nil, err
	}
	op.Directives = directives

	sel, err := p.parseSelectionSet()
	if err != nil {
		return nil, err
	}
	op.SelectionSet = sel
	return op, nil
}

func (p *parser) parseVariableDefinitions() ([]*VariableDefinition, error) {
	if _, err := p.expect(TokenParenL); err != nil {
		return nil, err
	}
	var defs []*VariableDefinition
	for {
		def, err := p.parseVariableDefinition()
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
		if p.tok.Kind == TokenParenR {
			return defs, p.advance()
		}
		if p.tok.Kind == TokenEOF {
			return nil, p.unexpected(TokenParenR.String())
		}
	}
}

func (p *parser) parseVariableDefinition() (*VariableDefinition, error) {
	def := &VariableDefinition{Loc: p.loc()}
	if _, err := p.expect(TokenDollar); err != nil {
		return nil, err
	}
	name, err := p.expect(TokenName)
	if err != nil {
		return nil, err
	}
	def.Variable = name.Value
	if _, err := p.expect(TokenColon); err != nil {
		return nil, err
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	def.Type = typ

	ok, err := p.skip(TokenEquals)
	if err != nil {
		return nil, err
	}
	if ok {
		// Default values are constant: no variable references.
		v, err := p.parseValue(true)
		if err != nil {
			return nil, err
		}
		def.DefaultValue = v
	}
	directives, err := p.parseDirectives(true)
	if err != nil {
		return nil, err
	}
	def.Directives = directives
	return def, nil
}

func (p *parser) parseSelectionSet() (SelectionSet, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	if _, err := p.expect(TokenBraceL); err != nil {
		return nil, err
	}
	var set SelectionSet
	for {
		sel, err := p.parseSelection()
		if err != nil {
			return nil, err
		}
		set = append(set, sel)
		if p.tok.Kind == TokenBraceR {
			return set, p.advance()
		}
		if p.tok.Kind == TokenEOF {
			return nil, p.unexpected(TokenBraceR.String())
		}
	}
}

func (p *parser) parseSelection() (Selection, error) {
	if p.tok.Kind == TokenSpread {
		return p.parseFragment()
	}
	return p.parseField()
}

// parseFragment parses a fragment spread or an inline fragment, both of
// which start with '...'.
func (p *parser) parseFragment() (Selection, error) {
	loc := p.loc()
	if _, err := p.expect(TokenSpread); err != nil {
		return nil, err
	}

	if p.tok.Kind == TokenName && p.tok.Value != "on" {
		spread := &FragmentSpread{Name: p.tok.Value, Loc: loc}
		if err := p.advance(); err != nil {
			return nil, err
		}
		directives, err := p.parseDirectives(false)
		if err != nil {
			return nil, err
		}
		spread.Directives = directives
		return spread, nil
	}

	frag := &InlineFragment{Loc: loc}
	if p.tok.Kind == TokenName && p.tok.Value == "on" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		cond, err := p.expect(TokenName)
		if err != nil {
			return nil, err
		}
		frag.TypeCondition = cond.Value
	}
	directives, err := p.parseDirectives(false)
	if err != nil {
		return nil, err
	}
	frag.Directives = directives

	sel, err := p.parseSelectionSet()
	if err != nil {
		return nil, err
	}
	frag.SelectionSet = sel
	return frag, nil
}

func (p *parser) parseField() (*Field, error) {
	field := &Field{Loc: p.loc()}
	name, err := p.expect(TokenName)
	if err != nil {
		return nil, err
	}

	ok, err := p.skip(TokenColon)
	if err != nil {
		return nil, err
	}
	if ok {
		field.Alias = name.Value
		name, err = p.expect(TokenName)
		if err != nil {
			return nil, err
		}
	}
	field.Name = name.Value

	if p.tok.Kind == TokenParenL {
		args, err := p.parseArguments(false)
		if err != nil {
			return nil, err
		}
		field.Arguments = args
	}

	nullability, err := p.parseNullability()
	if err != nil {
		return nil, err
	}
	field.Nullability = nullability

	directives, err := p.parseDirectives(false)
	if err != nil {
		return nil, err
	}
	field.Directives = directives

	if p.tok.Kind == TokenBraceL {
		sel, err := p.parseSelectionSet()
		if err != nil {
			return nil, err
		}
		field.SelectionSet = sel
	}
	return field, nil
}

// parseNullability parses an optional client-controlled nullability
// suffix: '?', '!', or a bracketed form mirroring list nesting, e.g.
// `[[!]?]!`. Returns nil when no modifier is present.
func (p *parser) parseNullability() (*Nullability, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	switch p.tok.Kind {
	case TokenQuestion:
		n := &Nullability{Kind: NullabilityOptional, Loc: p.loc()}
		return n, p.advance()
	case TokenBang:
		n := &Nullability{Kind: NullabilityRequired, Loc: p.loc()}
		return n, p.advance()
	case TokenBracketL:
		n := &Nullability{Kind: NullabilityList, Loc: p.loc()}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.Kind != TokenBracketR {
			elem, err := p.parseNullability()
			if err != nil {
				return nil, err
			}
			if elem == nil {
				return nil, p.unexpected("nullability modifier")
			}
			n.Element = elem
		}
		if _, err := p.expect(TokenBracketR); err != nil {
			return nil, err
		}
		switch p.tok.Kind {
		case TokenQuestion:
			n.Modifier = &Nullability{Kind: NullabilityOptional, Loc: p.loc()}
			return n, p.advance()
		case TokenBang:
			n.Modifier = &Nullability{Kind: NullabilityRequired, Loc: p.loc()}
			return n, p.advance()
		}
		return n, nil
	}
	return nil, nil
}

func (p *parser) parseArguments(isConst bool) (ArgumentList, error) {
	if _, err := p.expect(TokenParenL); err != nil {
		return nil, err
	}
	var args ArgumentList
	for {
		arg := &Argument{Loc: p.loc()}
		name, err := p.expect(TokenName)
		if err != nil {
			return nil, err
		}
		arg.Name = name.Value
		if _, err := p.expect(TokenColon); err != nil {
			return nil, err
		}
		v, err := p.parseValue(isConst)
		if err != nil {
			return nil, err
		}
		arg.Value = v
		args = append(args, arg)

		if p.tok.Kind == TokenParenR {
			return args, p.advance()
		}
		if p.tok.Kind == TokenEOF {
			return nil, p.unexpected(TokenParenR.String())
		}
	}
}

func (p *parser) parseDirectives(isConst bool) (DirectiveList, error) {
	var directives DirectiveList
	for p.tok.Kind == TokenAt {
		d := &Directive{Loc: p.loc()}
		if err := p.advance(); err != nil {
			return nil, err
		}
		name, err := p.expect(TokenName)
		if err != nil {
			return nil, err
		}
		d.Name = name.Value
		if p.tok.Kind == TokenParenL {
			args, err := p.parseArguments(isConst)
			if err != nil {
				return nil, err
			}
			d.Arguments = args
		}
		directives = append(directives, d)
	}
	return directives, nil
}

// parseValue parses a value literal. In constant mode variable
// references are rejected.
func (p *parser) parseValue(isConst bool) (*Value, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	loc := p.loc()
	switch p.tok.Kind {
	case TokenDollar:
		if isConst {
			return nil, &SyntaxError{
				Message:  "variables are not allowed in constant values",
				Location: *loc,
			}
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		name, err := p.expect(TokenName)
		if err != nil {
			return nil, err
		}
		return &Value{Kind: VariableValue, Raw: name.Value, Loc: loc}, nil
	case TokenInt:
		v := &Value{Kind: IntValue, Raw: p.tok.Value, Loc: loc}
		return v, p.advance()
	case TokenFloat:
		v := &Value{Kind: FloatValue, Raw: p.tok.Value, Loc: loc}
		return v, p.advance()
	case TokenString:
		v := &Value{Kind: StringValue, Raw: p.tok.Value, Loc: loc}
		return v, p.advance()
	case TokenBlockString:
		v := &Value{Kind: BlockValue, Raw: p.tok.Value, Loc: loc}
		return v, p.advance()
	case TokenName:
		var v *Value
		switch p.tok.Value {
		case "true", "false":
			v = &Value{Kind: BooleanValue, Raw: p.tok.Value, Loc: loc}
		case "null":
			v = &Value{Kind: NullValue, Raw: p.tok.Value, Loc: loc}
		default:
			v = &Value{Kind: EnumValue, Raw: p.tok.Value, Loc: loc}
		}
		return v, p.advance()
	case TokenBracketL:
		return p.parseListValue(isConst, loc)
	case TokenBraceL:
		return p.parseObjectValue(isConst, loc)
	}
	return nil, p.unexpected("value")
}

func (p *parser) parseListValue(isConst bool, loc *Location) (*Value, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	v := &Value{Kind: ListValue, Loc: loc}
	for p.tok.Kind != TokenBracketR {
		if p.tok.Kind == TokenEOF {
			return nil, p.unexpected(TokenBracketR.String())
		}
		item, err := p.parseValue(isConst)
		if err != nil {
			return nil, err
		}
		v.List = append(v.List, item)
	}
	return v, p.advance()
}

func (p *parser) parseObjectValue(isConst bool, loc *Location) (*Value, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	v := &Value{Kind: ObjectValue, Loc: loc}
	for p.tok.Kind != TokenBraceR {
		if p.tok.Kind == TokenEOF {
			return nil, p.unexpected(TokenBraceR.String())
		}
		field := &ObjectField{Loc: p.loc()}
		name, err := p.expect(TokenName)
		if err != nil {
			return nil, err
		}
		field.Name = name.Value
		if _, err := p.expect(TokenColon); err != nil {
			return nil, err
		}
		val, err := p.parseValue(isConst)
		if err != nil {
			return nil, err
		}
		field.Value = val
		v.Fields = append(v.Fields, field)
	}
	return v, p.advance()
}

func (p *parser) parseFragmentDefinition() (*FragmentDefinition, error) {
	frag := &FragmentDefinition{Loc: p.loc()}
	if err := p.expectKeyword("fragment"); err != nil {
		return nil, err
	}
	name, err := p.expect(TokenName)
	if err != nil {
		return nil, err
	}
	if name.Value == "on" {
		return nil, &SyntaxError{
			Message:  `a fragment may not be named "on"`,
			Location: Location{Offset: name.Start, Line: name.Line, Column: name.Column},
		}
	}
	frag.Name = name.Value

	if err := p.expectKeyword("on"); err != nil {
		return nil, err
	}
	cond, err := p.expect(TokenName)
	if err != nil {
		return nil, err
	}
	frag.TypeCondition = cond.Value

	directives, err := p.parseDirectives(false)
	if err != nil {
		return nil, err
	}
	frag.Directives = directives

	sel, err := p.parseSelectionSet()
	if err != nil {
		return nil, err
	}
	frag.SelectionSet = sel
	return frag, nil
}

// parseType parses a type reference: Name, [Type], with optional '!'
// after either form.
func (p *parser) parseType() (*Type, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	t := &Type{Loc: p.loc()}
	if p.tok.Kind == TokenBracketL {
		if err := p.advance(); err != nil {
			return nil, err
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenBracketR); err != nil {
			return nil, err
		}
		t.Elem = elem
	} else {
		name, err := p.expect(TokenName)
		if err != nil {
			return nil, err
		}
		t.NamedType = name.Value
	}

	ok, err := p.skip(TokenBang)
	if err != nil {
		return nil, err
	}
	t.NonNull = ok
	return t, nil
}
