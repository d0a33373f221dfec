package metadata

import (
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	language "github.com/daviddesmet/hotchocolate/internal/language"
)

// builtinDecls declares the directives this compiler understands beyond
// the standard prelude. Schemas do not need to repeat them.
const builtinDecls = `
directive @serial on FIELD_DEFINITION
`

// SchemaResolver implements Resolver on top of a validated SDL schema.
type SchemaResolver struct {
	schema *ast.Schema
}

// LoadSchema parses and validates an SDL schema and wraps it in a
// SchemaResolver.
func LoadSchema(name, sdl string) (*SchemaResolver, error) {
	schema, err := gqlparser.LoadSchema(
		&ast.Source{Name: "builtin.graphql", Input: builtinDecls, BuiltIn: true},
		&ast.Source{Name: name, Input: sdl},
	)
	if err != nil {
		return nil, err
	}
	return NewSchemaResolver(schema), nil
}

// NewSchemaResolver wraps an already-built schema.
func NewSchemaResolver(schema *ast.Schema) *SchemaResolver {
	return &SchemaResolver{schema: schema}
}

func (r *SchemaResolver) RootType(op language.OperationType) (string, error) {
	var def *ast.Definition
	switch op {
	case language.Query:
		def = r.schema.Query
	case language.Mutation:
		def = r.schema.Mutation
	case language.Subscription:
		def = r.schema.Subscription
	}
	if def == nil {
		return "", &UnknownFieldError{ParentType: string(op)}
	}
	return def.Name, nil
}

func (r *SchemaResolver) ResolveField(parentType, fieldName string) (FieldMetadata, error) {
	parent, ok := r.schema.Types[parentType]
	if !ok {
		return FieldMetadata{}, &UnknownFieldError{ParentType: parentType}
	}

	if meta, ok := r.metaField(parent, fieldName); ok {
		return meta, nil
	}

	def := parent.Fields.ForName(fieldName)
	if def == nil {
		return FieldMetadata{}, &UnknownFieldError{ParentType: parentType, Field: fieldName}
	}

	typ := typeRefFromAST(def.Type)
	composite := r.isComposite(typ.NamedTypeName())
	serial := def.Directives.ForName("serial") != nil
	if r.schema.Mutation != nil && parentType == r.schema.Mutation.Name {
		serial = true
	}
	return FieldMetadata{
		Type:       typ,
		Serial:     serial,
		Composite:  composite,
		Streamable: typ.IsList(),
		// Serial fields have side effects and must stay in the main
		// plan; everything else may move into a deferred fragment.
		Deferrable: !serial,
	}, nil
}

// metaField serves the introspection meta-fields. __typename is valid
// on every composite type; __schema and __type only at the query root.
func (r *SchemaResolver) metaField(parent *ast.Definition, fieldName string) (FieldMetadata, bool) {
	switch fieldName {
	case "__typename":
		return FieldMetadata{Type: NonNullType(NamedType("String")), Deferrable: true}, true
	case "__schema":
		if r.schema.Query != nil && parent.Name == r.schema.Query.Name {
			return FieldMetadata{
				Type:       NonNullType(NamedType("__Schema")),
				Composite:  true,
				Deferrable: true,
			}, true
		}
	case "__type":
		if r.schema.Query != nil && parent.Name == r.schema.Query.Name {
			return FieldMetadata{
				Type:       NamedType("__Type"),
				Composite:  true,
				Deferrable: true,
			}, true
		}
	}
	return FieldMetadata{}, false
}

func (r *SchemaResolver) isComposite(name string) bool {
	def, ok := r.schema.Types[name]
	if !ok {
		return false
	}
	switch def.Kind {
	case ast.Object, ast.Interface, ast.Union:
		return true
	}
	return false
}

func typeRefFromAST(t *ast.Type) *TypeRef {
	if t == nil {
		return nil
	}
	var ref *TypeRef
	if t.NamedType != "" {
		ref = NamedType(t.NamedType)
	} else {
		ref = ListType(typeRefFromAST(t.Elem))
	}
	if t.NonNull {
		ref = NonNullType(ref)
	}
	return ref
}
