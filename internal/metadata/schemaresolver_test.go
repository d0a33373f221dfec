package metadata

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	language "github.com/daviddesmet/hotchocolate/internal/language"
)

const testSDL = `
type Query {
  hero: Character
  heroes: [Character!]!
  name: String!
  matrix: [[Int!]]
  audit: String @serial
}

type Mutation {
  save(name: String!): Character
}

type Subscription {
  heroChanged: Character!
}

interface Node { id: ID! }

type Character implements Node {
  id: ID!
  name: String
  friends: [Character]
}

union SearchResult = Character
`

func loadTestSchema(t *testing.T) *SchemaResolver {
	t.Helper()
	resolver, err := LoadSchema("test.graphql", testSDL)
	require.NoError(t, err)
	return resolver
}

func TestRootTypes(t *testing.T) {
	r := loadTestSchema(t)

	for op, want := range map[language.OperationType]string{
		language.Query:        "Query",
		language.Mutation:     "Mutation",
		language.Subscription: "Subscription",
	} {
		got, err := r.RootType(op)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestRootTypeMissing(t *testing.T) {
	resolver, err := LoadSchema("q.graphql", `type Query { x: Int }`)
	require.NoError(t, err)

	_, err = resolver.RootType(language.Subscription)
	var unknown *UnknownFieldError
	require.ErrorAs(t, err, &unknown)
}

func TestResolveLeafField(t *testing.T) {
	r := loadTestSchema(t)

	meta, err := r.ResolveField("Query", "name")
	require.NoError(t, err)
	require.False(t, meta.Composite)
	require.False(t, meta.Serial)
	require.False(t, meta.Streamable)
	require.True(t, meta.Deferrable)
	require.Equal(t, "String!", meta.Type.String())
}

func TestResolveCompositeField(t *testing.T) {
	r := loadTestSchema(t)

	meta, err := r.ResolveField("Query", "hero")
	require.NoError(t, err)
	require.True(t, meta.Composite)
	require.Equal(t, "Character", meta.Type.NamedTypeName())

	meta, err = r.ResolveField("Character", "friends")
	require.NoError(t, err)
	require.True(t, meta.Composite)
	require.True(t, meta.Streamable)
}

func TestResolveListFieldIsStreamable(t *testing.T) {
	r := loadTestSchema(t)

	meta, err := r.ResolveField("Query", "heroes")
	require.NoError(t, err)
	require.True(t, meta.Streamable)
	require.Equal(t, "[Character!]!", meta.Type.String())
	require.Equal(t, 1, meta.Type.ListDepth())
}

func TestSerialViaDirective(t *testing.T) {
	r := loadTestSchema(t)

	meta, err := r.ResolveField("Query", "audit")
	require.NoError(t, err)
	require.True(t, meta.Serial)
	require.False(t, meta.Deferrable)
}

func TestMutationRootFieldsAreSerial(t *testing.T) {
	r := loadTestSchema(t)

	meta, err := r.ResolveField("Mutation", "save")
	require.NoError(t, err)
	require.True(t, meta.Serial)
	require.False(t, meta.Deferrable)
}

func TestResolveUnknownField(t *testing.T) {
	r := loadTestSchema(t)

	_, err := r.ResolveField("Character", "midichlorians")
	var unknown *UnknownFieldError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, "Character", unknown.ParentType)
	require.Equal(t, "midichlorians", unknown.Field)

	_, err = r.ResolveField("Nope", "x")
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, "Nope", unknown.ParentType)
	require.Empty(t, unknown.Field)
}

func TestTypenameOnEveryType(t *testing.T) {
	r := loadTestSchema(t)

	for _, parent := range []string{"Query", "Character", "Mutation"} {
		meta, err := r.ResolveField(parent, "__typename")
		require.NoError(t, err)
		require.False(t, meta.Composite)
		require.True(t, meta.Deferrable)
		require.Equal(t, "String!", meta.Type.String())
	}
}

func TestSchemaIntrospectionOnlyAtQueryRoot(t *testing.T) {
	r := loadTestSchema(t)

	meta, err := r.ResolveField("Query", "__schema")
	require.NoError(t, err)
	require.True(t, meta.Composite)

	_, err = r.ResolveField("Character", "__schema")
	var unknown *UnknownFieldError
	require.ErrorAs(t, err, &unknown)
}

func TestTypeRefFromAST(t *testing.T) {
	r := loadTestSchema(t)

	meta, err := r.ResolveField("Query", "matrix")
	require.NoError(t, err)

	want := ListType(ListType(NonNullType(NamedType("Int"))))
	if diff := cmp.Diff(want, meta.Type); diff != "" {
		t.Fatalf("type ref mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 2, meta.Type.ListDepth())
	require.Equal(t, "Int", meta.Type.NamedTypeName())
	require.Equal(t, "[[Int!]]", meta.Type.String())
	require.False(t, meta.Type.IsNonNull())
	require.True(t, meta.Type.IsList())
}

func TestTypeRefUnwrap(t *testing.T) {
	ref := NonNullType(ListType(NamedType("Int")))
	require.True(t, ref.IsNonNull())
	require.True(t, ref.IsList())
	require.Equal(t, TypeRefKindList, ref.Unwrap().Kind)
	require.Equal(t, "Int", ref.Unwrap().Unwrap().Named)
}
