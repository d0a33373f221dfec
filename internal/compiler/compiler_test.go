package compiler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	eventbus "github.com/daviddesmet/hotchocolate/internal/eventbus"
	events "github.com/daviddesmet/hotchocolate/internal/events"
	language "github.com/daviddesmet/hotchocolate/internal/language"
	metadata "github.com/daviddesmet/hotchocolate/internal/metadata"
	operation "github.com/daviddesmet/hotchocolate/internal/operation"
	planner "github.com/daviddesmet/hotchocolate/internal/planner"
)

const compilerSDL = `
type Query {
  hero: Character
  version: String!
}

type Character {
  id: ID!
  name: String
}
`

func newTestCompiler(t *testing.T, opts Options) *Compiler {
	t.Helper()
	resolver, err := metadata.LoadSchema("compiler.graphql", compilerSDL)
	require.NoError(t, err)
	return New(resolver, opts)
}

func TestCompile(t *testing.T) {
	c := newTestCompiler(t, Options{})

	plan, err := c.Compile(context.Background(), `{ hero { id name } version }`, "")
	require.NoError(t, err)
	require.Equal(t, language.Query, plan.Operation.Operation)
	require.Equal(t, "Query", plan.Operation.RootType)
	require.NotNil(t, plan.Operation.Child)
}

func TestCompileCacheReturnsSharedPlan(t *testing.T) {
	c := newTestCompiler(t, Options{})

	first, err := c.Compile(context.Background(), `{ version }`, "")
	require.NoError(t, err)
	second, err := c.Compile(context.Background(), `{ version }`, "")
	require.NoError(t, err)
	require.Same(t, first, second)
}

func TestCompileCacheIgnoresFormatting(t *testing.T) {
	c := newTestCompiler(t, Options{})

	first, err := c.Compile(context.Background(), `{ hero { id } }`, "")
	require.NoError(t, err)
	second, err := c.Compile(context.Background(), "{\n  hero {\n    id,\n  }\n}\n", "")
	require.NoError(t, err)
	require.Same(t, first, second)
}

func TestCompileCacheKeyedByOperationName(t *testing.T) {
	c := newTestCompiler(t, Options{})
	const source = `query A { version } query B { hero { id } }`

	a, err := c.Compile(context.Background(), source, "A")
	require.NoError(t, err)
	b, err := c.Compile(context.Background(), source, "B")
	require.NoError(t, err)
	require.NotSame(t, a, b)
	require.Equal(t, "A", a.Operation.Name)
	require.Equal(t, "B", b.Operation.Name)
}

func TestCompileWithCacheDisabled(t *testing.T) {
	c := newTestCompiler(t, Options{DisableCache: true})

	first, err := c.Compile(context.Background(), `{ version }`, "")
	require.NoError(t, err)
	second, err := c.Compile(context.Background(), `{ version }`, "")
	require.NoError(t, err)
	require.NotSame(t, first, second)
}

func TestCompileSyntaxError(t *testing.T) {
	c := newTestCompiler(t, Options{})

	_, err := c.Compile(context.Background(), `{ hero { id }`, "")
	var serr *language.SyntaxError
	require.ErrorAs(t, err, &serr)
}

func TestCompileUnknownOperation(t *testing.T) {
	c := newTestCompiler(t, Options{})

	_, err := c.Compile(context.Background(), `query A { version }`, "Missing")
	var notFound *operation.OperationNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestCompilePlanError(t *testing.T) {
	c := newTestCompiler(t, Options{})

	_, err := c.Compile(context.Background(), `{ hero { midichlorians } }`, "")
	var perr *planner.PlanError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, planner.Path{"hero", "midichlorians"}, perr.Path)
}

func TestCompilePublishesEvents(t *testing.T) {
	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(nil) })

	var parses []events.ParseFinish
	var plans []events.PlanFinish
	defer eventbus.Subscribe(func(_ context.Context, e events.ParseFinish) { parses = append(parses, e) })()
	defer eventbus.Subscribe(func(_ context.Context, e events.PlanFinish) { plans = append(plans, e) })()

	c := newTestCompiler(t, Options{})
	_, err := c.Compile(context.Background(), `{ version }`, "")
	require.NoError(t, err)
	_, err = c.Compile(context.Background(), `{ version }`, "")
	require.NoError(t, err)

	require.Len(t, parses, 2)
	require.NoError(t, parses[0].Err)

	require.Len(t, plans, 2)
	require.False(t, plans[0].CacheHit)
	require.True(t, plans[1].CacheHit)
	require.Equal(t, "query", plans[0].OperationType)
}
