package planner

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	language "github.com/daviddesmet/hotchocolate/internal/language"
	metadata "github.com/daviddesmet/hotchocolate/internal/metadata"
	operation "github.com/daviddesmet/hotchocolate/internal/operation"
)

const plannerSDL = `
type Query {
  a: String
  b: String
  c: String
  user: User
  items: [Item!]!
  serialA: String @serial
  serialB: String @serial
}

type Mutation {
  m1: String
  m2: String
}

type Subscription {
  onA: String
  onB: String
  userChanged: User
}

type User {
  id: ID!
  name: String
  friends: [User]
}

type Item {
  id: ID!
  name: String
}
`

func testResolver(t *testing.T) metadata.Resolver {
	t.Helper()
	r, err := metadata.LoadSchema("planner.graphql", plannerSDL)
	require.NoError(t, err)
	return r
}

func prepare(t *testing.T, query, operationName string) *operation.PreparedOperation {
	t.Helper()
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	prepared, err := operation.Resolve(doc, operationName)
	require.NoError(t, err)
	return prepared
}

func buildPlan(t *testing.T, query string) *QueryPlan {
	t.Helper()
	plan, err := Build(prepare(t, query, ""), testResolver(t))
	require.NoError(t, err)
	return plan
}

func buildErr(t *testing.T, query string) error {
	t.Helper()
	_, err := Build(prepare(t, query, ""), testResolver(t))
	require.Error(t, err)
	return err
}

func responseNames(t *testing.T, nodes []Node) []string {
	t.Helper()
	out := make([]string, len(nodes))
	for i, n := range nodes {
		switch v := n.(type) {
		case *ResolverNode:
			out[i] = v.ResponseName
		case *CompositeNode:
			out[i] = v.ResponseName
		case *StreamNode:
			out[i] = v.ResponseName
		default:
			t.Fatalf("node %d is a %s, not a field node", i, n.Kind())
		}
	}
	return out
}

func TestBuildParallelOnlySelection(t *testing.T) {
	plan := buildPlan(t, `{ a b c }`)
	require.Equal(t, language.Query, plan.Operation.Operation)
	require.Equal(t, "Query", plan.Operation.RootType)

	par, ok := plan.Operation.Child.(*ParallelNode)
	require.True(t, ok)
	require.Equal(t, []string{"a", "b", "c"}, responseNames(t, par.Nodes))

	first := par.Nodes[0].(*ResolverNode)
	require.Equal(t, Path{"a"}, first.Path)
	require.Equal(t, "String", first.Type.NamedTypeName())
	require.False(t, first.Serial)
}

func TestBuildMutationRootIsSerial(t *testing.T) {
	plan := buildPlan(t, `mutation { m1 m2 }`)
	require.Equal(t, language.Mutation, plan.Operation.Operation)

	ser, ok := plan.Operation.Child.(*SerialNode)
	require.True(t, ok)
	require.Equal(t, []string{"m1", "m2"}, responseNames(t, ser.Nodes))
	require.True(t, ser.Nodes[0].(*ResolverNode).Serial)
}

func TestBuildMixedSelectionShape(t *testing.T) {
	// Serial fields keep their declared order; the parallel group runs
	// after them as the last child of the serial node.
	plan := buildPlan(t, `{ serialA a b serialB }`)

	ser, ok := plan.Operation.Child.(*SerialNode)
	require.True(t, ok)
	require.Len(t, ser.Nodes, 3)
	require.Equal(t, []string{"serialA", "serialB"}, responseNames(t, ser.Nodes[:2]))

	par, ok := ser.Nodes[2].(*ParallelNode)
	require.True(t, ok)
	require.Equal(t, []string{"a", "b"}, responseNames(t, par.Nodes))
}

func TestBuildCompositeField(t *testing.T) {
	plan := buildPlan(t, `{ user { id name } }`)

	par := plan.Operation.Child.(*ParallelNode)
	comp, ok := par.Nodes[0].(*CompositeNode)
	require.True(t, ok)
	require.Equal(t, "user", comp.ResponseName)
	require.Equal(t, "User", comp.Type.NamedTypeName())

	child := comp.Child.(*ParallelNode)
	require.Equal(t, []string{"id", "name"}, responseNames(t, child.Nodes))
	require.Equal(t, Path{"user", "id"}, child.Nodes[0].(*ResolverNode).Path)
	require.Equal(t, "User", child.Nodes[0].(*ResolverNode).ParentType)
}

func TestBuildFragmentsFlattenInSourceOrder(t *testing.T) {
	plan := buildPlan(t, `
		{ a ...rest ... on Query { c } }
		fragment rest on Query { b }
	`)
	par := plan.Operation.Child.(*ParallelNode)
	require.Equal(t, []string{"a", "b", "c"}, responseNames(t, par.Nodes))
}

func TestBuildFragmentTypeConditionReparents(t *testing.T) {
	plan := buildPlan(t, `
		{ user { ...userFields } }
		fragment userFields on User { id }
	`)
	comp := plan.Operation.Child.(*ParallelNode).Nodes[0].(*CompositeNode)
	id := comp.Child.(*ParallelNode).Nodes[0].(*ResolverNode)
	require.Equal(t, "User", id.ParentType)
}

func TestBuildConstantSkipInclude(t *testing.T) {
	plan := buildPlan(t, `{ a @skip(if: true) b @include(if: false) c }`)
	par := plan.Operation.Child.(*ParallelNode)
	require.Equal(t, []string{"c"}, responseNames(t, par.Nodes))
	require.Empty(t, par.Nodes[0].(*ResolverNode).Conditions)
}

func TestBuildAllSelectionsSkippedYieldsNoChild(t *testing.T) {
	plan := buildPlan(t, `{ a @skip(if: true) }`)
	require.Nil(t, plan.Operation.Child)
}

func TestBuildVariableConditions(t *testing.T) {
	plan := buildPlan(t, `query Q($s: Boolean!, $i: Boolean!) { a @skip(if: $s) @include(if: $i) }`)
	rn := plan.Operation.Child.(*ParallelNode).Nodes[0].(*ResolverNode)
	want := []Condition{
		{Variable: "s", Negated: true},
		{Variable: "i"},
	}
	if diff := cmp.Diff(want, rn.Conditions); diff != "" {
		t.Fatalf("conditions mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildFragmentConditionsInherit(t *testing.T) {
	plan := buildPlan(t, `query Q($v: Boolean!) { ... on Query @include(if: $v) { a } }`)
	rn := plan.Operation.Child.(*ParallelNode).Nodes[0].(*ResolverNode)
	require.Equal(t, []Condition{{Variable: "v"}}, rn.Conditions)
}

func TestBuildDefer(t *testing.T) {
	plan := buildPlan(t, `{ a ... @defer(label: "rest") { b } }`)

	// The deferred field stays out of the main plan.
	par := plan.Operation.Child.(*ParallelNode)
	require.Equal(t, []string{"a"}, responseNames(t, par.Nodes))

	require.Len(t, plan.Deferred, 1)
	d := plan.Deferred[0]
	require.Equal(t, "rest", d.Label)
	require.Empty(t, d.Path)
	require.Nil(t, d.If)
	require.Equal(t, []string{"b"}, responseNames(t, d.Child.(*ParallelNode).Nodes))
}

func TestBuildDeferConstantFalseInlines(t *testing.T) {
	plan := buildPlan(t, `{ a ... @defer(if: false) { b } }`)
	par := plan.Operation.Child.(*ParallelNode)
	require.Equal(t, []string{"a", "b"}, responseNames(t, par.Nodes))
	require.Empty(t, plan.Deferred)
}

func TestBuildDeferVariableCondition(t *testing.T) {
	plan := buildPlan(t, `query Q($v: Boolean!) { a ... @defer(if: $v) { b } }`)
	require.Len(t, plan.Deferred, 1)
	require.Equal(t, &Condition{Variable: "v"}, plan.Deferred[0].If)
}

func TestBuildNestedDefers(t *testing.T) {
	plan := buildPlan(t, `
		{ a ... @defer(label: "outer") { user { id ... @defer(label: "inner") { name } } } }
	`)
	require.Len(t, plan.Deferred, 2)

	outer := plan.Deferred[0]
	require.Equal(t, "outer", outer.Label)
	require.Empty(t, outer.Path)

	inner := plan.Deferred[1]
	require.Equal(t, "inner", inner.Label)
	require.Equal(t, Path{"user"}, inner.Path)
	require.Equal(t, []string{"name"}, responseNames(t, inner.Child.(*ParallelNode).Nodes))

	// The inner field must not leak into the outer deferred sub-plan.
	user := outer.Child.(*ParallelNode).Nodes[0].(*CompositeNode)
	require.Equal(t, []string{"id"}, responseNames(t, user.Child.(*ParallelNode).Nodes))
}

func TestBuildSerialFieldInsideDeferFails(t *testing.T) {
	err := buildErr(t, `{ a ... @defer { serialA } }`)
	require.Contains(t, err.Error(), "deferred fragment")
}

func TestBuildStream(t *testing.T) {
	plan := buildPlan(t, `{ items @stream(initialCount: 2, label: "it") { id } }`)

	par := plan.Operation.Child.(*ParallelNode)
	sn, ok := par.Nodes[0].(*StreamNode)
	require.True(t, ok)
	require.Equal(t, 0, sn.ID)
	require.Equal(t, "it", sn.Label)
	require.Equal(t, 2, sn.InitialCount)
	require.Nil(t, sn.If)
	require.Equal(t, []string{"id"}, responseNames(t, sn.Child.(*ParallelNode).Nodes))

	require.Len(t, plan.Streams, 1)
	require.Same(t, sn, plan.Streams[0])
}

func TestBuildStreamConstantFalseResolvesEagerly(t *testing.T) {
	plan := buildPlan(t, `{ items @stream(if: false) { id } }`)
	_, ok := plan.Operation.Child.(*ParallelNode).Nodes[0].(*CompositeNode)
	require.True(t, ok)
	require.Empty(t, plan.Streams)
}

func TestBuildStreamOnNonListFails(t *testing.T) {
	err := buildErr(t, `{ a @stream }`)
	require.Contains(t, err.Error(), "not streamable")
}

func TestBuildStreamInsideDeferSharesIDSpace(t *testing.T) {
	plan := buildPlan(t, `
		{
			items @stream { id }
			... @defer { user { friends @stream { id } } }
		}
	`)
	require.Len(t, plan.Streams, 2)
	require.Equal(t, "items", plan.Streams[0].ResponseName)
	require.Equal(t, "friends", plan.Streams[1].ResponseName)
	require.Equal(t, Path{"user", "friends"}, plan.Streams[1].Path)
}

func TestBuildIsDeterministic(t *testing.T) {
	const query = `
		{
			serialA
			user { id friends @stream(initialCount: 1) { name } }
			... @defer(label: "later") { b items @stream { id } }
		}
	`
	prepared := prepare(t, query, "")
	meta := testResolver(t)

	first, err := Build(prepared, meta)
	require.NoError(t, err)
	second, err := Build(prepared, meta)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("rebuild produced a different plan (-first +second):\n%s", diff)
	}
}

func TestBuildSubscription(t *testing.T) {
	plan := buildPlan(t, `subscription { userChanged { id name } }`)

	sub, ok := plan.Operation.Child.(*SubscriptionNode)
	require.True(t, ok)
	require.Equal(t, "userChanged", sub.ResponseName)
	require.Equal(t, []string{"id", "name"}, responseNames(t, sub.Child.(*ParallelNode).Nodes))
}

func TestBuildSubscriptionLeafField(t *testing.T) {
	plan := buildPlan(t, `subscription { onA }`)
	sub := plan.Operation.Child.(*SubscriptionNode)
	require.Equal(t, "onA", sub.ResponseName)
	require.Nil(t, sub.Child)
}

func TestBuildSubscriptionMultipleRootFieldsFails(t *testing.T) {
	err := buildErr(t, `subscription { onA onB }`)
	var invalid *InvalidSubscriptionSelectionError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, 2, invalid.Count)
}

func TestBuildSubscriptionConditionalRootFails(t *testing.T) {
	err := buildErr(t, `subscription S($v: Boolean!) { onA @include(if: $v) }`)
	var invalid *InvalidSubscriptionSelectionError
	require.ErrorAs(t, err, &invalid)
	require.Contains(t, invalid.Error(), "unconditional")
}

func TestBuildSubscriptionDeferredRootFails(t *testing.T) {
	err := buildErr(t, `subscription { ... @defer { onA } }`)
	var invalid *InvalidSubscriptionSelectionError
	require.ErrorAs(t, err, &invalid)
}

func TestBuildUnknownFieldCarriesPath(t *testing.T) {
	err := buildErr(t, `{ user { nope } }`)

	var perr *PlanError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, Path{"user", "nope"}, perr.Path)

	var unknown *metadata.UnknownFieldError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, "User", unknown.ParentType)
	require.Equal(t, "nope", unknown.Field)
}

func TestBuildCompositeWithoutSelectionFails(t *testing.T) {
	err := buildErr(t, `{ user }`)
	require.Contains(t, err.Error(), "requires a selection set")
}

func TestBuildLeafWithSelectionFails(t *testing.T) {
	err := buildErr(t, `{ a { b } }`)
	require.Contains(t, err.Error(), "cannot have a selection set")
}

func TestBuildNullabilityDepth(t *testing.T) {
	// Brackets within the type's list nesting pass.
	plan := buildPlan(t, `{ items[!]! { id } }`)
	require.NotNil(t, plan.Operation.Child)

	// Deeper bracket nesting than the type allows fails.
	err := buildErr(t, `{ a[] }`)
	require.Contains(t, err.Error(), "nullability modifier")
}
