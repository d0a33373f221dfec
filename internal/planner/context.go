package planner

import (
	language "github.com/daviddesmet/hotchocolate/internal/language"
	metadata "github.com/daviddesmet/hotchocolate/internal/metadata"
	operation "github.com/daviddesmet/hotchocolate/internal/operation"
)

// buildContext is the mutable working state of one plan construction.
// It is single-use and never shared: every compilation, including every
// branch, owns its own instance. Once the plan is finalized the context
// is discarded.
type buildContext struct {
	prepared *operation.PreparedOperation
	meta     metadata.Resolver

	// nodePath is the stack of plan nodes under construction and
	// selections the stack of AST selections being walked; the two move
	// in lockstep during the depth-first build.
	nodePath   []Node
	selections []language.Selection

	// path is the response path of the selection currently walked.
	path Path

	// deferred collects fragments discovered to carry @defer; they are
	// compiled after the main tree, each via a branched context.
	deferred []*deferredFragment

	// streams maps allocated stream ids to their nodes.
	streams map[int]*StreamNode

	// nextStreamID is shared with every branch so ids stay unique and
	// follow path-encounter order across the whole plan.
	nextStreamID *int

	// inDefer marks a branched context compiling a deferred fragment.
	inDefer bool
}

// deferredFragment is a fragment taken out of the main plan, waiting to
// be compiled into a DeferNode.
type deferredFragment struct {
	label         string
	cond          *Condition // variable `if`, nil when unconditional
	typeCondition string     // parent type for the fragment's fields
	selections    language.SelectionSet
	conds         []Condition // skip/include conditions inherited at the spread site
	path          Path        // response path of the fragment's placement
}

func newBuildContext(prepared *operation.PreparedOperation, meta metadata.Resolver) *buildContext {
	id := 0
	return &buildContext{
		prepared:     prepared,
		meta:         meta,
		streams:      map[int]*StreamNode{},
		nextStreamID: &id,
	}
}

// branch creates a context for an independent sub-plan (a deferred
// fragment). It shares the prepared operation, metadata resolver and
// stream-id allocator but starts with empty stacks and collections, so
// the sub-plan cannot see the parent's in-progress path.
func (c *buildContext) branch(at Path) *buildContext {
	return &buildContext{
		prepared:     c.prepared,
		meta:         c.meta,
		path:         at,
		streams:      map[int]*StreamNode{},
		nextStreamID: c.nextStreamID,
	}
}

func (c *buildContext) allocStreamID() int {
	id := *c.nextStreamID
	*c.nextStreamID++
	return id
}

// enter pushes one step of the synchronized walk: the node being built,
// the selection producing it, and its response-path element.
func (c *buildContext) enter(node Node, sel language.Selection, elem PathElement) {
	c.nodePath = append(c.nodePath, node)
	c.selections = append(c.selections, sel)
	c.path = c.path.Append(elem)
}

func (c *buildContext) leave() {
	c.nodePath = c.nodePath[:len(c.nodePath)-1]
	c.selections = c.selections[:len(c.selections)-1]
	c.path = c.path[:len(c.path)-1]
}

func (c *buildContext) errorAt(err error) error {
	return &PlanError{Path: append(Path{}, c.path...), Err: err}
}
