package planner

import (
	"fmt"
	"strconv"

	language "github.com/daviddesmet/hotchocolate/internal/language"
	metadata "github.com/daviddesmet/hotchocolate/internal/metadata"
	operation "github.com/daviddesmet/hotchocolate/internal/operation"
)

// Build compiles a prepared operation against the metadata resolver
// into a query plan. Construction is all-or-nothing: any metadata miss
// or malformed directive aborts with an error carrying the response
// path; no selection is ever silently dropped.
//
// Building is deterministic: the same prepared operation always yields
// a structurally identical plan, including stream-id allocation order.
func Build(prepared *operation.PreparedOperation, meta metadata.Resolver) (*QueryPlan, error) {
	ctx := newBuildContext(prepared, meta)
	op := prepared.Operation

	rootType, err := meta.RootType(op.Operation)
	if err != nil {
		return nil, &PlanError{Err: err}
	}

	var child Node
	if op.Operation == language.Subscription {
		child, err = buildSubscription(ctx, rootType, op.SelectionSet)
	} else {
		child, err = buildSelectionSet(ctx, rootType, op.SelectionSet)
	}
	if err != nil {
		return nil, err
	}

	plan := &QueryPlan{
		Operation: &OperationNode{
			Operation: op.Operation,
			Name:      op.Name,
			RootType:  rootType,
			Child:     child,
		},
		Streams: ctx.streams,
	}
	if err := finalizeDeferred(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// collected is one field reaching a selection set after fragment
// flattening, with the parent type it resolves against and the
// variable conditions inherited from enclosing fragments.
type collected struct {
	field      *language.Field
	parentType string
	conds      []Condition
}

// collectFields flattens a selection set in source order: fragment
// spreads and inline fragments are walked through (their type
// condition re-parents the contained fields), constant @skip/@include
// drop selections immediately, and fragments carrying an active @defer
// are recorded on the context instead of contributing fields.
func collectFields(ctx *buildContext, parentType string, set language.SelectionSet, conds []Condition, out []collected) ([]collected, error) {
	for _, sel := range set {
		selConds, include, err := selectionConditions(sel.GetDirectives(), conds)
		if err != nil {
			return nil, ctx.errorAt(err)
		}
		if !include {
			continue
		}

		switch s := sel.(type) {
		case *language.Field:
			out = append(out, collected{field: s, parentType: parentType, conds: selConds})

		case *language.InlineFragment:
			condType := parentType
			if s.TypeCondition != "" {
				condType = s.TypeCondition
			}
			deferred, err := deferFragment(ctx, s.Directives, condType, s.SelectionSet, selConds)
			if err != nil {
				return nil, err
			}
			if deferred {
				continue
			}
			out, err = collectFields(ctx, condType, s.SelectionSet, selConds, out)
			if err != nil {
				return nil, err
			}

		case *language.FragmentSpread:
			frag := ctx.prepared.Fragment(s.Name)
			if frag == nil {
				return nil, ctx.errorAt(&operation.FragmentNotFoundError{Name: s.Name, Loc: s.Loc})
			}
			deferred, err := deferFragment(ctx, s.Directives, frag.TypeCondition, frag.SelectionSet, selConds)
			if err != nil {
				return nil, err
			}
			if deferred {
				continue
			}
			out, err = collectFields(ctx, frag.TypeCondition, frag.SelectionSet, selConds, out)
			if err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// deferFragment records the fragment as deferred when it carries an
// active @defer, returning true so the caller leaves its fields out of
// the main plan. A constant `if: false` deactivates the directive and
// the fragment is inlined as usual.
func deferFragment(ctx *buildContext, directives language.DirectiveList, typeCondition string, set language.SelectionSet, conds []Condition) (bool, error) {
	dir := directives.ForName("defer")
	if dir == nil {
		return false, nil
	}
	label, err := labelArg(dir)
	if err != nil {
		return false, ctx.errorAt(err)
	}
	active, cond, err := ifArg(dir)
	if err != nil {
		return false, ctx.errorAt(err)
	}
	if !active {
		return false, nil
	}
	ctx.deferred = append(ctx.deferred, &deferredFragment{
		label:         label,
		cond:          cond,
		typeCondition: typeCondition,
		selections:    set,
		conds:         conds,
		path:          append(Path{}, ctx.path...),
	})
	return true, nil
}

// buildSelectionSet compiles one level of selections into the plan node
// for its composite. Serial fields form a Serial node in declared
// order, the rest a Parallel node; when both kinds are present the
// Parallel group becomes the last child of the Serial node.
func buildSelectionSet(ctx *buildContext, parentType string, set language.SelectionSet) (Node, error) {
	return buildSelections(ctx, parentType, set, nil)
}

func buildSelections(ctx *buildContext, parentType string, set language.SelectionSet, inherited []Condition) (Node, error) {
	cols, err := collectFields(ctx, parentType, set, inherited, nil)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		// Everything was deferred or statically skipped.
		return nil, nil
	}

	var serial, parallel []Node
	for _, col := range cols {
		node, err := buildField(ctx, col)
		if err != nil {
			return nil, err
		}
		if nodeSerial(node) {
			serial = append(serial, node)
		} else {
			parallel = append(parallel, node)
		}
	}

	switch {
	case len(parallel) == 0:
		return &SerialNode{Nodes: serial}, nil
	case len(serial) == 0:
		return &ParallelNode{Nodes: parallel}, nil
	default:
		return &SerialNode{Nodes: append(serial, &ParallelNode{Nodes: parallel})}, nil
	}
}

func nodeSerial(n Node) bool {
	switch v := n.(type) {
	case *ResolverNode:
		return v.Serial
	case *CompositeNode:
		return v.Serial
	case *StreamNode:
		return v.Serial
	}
	return false
}

// buildField compiles one collected field into its plan node: a Stream
// node for actively streamed list fields, a Composite node for object
// fields, a Resolver node for leaves.
func buildField(ctx *buildContext, col collected) (Node, error) {
	f := col.field
	rn := ResolverNode{
		ResponseName: f.ResponseName(),
		FieldName:    f.Name,
		ParentType:   col.parentType,
		Conditions:   col.conds,
		Selection:    f,
	}
	ctx.enter(&rn, f, rn.ResponseName)
	defer ctx.leave()
	rn.Path = append(Path{}, ctx.path...)

	meta, err := ctx.meta.ResolveField(col.parentType, f.Name)
	if err != nil {
		return nil, ctx.errorAt(err)
	}
	rn.Type = meta.Type
	rn.Serial = meta.Serial

	if f.Nullability != nil {
		if err := checkNullability(f.Nullability, meta.Type); err != nil {
			return nil, ctx.errorAt(err)
		}
	}
	if ctx.inDefer && !meta.Deferrable {
		return nil, ctx.errorAt(fmt.Errorf("field %q on %q cannot execute inside a deferred fragment", f.Name, col.parentType))
	}
	if meta.Composite && len(f.SelectionSet) == 0 {
		return nil, ctx.errorAt(fmt.Errorf("field %q of composite type %s requires a selection set", f.Name, meta.Type))
	}
	if !meta.Composite && len(f.SelectionSet) > 0 {
		return nil, ctx.errorAt(fmt.Errorf("field %q of leaf type %s cannot have a selection set", f.Name, meta.Type))
	}

	if dir := f.Directives.ForName("stream"); dir != nil {
		streaming, node, err := buildStream(ctx, rn, meta, dir)
		if err != nil {
			return nil, err
		}
		if streaming {
			return node, nil
		}
	}

	if meta.Composite {
		child, err := buildSelectionSet(ctx, meta.Type.NamedTypeName(), f.SelectionSet)
		if err != nil {
			return nil, err
		}
		return &CompositeNode{ResolverNode: rn, Child: child}, nil
	}
	return &rn, nil
}

// buildStream turns a field carrying an active @stream into a Stream
// node registered under a freshly allocated id. Ids are handed out in
// path-encounter order, which keeps them stable across rebuilds of the
// same operation text. A constant `if: false` falls back to eager
// resolution and no node is registered.
func buildStream(ctx *buildContext, rn ResolverNode, meta metadata.FieldMetadata, dir *language.Directive) (bool, Node, error) {
	active, cond, err := ifArg(dir)
	if err != nil {
		return false, nil, ctx.errorAt(err)
	}
	if !active {
		return false, nil, nil
	}
	if !meta.Streamable {
		return false, nil, ctx.errorAt(fmt.Errorf("field %q of type %s is not streamable", rn.FieldName, meta.Type))
	}
	label, err := labelArg(dir)
	if err != nil {
		return false, nil, ctx.errorAt(err)
	}
	initial, err := initialCountArg(dir)
	if err != nil {
		return false, nil, ctx.errorAt(err)
	}

	sn := &StreamNode{
		ResolverNode: rn,
		ID:           ctx.allocStreamID(),
		Label:        label,
		InitialCount: initial,
		If:           cond,
	}
	if meta.Composite {
		child, err := buildSelectionSet(ctx, meta.Type.NamedTypeName(), rn.Selection.SelectionSet)
		if err != nil {
			return false, nil, err
		}
		sn.Child = child
	}
	ctx.streams[sn.ID] = sn
	return true, sn, nil
}

// buildSubscription compiles the subscription root: exactly one
// unconditional, non-deferred, non-streamed root field, wrapped in a
// Subscription node.
func buildSubscription(ctx *buildContext, rootType string, set language.SelectionSet) (Node, error) {
	cols, err := collectFields(ctx, rootType, set, nil, nil)
	if err != nil {
		return nil, err
	}
	if len(ctx.deferred) > 0 {
		return nil, &InvalidSubscriptionSelectionError{Reason: "deferred fragments are not allowed on the subscription root"}
	}
	if len(cols) != 1 {
		return nil, &InvalidSubscriptionSelectionError{Count: len(cols)}
	}
	if len(cols[0].conds) > 0 {
		return nil, &InvalidSubscriptionSelectionError{Reason: "the subscription root field must be unconditional"}
	}

	node, err := buildField(ctx, cols[0])
	if err != nil {
		return nil, err
	}
	switch n := node.(type) {
	case *ResolverNode:
		return &SubscriptionNode{ResolverNode: *n}, nil
	case *CompositeNode:
		return &SubscriptionNode{ResolverNode: n.ResolverNode, Child: n.Child}, nil
	case *StreamNode:
		return nil, &InvalidSubscriptionSelectionError{Reason: "the subscription root field cannot be streamed"}
	default:
		return nil, &InvalidSubscriptionSelectionError{Reason: fmt.Sprintf("unexpected root node kind %s", node.Kind())}
	}
}

// finalizeDeferred compiles every deferred fragment via a branched
// context. A branch may discover further deferred fragments; they join
// the end of the queue, so nested defers come out in discovery order.
// Branch streams merge into the plan's global index.
func finalizeDeferred(ctx *buildContext, plan *QueryPlan) error {
	queue := append([]*deferredFragment{}, ctx.deferred...)
	for i := 0; i < len(queue); i++ {
		d := queue[i]
		bctx := ctx.branch(d.path)
		bctx.inDefer = true
		child, err := buildSelections(bctx, d.typeCondition, d.selections, d.conds)
		if err != nil {
			return err
		}
		plan.Deferred = append(plan.Deferred, &DeferNode{
			Label: d.label,
			Path:  d.path,
			If:    d.cond,
			Child: child,
		})
		queue = append(queue, bctx.deferred...)
		for id, sn := range bctx.streams {
			plan.Streams[id] = sn
		}
	}
	return nil
}

// selectionConditions evaluates @skip/@include on a selection.
// Constant arguments settle statically: the second result is false
// when the selection is dropped. Variable arguments become Conditions
// appended to the inherited set.
func selectionConditions(directives language.DirectiveList, inherited []Condition) ([]Condition, bool, error) {
	conds := inherited
	if skip := directives.ForName("skip"); skip != nil {
		c, v, err := boolArg(skip, "if")
		if err != nil {
			return nil, false, err
		}
		if c != nil {
			conds = append(append([]Condition{}, conds...), Condition{Variable: c.Variable, Negated: true})
		} else if v {
			return nil, false, nil
		}
	}
	if include := directives.ForName("include"); include != nil {
		c, v, err := boolArg(include, "if")
		if err != nil {
			return nil, false, err
		}
		if c != nil {
			conds = append(append([]Condition{}, conds...), Condition{Variable: c.Variable})
		} else if !v {
			return nil, false, nil
		}
	}
	return conds, true, nil
}

// boolArg reads a boolean directive argument. It returns a Condition
// for variable references, otherwise the constant value (missing
// arguments default to true).
func boolArg(dir *language.Directive, name string) (*Condition, bool, error) {
	arg := dir.Arguments.ForName(name)
	if arg == nil {
		return nil, true, nil
	}
	switch arg.Value.Kind {
	case language.VariableValue:
		return &Condition{Variable: arg.Value.Raw}, false, nil
	case language.BooleanValue:
		return nil, arg.Value.Raw == "true", nil
	}
	return nil, false, fmt.Errorf("@%s(%s:) must be a Boolean or a variable", dir.Name, name)
}

// ifArg evaluates a defer/stream `if` argument: active reports whether
// the directive applies at all (a constant false disables it), cond is
// the runtime condition for variable arguments.
func ifArg(dir *language.Directive) (active bool, cond *Condition, err error) {
	c, v, err := boolArg(dir, "if")
	if err != nil {
		return false, nil, err
	}
	if c != nil {
		return true, c, nil
	}
	return v, nil, nil
}

func labelArg(dir *language.Directive) (string, error) {
	arg := dir.Arguments.ForName("label")
	if arg == nil {
		return "", nil
	}
	if arg.Value.Kind != language.StringValue {
		return "", fmt.Errorf("@%s(label:) must be a constant string", dir.Name)
	}
	return arg.Value.Raw, nil
}

func initialCountArg(dir *language.Directive) (int, error) {
	arg := dir.Arguments.ForName("initialCount")
	if arg == nil {
		return 0, nil
	}
	if arg.Value.Kind != language.IntValue {
		return 0, fmt.Errorf("@stream(initialCount:) must be a constant integer")
	}
	n, err := strconv.Atoi(arg.Value.Raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("@stream(initialCount:) must be a non-negative integer")
	}
	return n, nil
}

// checkNullability rejects client-controlled nullability whose bracket
// nesting exceeds the list nesting of the field's type.
func checkNullability(n *language.Nullability, t *metadata.TypeRef) error {
	depth := 0
	for cur := n; cur != nil && cur.Kind == language.NullabilityList; cur = cur.Element {
		depth++
	}
	if max := t.ListDepth(); depth > max {
		return fmt.Errorf("nullability modifier nests %d list levels but type %s has only %d", depth, t, max)
	}
	return nil
}
