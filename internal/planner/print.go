package planner

import (
	"fmt"
	"strings"
)

// PrintPlan renders the plan as an indented tree for humans.
func PrintPlan(p *QueryPlan) string {
	var b strings.Builder
	printNode(&b, p.Operation, 0)
	for _, d := range p.Deferred {
		printNode(&b, d, 0)
	}
	return b.String()
}

func printNode(b *strings.Builder, n Node, depth int) {
	if n == nil {
		return
	}
	indent := strings.Repeat("  ", depth)
	switch v := n.(type) {
	case *OperationNode:
		fmt.Fprintf(b, "%soperation %s", indent, v.Operation)
		if v.Name != "" {
			fmt.Fprintf(b, " %s", v.Name)
		}
		fmt.Fprintf(b, " on %s\n", v.RootType)
		printNode(b, v.Child, depth+1)
	case *SerialNode:
		fmt.Fprintf(b, "%sserial\n", indent)
		for _, child := range v.Nodes {
			printNode(b, child, depth+1)
		}
	case *ParallelNode:
		fmt.Fprintf(b, "%sparallel\n", indent)
		for _, child := range v.Nodes {
			printNode(b, child, depth+1)
		}
	case *ResolverNode:
		fmt.Fprintf(b, "%sresolve %s\n", indent, resolverDesc(v))
	case *CompositeNode:
		fmt.Fprintf(b, "%scomposite %s\n", indent, resolverDesc(&v.ResolverNode))
		printNode(b, v.Child, depth+1)
	case *SubscriptionNode:
		fmt.Fprintf(b, "%ssubscribe %s\n", indent, resolverDesc(&v.ResolverNode))
		printNode(b, v.Child, depth+1)
	case *DeferNode:
		fmt.Fprintf(b, "%sdefer at %q", indent, v.Path.String())
		if v.Label != "" {
			fmt.Fprintf(b, " label=%q", v.Label)
		}
		if v.If != nil {
			fmt.Fprintf(b, " if=$%s", v.If.Variable)
		}
		b.WriteByte('\n')
		printNode(b, v.Child, depth+1)
	case *StreamNode:
		fmt.Fprintf(b, "%sstream #%d %s initialCount=%d", indent, v.ID, resolverDesc(&v.ResolverNode), v.InitialCount)
		if v.If != nil {
			fmt.Fprintf(b, " if=$%s", v.If.Variable)
		}
		b.WriteByte('\n')
		printNode(b, v.Child, depth+1)
	default:
		panic(fmt.Sprintf("unknown plan node %T", n))
	}
}

func resolverDesc(v *ResolverNode) string {
	name := v.FieldName
	if v.ResponseName != v.FieldName {
		name = v.ResponseName + ": " + v.FieldName
	}
	return fmt.Sprintf("%s.%s -> %s", v.ParentType, name, v.Type)
}
