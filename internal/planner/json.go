package planner

import (
	"encoding/json"
	"fmt"
	"sort"
)

// MarshalJSON renders the plan in the shape handed to the executor:
// the root node plus the stream index and the deferred parts.
func (p *QueryPlan) MarshalJSON() ([]byte, error) {
	streams := make([]any, 0, len(p.Streams))
	ids := make([]int, 0, len(p.Streams))
	for id := range p.Streams {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		streams = append(streams, nodeJSON(p.Streams[id]))
	}

	deferred := make([]any, 0, len(p.Deferred))
	for _, d := range p.Deferred {
		deferred = append(deferred, nodeJSON(d))
	}

	return json.Marshal(map[string]any{
		"operation": nodeJSON(p.Operation),
		"streams":   streams,
		"deferred":  deferred,
	})
}

func nodeJSON(n Node) map[string]any {
	if n == nil {
		return nil
	}
	out := map[string]any{"kind": string(n.Kind())}
	switch v := n.(type) {
	case *OperationNode:
		out["operation"] = string(v.Operation)
		if v.Name != "" {
			out["name"] = v.Name
		}
		out["rootType"] = v.RootType
		out["child"] = nodeJSON(v.Child)
	case *SerialNode:
		out["nodes"] = nodesJSON(v.Nodes)
	case *ParallelNode:
		out["nodes"] = nodesJSON(v.Nodes)
	case *ResolverNode:
		resolverJSON(out, v)
	case *CompositeNode:
		resolverJSON(out, &v.ResolverNode)
		if v.Child != nil {
			out["child"] = nodeJSON(v.Child)
		}
	case *SubscriptionNode:
		resolverJSON(out, &v.ResolverNode)
		if v.Child != nil {
			out["child"] = nodeJSON(v.Child)
		}
	case *DeferNode:
		if v.Label != "" {
			out["label"] = v.Label
		}
		out["path"] = pathJSON(v.Path)
		if v.If != nil {
			out["if"] = condJSON(*v.If)
		}
		out["child"] = nodeJSON(v.Child)
	case *StreamNode:
		resolverJSON(out, &v.ResolverNode)
		out["id"] = v.ID
		if v.Label != "" {
			out["label"] = v.Label
		}
		out["initialCount"] = v.InitialCount
		if v.If != nil {
			out["if"] = condJSON(*v.If)
		}
		if v.Child != nil {
			out["child"] = nodeJSON(v.Child)
		}
	default:
		panic(fmt.Sprintf("unknown plan node %T", n))
	}
	return out
}

func nodesJSON(nodes []Node) []any {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		out[i] = nodeJSON(n)
	}
	return out
}

func resolverJSON(out map[string]any, v *ResolverNode) {
	out["responseName"] = v.ResponseName
	out["field"] = v.FieldName
	out["parentType"] = v.ParentType
	out["type"] = v.Type.String()
	if v.Serial {
		out["serial"] = true
	}
	out["path"] = pathJSON(v.Path)
	if len(v.Conditions) > 0 {
		conds := make([]any, len(v.Conditions))
		for i, c := range v.Conditions {
			conds[i] = condJSON(c)
		}
		out["conditions"] = conds
	}
}

func condJSON(c Condition) map[string]any {
	out := map[string]any{"variable": c.Variable}
	if c.Negated {
		out["negated"] = true
	}
	return out
}

func pathJSON(p Path) []any {
	out := make([]any, len(p))
	for i, elem := range p {
		out[i] = elem
	}
	return out
}
