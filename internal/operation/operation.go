// Package operation resolves one operation out of a parsed document
// together with the transitive closure of fragments it spreads. The
// result is the unit the planner compiles; it shares the document's AST
// nodes and never copies or mutates them.
package operation

import (
	language "github.com/daviddesmet/hotchocolate/internal/language"
)

// PreparedOperation is a resolved operation plus every fragment it can
// reach. Immutable once built; safe to share across compilations.
type PreparedOperation struct {
	Document  *language.Document
	Operation *language.OperationDefinition
	// Fragments maps fragment name to definition for the transitive
	// closure of spreads reachable from the operation.
	Fragments map[string]*language.FragmentDefinition
}

// Fragment returns the named fragment from the closure, or nil.
func (p *PreparedOperation) Fragment(name string) *language.FragmentDefinition {
	return p.Fragments[name]
}

// Resolve selects the operation named operationName from doc and
// collects its fragment closure. An empty operationName is only valid
// when the document contains exactly one operation.
//
// Fragment spreads must form a DAG along any resolution path: a spread
// chain that revisits a fragment already being resolved fails with
// CyclicFragmentError even when the cycle runs through intermediate
// fragments.
func Resolve(doc *language.Document, operationName string) (*PreparedOperation, error) {
	op, err := selectOperation(doc, operationName)
	if err != nil {
		return nil, err
	}

	prepared := &PreparedOperation{
		Document:  doc,
		Operation: op,
		Fragments: map[string]*language.FragmentDefinition{},
	}
	onPath := map[string]bool{}
	if err := collectFragments(prepared, op.SelectionSet, onPath, nil); err != nil {
		return nil, err
	}
	return prepared, nil
}

func selectOperation(doc *language.Document, operationName string) (*language.OperationDefinition, error) {
	if operationName == "" {
		if len(doc.Operations) != 1 {
			return nil, &OperationNotFoundError{Count: len(doc.Operations)}
		}
		return doc.Operations[0], nil
	}
	if op := doc.Operation(operationName); op != nil {
		return op, nil
	}
	return nil, &OperationNotFoundError{Name: operationName, Count: len(doc.Operations)}
}

func collectFragments(prepared *PreparedOperation, set language.SelectionSet, onPath map[string]bool, path []string) error {
	for _, sel := range set {
		switch s := sel.(type) {
		case *language.Field:
			if len(s.SelectionSet) > 0 {
				if err := collectFragments(prepared, s.SelectionSet, onPath, path); err != nil {
					return err
				}
			}
		case *language.InlineFragment:
			if err := collectFragments(prepared, s.SelectionSet, onPath, path); err != nil {
				return err
			}
		case *language.FragmentSpread:
			if onPath[s.Name] {
				return &CyclicFragmentError{
					Name: s.Name,
					Path: append(append([]string{}, path...), s.Name),
					Loc:  s.Loc,
				}
			}
			frag := prepared.Document.Fragment(s.Name)
			if frag == nil {
				return &FragmentNotFoundError{Name: s.Name, Loc: s.Loc}
			}
			if _, seen := prepared.Fragments[s.Name]; seen && !onPath[s.Name] {
				// Already fully resolved through another spread site.
				continue
			}
			prepared.Fragments[s.Name] = frag
			onPath[s.Name] = true
			err := collectFragments(prepared, frag.SelectionSet, onPath, append(path, s.Name))
			delete(onPath, s.Name)
			if err != nil {
				return err
			}
		}
	}
	return nil
}
