package operation

import (
	"fmt"
	"strings"

	language "github.com/daviddesmet/hotchocolate/internal/language"
)

// OperationNotFoundError reports that the requested operation could not
// be selected. Name is empty when no name was supplied and the document
// did not contain exactly one operation.
type OperationNotFoundError struct {
	Name  string
	Count int // operations present in the document
}

func (e *OperationNotFoundError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("operation %q not found in document", e.Name)
	}
	if e.Count == 0 {
		return "document contains no operations"
	}
	return fmt.Sprintf("operation name required: document contains %d operations", e.Count)
}

// FragmentNotFoundError reports a spread of an undefined fragment.
type FragmentNotFoundError struct {
	Name string
	Loc  *language.Location
}

func (e *FragmentNotFoundError) Error() string {
	if e.Loc != nil {
		return fmt.Sprintf("fragment %q not found (spread at %s)", e.Name, e.Loc)
	}
	return fmt.Sprintf("fragment %q not found", e.Name)
}

// CyclicFragmentError reports a fragment spread chain that revisits a
// fragment already on the active resolution path.
type CyclicFragmentError struct {
	Name string
	Path []string // spread chain ending at the revisited fragment
	Loc  *language.Location
}

func (e *CyclicFragmentError) Error() string {
	return fmt.Sprintf("cyclic fragment spread %q via %s", e.Name, strings.Join(e.Path, " -> "))
}
