package planner

import "fmt"

// PlanError wraps any failure during plan construction with the
// response path at which it occurred. Plan building is all-or-nothing;
// the first PlanError aborts the compilation.
type PlanError struct {
	Path Path
	Err  error
}

func (e *PlanError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("plan error: %s", e.Err)
	}
	return fmt.Sprintf("plan error at %s: %s", e.Path, e.Err)
}

func (e *PlanError) Unwrap() error { return e.Err }

// InvalidSubscriptionSelectionError reports a subscription whose root
// selection does not consist of exactly one unconditional field.
type InvalidSubscriptionSelectionError struct {
	Reason string
	Count  int
}

func (e *InvalidSubscriptionSelectionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid subscription selection: %s", e.Reason)
	}
	return fmt.Sprintf("invalid subscription selection: expected exactly one root field, found %d", e.Count)
}
