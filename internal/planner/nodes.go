// Package planner compiles a prepared operation into an executable
// query plan: a tree of nodes telling the executor which fields run
// serially, which run in parallel, and which are delivered
// incrementally via defer or stream.
package planner

import (
	"fmt"
	"strings"

	language "github.com/daviddesmet/hotchocolate/internal/language"
	metadata "github.com/daviddesmet/hotchocolate/internal/metadata"
)

// NodeKind identifies a plan node variant.
type NodeKind string

const (
	KindOperation    NodeKind = "Operation"
	KindSerial       NodeKind = "Serial"
	KindParallel     NodeKind = "Parallel"
	KindResolver     NodeKind = "Resolver"
	KindComposite    NodeKind = "Composite"
	KindSubscription NodeKind = "Subscription"
	KindDefer        NodeKind = "Defer"
	KindStream       NodeKind = "Stream"
)

// Node is one unit of the execution plan. The interface is sealed:
// every variant lives in this package so consumers can switch
// exhaustively over Kind.
type Node interface {
	Kind() NodeKind
	isNode()
}

func (*OperationNode) isNode()    {}
func (*SerialNode) isNode()       {}
func (*ParallelNode) isNode()     {}
func (*ResolverNode) isNode()     {}
func (*CompositeNode) isNode()    {}
func (*SubscriptionNode) isNode() {}
func (*DeferNode) isNode()        {}
func (*StreamNode) isNode()       {}

// PathElement is a response-path step: a field response name (string)
// or a list index (int).
type PathElement any

// Path locates a node's output within the overall response shape.
type Path []PathElement

// Append returns a new path with elem added; the receiver is never
// mutated, so paths captured by plan nodes stay stable.
func (p Path) Append(elem PathElement) Path {
	next := make(Path, len(p)+1)
	copy(next, p)
	next[len(p)] = elem
	return next
}

func (p Path) String() string {
	var b strings.Builder
	for i, elem := range p {
		switch v := elem.(type) {
		case string:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(v)
		case int:
			fmt.Fprintf(&b, "[%d]", v)
		}
	}
	return b.String()
}

// Condition gates a node on a boolean variable. Constant conditions
// never reach a plan: a constant false drops (or un-defers) the
// selection at build time, a constant true is no condition at all.
type Condition struct {
	Variable string
	// Negated inverts the test (used for @skip).
	Negated bool
}

// OperationNode is the plan root.
type OperationNode struct {
	Operation language.OperationType
	Name      string // operation name, empty for anonymous operations
	RootType  string
	Child     Node
}

func (*OperationNode) Kind() NodeKind { return KindOperation }

// SerialNode runs its children strictly in order.
type SerialNode struct {
	Nodes []Node
}

func (*SerialNode) Kind() NodeKind { return KindSerial }

// ParallelNode runs its children with no ordering guarantee.
type ParallelNode struct {
	Nodes []Node
}

func (*ParallelNode) Kind() NodeKind { return KindParallel }

// ResolverNode resolves one leaf field.
type ResolverNode struct {
	ResponseName string
	FieldName    string
	ParentType   string
	Type         *metadata.TypeRef
	Serial       bool
	Path         Path
	// Conditions that must hold for the field to execute; variable
	// @skip/@include the builder could not settle statically.
	Conditions []Condition
	// Selection is a back-reference into the prepared operation's AST,
	// not an ownership edge.
	Selection *language.Field
}

func (*ResolverNode) Kind() NodeKind { return KindResolver }

// CompositeNode resolves an object-valued field and then executes the
// plan for its sub-selection.
type CompositeNode struct {
	ResolverNode
	Child Node
}

func (*CompositeNode) Kind() NodeKind { return KindComposite }

// SubscriptionNode wraps the single root field of a subscription; the
// executor re-runs Child for every event the source field emits.
type SubscriptionNode struct {
	ResolverNode
	Child Node // nil for leaf subscription fields
}

func (*SubscriptionNode) Kind() NodeKind { return KindSubscription }

// DeferNode is an independently executable sub-plan for a deferred
// fragment. Path tells the executor where to merge the fragment's data
// into the already-flushed response.
type DeferNode struct {
	Label string
	Path  Path
	If    *Condition // nil means unconditionally deferred
	Child Node
}

func (*DeferNode) Kind() NodeKind { return KindDefer }

// StreamNode resolves a list field incrementally: InitialCount items
// are produced with the main plan, the tail is resumed by ID.
type StreamNode struct {
	ResolverNode
	ID           int
	Label        string
	InitialCount int
	If           *Condition // nil means unconditionally streamed
	Child        Node       // per-item sub-plan, nil for scalar lists
}

func (*StreamNode) Kind() NodeKind { return KindStream }

// QueryPlan is the compiler's output: the root node plus the indexes
// the executor needs to resume incremental parts. Immutable once
// built; safe to share across concurrently executing requests.
type QueryPlan struct {
	Operation *OperationNode
	// Streams indexes every StreamNode in the plan (main tree and
	// deferred sub-plans) by its stable id.
	Streams map[int]*StreamNode
	// Deferred lists every DeferNode in discovery order.
	Deferred []*DeferNode
}
