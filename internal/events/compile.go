// Package events defines the payloads published on the event bus
// during a compilation. Subscribers (tracing, metrics) correlate the
// start/finish pairs through the compilation id carried in the context.
package events

import "time"

// ParseStart is emitted before a document is tokenized and parsed.
type ParseStart struct {
	Source string
}

// ParseFinish is emitted once parsing completed or failed.
type ParseFinish struct {
	Source   string
	Err      error
	Duration time.Duration
}

// PlanStart is emitted before operation resolution and plan building.
type PlanStart struct {
	OperationName string
}

// PlanFinish is emitted once the plan was built or building failed.
type PlanFinish struct {
	OperationName string
	OperationType string
	Streams       int // stream nodes registered in the plan
	Deferred      int // defer nodes emitted
	CacheHit      bool
	Err           error
	Duration      time.Duration
}
