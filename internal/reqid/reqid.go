// Package reqid assigns each compilation a process-unique id carried
// through its context, so event subscribers can pair start and finish
// events.
package reqid

import (
	"context"
	"sync/atomic"
)

type key struct{}

var counter atomic.Int64

// NewContext returns a copy of parent with a fresh compilation id
// stored, and the id itself.
func NewContext(parent context.Context) (context.Context, int64) {
	id := counter.Add(1)
	return context.WithValue(parent, key{}, id), id
}

// FromContext extracts the compilation id from ctx.
// It returns the id and whether it was present.
func FromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(key{}).(int64)
	return id, ok
}
