// Package compiler ties the pipeline together: source text is parsed,
// the target operation resolved with its fragment closure, and the
// result compiled into a query plan. Plans are independent of variable
// values, so they can be cached and shared across requests that use
// the same document and operation name.
package compiler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	eventbus "github.com/daviddesmet/hotchocolate/internal/eventbus"
	events "github.com/daviddesmet/hotchocolate/internal/events"
	language "github.com/daviddesmet/hotchocolate/internal/language"
	metadata "github.com/daviddesmet/hotchocolate/internal/metadata"
	operation "github.com/daviddesmet/hotchocolate/internal/operation"
	planner "github.com/daviddesmet/hotchocolate/internal/planner"
	reqid "github.com/daviddesmet/hotchocolate/internal/reqid"
)

// Options configures a Compiler.
type Options struct {
	// DisableCache turns plan caching off; every Compile call then
	// rebuilds the plan from scratch.
	DisableCache bool
}

// Compiler compiles documents against one metadata resolver.
// Safe for concurrent use.
type Compiler struct {
	meta  metadata.Resolver
	opts  Options
	mu    sync.RWMutex
	plans map[string]*planner.QueryPlan
}

// New creates a Compiler using meta for field resolution.
func New(meta metadata.Resolver, opts Options) *Compiler {
	return &Compiler{
		meta:  meta,
		opts:  opts,
		plans: make(map[string]*planner.QueryPlan),
	}
}

// Compile parses source, resolves operationName (which may be empty
// for single-operation documents) and builds its query plan. The
// returned plan is immutable and may be shared; callers must not
// modify it.
func (c *Compiler) Compile(ctx context.Context, source, operationName string) (*planner.QueryPlan, error) {
	ctx, _ = reqid.NewContext(ctx)

	doc, err := c.parse(ctx, source)
	if err != nil {
		return nil, err
	}

	key := cacheKey(doc, operationName)
	if !c.opts.DisableCache {
		if plan, ok := c.lookup(key); ok {
			eventbus.Publish(ctx, events.PlanFinish{
				OperationName: operationName,
				OperationType: string(plan.Operation.Operation),
				Streams:       len(plan.Streams),
				Deferred:      len(plan.Deferred),
				CacheHit:      true,
			})
			return plan, nil
		}
	}

	eventbus.Publish(ctx, events.PlanStart{OperationName: operationName})
	started := time.Now()

	prepared, err := operation.Resolve(doc, operationName)
	if err != nil {
		eventbus.Publish(ctx, events.PlanFinish{OperationName: operationName, Err: err, Duration: time.Since(started)})
		return nil, err
	}
	plan, err := planner.Build(prepared, c.meta)
	if err != nil {
		eventbus.Publish(ctx, events.PlanFinish{OperationName: operationName, Err: err, Duration: time.Since(started)})
		return nil, err
	}

	if !c.opts.DisableCache {
		c.store(key, plan)
	}
	eventbus.Publish(ctx, events.PlanFinish{
		OperationName: operationName,
		OperationType: string(plan.Operation.Operation),
		Streams:       len(plan.Streams),
		Deferred:      len(plan.Deferred),
		Duration:      time.Since(started),
	})
	return plan, nil
}

func (c *Compiler) parse(ctx context.Context, source string) (*language.Document, error) {
	eventbus.Publish(ctx, events.ParseStart{Source: source})
	started := time.Now()
	doc, err := language.ParseQuery(source)
	eventbus.Publish(ctx, events.ParseFinish{Source: source, Err: err, Duration: time.Since(started)})
	return doc, err
}

func (c *Compiler) lookup(key string) (*planner.QueryPlan, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	plan, ok := c.plans[key]
	return plan, ok
}

func (c *Compiler) store(key string, plan *planner.QueryPlan) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plans[key] = plan
}

// cacheKey hashes the normalized document text plus the operation
// name, so formatting differences between equivalent documents hit the
// same entry.
func cacheKey(doc *language.Document, operationName string) string {
	h := sha256.New()
	h.Write([]byte(language.PrintDocument(doc)))
	h.Write([]byte{0})
	h.Write([]byte(operationName))
	return hex.EncodeToString(h.Sum(nil))
}
