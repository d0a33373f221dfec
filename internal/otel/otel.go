// Package otel wires OpenTelemetry tracing to the compiler's event
// bus. The compiler itself stays observability-free; spans are created
// by subscribing to the compile-phase events.
package otel

import (
	"context"
	"sync"

	eventbus "github.com/daviddesmet/hotchocolate/internal/eventbus"
	events "github.com/daviddesmet/hotchocolate/internal/events"
	reqid "github.com/daviddesmet/hotchocolate/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
)

// Setup configures the tracer provider and attaches the compile-span
// subscriber. If endpoint is empty, no telemetry is configured.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithInsecure()))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	sub := &subscriber{tracer: otel.Tracer("hotchocolate")}
	sub.register()

	return tp.Shutdown, nil
}

type subscriber struct {
	tracer     trace.Tracer
	parseSpans sync.Map // compilation id -> trace.Span
	planSpans  sync.Map // compilation id -> trace.Span
}

func (s *subscriber) register() {
	eventbus.Subscribe(func(ctx context.Context, e events.ParseStart) {
		id, _ := reqid.FromContext(ctx)
		_, span := s.tracer.Start(ctx, "compiler.parse")
		span.SetAttributes(attribute.Int("graphql.source.length", len(e.Source)))
		s.parseSpans.Store(id, span)
	})
	eventbus.Subscribe(func(ctx context.Context, e events.ParseFinish) {
		id, _ := reqid.FromContext(ctx)
		if v, ok := s.parseSpans.LoadAndDelete(id); ok {
			span := v.(trace.Span)
			if e.Err != nil {
				span.SetStatus(codes.Error, e.Err.Error())
			}
			span.End()
		}
	})
	eventbus.Subscribe(func(ctx context.Context, e events.PlanStart) {
		id, _ := reqid.FromContext(ctx)
		_, span := s.tracer.Start(ctx, "compiler.plan")
		span.SetAttributes(attribute.String("graphql.operation.name", e.OperationName))
		s.planSpans.Store(id, span)
	})
	eventbus.Subscribe(func(ctx context.Context, e events.PlanFinish) {
		id, _ := reqid.FromContext(ctx)
		if v, ok := s.planSpans.LoadAndDelete(id); ok {
			span := v.(trace.Span)
			span.SetAttributes(
				attribute.String("graphql.operation.type", e.OperationType),
				attribute.Int("graphql.plan.streams", e.Streams),
				attribute.Int("graphql.plan.deferred", e.Deferred),
				attribute.Bool("graphql.plan.cache_hit", e.CacheHit),
			)
			if e.Err != nil {
				span.SetStatus(codes.Error, e.Err.Error())
			}
			span.End()
		}
	})
}
