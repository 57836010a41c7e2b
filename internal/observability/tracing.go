// Package observability provides OpenTelemetry tracing and metrics for OrgAtlas.
package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// TracerName is the name used for the OrgAtlas tracer.
	TracerName = "github.com/orgatlas/orgatlas"
)

// TracingConfig configures the OpenTelemetry tracing.
type TracingConfig struct {
	// ServiceName is the name of the service (default: "orgatlas")
	ServiceName string

	// ServiceVersion is the version of the service
	ServiceVersion string

	// Environment is the deployment environment (dev, staging, prod)
	Environment string

	// OTLPEndpoint is the OTLP gRPC endpoint (e.g., "localhost:4317")
	// If empty, tracing is disabled.
	OTLPEndpoint string

	// SampleRate is the trace sampling rate (0.0 to 1.0, default: 1.0)
	SampleRate float64
}

// DefaultTracingConfig returns a default tracing configuration.
func DefaultTracingConfig() *TracingConfig {
	return &TracingConfig{
		ServiceName:    "orgatlas",
		ServiceVersion: "0.1.0",
		Environment:    "development",
		SampleRate:     1.0,
	}
}

// TracerProvider wraps the OpenTelemetry tracer provider.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// InitTracing initializes OpenTelemetry tracing.
// Returns a no-op tracer if OTLPEndpoint is empty.
func InitTracing(ctx context.Context, cfg *TracingConfig) (*TracerProvider, error) {
	if cfg == nil {
		cfg = DefaultTracingConfig()
	}

	// If no endpoint, return no-op tracer
	if cfg.OTLPEndpoint == "" {
		return &TracerProvider{
			tracer: otel.Tracer(TracerName),
		}, nil
	}

	// Create OTLP exporter
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(), // Use TLS in production
	)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	// Create resource with service info
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	// Create sampler
	var sampler sdktrace.Sampler
	if cfg.SampleRate >= 1.0 {
		sampler = sdktrace.AlwaysSample()
	} else if cfg.SampleRate <= 0 {
		sampler = sdktrace.NeverSample()
	} else {
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	// Create trace provider
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	// Set global provider and propagator
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracerProvider{
		provider: provider,
		tracer:   provider.Tracer(TracerName),
	}, nil
}

// Shutdown gracefully shuts down the tracer provider.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.provider != nil {
		return tp.provider.Shutdown(ctx)
	}
	return nil
}

// Tracer returns the underlying tracer.
func (tp *TracerProvider) Tracer() trace.Tracer {
	return tp.tracer
}

// SpanKind constants for OrgAtlas operations.
const (
	SpanKindCatalog    = "catalog"
	SpanKindChart      = "chart"
	SpanKindGraphStore = "graph_store"
	SpanKindDocs       = "docs"
	SpanKindSearch     = "search"
)

// StartCatalogFetchSpan starts a span for a catalog fetch.
func StartCatalogFetchSpan(ctx context.Context, kinds []string) (context.Context, trace.Span) {
	tracer := otel.Tracer(TracerName)
	ctx, span := tracer.Start(ctx, "catalog.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("orgatlas.span.kind", SpanKindCatalog),
			attribute.StringSlice("catalog.kinds", kinds),
		),
	)
	return ctx, span
}

// RecordCatalogFetch records catalog fetch results on a span.
func RecordCatalogFetch(span trace.Span, entityCount int, duration time.Duration) {
	span.SetAttributes(
		attribute.Int("catalog.entity_count", entityCount),
		attribute.Int64("catalog.duration_ms", duration.Milliseconds()),
	)
}

// StartChartBuildSpan starts a span for an org chart build.
func StartChartBuildSpan(ctx context.Context, entityCount int) (context.Context, trace.Span) {
	tracer := otel.Tracer(TracerName)
	ctx, span := tracer.Start(ctx, "orgchart.build",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("orgatlas.span.kind", SpanKindChart),
			attribute.Int("orgchart.entity_count", entityCount),
		),
	)
	return ctx, span
}

// RecordChartBuild records org chart build results on a span.
func RecordChartBuild(span trace.Span, nodeCount, edgeCount, placeholderCount int) {
	span.SetAttributes(
		attribute.Int("orgchart.node_count", nodeCount),
		attribute.Int("orgchart.edge_count", edgeCount),
		attribute.Int("orgchart.placeholder_count", placeholderCount),
	)
}

// StartGraphStoreSpan starts a span for a graph store write.
func StartGraphStoreSpan(ctx context.Context, nodeCount, edgeCount int) (context.Context, trace.Span) {
	tracer := otel.Tracer(TracerName)
	ctx, span := tracer.Start(ctx, "graph.store",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("orgatlas.span.kind", SpanKindGraphStore),
			attribute.Int("graph.node_count", nodeCount),
			attribute.Int("graph.edge_count", edgeCount),
		),
	)
	return ctx, span
}

// StartDocsGenerateSpan starts a span for a docs generation run.
func StartDocsGenerateSpan(ctx context.Context, entityRef string) (context.Context, trace.Span) {
	tracer := otel.Tracer(TracerName)
	ctx, span := tracer.Start(ctx, "docs.generate",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("orgatlas.span.kind", SpanKindDocs),
			attribute.String("docs.entity_ref", entityRef),
		),
	)
	return ctx, span
}

// StartDocsPublishSpan starts a span for a docs publish.
func StartDocsPublishSpan(ctx context.Context, entityRef string) (context.Context, trace.Span) {
	tracer := otel.Tracer(TracerName)
	ctx, span := tracer.Start(ctx, "docs.publish",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("orgatlas.span.kind", SpanKindDocs),
			attribute.String("docs.entity_ref", entityRef),
		),
	)
	return ctx, span
}

// RecordDocsBuild records docs build results on a span.
func RecordDocsBuild(span trace.Span, outputDir string, duration time.Duration) {
	span.SetAttributes(
		attribute.String("docs.output_dir", outputDir),
		attribute.Int64("docs.duration_ms", duration.Milliseconds()),
	)
}

// StartSearchIndexSpan starts a span for a search index operation.
func StartSearchIndexSpan(ctx context.Context, docCount int) (context.Context, trace.Span) {
	tracer := otel.Tracer(TracerName)
	ctx, span := tracer.Start(ctx, "search.index",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("orgatlas.span.kind", SpanKindSearch),
			attribute.Int("search.doc_count", docCount),
		),
	)
	return ctx, span
}

// StartSearchQuerySpan starts a span for a search query.
func StartSearchQuerySpan(ctx context.Context, query string, topK int) (context.Context, trace.Span) {
	tracer := otel.Tracer(TracerName)
	ctx, span := tracer.Start(ctx, "search.query",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("orgatlas.span.kind", SpanKindSearch),
			attribute.String("search.query", query),
			attribute.Int("search.top_k", topK),
		),
	)
	return ctx, span
}

// RecordSearchResult records search results on a span.
func RecordSearchResult(span trace.Span, resultCount int, duration time.Duration) {
	span.SetAttributes(
		attribute.Int("search.result_count", resultCount),
		attribute.Int64("search.duration_ms", duration.Milliseconds()),
	)
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
