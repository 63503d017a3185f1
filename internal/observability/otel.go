// Package observability wires OpenTelemetry tracing for the chat tiers.
package observability

import (
	"context"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Setup installs a global tracer provider exporting to the OTLP/HTTP
// endpoint. The endpoint may be a bare host:port or a URL; an http:// URL
// disables TLS. With an empty endpoint Setup returns a nil provider and the
// global no-op provider stays in place.
func Setup(ctx context.Context, endpoint string) (*sdktrace.TracerProvider, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, nil
	}
	exp, err := otlptracehttp.New(ctx, exporterOptions(endpoint)...)
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.Default()),
	)
	otel.SetTracerProvider(tp)
	return tp, nil
}

func exporterOptions(endpoint string) []otlptracehttp.Option {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	}
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(u.Host)}
	if u.Scheme == "http" {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if path := strings.TrimRight(u.Path, "/"); path != "" {
		opts = append(opts, otlptracehttp.WithURLPath(path))
	}
	return opts
}
