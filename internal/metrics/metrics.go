package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/xxxsen/embedserver"

var latencyBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// Metrics holds the service instruments. Safe for concurrent use.
type Metrics struct {
	EmbedDuration       metric.Float64Histogram
	EmbedDocuments      metric.Int64Counter
	EmbedChunks         metric.Int64Counter
	InferenceErrors     metric.Int64Counter
	ModelReloads        metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
}

func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.EmbedDuration, err = m.Float64Histogram("embedserver.embed.duration",
		metric.WithDescription("Latency of one embedding request, chunking to reassembly."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.EmbedDocuments, err = m.Int64Counter("embedserver.embed.documents",
		metric.WithDescription("Documents received for embedding."),
	); err != nil {
		return nil, err
	}
	if met.EmbedChunks, err = m.Int64Counter("embedserver.embed.chunks",
		metric.WithDescription("Chunks sent to the inference backend."),
	); err != nil {
		return nil, err
	}
	if met.InferenceErrors, err = m.Int64Counter("embedserver.inference.errors",
		metric.WithDescription("Failed embedding requests."),
	); err != nil {
		return nil, err
	}
	if met.ModelReloads, err = m.Int64Counter("embedserver.model.reloads",
		metric.WithDescription("Active model switches."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("embedserver.http.request.duration",
		metric.WithDescription("HTTP request processing time."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// ObserveEmbed records one pipeline run.
func (m *Metrics) ObserveEmbed(ctx context.Context, modelName string, documents, chunks int, elapsed time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("model", modelName))
	m.EmbedDocuments.Add(ctx, int64(documents), attrs)
	m.EmbedChunks.Add(ctx, int64(chunks), attrs)
	status := "ok"
	if err != nil {
		status = "error"
		m.InferenceErrors.Add(ctx, 1, attrs)
	}
	m.EmbedDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("model", modelName),
		attribute.String("status", status),
	))
}

func (m *Metrics) RecordReload(ctx context.Context, from, to string) {
	m.ModelReloads.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}
