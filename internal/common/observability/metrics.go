// internal/common/observability/metrics.go
package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

type Observability struct {
	meterProvider   *metric.MeterProvider
	meter           otelmetric.Meter
	ingestCounter   otelmetric.Int64Counter
	displayDuration otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	ingestCounter, _ := meter.Int64Counter(
		"notifications.ingested",
		otelmetric.WithDescription("Number of notifications ingested from the push channel"),
	)

	displayDuration, _ := meter.Float64Histogram(
		"notifications.display.duration",
		otelmetric.WithDescription("Full display cycle duration per notification"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider:   provider,
		meter:           meter,
		ingestCounter:   ingestCounter,
		displayDuration: displayDuration,
	}
}

func (o *Observability) RecordIngested(ctx context.Context, outcome string) {
	if o.ingestCounter != nil {
		o.ingestCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("outcome", outcome),
		))
	}
}

func (o *Observability) RecordDisplayDuration(ctx context.Context, duration time.Duration) {
	if o.displayDuration != nil {
		o.displayDuration.Record(ctx, float64(duration.Milliseconds()))
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}
