package metrics

import (
	"context"
	"fmt"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/marcelsud/webhook-viewer/webhook"
)

// OTelExporter provides OpenTelemetry metrics export following OTel standards
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	collector     Collector
	registry      *promclient.Registry

	// OTel meters and instruments
	meter             metric.Meter
	bufferLengthGauge metric.Int64ObservableGauge
	durableCountGauge metric.Int64ObservableGauge
	subscribersGauge  metric.Int64ObservableGauge
	tierGauge         metric.Int64ObservableGauge
	storedCounter     metric.Int64Counter
	broadcastCounter  metric.Int64Counter
}

// NewOTelExporter creates a new OpenTelemetry metrics exporter with Prometheus format
// Metrics are gathered into their own registry and served by Handler
func NewOTelExporter(collector Collector) (*OTelExporter, error) {
	registry := promclient.NewRegistry()

	// Create Prometheus exporter
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	// Create meter provider
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	// Create meter with service info
	meter := meterProvider.Meter(
		"webhook-viewer",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		collector:     collector,
		registry:      registry,
		meter:         meter,
	}

	// Register metrics instruments
	if err := oe.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}

	return oe, nil
}

// registerInstruments creates and registers all OpenTelemetry metric instruments
func (oe *OTelExporter) registerInstruments() error {
	var err error

	oe.bufferLengthGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.buffer.length",
		metric.WithDescription("Number of webhooks held by the in-memory buffer"),
		metric.WithUnit("{webhooks}"),
		metric.WithInt64Callback(oe.observeBufferLength),
	)
	if err != nil {
		return fmt.Errorf("creating buffer length gauge: %w", err)
	}

	oe.durableCountGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.durable.count",
		metric.WithDescription("Number of webhooks indexed by the durable store timeline"),
		metric.WithUnit("{webhooks}"),
		metric.WithInt64Callback(oe.observeDurableCount),
	)
	if err != nil {
		return fmt.Errorf("creating durable count gauge: %w", err)
	}

	oe.subscribersGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.stream.subscribers",
		metric.WithDescription("Number of open live-stream connections"),
		metric.WithUnit("{connections}"),
		metric.WithInt64Callback(oe.observeSubscribers),
	)
	if err != nil {
		return fmt.Errorf("creating subscribers gauge: %w", err)
	}

	// 1 for the tier currently serving, 0 for the other
	oe.tierGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.storage.tier",
		metric.WithDescription("Storage tier currently serving requests"),
		metric.WithInt64Callback(oe.observeTier),
	)
	if err != nil {
		return fmt.Errorf("creating tier gauge: %w", err)
	}

	oe.storedCounter, err = oe.meter.Int64Counter(
		"webhook.stored",
		metric.WithDescription("Number of webhooks captured, by the tier that stored them"),
		metric.WithUnit("{webhooks}"),
	)
	if err != nil {
		return fmt.Errorf("creating stored counter: %w", err)
	}

	oe.broadcastCounter, err = oe.meter.Int64Counter(
		"webhook.stream.deliveries",
		metric.WithDescription("Number of stream events delivered to subscribers"),
		metric.WithUnit("{events}"),
	)
	if err != nil {
		return fmt.Errorf("creating deliveries counter: %w", err)
	}

	return nil
}

func (oe *OTelExporter) observeBufferLength(ctx context.Context, observer metric.Int64Observer) error {
	observer.Observe(oe.collector.GetBufferLength(ctx))
	return nil
}

func (oe *OTelExporter) observeDurableCount(ctx context.Context, observer metric.Int64Observer) error {
	n, ok, err := oe.collector.GetDurableCount(ctx)
	if err != nil {
		return err
	}
	if ok {
		observer.Observe(n)
	}
	return nil
}

func (oe *OTelExporter) observeSubscribers(ctx context.Context, observer metric.Int64Observer) error {
	observer.Observe(oe.collector.GetSubscribers(ctx))
	return nil
}

func (oe *OTelExporter) observeTier(ctx context.Context, observer metric.Int64Observer) error {
	current := oe.collector.GetTier(ctx)
	for _, tier := range []webhook.Tier{webhook.Durable, webhook.Fallback} {
		var v int64
		if tier.String() == current {
			v = 1
		}
		observer.Observe(v, metric.WithAttributes(
			attribute.String("storage.tier", tier.String()),
		))
	}
	return nil
}

// RecordStored counts one captured webhook against the tier that stored it
func (oe *OTelExporter) RecordStored(ctx context.Context, tier webhook.Tier) {
	oe.storedCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("storage.tier", tier.String()),
	))
}

// RecordBroadcast counts stream deliveries of one event type
func (oe *OTelExporter) RecordBroadcast(ctx context.Context, eventType string, delivered int) {
	if delivered <= 0 {
		return
	}
	oe.broadcastCounter.Add(ctx, int64(delivered), metric.WithAttributes(
		attribute.String("event.type", eventType),
	))
}

// ServeHTTP serves Prometheus-formatted metrics on the given HTTP handler
func (oe *OTelExporter) ServeHTTP() http.Handler {
	return promhttp.HandlerFor(oe.registry, promhttp.HandlerOpts{})
}

// Shutdown gracefully shuts down the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}
