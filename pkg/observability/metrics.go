package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/bibbank/qrpay/pkg/lzma"
)

// Encode outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

const meterName = "github.com/bibbank/qrpay"

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	ServiceName string
	// Registry receives the exported metrics. A new registry is created when nil.
	Registry *prometheus.Registry
}

// Metrics records payload encoding telemetry and serves it in the Prometheus
// exposition format. A nil *Metrics records nothing.
type Metrics struct {
	provider *sdkmetric.MeterProvider
	handler  http.Handler

	encoded            metric.Int64Counter
	validationFailures metric.Int64Counter
	compressDuration   metric.Float64Histogram
}

// InitMetrics initializes the Prometheus metrics exporter and the
// instruments used by the encoders.
func InitMetrics(cfg MetricsConfig) (*Metrics, error) {
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	exporter, err := promexporter.New(promexporter.WithRegisterer(reg))
	if err != nil {
		return nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(resource.NewSchemaless(
			attribute.String("service.name", cfg.ServiceName),
		)),
	)
	meter := provider.Meter(meterName)

	m := &Metrics{
		provider: provider,
		handler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}
	if m.encoded, err = meter.Int64Counter("qrpay_payloads_encoded",
		metric.WithDescription("QR payment payloads encoded, by standard and outcome.")); err != nil {
		return nil, err
	}
	if m.validationFailures, err = meter.Int64Counter("qrpay_validation_failures",
		metric.WithDescription("Payment records rejected by validation, by standard.")); err != nil {
		return nil, err
	}
	if m.compressDuration, err = meter.Float64Histogram("qrpay_compress_duration",
		metric.WithDescription("Time spent in the raw LZMA1 compressor."),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	return m, nil
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return m.handler
}

// RecordEncode counts one encode attempt.
func (m *Metrics) RecordEncode(ctx context.Context, standard, outcome string) {
	if m == nil {
		return
	}
	m.encoded.Add(ctx, 1, metric.WithAttributes(
		attribute.String("standard", standard),
		attribute.String("outcome", outcome),
	))
}

// RecordValidationFailure counts one rejected record.
func (m *Metrics) RecordValidationFailure(ctx context.Context, standard string) {
	if m == nil {
		return
	}
	m.validationFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("standard", standard)))
}

// InstrumentCompressor wraps c so that every call is timed.
func (m *Metrics) InstrumentCompressor(c lzma.Compressor) lzma.Compressor {
	if m == nil {
		return c
	}
	return lzma.CompressorFunc(func(ctx context.Context, data []byte, p lzma.Params) ([]byte, error) {
		start := time.Now()
		out, err := c.Compress(ctx, data, p)
		outcome := OutcomeOK
		if err != nil {
			outcome = OutcomeError
		}
		m.compressDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("outcome", outcome)))
		return out, err
	})
}

// Shutdown flushes and stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}
