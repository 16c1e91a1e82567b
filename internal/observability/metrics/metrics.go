package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments for the fiscal engine.
type Metrics struct {
	defaultRateFallback metric.Int64Counter
	recapGenerations    metric.Int64Counter
	exportJobs          metric.Int64Counter
	exportDuration      metric.Float64Histogram
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "fiscal"
	}
	meter := provider.Meter(name)

	defaultRateFallback, err := meter.Int64Counter("fiscal_tax_default_rate_fallback_total",
		metric.WithDescription("Order lines computed with the default VAT rate because no explicit rate was present"))
	if err != nil {
		return nil, err
	}
	recapGenerations, err := meter.Int64Counter("fiscal_recap_generations_total",
		metric.WithDescription("VAT recap generations by mode"))
	if err != nil {
		return nil, err
	}
	exportJobs, err := meter.Int64Counter("fiscal_export_jobs_total",
		metric.WithDescription("Export jobs reaching a terminal state, by format and outcome"))
	if err != nil {
		return nil, err
	}
	exportDuration, err := meter.Float64Histogram("fiscal_export_duration_seconds",
		metric.WithDescription("Export serialization duration"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		defaultRateFallback: defaultRateFallback,
		recapGenerations:    recapGenerations,
		exportJobs:          exportJobs,
		exportDuration:      exportDuration,
	}, nil
}

func (m *Metrics) IncDefaultRateFallback(ctx context.Context, merchantID string) {
	if m == nil {
		return
	}
	m.defaultRateFallback.Add(ctx, 1, metric.WithAttributes(
		attribute.String("merchant_id", merchantID),
	))
}

func (m *Metrics) IncRecapGeneration(ctx context.Context, mode string) {
	if m == nil {
		return
	}
	m.recapGenerations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", mode),
	))
}

func (m *Metrics) IncExportJob(ctx context.Context, format, outcome string) {
	if m == nil {
		return
	}
	m.exportJobs.Add(ctx, 1, metric.WithAttributes(
		attribute.String("format", format),
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) ObserveExportDuration(ctx context.Context, format string, d time.Duration) {
	if m == nil {
		return
	}
	m.exportDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("format", format),
	))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch protocol {
	case "http", "http/protobuf":
		return otlpmetrichttp.New(context.Background(),
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	case "", "grpc":
		return otlpmetricgrpc.New(context.Background(),
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported otlp protocol %q", protocol)
	}
}
