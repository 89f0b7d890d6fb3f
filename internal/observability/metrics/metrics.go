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

// Metrics exposes compliance engine instruments.
type Metrics struct {
	evaluations       metric.Int64Counter
	orderDecisions    metric.Int64Counter
	entryFeeDenials   metric.Int64Counter
	obligationsDerive metric.Int64Counter
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
				log.Info("shutting down meter provider")
				return provider.Shutdown(ctx)
			},
		})
	}

	log.Info("metrics initialized",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)
	return provider, nil
}

// New registers the domain instruments on provider.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "franchisehub"
	}
	meter := provider.Meter(name)

	evaluations, err := meter.Int64Counter("franchisehub_compliance_evaluations_total")
	if err != nil {
		return nil, err
	}
	orderDecisions, err := meter.Int64Counter("franchisehub_order_gate_decisions_total")
	if err != nil {
		return nil, err
	}
	entryFeeDenials, err := meter.Int64Counter("franchisehub_entry_fee_denials_total")
	if err != nil {
		return nil, err
	}
	obligationsDerive, err := meter.Int64Counter("franchisehub_obligations_derived_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		evaluations:       evaluations,
		orderDecisions:    orderDecisions,
		entryFeeDenials:   entryFeeDenials,
		obligationsDerive: obligationsDerive,
	}, nil
}

// RecordEvaluation counts a snapshot evaluation and its verdict.
func (m *Metrics) RecordEvaluation(ctx context.Context, granularity string, compliant bool) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("granularity", strings.TrimSpace(granularity)),
		attribute.Bool("compliant", compliant),
	)
	m.evaluations.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordOrderDecision counts order gate outcomes ("admitted" or "rejected").
func (m *Metrics) RecordOrderDecision(ctx context.Context, decision string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("decision", strings.TrimSpace(decision)))
	m.orderDecisions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordEntryFeeDenied(ctx context.Context, state string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("state", strings.TrimSpace(state)))
	m.entryFeeDenials.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordObligationDerived(ctx context.Context, kind string, created bool) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("kind", strings.TrimSpace(kind)),
		attribute.Bool("created", created),
	)
	m.obligationsDerive.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

// Franchise identifiers are deliberately absent to keep series bounded.
var allowedLabelKeys = map[attribute.Key]struct{}{
	"granularity": {},
	"compliant":   {},
	"decision":    {},
	"state":       {},
	"kind":        {},
	"created":     {},
	"route":       {},
	"status_code": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
