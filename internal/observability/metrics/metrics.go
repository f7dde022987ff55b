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

// Metrics exposes application-level instruments.
type Metrics struct {
	ledgerEntries      metric.Int64Counter
	documentTransition metric.Int64Counter
	reportsRendered    metric.Int64Counter
	commissionInvoices metric.Int64Counter
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
				return provider.Shutdown(ctx)
			},
		})
	}
	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}
	return provider, nil
}

// New configures the domain instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "agrimarket"
	}
	meter := provider.Meter(name)

	ledgerEntries, err := meter.Int64Counter("agrimarket_ledger_entries_total")
	if err != nil {
		return nil, err
	}
	documentTransition, err := meter.Int64Counter("agrimarket_document_transitions_total")
	if err != nil {
		return nil, err
	}
	reportsRendered, err := meter.Int64Counter("agrimarket_reports_rendered_total")
	if err != nil {
		return nil, err
	}
	commissionInvoices, err := meter.Int64Counter("agrimarket_commission_invoices_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ledgerEntries:      ledgerEntries,
		documentTransition: documentTransition,
		reportsRendered:    reportsRendered,
		commissionInvoices: commissionInvoices,
	}, nil
}

// NewNoop returns instruments backed by the noop provider.
func NewNoop() *Metrics {
	m, _ := New(Config{}, noop.NewMeterProvider())
	return m
}

// RecordLedgerEntry counts a posted or reversed ledger entry.
func (m *Metrics) RecordLedgerEntry(ctx context.Context, voucherType, kind string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("voucher_type", strings.TrimSpace(voucherType)),
		attribute.String("kind", strings.TrimSpace(kind)),
	)
	m.ledgerEntries.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordDocumentTransition counts submit, cancel and delete actions.
func (m *Metrics) RecordDocumentTransition(ctx context.Context, doctype, action string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("doctype", strings.TrimSpace(doctype)),
		attribute.String("action", strings.TrimSpace(action)),
	)
	m.documentTransition.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordReportRendered counts rendered reports by name and output format.
func (m *Metrics) RecordReportRendered(ctx context.Context, report, format string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("report", strings.TrimSpace(report)),
		attribute.String("format", strings.TrimSpace(format)),
	)
	m.reportsRendered.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCommissionInvoices counts generated commission invoices.
func (m *Metrics) RecordCommissionInvoices(ctx context.Context, partyType string, count int) {
	if m == nil || count <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("party_type", strings.TrimSpace(partyType)))
	m.commissionInvoices.Add(ctx, int64(count), metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
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

var allowedLabelKeys = map[attribute.Key]struct{}{
	"voucher_type": {},
	"kind":         {},
	"doctype":      {},
	"action":       {},
	"report":       {},
	"format":       {},
	"party_type":   {},
	"status_code":  {},
	"route":        {},
}

// FilterAttributes strips labels that would blow up cardinality (party or document IDs).
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
