package pdf

import (
	"context"
	"io"

	"go.uber.org/fx"
)

// Provider renders printable documents.
type Provider interface {
	GenerateInvoiceForm(ctx context.Context, data InvoiceFormData) (io.Reader, error)
	GenerateReport(ctx context.Context, data ReportData) (io.Reader, error)
}

var Module = fx.Module("pdf",
	fx.Provide(New),
)

type NoOpProvider struct{}

func (p *NoOpProvider) GenerateInvoiceForm(ctx context.Context, data InvoiceFormData) (io.Reader, error) {
	return nil, nil
}

func (p *NoOpProvider) GenerateReport(ctx context.Context, data ReportData) (io.Reader, error) {
	return nil, nil
}
