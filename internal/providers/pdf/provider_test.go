package pdf

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateInvoiceForm(t *testing.T) {
	r, err := New().GenerateInvoiceForm(context.Background(), InvoiceFormData{
		CompanyName:  "Market",
		Name:         "IF-2024-00001",
		PostingDate:  "2024-01-10",
		Status:       "Submitted",
		SupplierName: "Green Valley",
		Items: []InvoiceFormItem{
			{ItemName: "Tomatoes", CustomerName: "Stall 4", Qty: "10", Price: "5.00", Total: "50.00", Commission: "2.50"},
		},
		Commissions: []InvoiceFormCommission{{ItemCode: "COMMISSION", Commission: "2.50", Taxes: "0.00", CommissionTotal: "2.50"}},
		GrandTotal:  "50.00",
	})
	require.NoError(t, err)
	raw, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(raw[:4]))
}

func TestGenerateReport(t *testing.T) {
	r, err := New().GenerateReport(context.Background(), ReportData{
		CompanyName: "Market",
		Title:       "Collection Form",
		Period:      "2024-01-01 - 2024-01-31",
		Sections: []ReportSection{{
			Heading: "Green Valley",
			Columns: []ReportColumn{{Title: "Date"}, {Title: "Debit", Numeric: true}, {Title: "Credit", Numeric: true}},
			Rows: []ReportRow{
				{Cells: []string{"2024-01-10", "2.50", "50.00"}},
				{Cells: []string{"Total", "2.50", "50.00"}, Bold: true},
			},
		}},
	})
	require.NoError(t, err)
	raw, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(raw[:4]))
}

func TestColumnWidths(t *testing.T) {
	assert.Equal(t, []int{4, 4, 4}, columnWidths([]ReportColumn{{}, {}, {}}))
	assert.Equal(t, []int{2, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}, columnWidths(make([]ReportColumn, 11)))
	assert.Equal(t, []int{6, 6}, columnWidths([]ReportColumn{{Width: 6}, {Width: 6}}))
	assert.Equal(t, []int{12}, columnWidths(make([]ReportColumn, 1)))
}
