package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type InvoiceFormData struct {
	CompanyName string
	Name        string
	PostingDate string
	Status      string

	SupplierName string
	CustomerName string
	PamperName   string

	Items []InvoiceFormItem

	Commissions       []InvoiceFormCommission
	PamperCommissions []InvoiceFormPamperCommission

	GrandTotal              string
	TotalCommission         string
	TotalCustomerCommission string
	Remarks                 string
}

type InvoiceFormItem struct {
	ItemName     string
	CustomerName string
	Qty          string
	Price        string
	Total        string
	Commission   string
}

type InvoiceFormCommission struct {
	ItemCode        string
	Commission      string
	Taxes           string
	CommissionTotal string
}

type InvoiceFormPamperCommission struct {
	PamperName string
	Price      string
	Percentage string
	Commission string
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func newDocument() core.Maroto {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()
	return maroto.New(cfg)
}

func (p *PDFProvider) GenerateInvoiceForm(ctx context.Context, form InvoiceFormData) (io.Reader, error) {
	m := newDocument()

	m.AddRow(10,
		text.NewCol(12, form.CompanyName, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(10,
		text.NewCol(8, "Invoice Form "+form.Name, props.Text{Size: 14, Style: fontstyle.Bold}),
		text.NewCol(4, form.Status, props.Text{Size: 10, Align: align.Right}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Supplier: "+form.SupplierName, props.Text{Top: 0}),
			text.New("Customer: "+form.CustomerName, props.Text{Top: 5}),
			text.New("Pamper: "+form.PamperName, props.Text{Top: 10}),
		),
		col.New(6).Add(
			text.New("Posting date: "+form.PostingDate, props.Text{Align: align.Right}),
		),
	)

	header := props.Text{Style: fontstyle.Bold, Size: 9}
	headerRight := props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}
	cell := props.Text{Size: 9}
	cellRight := props.Text{Size: 9, Align: align.Right}

	m.AddRow(8,
		text.NewCol(3, "Item", header),
		text.NewCol(3, "Customer", header),
		text.NewCol(1, "Qty", headerRight),
		text.NewCol(2, "Price", headerRight),
		text.NewCol(2, "Total", headerRight),
		text.NewCol(1, "Comm.", headerRight),
	)
	for _, item := range form.Items {
		m.AddRow(7,
			text.NewCol(3, item.ItemName, cell),
			text.NewCol(3, item.CustomerName, cell),
			text.NewCol(1, item.Qty, cellRight),
			text.NewCol(2, item.Price, cellRight),
			text.NewCol(2, item.Total, cellRight),
			text.NewCol(1, item.Commission, cellRight),
		)
	}

	if len(form.Commissions) > 0 {
		m.AddRow(10, text.NewCol(12, "Commissions", props.Text{Style: fontstyle.Bold, Size: 10, Top: 3}))
		for _, row := range form.Commissions {
			m.AddRow(7,
				text.NewCol(6, row.ItemCode, cell),
				text.NewCol(2, row.Commission, cellRight),
				text.NewCol(2, row.Taxes, cellRight),
				text.NewCol(2, row.CommissionTotal, cellRight),
			)
		}
	}

	if len(form.PamperCommissions) > 0 {
		m.AddRow(10, text.NewCol(12, "Pamper commissions", props.Text{Style: fontstyle.Bold, Size: 10, Top: 3}))
		for _, row := range form.PamperCommissions {
			m.AddRow(7,
				text.NewCol(6, row.PamperName, cell),
				text.NewCol(2, row.Price, cellRight),
				text.NewCol(2, row.Percentage+"%", cellRight),
				text.NewCol(2, row.Commission, cellRight),
			)
		}
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Grand total", props.Text{Style: fontstyle.Bold, Size: 9, Top: 3}),
		text.NewCol(2, form.GrandTotal, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 3}),
	)
	m.AddRow(7,
		col.New(8),
		text.NewCol(2, "Commission", cell),
		text.NewCol(2, form.TotalCommission, cellRight),
	)
	m.AddRow(7,
		col.New(8),
		text.NewCol(2, "Customer commission", cell),
		text.NewCol(2, form.TotalCustomerCommission, cellRight),
	)
	if form.Remarks != "" {
		m.AddRow(15, text.NewCol(12, form.Remarks, props.Text{Size: 9, Top: 5}))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
