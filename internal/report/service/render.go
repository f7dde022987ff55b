package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	filesdomain "github.com/smallbiznis/agrimarket/internal/files/domain"
	partydomain "github.com/smallbiznis/agrimarket/internal/party/domain"
	"github.com/smallbiznis/agrimarket/internal/providers/pdf"
	"github.com/smallbiznis/agrimarket/internal/providers/xlsx"
	"github.com/smallbiznis/agrimarket/internal/report/domain"
	"github.com/smallbiznis/agrimarket/pkg/money"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

func (s *Service) RenderStatementForms(ctx context.Context, filter domain.Filter) (domain.Files, error) {
	parties, err := s.StatementForms(ctx, filter)
	if err != nil {
		return domain.Files{}, err
	}
	company := s.settings.Get().CompanyName
	supplier := filter.PartyType == partydomain.PartyTypeSupplier

	files := domain.Files{FileURLs: []string{}}
	for _, party := range parties {
		data := pdf.ReportData{
			CompanyName: company,
			Title:       "Statement Forms",
			Period:      period(filter.FromDate, filter.ToDate),
		}
		if len(party.Items) > 0 {
			data.Sections = append(data.Sections, statementItemsSection(party.PartyName, party.Items, party.Totals, supplier))
		}
		if len(party.Payments) > 0 {
			data.Sections = append(data.Sections, paymentsSection(party.PartyName, party.Payments, party.PaymentsTotal))
		}
		url, err := s.storePDF(ctx, reportStatementForms, party.PartyName, data)
		if err != nil {
			return domain.Files{}, err
		}
		files.FileURLs = append(files.FileURLs, url)
	}
	return files, nil
}

func (s *Service) RenderDetailedReport(ctx context.Context, filter domain.Filter) (domain.Files, error) {
	parties, err := s.DetailedReport(ctx, filter)
	if err != nil {
		return domain.Files{}, err
	}
	company := s.settings.Get().CompanyName

	files := domain.Files{FileURLs: []string{}}
	for _, party := range parties {
		data := pdf.ReportData{
			CompanyName: company,
			Title:       "Detailed Report",
			Period:      period(filter.FromDate, filter.ToDate),
			Sections:    []pdf.ReportSection{summarySection(party)},
		}
		if len(party.Items) > 0 {
			data.Sections = append(data.Sections, statementItemsSection("Items", party.Items, nil, true))
		}
		if len(party.Payments) > 0 {
			data.Sections = append(data.Sections, paymentsSection("Payments", party.Payments, nil))
		}
		url, err := s.storePDF(ctx, reportDetailed, party.PartyName, data)
		if err != nil {
			return domain.Files{}, err
		}
		files.FileURLs = append(files.FileURLs, url)
	}
	return files, nil
}

func (s *Service) RenderCollectionForm(ctx context.Context, filter domain.Filter) (domain.Files, error) {
	parties, err := s.CollectionForm(ctx, filter)
	if err != nil {
		return domain.Files{}, err
	}
	if len(parties) == 0 {
		return domain.Files{}, domain.ErrNoData
	}

	data := pdf.ReportData{
		CompanyName: s.settings.Get().CompanyName,
		Title:       "Collection Form",
		Period:      period(filter.FromDate, filter.ToDate),
	}
	for _, party := range parties {
		data.Sections = append(data.Sections, collectionSection(party))
	}
	url, err := s.storePDF(ctx, reportCollectionForm, "collection-form", data)
	if err != nil {
		return domain.Files{}, err
	}
	return domain.Files{FileURLs: []string{url}}, nil
}

func (s *Service) RenderTrialBalance(ctx context.Context, filter domain.TrialBalanceFilter, format domain.Format) (domain.Files, error) {
	rows, err := s.TrialBalance(ctx, filter)
	if err != nil {
		return domain.Files{}, err
	}
	titles := []string{"Title", "Opening (Dr)", "Opening (Cr)", "Debit", "Credit", "Closing (Dr)", "Closing (Cr)"}
	cells := func(row domain.TrialBalanceRow) []int64 {
		return []int64{row.OpeningDebit, row.OpeningCredit, row.Debit, row.Credit, row.ClosingDebit, row.ClosingCredit}
	}
	name := "trial-balance"

	switch format {
	case domain.FormatPDF:
		section := pdf.ReportSection{Heading: "Trial Balance", Columns: pdfColumns(titles, 3)}
		for _, row := range rows {
			line := []string{row.Title}
			for _, amount := range cells(row) {
				line = append(line, money.Format(amount))
			}
			section.Rows = append(section.Rows, pdf.ReportRow{Cells: line, Bold: row.IsParent})
		}
		url, err := s.storePDF(ctx, reportTrialBalance, name, pdf.ReportData{
			CompanyName: s.settings.Get().CompanyName,
			Title:       "Trial Balance",
			Period:      period(filter.FromDate, filter.ToDate),
			Sections:    []pdf.ReportSection{section},
		})
		if err != nil {
			return domain.Files{}, err
		}
		return domain.Files{FileURLs: []string{url}}, nil
	case domain.FormatXLSX:
		sheet := xlsx.Sheet{Name: "Trial Balance", Columns: xlsxColumns(titles, 1)}
		for _, row := range rows {
			line := []any{row.Title}
			for _, amount := range cells(row) {
				line = append(line, amountValue(amount))
			}
			sheet.Rows = append(sheet.Rows, xlsx.Row{Cells: line, Bold: row.IsParent})
		}
		url, err := s.storeXLSX(ctx, reportTrialBalance, name, xlsx.WorkbookData{Title: "Trial Balance", Sheets: []xlsx.Sheet{sheet}})
		if err != nil {
			return domain.Files{}, err
		}
		return domain.Files{FileURLs: []string{url}}, nil
	}
	return domain.Files{}, domain.ErrInvalidFormat
}

func (s *Service) RenderItemsList(ctx context.Context, filter domain.ItemsListFilter, format domain.Format) (domain.Files, error) {
	rows, err := s.ItemsList(ctx, filter)
	if err != nil {
		return domain.Files{}, err
	}
	name := "items-list"

	switch format {
	case domain.FormatPDF:
		section := pdf.ReportSection{
			Heading: "Items list of supplier invoices",
			Columns: []pdf.ReportColumn{
				{Title: "Date", Width: 1},
				{Title: "Invoice", Width: 2},
				{Title: "Supplier", Width: 2},
				{Title: "Item", Width: 2},
				{Title: "Customer", Width: 2},
				{Title: "Qty", Width: 1, Numeric: true},
				{Title: "Total", Width: 2, Numeric: true},
			},
		}
		for _, row := range rows {
			section.Rows = append(section.Rows, pdf.ReportRow{Cells: []string{
				row.PostingDate.Format(dateLayout),
				row.FormName,
				row.SupplierName,
				itemLabel(row.ItemCode, row.ItemName),
				row.CustomerName,
				row.Qty.String(),
				money.Format(row.Total),
			}})
		}
		url, err := s.storePDF(ctx, reportItemsList, name, pdf.ReportData{
			CompanyName: s.settings.Get().CompanyName,
			Title:       "Items List",
			Period:      period(filter.FromDate, filter.ToDate),
			Sections:    []pdf.ReportSection{section},
		})
		if err != nil {
			return domain.Files{}, err
		}
		return domain.Files{FileURLs: []string{url}}, nil
	case domain.FormatXLSX:
		sheet := xlsx.Sheet{
			Name: "Items List",
			Columns: []xlsx.Column{
				{Title: "Date", Width: 12},
				{Title: "Invoice", Width: 18},
				{Title: "Supplier", Width: 24},
				{Title: "Item Code", Width: 14},
				{Title: "Item Name", Width: 24},
				{Title: "Customer", Width: 24},
				{Title: "Qty"},
				{Title: "Price", Numeric: true},
				{Title: "Total", Numeric: true},
				{Title: "Commission", Numeric: true},
			},
		}
		for _, row := range rows {
			sheet.Rows = append(sheet.Rows, xlsx.Row{Cells: []any{
				row.PostingDate.Format(dateLayout),
				row.FormName,
				row.SupplierName,
				row.ItemCode,
				row.ItemName,
				row.CustomerName,
				row.Qty.InexactFloat64(),
				amountValue(row.Price),
				amountValue(row.Total),
				amountValue(row.Commission),
			}})
		}
		url, err := s.storeXLSX(ctx, reportItemsList, name, xlsx.WorkbookData{Title: "Items List", Sheets: []xlsx.Sheet{sheet}})
		if err != nil {
			return domain.Files{}, err
		}
		return domain.Files{FileURLs: []string{url}}, nil
	}
	return domain.Files{}, domain.ErrInvalidFormat
}

func (s *Service) storePDF(ctx context.Context, report, name string, data pdf.ReportData) (string, error) {
	r, err := s.pdf.GenerateReport(ctx, data)
	if err != nil {
		return "", fmt.Errorf("render %s pdf: %w", report, err)
	}
	return s.store(ctx, report, name, domain.FormatPDF, filesdomain.ContentTypePDF, r)
}

func (s *Service) storeXLSX(ctx context.Context, report, name string, data xlsx.WorkbookData) (string, error) {
	r, err := s.xlsx.GenerateWorkbook(ctx, data)
	if err != nil {
		return "", fmt.Errorf("render %s xlsx: %w", report, err)
	}
	return s.store(ctx, report, name, domain.FormatXLSX, filesdomain.ContentTypeXLSX, r)
}

func (s *Service) store(ctx context.Context, report, name string, format domain.Format, contentType string, r io.Reader) (string, error) {
	if r == nil {
		return "", fmt.Errorf("render %s: empty document", report)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	file, err := s.fileSvc.Save(ctx, filesdomain.SaveRequest{
		Name:        name,
		Extension:   string(format),
		ContentType: contentType,
		Content:     content,
	})
	if err != nil {
		return "", err
	}
	s.obsMetrics.RecordReportRendered(ctx, report, string(format))
	s.log.Info("report file generated",
		zap.String("report", report),
		zap.String("format", string(format)),
		zap.String("file_id", file.ID.String()),
	)
	return file.URL(), nil
}

func statementItemsSection(heading string, items []domain.StatementItem, totals []domain.StatementTotal, withCommission bool) pdf.ReportSection {
	columns := []pdf.ReportColumn{
		{Title: "Date", Width: 2},
		{Title: "Invoice", Width: 2},
		{Title: "Item", Width: 2},
		{Title: "Qty", Width: 1, Numeric: true},
		{Title: "Price", Width: 1, Numeric: true},
		{Title: "Total", Width: 2, Numeric: true},
		{Title: "Commission", Width: 2, Numeric: true},
	}
	if !withCommission {
		columns = columns[:len(columns)-1]
		columns[len(columns)-1].Width = 4
	}

	section := pdf.ReportSection{Heading: heading, Columns: columns}
	for _, item := range items {
		cells := []string{
			item.PostingDate.Format(dateLayout),
			item.FormName,
			item.ItemName,
			qtyLabel(item.Qty),
			money.Format(item.Price),
			money.Format(item.Total),
			money.Format(item.Commission),
		}
		section.Rows = append(section.Rows, pdf.ReportRow{Cells: cells[:len(columns)]})
	}
	for _, total := range totals {
		cells := []string{total.Label, "", "", "", "", "", money.Format(total.Commission)}
		if total.Label != domain.LabelTaxes {
			cells[3] = qtyLabel(total.Qty)
			cells[5] = money.Format(total.Total)
		}
		section.Rows = append(section.Rows, pdf.ReportRow{Cells: cells[:len(columns)], Bold: true})
	}
	return section
}

func paymentsSection(heading string, payments []domain.StatementPayment, total *int64) pdf.ReportSection {
	section := pdf.ReportSection{
		Heading: heading,
		Columns: []pdf.ReportColumn{
			{Title: "Payment", Width: 2},
			{Title: "Date", Width: 2},
			{Title: "Mode", Width: 2},
			{Title: "Type", Width: 1},
			{Title: "Remarks", Width: 3},
			{Title: "Amount", Width: 2, Numeric: true},
		},
	}
	for _, p := range payments {
		section.Rows = append(section.Rows, pdf.ReportRow{Cells: []string{
			p.PaymentName,
			p.PostingDate.Format(dateLayout),
			p.ModeOfPayment,
			p.PaymentType,
			p.Remarks,
			money.Format(p.PaidAmount),
		}})
	}
	if total != nil {
		section.Rows = append(section.Rows, pdf.ReportRow{
			Cells: []string{domain.LabelGrandTotal, "", "", "", "", money.Format(*total)},
			Bold:  true,
		})
	}
	return section
}

func summarySection(party domain.DetailedParty) pdf.ReportSection {
	section := pdf.ReportSection{
		Heading:  party.PartyName,
		Subtitle: party.PartyGroup,
		Columns: []pdf.ReportColumn{
			{Title: "Reference", Width: 2},
			{Title: "Date", Width: 2},
			{Title: "Statement", Width: 2},
			{Title: "Debit", Width: 1, Numeric: true},
			{Title: "Credit", Width: 1, Numeric: true},
			{Title: "Balance (Dr)", Width: 2, Numeric: true},
			{Title: "Balance (Cr)", Width: 2, Numeric: true},
		},
	}
	for _, row := range party.Summary {
		section.Rows = append(section.Rows, pdf.ReportRow{
			Cells: []string{
				row.Reference,
				optionalDate(row.PostingDate),
				row.Statement,
				money.Format(row.Debit),
				money.Format(row.Credit),
				money.Format(row.BalanceFrom),
				money.Format(row.BalanceTo),
			},
			Bold: row.PostingDate == nil,
		})
	}
	return section
}

func collectionSection(party domain.CollectionParty) pdf.ReportSection {
	section := pdf.ReportSection{
		Heading: party.PartyName,
		Columns: []pdf.ReportColumn{
			{Title: "Reference", Width: 2},
			{Title: "Date", Width: 2},
			{Title: "Qty", Width: 1, Numeric: true},
			{Title: "Price", Width: 1, Numeric: true},
			{Title: "Statement", Width: 2},
			{Title: "Debit", Width: 2, Numeric: true},
			{Title: "Credit", Width: 2, Numeric: true},
		},
	}
	for _, row := range party.Rows {
		cells := []string{row.Reference, optionalDate(row.PostingDate), "", "", row.Statement, money.Format(row.Debit), money.Format(row.Credit)}
		switch {
		case row.Doctype == domain.DoctypeInvoiceForm:
			cells[2] = qtyLabel(row.Qty)
			cells[3] = money.Format(row.Price)
		case row.Reference == domain.LabelTotal:
			cells[4] = money.Format(row.Balance)
		}
		section.Rows = append(section.Rows, pdf.ReportRow{Cells: cells, Bold: row.Doctype == ""})
	}
	return section
}

func pdfColumns(titles []string, firstWidth int) []pdf.ReportColumn {
	columns := make([]pdf.ReportColumn, 0, len(titles))
	for i, title := range titles {
		if i == 0 {
			columns = append(columns, pdf.ReportColumn{Title: title, Width: firstWidth})
			continue
		}
		columns = append(columns, pdf.ReportColumn{Title: title, Width: 1, Numeric: true})
	}
	// Spread the remainder of the grid over the first column.
	used := firstWidth + len(titles) - 1
	if used < 12 {
		columns[0].Width += 12 - used
	}
	return columns
}

func xlsxColumns(titles []string, textColumns int) []xlsx.Column {
	columns := make([]xlsx.Column, 0, len(titles))
	for i, title := range titles {
		if i < textColumns {
			columns = append(columns, xlsx.Column{Title: title, Width: 30})
			continue
		}
		columns = append(columns, xlsx.Column{Title: title, Width: 16, Numeric: true})
	}
	return columns
}

func amountValue(amount int64) float64 {
	return decimal.New(amount, -2).InexactFloat64()
}

func qtyLabel(qty decimal.Decimal) string {
	if qty.IsZero() {
		return ""
	}
	return qty.String()
}

func itemLabel(code, name string) string {
	if name == "" || name == code {
		return code
	}
	return code + " " + name
}

func optionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func period(from, to time.Time) string {
	switch {
	case from.IsZero() && to.IsZero():
		return ""
	case from.IsZero():
		return "until " + to.Format(dateLayout)
	case to.IsZero():
		return "from " + from.Format(dateLayout)
	}
	return from.Format(dateLayout) + " - " + to.Format(dateLayout)
}
