package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/agrimarket/internal/audit/domain"
	"github.com/smallbiznis/agrimarket/internal/cache"
	"github.com/smallbiznis/agrimarket/internal/clock"
	"github.com/smallbiznis/agrimarket/internal/config"
	"github.com/smallbiznis/agrimarket/internal/docstatus"
	"github.com/smallbiznis/agrimarket/internal/invoiceform/domain"
	ledgerdomain "github.com/smallbiznis/agrimarket/internal/ledger/domain"
	"github.com/smallbiznis/agrimarket/internal/naming"
	obsmetrics "github.com/smallbiznis/agrimarket/internal/observability/metrics"
	"github.com/smallbiznis/agrimarket/internal/orgcontext"
	partydomain "github.com/smallbiznis/agrimarket/internal/party/domain"
	"github.com/smallbiznis/agrimarket/internal/providers/pdf"
	"github.com/smallbiznis/agrimarket/pkg/db/pagination"
	"github.com/smallbiznis/agrimarket/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const doctype = "invoice_form"

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	PartySvc    partydomain.Service
	LedgerSvc   ledgerdomain.Service
	Namer       naming.Namer
	Settings    config.SettingsProvider
	PDF         pdf.Provider
	ReportCache cache.ReportCache   `optional:"true"`
	AuditSvc    auditdomain.Service `optional:"true"`
	ObsMetrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	partySvc    partydomain.Service
	ledgerSvc   ledgerdomain.Service
	namer       naming.Namer
	settings    config.SettingsProvider
	pdf         pdf.Provider
	reportCache cache.ReportCache
	auditSvc    auditdomain.Service
	obsMetrics  *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	reportCache := p.ReportCache
	if reportCache == nil {
		reportCache = cache.NewNoopReportCache()
	}
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("invoiceform.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		partySvc:    p.PartySvc,
		ledgerSvc:   p.LedgerSvc,
		namer:       p.Namer,
		settings:    p.Settings,
		pdf:         p.PDF,
		reportCache: reportCache,
		auditSvc:    p.AuditSvc,
		obsMetrics:  p.ObsMetrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (domain.InvoiceForm, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return domain.InvoiceForm{}, err
	}

	now := s.clock.Now().UTC()
	form := domain.InvoiceForm{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		Docstatus: docstatus.Draft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.apply(&form, req)
	if err := s.prepare(ctx, &form); err != nil {
		return domain.InvoiceForm{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		name, err := s.namer.Next(ctx, tx, naming.SeriesInvoiceForm, form.PostingDate)
		if err != nil {
			return err
		}
		form.Name = name
		if err := s.repo.Insert(ctx, tx, &form); err != nil {
			return err
		}
		return s.audit(ctx, tx, "invoice_form.create", &form)
	})
	if err != nil {
		return domain.InvoiceForm{}, err
	}
	s.afterTransition(ctx, orgID, "create")
	return form, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (domain.InvoiceForm, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return domain.InvoiceForm{}, err
	}
	form, err := s.load(ctx, s.db, orgID, id, false)
	if err != nil {
		return domain.InvoiceForm{}, err
	}
	return *form, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return domain.ListResponse{}, err
	}

	filter := req.ListFilter
	if filter.FromDate != nil && filter.ToDate != nil && filter.FromDate.After(*filter.ToDate) {
		return domain.ListResponse{}, domain.ErrInvalidDateRange
	}
	if filter.FromDate != nil {
		from := clock.Date(*filter.FromDate)
		filter.FromDate = &from
	}
	if filter.ToDate != nil {
		to := clock.Date(*filter.ToDate)
		filter.ToDate = &to
	}

	items, err := s.repo.List(ctx, s.db, orgID, filter, req.Pagination)
	if err != nil {
		return domain.ListResponse{}, err
	}
	forms, pageInfo := pagination.Page(items, req.Limit(), func(f domain.InvoiceForm) int64 { return int64(f.ID) })
	return domain.ListResponse{PageInfo: pageInfo, InvoiceForms: forms}, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req domain.UpdateRequest) (domain.InvoiceForm, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return domain.InvoiceForm{}, err
	}

	form, err := s.repo.FindByID(ctx, s.db, orgID, id, false)
	if err != nil {
		return domain.InvoiceForm{}, err
	}
	if form == nil {
		return domain.InvoiceForm{}, domain.ErrNotFound
	}
	if err := form.Docstatus.CanUpdate(); err != nil {
		return domain.InvoiceForm{}, err
	}

	s.apply(form, req)
	if err := s.prepare(ctx, form); err != nil {
		return domain.InvoiceForm{}, err
	}
	form.UpdatedAt = s.clock.Now().UTC()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByID(ctx, tx, orgID, id, true)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		if err := current.Docstatus.CanUpdate(); err != nil {
			return err
		}

		if err := s.repo.UpdateHeader(ctx, tx, form); err != nil {
			return err
		}
		if err := s.repo.ReplaceChildren(ctx, tx, form); err != nil {
			return err
		}
		return s.audit(ctx, tx, "invoice_form.update", form)
	})
	if err != nil {
		return domain.InvoiceForm{}, err
	}
	s.afterTransition(ctx, orgID, "update")
	return *form, nil
}

func (s *Service) Submit(ctx context.Context, id snowflake.ID) (domain.InvoiceForm, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return domain.InvoiceForm{}, err
	}

	var submitted domain.InvoiceForm
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		form, err := s.load(ctx, tx, orgID, id, true)
		if err != nil {
			return err
		}
		if err := form.Docstatus.CanSubmit(); err != nil {
			return err
		}
		if len(form.Items) == 0 {
			return domain.ErrNoItems
		}
		if form.GrandTotal <= 0 {
			return domain.ErrZeroTotal
		}

		if err := s.ledgerSvc.Post(ctx, tx, s.posting(form)); err != nil {
			return err
		}

		form.Docstatus = docstatus.Submitted
		form.UpdatedAt = s.clock.Now().UTC()
		if err := s.repo.SetDocstatus(ctx, tx, orgID, form.ID, form.Docstatus, form.UpdatedAt); err != nil {
			return err
		}
		submitted = *form
		return s.audit(ctx, tx, "invoice_form.submit", form)
	})
	if err != nil {
		return domain.InvoiceForm{}, err
	}

	s.afterTransition(ctx, orgID, "submit")
	s.log.Info("invoice form submitted",
		zap.String("invoice_form", submitted.Name),
		zap.Int64("grand_total", submitted.GrandTotal),
	)
	return submitted, nil
}

// posting debits each item customer and credits the supplier with the grand total.
func (s *Service) posting(form *domain.InvoiceForm) ledgerdomain.Posting {
	accounts := s.settings.Get().Accounts
	customers, totals := domain.CustomerTotals(form.Items)

	lines := make([]ledgerdomain.PostingLine, 0, len(customers)+1)
	for _, customerID := range customers {
		if totals[customerID] == 0 {
			continue
		}
		lines = append(lines, ledgerdomain.Debit(accounts.Receivable, partydomain.PartyTypeCustomer, customerID, totals[customerID]))
	}
	lines = append(lines, ledgerdomain.Credit(accounts.Payable, partydomain.PartyTypeSupplier, form.SupplierID, form.GrandTotal))

	return ledgerdomain.Posting{
		VoucherType: ledgerdomain.VoucherTypeInvoiceForm,
		VoucherID:   form.ID,
		VoucherNo:   form.Name,
		PostingDate: form.PostingDate,
		Remarks:     form.Remarks,
		Lines:       lines,
	}
}

func (s *Service) Cancel(ctx context.Context, id snowflake.ID) (domain.InvoiceForm, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return domain.InvoiceForm{}, err
	}

	var cancelled domain.InvoiceForm
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		form, err := s.load(ctx, tx, orgID, id, true)
		if err != nil {
			return err
		}
		if err := form.Docstatus.CanCancel(); err != nil {
			return err
		}

		invoices, err := s.repo.CountActiveCommissionInvoices(ctx, tx, orgID, form.ID)
		if err != nil {
			return err
		}
		if invoices > 0 {
			return domain.ErrHasCommissionInvoices
		}

		if err := s.ledgerSvc.Reverse(ctx, tx, ledgerdomain.VoucherTypeInvoiceForm, form.ID); err != nil {
			return err
		}

		form.Docstatus = docstatus.Cancelled
		form.UpdatedAt = s.clock.Now().UTC()
		if err := s.repo.SetDocstatus(ctx, tx, orgID, form.ID, form.Docstatus, form.UpdatedAt); err != nil {
			return err
		}
		cancelled = *form
		return s.audit(ctx, tx, "invoice_form.cancel", form)
	})
	if err != nil {
		return domain.InvoiceForm{}, err
	}

	s.afterTransition(ctx, orgID, "cancel")
	return cancelled, nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		form, err := s.repo.FindByID(ctx, tx, orgID, id, true)
		if err != nil {
			return err
		}
		if form == nil {
			return domain.ErrNotFound
		}
		if err := form.Docstatus.CanDelete(); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, tx, orgID, id); err != nil {
			return err
		}
		return s.audit(ctx, tx, "invoice_form.delete", form)
	})
	if err != nil {
		return err
	}
	s.afterTransition(ctx, orgID, "delete")
	return nil
}

func (s *Service) PendingSupplierCommissions(ctx context.Context, supplierID snowflake.ID, from, to time.Time) ([]domain.InvoiceForm, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	from, to, err = dateRange(from, to)
	if err != nil {
		return nil, err
	}
	return s.repo.PendingSupplierForms(ctx, s.db, orgID, supplierID, from, to)
}

func (s *Service) PendingCustomerCommissions(ctx context.Context, customerID snowflake.ID, from, to time.Time) ([]domain.PendingCustomerCommission, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	from, to, err = dateRange(from, to)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.PendingCustomerCommissions(ctx, s.db, orgID, customerID, from, to)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].PostingDate = rows[i].PostingDate.UTC()
	}
	return rows, nil
}

func (s *Service) MarkSupplierCommissionInvoiced(ctx context.Context, tx *gorm.DB, formID snowflake.ID, invoiced bool) error {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return err
	}
	return s.withTx(ctx, tx, func(tx *gorm.DB) error {
		form, err := s.repo.FindByID(ctx, tx, orgID, formID, true)
		if err != nil {
			return err
		}
		if form == nil {
			return domain.ErrNotFound
		}
		return s.repo.SetSupplierCommissionInvoiced(ctx, tx, orgID, formID, invoiced)
	})
}

func (s *Service) MarkCustomerCommissionInvoiced(ctx context.Context, tx *gorm.DB, formID, customerID snowflake.ID, invoiced bool) (int64, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return 0, err
	}
	var matched int64
	err = s.withTx(ctx, tx, func(tx *gorm.DB) error {
		form, err := s.load(ctx, tx, orgID, formID, true)
		if err != nil {
			return err
		}
		for i := range form.Items {
			if form.Items[i].CustomerID == customerID {
				form.Items[i].HasCommissionInvoice = invoiced
				matched++
			}
		}
		if matched == 0 {
			return nil
		}
		if _, err := s.repo.SetItemsCommissionInvoiced(ctx, tx, orgID, formID, customerID, invoiced); err != nil {
			return err
		}

		all := domain.AllCustomersInvoiced(form.Items)
		if all == form.HasCustomerCommissionInvoices {
			return nil
		}
		return s.repo.SetCustomerCommissionsInvoiced(ctx, tx, orgID, formID, all)
	})
	return matched, err
}

func (s *Service) RenderPDF(ctx context.Context, id snowflake.ID) ([]byte, error) {
	form, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	supplier, err := s.partySvc.GetSupplier(ctx, form.SupplierID)
	if err != nil && !errors.Is(err, partydomain.ErrSupplierNotFound) {
		return nil, err
	}
	customerIDs := []snowflake.ID{}
	if form.CustomerID != nil {
		customerIDs = append(customerIDs, *form.CustomerID)
	}
	if form.PamperID != nil {
		customerIDs = append(customerIDs, *form.PamperID)
	}
	for _, item := range form.Items {
		customerIDs = append(customerIDs, item.CustomerID)
	}
	customers, err := s.partySvc.CustomersByID(ctx, customerIDs)
	if err != nil {
		return nil, err
	}
	nameOf := func(id *snowflake.ID) string {
		if id == nil {
			return ""
		}
		return customers[*id].Name
	}

	data := pdf.InvoiceFormData{
		CompanyName:             s.settings.Get().CompanyName,
		Name:                    form.Name,
		PostingDate:             form.PostingDate.Format("2006-01-02"),
		Status:                  form.Docstatus.String(),
		SupplierName:            supplier.Name,
		CustomerName:            nameOf(form.CustomerID),
		PamperName:              nameOf(form.PamperID),
		GrandTotal:              money.Format(form.GrandTotal),
		TotalCommission:         money.Format(form.TotalCommission),
		TotalCustomerCommission: money.Format(form.TotalCustomerCommission),
		Remarks:                 form.Remarks,
	}
	for _, item := range form.Items {
		itemName := item.ItemName
		if itemName == "" {
			itemName = item.ItemCode
		}
		data.Items = append(data.Items, pdf.InvoiceFormItem{
			ItemName:     itemName,
			CustomerName: customers[item.CustomerID].Name,
			Qty:          item.Qty.String(),
			Price:        money.Format(item.Price),
			Total:        money.Format(item.Total),
			Commission:   money.Format(item.Commission),
		})
	}
	for _, row := range form.Commissions {
		data.Commissions = append(data.Commissions, pdf.InvoiceFormCommission{
			ItemCode:        row.ItemCode,
			Commission:      money.Format(row.Commission),
			Taxes:           money.Format(row.Taxes),
			CommissionTotal: money.Format(row.CommissionTotal),
		})
	}
	for _, row := range form.PamperCommissions {
		pamperID := row.PamperID
		data.PamperCommissions = append(data.PamperCommissions, pdf.InvoiceFormPamperCommission{
			PamperName: nameOf(&pamperID),
			Price:      money.Format(row.Price),
			Percentage: row.Percentage.String(),
			Commission: money.Format(row.Commission),
		})
	}

	r, err := s.pdf.GenerateInvoiceForm(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("render invoice form: %w", err)
	}
	if r == nil {
		return nil, domain.ErrNoPrintout
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read invoice form printout: %w", err)
	}
	if len(content) == 0 {
		return nil, domain.ErrNoPrintout
	}
	s.obsMetrics.RecordReportRendered(ctx, doctype, "pdf")
	return content, nil
}

// apply copies the editable request content onto the form.
func (s *Service) apply(form *domain.InvoiceForm, req domain.CreateRequest) {
	form.SupplierID = req.SupplierID
	form.PamperID = nonZero(req.PamperID)
	form.CustomerID = nonZero(req.CustomerID)
	form.PostingDate = clock.Date(req.PostingDate)
	if form.PostingDate.IsZero() {
		form.PostingDate = clock.Date(s.clock.Now())
	}
	form.Remarks = strings.TrimSpace(req.Remarks)
	form.Metadata = datatypes.JSONMap(req.Metadata)

	form.Items = make([]domain.InvoiceFormItem, 0, len(req.Items))
	for _, item := range req.Items {
		row := domain.InvoiceFormItem{
			ID:         s.genID.Generate(),
			OrgID:      form.OrgID,
			FormID:     form.ID,
			ItemCode:   strings.TrimSpace(item.ItemCode),
			ItemName:   strings.TrimSpace(item.ItemName),
			Qty:        item.Qty,
			Price:      item.Price,
			CustomerID: item.CustomerID,
			PamperID:   nonZero(item.PamperID),
		}
		if row.CustomerID == 0 && form.CustomerID != nil {
			row.CustomerID = *form.CustomerID
		}
		if row.PamperID == nil {
			row.PamperID = form.PamperID
		}
		form.Items = append(form.Items, row)
	}

	form.Commissions = make([]domain.InvoiceFormCommission, 0, len(req.Commissions))
	for _, commission := range req.Commissions {
		form.Commissions = append(form.Commissions, domain.InvoiceFormCommission{
			ID:         s.genID.Generate(),
			FormID:     form.ID,
			ItemCode:   strings.TrimSpace(commission.ItemCode),
			Commission: commission.Commission,
			Taxes:      commission.Taxes,
		})
	}

	form.PamperCommissions = make([]domain.InvoiceFormPamperCommission, 0, len(req.PamperCommissions))
	for _, line := range req.PamperCommissions {
		row := domain.InvoiceFormPamperCommission{
			ID:         s.genID.Generate(),
			FormID:     form.ID,
			PamperID:   line.PamperID,
			Price:      line.Price,
			Percentage: line.Percentage,
		}
		if row.PamperID == 0 && form.PamperID != nil {
			row.PamperID = *form.PamperID
		}
		form.PamperCommissions = append(form.PamperCommissions, row)
	}
}

// prepare validates parties and rows, then recomputes every total.
func (s *Service) prepare(ctx context.Context, form *domain.InvoiceForm) error {
	if form.SupplierID == 0 {
		return domain.ErrInvalidSupplier
	}
	supplier, err := s.partySvc.GetSupplier(ctx, form.SupplierID)
	if err != nil {
		if errors.Is(err, partydomain.ErrSupplierNotFound) {
			return domain.ErrInvalidSupplier
		}
		return err
	}

	ids := make([]snowflake.ID, 0, len(form.Items)+2)
	if form.CustomerID != nil {
		ids = append(ids, *form.CustomerID)
	}
	if form.PamperID != nil {
		ids = append(ids, *form.PamperID)
	}
	for _, item := range form.Items {
		ids = append(ids, item.CustomerID)
	}
	customers, err := s.partySvc.CustomersByID(ctx, ids)
	if err != nil {
		return err
	}

	if form.CustomerID != nil {
		customer, ok := customers[*form.CustomerID]
		if !ok || !customer.IsCustomer {
			return domain.ErrInvalidCustomer
		}
	}
	if form.PamperID != nil {
		pamper, ok := customers[*form.PamperID]
		if !ok || !pamper.IsPamper {
			return domain.ErrInvalidPamper
		}
	}

	for _, item := range form.Items {
		if item.ItemCode == "" {
			return domain.ErrInvalidItemCode
		}
		if item.Qty.IsNegative() {
			return domain.ErrInvalidQty
		}
		if item.Price < 0 {
			return domain.ErrInvalidPrice
		}
		if !sameID(&item.CustomerID, form.CustomerID) && !sameID(&item.CustomerID, form.PamperID) {
			return domain.ErrInvalidItemCustomer
		}
		if item.PamperID != nil && !sameID(item.PamperID, form.PamperID) {
			return domain.ErrInvalidItemPamper
		}
	}

	commissionItem := s.settings.Get().CommissionItem
	for _, row := range form.Commissions {
		if !strings.EqualFold(row.ItemCode, commissionItem) {
			return domain.ErrInvalidCommissionItem
		}
		if row.Commission < 0 || row.Taxes < 0 {
			return domain.ErrInvalidCommission
		}
	}

	for _, row := range form.PamperCommissions {
		if form.PamperID == nil || row.PamperID != *form.PamperID {
			return domain.ErrInvalidPamper
		}
		if row.Price < 0 {
			return domain.ErrInvalidPrice
		}
		if !money.ValidPercent(row.Percentage) {
			return domain.ErrInvalidPercentage
		}
	}

	domain.Recalculate(form, supplier.CommissionPercentage, func(id snowflake.ID) decimal.Decimal {
		return customers[id].CommissionPercentage
	})
	return nil
}

func (s *Service) load(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, forUpdate bool) (*domain.InvoiceForm, error) {
	if id == 0 {
		return nil, domain.ErrInvalidID
	}
	form, err := s.repo.FindByID(ctx, db, orgID, id, forUpdate)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, domain.ErrNotFound
	}
	if err := s.repo.LoadChildren(ctx, db, form); err != nil {
		return nil, err
	}
	form.PostingDate = form.PostingDate.UTC()
	return form, nil
}

func (s *Service) afterTransition(ctx context.Context, orgID snowflake.ID, action string) {
	s.reportCache.Invalidate(ctx, orgID)
	s.obsMetrics.RecordDocumentTransition(ctx, doctype, action)
}

func (s *Service) audit(ctx context.Context, tx *gorm.DB, action string, form *domain.InvoiceForm) error {
	if s.auditSvc == nil {
		return nil
	}
	return s.auditSvc.AuditLog(ctx, tx, action, doctype, form.ID.String(), map[string]any{
		"name":        form.Name,
		"grand_total": form.GrandTotal,
		"docstatus":   int(form.Docstatus),
	})
}

func (s *Service) withTx(ctx context.Context, tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx != nil {
		return fn(tx)
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

func dateRange(from, to time.Time) (time.Time, time.Time, error) {
	from, to = clock.Date(from), clock.Date(to)
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return time.Time{}, time.Time{}, domain.ErrInvalidDateRange
	}
	return from, to, nil
}

func sameID(a, b *snowflake.ID) bool {
	return a != nil && b != nil && *a == *b
}

func nonZero(id *snowflake.ID) *snowflake.ID {
	if id == nil || *id == 0 {
		return nil
	}
	value := *id
	return &value
}

func orgIDFromContext(ctx context.Context) (snowflake.ID, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, domain.ErrInvalidOrganization
	}
	return orgID, nil
}
