package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/agrimarket/internal/audit/domain"
	"github.com/smallbiznis/agrimarket/internal/cache"
	"github.com/smallbiznis/agrimarket/internal/clock"
	"github.com/smallbiznis/agrimarket/internal/config"
	"github.com/smallbiznis/agrimarket/internal/docstatus"
	invoiceformdomain "github.com/smallbiznis/agrimarket/internal/invoiceform/domain"
	ledgerdomain "github.com/smallbiznis/agrimarket/internal/ledger/domain"
	"github.com/smallbiznis/agrimarket/internal/naming"
	obsmetrics "github.com/smallbiznis/agrimarket/internal/observability/metrics"
	"github.com/smallbiznis/agrimarket/internal/orgcontext"
	partydomain "github.com/smallbiznis/agrimarket/internal/party/domain"
	"github.com/smallbiznis/agrimarket/internal/salesinvoice/domain"
	"github.com/smallbiznis/agrimarket/pkg/db/pagination"
	"github.com/smallbiznis/agrimarket/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const doctype = "sales_invoice"

type Params struct {
	fx.In

	DB             *gorm.DB
	Log            *zap.Logger
	GenID          *snowflake.Node
	Clock          clock.Clock
	Repo           domain.Repository
	PartySvc       partydomain.Service
	LedgerSvc      ledgerdomain.Service
	InvoiceFormSvc invoiceformdomain.Service
	Namer          naming.Namer
	Settings       config.SettingsProvider
	ReportCache    cache.ReportCache   `optional:"true"`
	AuditSvc       auditdomain.Service `optional:"true"`
	ObsMetrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db             *gorm.DB
	log            *zap.Logger
	genID          *snowflake.Node
	clock          clock.Clock
	repo           domain.Repository
	partySvc       partydomain.Service
	ledgerSvc      ledgerdomain.Service
	invoiceFormSvc invoiceformdomain.Service
	namer          naming.Namer
	settings       config.SettingsProvider
	reportCache    cache.ReportCache
	auditSvc       auditdomain.Service
	obsMetrics     *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	reportCache := p.ReportCache
	if reportCache == nil {
		reportCache = cache.NewNoopReportCache()
	}
	return &Service{
		db:             p.DB,
		log:            p.Log.Named("salesinvoice.service"),
		genID:          p.GenID,
		clock:          p.Clock,
		repo:           p.Repo,
		partySvc:       p.PartySvc,
		ledgerSvc:      p.LedgerSvc,
		invoiceFormSvc: p.InvoiceFormSvc,
		namer:          p.Namer,
		settings:       p.Settings,
		reportCache:    reportCache,
		auditSvc:       p.AuditSvc,
		obsMetrics:     p.ObsMetrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (domain.SalesInvoice, error) {
	return s.CreateTx(ctx, nil, req)
}

func (s *Service) CreateTx(ctx context.Context, tx *gorm.DB, req domain.CreateRequest) (domain.SalesInvoice, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return domain.SalesInvoice{}, err
	}

	inv, err := s.build(ctx, orgID, req)
	if err != nil {
		return domain.SalesInvoice{}, err
	}

	err = s.withTx(ctx, tx, func(tx *gorm.DB) error {
		name, err := s.namer.Next(ctx, tx, naming.SeriesSalesInvoice, inv.PostingDate)
		if err != nil {
			return err
		}
		inv.Name = name
		if err := s.repo.Insert(ctx, tx, &inv); err != nil {
			return err
		}
		return s.audit(ctx, tx, "sales_invoice.create", &inv)
	})
	if err != nil {
		return domain.SalesInvoice{}, err
	}
	// callers passing tx invalidate once their transaction commits
	if tx == nil {
		s.afterTransition(ctx, orgID, "create")
	}
	return inv, nil
}

// build validates the request and returns a computed draft invoice.
func (s *Service) build(ctx context.Context, orgID snowflake.ID, req domain.CreateRequest) (domain.SalesInvoice, error) {
	if req.CustomerID == 0 {
		return domain.SalesInvoice{}, domain.ErrInvalidCustomer
	}
	if _, err := s.partySvc.GetCustomer(ctx, req.CustomerID); err != nil {
		if errors.Is(err, partydomain.ErrCustomerNotFound) {
			return domain.SalesInvoice{}, domain.ErrInvalidCustomer
		}
		return domain.SalesInvoice{}, err
	}
	if req.CommissionPartyType != "" && (!req.IsCommissionInvoice || !req.CommissionPartyType.Valid()) {
		return domain.SalesInvoice{}, domain.ErrInvalidPartyType
	}
	if !money.ValidPercent(req.TaxRate) {
		return domain.SalesInvoice{}, domain.ErrInvalidTaxRate
	}
	if len(req.Items) == 0 {
		return domain.SalesInvoice{}, domain.ErrNoItems
	}

	now := s.clock.Now().UTC()
	inv := domain.SalesInvoice{
		ID:                  s.genID.Generate(),
		OrgID:               orgID,
		CustomerID:          req.CustomerID,
		PostingDate:         clock.Date(req.PostingDate),
		Docstatus:           docstatus.Draft,
		IsCommissionInvoice: req.IsCommissionInvoice,
		CommissionPartyType: req.CommissionPartyType,
		TaxRate:             req.TaxRate,
		Remarks:             strings.TrimSpace(req.Remarks),
		Metadata:            datatypes.JSONMap(req.Metadata),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if inv.PostingDate.IsZero() {
		inv.PostingDate = clock.Date(now)
	}

	inv.Items = make([]domain.SalesInvoiceItem, 0, len(req.Items))
	for _, item := range req.Items {
		row := domain.SalesInvoiceItem{
			ID:            s.genID.Generate(),
			OrgID:         orgID,
			InvoiceID:     inv.ID,
			ItemCode:      strings.TrimSpace(item.ItemCode),
			Description:   strings.TrimSpace(item.Description),
			InvoiceFormID: item.InvoiceFormID,
			Qty:           item.Qty,
			Rate:          item.Rate,
		}
		if row.ItemCode == "" {
			return domain.SalesInvoice{}, domain.ErrInvalidItemCode
		}
		if row.Qty.IsNegative() {
			return domain.SalesInvoice{}, domain.ErrInvalidQty
		}
		if row.Rate < 0 {
			return domain.SalesInvoice{}, domain.ErrInvalidRate
		}
		if row.InvoiceFormID != nil && *row.InvoiceFormID == 0 {
			row.InvoiceFormID = nil
		}
		inv.Items = append(inv.Items, row)
	}

	domain.Recalculate(&inv)
	return inv, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (domain.SalesInvoice, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return domain.SalesInvoice{}, err
	}
	inv, err := s.load(ctx, s.db, orgID, id, false)
	if err != nil {
		return domain.SalesInvoice{}, err
	}
	return *inv, nil
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
	invoices, pageInfo := pagination.Page(items, req.Limit(), func(inv domain.SalesInvoice) int64 { return int64(inv.ID) })
	return domain.ListResponse{PageInfo: pageInfo, SalesInvoices: invoices}, nil
}

func (s *Service) Submit(ctx context.Context, id snowflake.ID) (domain.SalesInvoice, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return domain.SalesInvoice{}, err
	}

	var submitted domain.SalesInvoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.load(ctx, tx, orgID, id, true)
		if err != nil {
			return err
		}
		if err := inv.Docstatus.CanSubmit(); err != nil {
			return err
		}
		if len(inv.Items) == 0 {
			return domain.ErrNoItems
		}
		if inv.GrandTotal <= 0 {
			return domain.ErrZeroTotal
		}

		if err := s.ledgerSvc.Post(ctx, tx, s.posting(inv)); err != nil {
			return err
		}

		inv.Docstatus = docstatus.Submitted
		inv.UpdatedAt = s.clock.Now().UTC()
		if err := s.repo.SetDocstatus(ctx, tx, orgID, inv.ID, inv.Docstatus, inv.UpdatedAt); err != nil {
			return err
		}
		submitted = *inv
		return s.audit(ctx, tx, "sales_invoice.submit", inv)
	})
	if err != nil {
		return domain.SalesInvoice{}, err
	}

	s.afterTransition(ctx, orgID, "submit")
	s.log.Info("sales invoice submitted",
		zap.String("sales_invoice", submitted.Name),
		zap.Int64("grand_total", submitted.GrandTotal),
	)
	return submitted, nil
}

// posting debits the customer with the grand total against income and tax payable.
func (s *Service) posting(inv *domain.SalesInvoice) ledgerdomain.Posting {
	accounts := s.settings.Get().Accounts
	income := accounts.Sales
	if inv.IsCommissionInvoice {
		income = accounts.CommissionIncome
	}

	lines := []ledgerdomain.PostingLine{
		ledgerdomain.Debit(accounts.Receivable, partydomain.PartyTypeCustomer, inv.CustomerID, inv.GrandTotal),
	}
	if inv.NetTotal > 0 {
		lines = append(lines, ledgerdomain.Credit(income, "", 0, inv.NetTotal))
	}
	if inv.TaxTotal > 0 {
		lines = append(lines, ledgerdomain.Credit(accounts.TaxPayable, "", 0, inv.TaxTotal))
	}

	return ledgerdomain.Posting{
		VoucherType: ledgerdomain.VoucherTypeSalesInvoice,
		VoucherID:   inv.ID,
		VoucherNo:   inv.Name,
		PostingDate: inv.PostingDate,
		Remarks:     inv.Remarks,
		Lines:       lines,
	}
}

func (s *Service) Cancel(ctx context.Context, id snowflake.ID) (domain.SalesInvoice, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return domain.SalesInvoice{}, err
	}

	var cancelled domain.SalesInvoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.load(ctx, tx, orgID, id, true)
		if err != nil {
			return err
		}
		if err := inv.Docstatus.CanCancel(); err != nil {
			return err
		}

		if err := s.ledgerSvc.Reverse(ctx, tx, ledgerdomain.VoucherTypeSalesInvoice, inv.ID); err != nil {
			return err
		}

		inv.Docstatus = docstatus.Cancelled
		inv.UpdatedAt = s.clock.Now().UTC()
		if err := s.repo.SetDocstatus(ctx, tx, orgID, inv.ID, inv.Docstatus, inv.UpdatedAt); err != nil {
			return err
		}
		if err := s.releaseInvoiceForms(ctx, tx, inv); err != nil {
			return err
		}
		cancelled = *inv
		return s.audit(ctx, tx, "sales_invoice.cancel", inv)
	})
	if err != nil {
		return domain.SalesInvoice{}, err
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
		inv, err := s.load(ctx, tx, orgID, id, true)
		if err != nil {
			return err
		}
		if err := inv.Docstatus.CanDelete(); err != nil {
			return err
		}
		// cancelled invoices released their forms already
		if inv.Docstatus == docstatus.Draft {
			if err := s.releaseInvoiceForms(ctx, tx, inv); err != nil {
				return err
			}
		}
		if err := s.repo.Delete(ctx, tx, orgID, inv.ID); err != nil {
			return err
		}
		return s.audit(ctx, tx, "sales_invoice.delete", inv)
	})
	if err != nil {
		return err
	}
	s.afterTransition(ctx, orgID, "delete")
	return nil
}

// releaseInvoiceForms clears the commission flags the invoice set on its invoice forms.
// Rows of the invoice customer are released when the form has any; otherwise the
// supplier flag is.
func (s *Service) releaseInvoiceForms(ctx context.Context, tx *gorm.DB, inv *domain.SalesInvoice) error {
	if !inv.IsCommissionInvoice {
		return nil
	}
	for _, formID := range inv.InvoiceFormIDs() {
		if inv.CommissionPartyType == partydomain.PartyTypeSupplier {
			if err := s.invoiceFormSvc.MarkSupplierCommissionInvoiced(ctx, tx, formID, false); err != nil {
				return err
			}
			continue
		}

		matched, err := s.invoiceFormSvc.MarkCustomerCommissionInvoiced(ctx, tx, formID, inv.CustomerID, false)
		if err != nil {
			return err
		}
		if matched > 0 || inv.CommissionPartyType == partydomain.PartyTypeCustomer {
			continue
		}
		if err := s.invoiceFormSvc.MarkSupplierCommissionInvoiced(ctx, tx, formID, false); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) load(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, forUpdate bool) (*domain.SalesInvoice, error) {
	if id == 0 {
		return nil, domain.ErrInvalidID
	}
	inv, err := s.repo.FindByID(ctx, db, orgID, id, forUpdate)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if err := s.repo.LoadItems(ctx, db, inv); err != nil {
		return nil, err
	}
	inv.PostingDate = inv.PostingDate.UTC()
	return inv, nil
}

func (s *Service) afterTransition(ctx context.Context, orgID snowflake.ID, action string) {
	s.reportCache.Invalidate(ctx, orgID)
	s.obsMetrics.RecordDocumentTransition(ctx, doctype, action)
}

func (s *Service) audit(ctx context.Context, tx *gorm.DB, action string, inv *domain.SalesInvoice) error {
	if s.auditSvc == nil {
		return nil
	}
	return s.auditSvc.AuditLog(ctx, tx, action, doctype, inv.ID.String(), map[string]any{
		"name":        inv.Name,
		"customer_id": inv.CustomerID.String(),
		"grand_total": inv.GrandTotal,
		"docstatus":   int(inv.Docstatus),
	})
}

func (s *Service) withTx(ctx context.Context, tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx != nil {
		return fn(tx)
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

func orgIDFromContext(ctx context.Context) (snowflake.ID, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, domain.ErrInvalidOrganization
	}
	return orgID, nil
}
