package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/agrimarket/internal/cache"
	"github.com/smallbiznis/agrimarket/internal/clock"
	"github.com/smallbiznis/agrimarket/internal/commission/domain"
	"github.com/smallbiznis/agrimarket/internal/config"
	invoiceformdomain "github.com/smallbiznis/agrimarket/internal/invoiceform/domain"
	obsmetrics "github.com/smallbiznis/agrimarket/internal/observability/metrics"
	"github.com/smallbiznis/agrimarket/internal/ratelimit"
	"github.com/smallbiznis/agrimarket/internal/orgcontext"
	partydomain "github.com/smallbiznis/agrimarket/internal/party/domain"
	salesinvoicedomain "github.com/smallbiznis/agrimarket/internal/salesinvoice/domain"
	taxdomain "github.com/smallbiznis/agrimarket/internal/tax/domain"
	"github.com/smallbiznis/agrimarket/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB              *gorm.DB
	Log             *zap.Logger
	Clock           clock.Clock
	PartySvc        partydomain.Service
	InvoiceFormSvc  invoiceformdomain.Service
	SalesInvoiceSvc salesinvoicedomain.Service
	TaxResolver     taxdomain.RateResolver
	Settings        config.SettingsProvider
	ReportCache     cache.ReportCache   `optional:"true"`
	ObsMetrics      *obsmetrics.Metrics `optional:"true"`
	Limiter         *ratelimit.Limiter  `optional:"true"`
}

type Service struct {
	db              *gorm.DB
	log             *zap.Logger
	clock           clock.Clock
	partySvc        partydomain.Service
	invoiceFormSvc  invoiceformdomain.Service
	salesInvoiceSvc salesinvoicedomain.Service
	taxResolver     taxdomain.RateResolver
	settings        config.SettingsProvider
	reportCache     cache.ReportCache
	obsMetrics      *obsmetrics.Metrics
	limiter         *ratelimit.Limiter
}

func New(p Params) domain.Service {
	reportCache := p.ReportCache
	if reportCache == nil {
		reportCache = cache.NewNoopReportCache()
	}
	return &Service{
		db:              p.DB,
		log:             p.Log.Named("commission.service"),
		clock:           p.Clock,
		partySvc:        p.PartySvc,
		invoiceFormSvc:  p.InvoiceFormSvc,
		salesInvoiceSvc: p.SalesInvoiceSvc,
		taxResolver:     p.TaxResolver,
		settings:        p.Settings,
		reportCache:     reportCache,
		obsMetrics:      p.ObsMetrics,
		limiter:         p.Limiter,
	}
}

func (s *Service) ListPending(ctx context.Context, filter domain.Filter) ([]domain.Pending, error) {
	if _, err := orgIDFromContext(ctx); err != nil {
		return nil, err
	}
	filter, err := s.normalize(filter)
	if err != nil {
		return nil, err
	}

	switch filter.PartyType {
	case partydomain.PartyTypeSupplier:
		pct, err := s.partySvc.SupplierCommissionPercentage(ctx, filter.Party)
		if err != nil {
			if errors.Is(err, partydomain.ErrSupplierNotFound) {
				return nil, domain.ErrInvalidFilter
			}
			return nil, err
		}
		forms, err := s.invoiceFormSvc.PendingSupplierCommissions(ctx, filter.Party, filter.FromDate, filter.ToDate)
		if err != nil {
			return nil, err
		}
		out := make([]domain.Pending, 0, len(forms))
		for _, form := range forms {
			out = append(out, domain.Pending{
				InvoiceID:   form.ID,
				InvoiceName: form.Name,
				PostingDate: form.PostingDate.UTC(),
				Total:       money.PercentOf(form.GrandTotal, pct),
			})
		}
		return out, nil

	default:
		rows, err := s.invoiceFormSvc.PendingCustomerCommissions(ctx, filter.Party, filter.FromDate, filter.ToDate)
		if err != nil {
			return nil, err
		}
		out := make([]domain.Pending, 0, len(rows))
		for _, row := range rows {
			out = append(out, domain.Pending{
				InvoiceID:   row.FormID,
				InvoiceName: row.FormName,
				PostingDate: row.PostingDate,
				Total:       row.Total,
			})
		}
		return out, nil
	}
}

func (s *Service) Generate(ctx context.Context, req domain.GenerateRequest) ([]salesinvoicedomain.SalesInvoice, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	filter, err := s.normalize(req.Filter)
	if err != nil {
		return nil, err
	}

	release, ok, err := s.limiter.LockCommissions(ctx, orgID, string(filter.PartyType), filter.Party)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrGenerationRunning
	}
	defer release()

	pending, err := s.ListPending(ctx, filter)
	if err != nil {
		return nil, err
	}
	selected, err := selectPending(pending, req.Invoices)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return []salesinvoicedomain.SalesInvoice{}, nil
	}

	billTo := filter.Party
	if filter.PartyType == partydomain.PartyTypeSupplier {
		supplier, err := s.partySvc.GetSupplier(ctx, filter.Party)
		if err != nil {
			return nil, err
		}
		if supplier.RelatedCustomerID == nil {
			return nil, domain.ErrNoRelatedCustomer
		}
		billTo = *supplier.RelatedCustomerID
	}

	rate, err := s.taxResolver.DefaultRate(ctx)
	if err != nil {
		return nil, err
	}

	created := make([]salesinvoicedomain.SalesInvoice, 0, len(selected))
	for _, row := range selected {
		var inv salesinvoicedomain.SalesInvoice
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			inv, err = s.salesInvoiceSvc.CreateTx(ctx, tx, s.invoiceRequest(filter.PartyType, billTo, rate, row))
			if err != nil {
				return err
			}
			if filter.PartyType == partydomain.PartyTypeSupplier {
				return s.invoiceFormSvc.MarkSupplierCommissionInvoiced(ctx, tx, row.InvoiceID, true)
			}
			_, err = s.invoiceFormSvc.MarkCustomerCommissionInvoiced(ctx, tx, row.InvoiceID, billTo, true)
			return err
		})
		if err != nil {
			s.log.Warn("commission invoice generation stopped",
				zap.String("invoice_form", row.InvoiceName),
				zap.Int("created", len(created)),
				zap.Error(err),
			)
			if len(created) > 0 {
				s.reportCache.Invalidate(ctx, orgID)
			}
			return created, err
		}
		created = append(created, inv)
	}

	s.reportCache.Invalidate(ctx, orgID)
	s.obsMetrics.RecordCommissionInvoices(ctx, string(filter.PartyType), len(created))
	s.log.Info("commission invoices generated",
		zap.String("party_type", string(filter.PartyType)),
		zap.String("party", filter.Party.String()),
		zap.Int("count", len(created)),
	)
	return created, nil
}

func (s *Service) invoiceRequest(partyType partydomain.PartyType, billTo snowflake.ID, rate decimal.Decimal, row domain.Pending) salesinvoicedomain.CreateRequest {
	formID := row.InvoiceID
	return salesinvoicedomain.CreateRequest{
		CustomerID:          billTo,
		PostingDate:         clock.Date(s.clock.Now()),
		IsCommissionInvoice: true,
		CommissionPartyType: partyType,
		TaxRate:             rate,
		Items: []salesinvoicedomain.ItemRequest{{
			ItemCode:      s.settings.Get().CommissionItem,
			Description:   fmt.Sprintf("Commission on %s", row.InvoiceName),
			InvoiceFormID: &formID,
			Qty:           decimal.NewFromInt(1),
			Rate:          row.Total,
		}},
	}
}

func (s *Service) normalize(filter domain.Filter) (domain.Filter, error) {
	if !filter.PartyType.Valid() || filter.Party == 0 || filter.FromDate.IsZero() {
		return domain.Filter{}, domain.ErrInvalidFilter
	}
	filter.FromDate = clock.Date(filter.FromDate)
	filter.ToDate = clock.Date(filter.ToDate)
	if filter.ToDate.IsZero() {
		filter.ToDate = clock.Date(s.clock.Now())
	}
	if filter.ToDate.Before(filter.FromDate) {
		return domain.Filter{}, domain.ErrInvalidDateRange
	}
	return filter, nil
}

func selectPending(pending []domain.Pending, ids []snowflake.ID) ([]domain.Pending, error) {
	if len(ids) == 0 {
		return pending, nil
	}
	byID := make(map[snowflake.ID]domain.Pending, len(pending))
	for _, row := range pending {
		byID[row.InvoiceID] = row
	}
	out := make([]domain.Pending, 0, len(ids))
	seen := map[snowflake.ID]bool{}
	for _, id := range ids {
		row, ok := byID[id]
		if !ok {
			return nil, domain.ErrNotPending
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, row)
	}
	return out, nil
}

func orgIDFromContext(ctx context.Context) (snowflake.ID, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, domain.ErrInvalidOrganization
	}
	return orgID, nil
}
