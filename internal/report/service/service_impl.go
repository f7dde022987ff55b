package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/agrimarket/internal/cache"
	"github.com/smallbiznis/agrimarket/internal/clock"
	"github.com/smallbiznis/agrimarket/internal/config"
	"github.com/smallbiznis/agrimarket/internal/docstatus"
	filesdomain "github.com/smallbiznis/agrimarket/internal/files/domain"
	ledgerdomain "github.com/smallbiznis/agrimarket/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/agrimarket/internal/observability/metrics"
	"github.com/smallbiznis/agrimarket/internal/orgcontext"
	partydomain "github.com/smallbiznis/agrimarket/internal/party/domain"
	paymentdomain "github.com/smallbiznis/agrimarket/internal/payment/domain"
	"github.com/smallbiznis/agrimarket/internal/providers/pdf"
	"github.com/smallbiznis/agrimarket/internal/providers/xlsx"
	"github.com/smallbiznis/agrimarket/internal/report/domain"
	taxdomain "github.com/smallbiznis/agrimarket/internal/tax/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Clock       clock.Clock
	LedgerSvc   ledgerdomain.Service
	TaxResolver taxdomain.RateResolver
	Settings    config.SettingsProvider
	FileSvc     filesdomain.Service
	PDF         pdf.Provider
	XLSX        xlsx.Provider
	ReportCache cache.ReportCache   `optional:"true"`
	ObsMetrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	ledgerSvc   ledgerdomain.Service
	taxResolver taxdomain.RateResolver
	settings    config.SettingsProvider
	fileSvc     filesdomain.Service
	pdf         pdf.Provider
	xlsx        xlsx.Provider
	reportCache cache.ReportCache
	obsMetrics  *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	reportCache := p.ReportCache
	if reportCache == nil {
		reportCache = cache.NewNoopReportCache()
	}
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("report.service"),
		clock:       p.Clock,
		ledgerSvc:   p.LedgerSvc,
		taxResolver: p.TaxResolver,
		settings:    p.Settings,
		fileSvc:     p.FileSvc,
		pdf:         p.PDF,
		xlsx:        p.XLSX,
		reportCache: reportCache,
		obsMetrics:  p.ObsMetrics,
	}
}

const (
	reportStatementForms = "statement_forms"
	reportDetailed       = "detailed_report"
	reportCollectionForm = "collection_form"
	reportTrialBalance   = "trial_balance"
	reportItemsList      = "items_list"
)

type partyRef struct {
	ID         snowflake.ID
	Name       string
	PartyGroup string
}

type itemRow struct {
	PartyID            snowflake.ID
	FormID             snowflake.ID
	FormName           string
	PostingDate        time.Time
	Idx                int
	ItemCode           string
	ItemName           string
	Qty                decimal.Decimal
	Price              int64
	Total              int64
	Commission         int64
	CustomerCommission int64
}

// partyCommission is the commission column a party type is charged on.
func (r itemRow) partyCommission(partyType partydomain.PartyType) int64 {
	if partyType == partydomain.PartyTypeSupplier {
		return r.Commission
	}
	return r.CustomerCommission
}

type paymentRow struct {
	PartyID       snowflake.ID
	PaymentID     snowflake.ID
	PaymentName   string
	PostingDate   time.Time
	ModeOfPayment string
	PaymentType   paymentdomain.PaymentType
	Remarks       string
	PaidAmount    int64
}

func (r paymentRow) statementPayment(partyType partydomain.PartyType, signed bool) domain.StatementPayment {
	amount := r.PaidAmount
	if signed {
		amount = paymentdomain.SignedAmount(partyType, r.PaymentType, r.PaidAmount)
	}
	return domain.StatementPayment{
		PaymentID:     r.PaymentID,
		PaymentName:   r.PaymentName,
		PostingDate:   r.PostingDate,
		ModeOfPayment: r.ModeOfPayment,
		PaymentType:   string(r.PaymentType),
		Remarks:       r.Remarks,
		PaidAmount:    amount,
	}
}

func orgIDFromContext(ctx context.Context) (snowflake.ID, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, domain.ErrInvalidOrganization
	}
	return orgID, nil
}

func normalizeFilter(filter domain.Filter) (domain.Filter, error) {
	if !filter.PartyType.Valid() {
		return filter, domain.ErrInvalidPartyType
	}
	if !filter.FromDate.IsZero() {
		filter.FromDate = clock.Date(filter.FromDate)
	}
	if !filter.ToDate.IsZero() {
		filter.ToDate = clock.Date(filter.ToDate)
	}
	if !filter.FromDate.IsZero() && !filter.ToDate.IsZero() && filter.ToDate.Before(filter.FromDate) {
		return filter, domain.ErrInvalidDateRange
	}
	return filter, nil
}

func statuses(considerDraft bool) []docstatus.Docstatus {
	if considerDraft {
		return []docstatus.Docstatus{docstatus.Draft, docstatus.Submitted}
	}
	return []docstatus.Docstatus{docstatus.Submitted}
}

// resolveParties returns the explicit party, else the group members, else every
// party of the type. Customers are limited to market customers unless named.
func (s *Service) resolveParties(ctx context.Context, orgID snowflake.ID, filter domain.Filter) ([]partyRef, error) {
	table, groupColumn := "suppliers", "supplier_group"
	if filter.PartyType == partydomain.PartyTypeCustomer {
		table, groupColumn = "customers", "customer_group"
	}

	stmt := s.db.WithContext(ctx).
		Table(table).
		Select("id, name, " + groupColumn + " AS party_group").
		Where("org_id = ?", orgID)
	switch {
	case filter.Party != 0:
		stmt = stmt.Where("id = ?", filter.Party)
	case filter.PartyGroup != "":
		stmt = stmt.Where(groupColumn+" = ?", filter.PartyGroup)
	}
	if filter.Party == 0 && filter.PartyType == partydomain.PartyTypeCustomer {
		stmt = stmt.Where("is_customer = ?", true)
	}

	var parties []partyRef
	if err := stmt.Order("name ASC, id ASC").Scan(&parties).Error; err != nil {
		return nil, err
	}
	if filter.Party != 0 && len(parties) == 0 {
		return nil, domain.ErrPartyNotFound
	}
	return parties, nil
}

func partyIDs(parties []partyRef) []snowflake.ID {
	ids := make([]snowflake.ID, 0, len(parties))
	for _, party := range parties {
		ids = append(ids, party.ID)
	}
	return ids
}

func partyColumn(partyType partydomain.PartyType) string {
	if partyType == partydomain.PartyTypeCustomer {
		return "i.customer_id"
	}
	return "f.supplier_id"
}

func (s *Service) formItems(ctx context.Context, orgID snowflake.ID, filter domain.Filter, ids []snowflake.ID, order string) ([]itemRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	column := partyColumn(filter.PartyType)
	stmt := s.db.WithContext(ctx).
		Table("invoice_forms AS f").
		Select(column+` AS party_id, f.id AS form_id, f.name AS form_name, f.posting_date AS posting_date,
			i.idx AS idx, i.item_code AS item_code, i.item_name AS item_name, i.qty AS qty, i.price AS price,
			i.total AS total, i.commission AS commission, i.customer_commission AS customer_commission`).
		Joins("JOIN invoice_form_items AS i ON i.form_id = f.id").
		Where("f.org_id = ?", orgID).
		Where(column+" IN ?", ids).
		Where("f.docstatus IN ?", statuses(filter.ConsiderDraft))
	if !filter.FromDate.IsZero() {
		stmt = stmt.Where("f.posting_date >= ?", filter.FromDate)
	}
	if !filter.ToDate.IsZero() {
		stmt = stmt.Where("f.posting_date <= ?", filter.ToDate)
	}

	var rows []itemRow
	err := stmt.Order(order).Scan(&rows).Error
	return rows, err
}

func (s *Service) payments(ctx context.Context, orgID snowflake.ID, filter domain.Filter, ids []snowflake.ID) ([]paymentRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	stmt := s.db.WithContext(ctx).
		Table("payment_entries").
		Select(`party_id, id AS payment_id, name AS payment_name, posting_date, mode_of_payment,
			payment_type, remarks, paid_amount`).
		Where("org_id = ? AND party_type = ?", orgID, filter.PartyType).
		Where("party_id IN ?", ids).
		Where("docstatus IN ?", statuses(filter.ConsiderDraft))
	if !filter.FromDate.IsZero() {
		stmt = stmt.Where("posting_date >= ?", filter.FromDate)
	}
	if !filter.ToDate.IsZero() {
		stmt = stmt.Where("posting_date <= ?", filter.ToDate)
	}

	var rows []paymentRow
	err := stmt.Order("posting_date ASC, name ASC").Scan(&rows).Error
	return rows, err
}

func (s *Service) taxRate(ctx context.Context) (decimal.Decimal, error) {
	if s.taxResolver == nil {
		return decimal.Zero, nil
	}
	return s.taxResolver.DefaultRate(ctx)
}

// cached serves a report from the company's report cache, building and storing it on a miss.
func cached[T any](ctx context.Context, s *Service, orgID snowflake.ID, report string, filter any, build func() (T, error)) (T, error) {
	key, err := cache.Key(filter)
	if err != nil {
		s.log.Debug("report cache key failed", zap.String("report", report), zap.Error(err))
		key = ""
	}
	if key != "" {
		if payload, ok := s.reportCache.Get(ctx, orgID, report, key); ok {
			var out T
			if err := json.Unmarshal(payload, &out); err == nil {
				return out, nil
			}
		}
	}

	out, err := build()
	if err != nil {
		return out, err
	}
	if key != "" {
		if payload, err := json.Marshal(out); err == nil {
			s.reportCache.Set(ctx, orgID, report, key, payload)
		}
	}
	s.obsMetrics.RecordReportRendered(ctx, report, string(domain.FormatJSON))
	return out, nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func datePtr(t time.Time) *time.Time {
	return &t
}
