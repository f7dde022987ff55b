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
	ledgerdomain "github.com/smallbiznis/agrimarket/internal/ledger/domain"
	"github.com/smallbiznis/agrimarket/internal/naming"
	obsmetrics "github.com/smallbiznis/agrimarket/internal/observability/metrics"
	"github.com/smallbiznis/agrimarket/internal/orgcontext"
	partydomain "github.com/smallbiznis/agrimarket/internal/party/domain"
	"github.com/smallbiznis/agrimarket/internal/payment/domain"
	"github.com/smallbiznis/agrimarket/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const doctype = "payment_entry"

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
		log:         p.Log.Named("payment.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		partySvc:    p.PartySvc,
		ledgerSvc:   p.LedgerSvc,
		namer:       p.Namer,
		settings:    p.Settings,
		reportCache: reportCache,
		auditSvc:    p.AuditSvc,
		obsMetrics:  p.ObsMetrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (domain.PaymentEntry, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return domain.PaymentEntry{}, err
	}

	if !req.PartyType.Valid() {
		return domain.PaymentEntry{}, domain.ErrInvalidPartyType
	}
	if !req.PaymentType.Valid() {
		return domain.PaymentEntry{}, domain.ErrInvalidPaymentType
	}
	if req.PaidAmount <= 0 {
		return domain.PaymentEntry{}, domain.ErrInvalidAmount
	}
	if err := s.checkParty(ctx, req.PartyType, req.PartyID); err != nil {
		return domain.PaymentEntry{}, err
	}

	now := s.clock.Now().UTC()
	entry := domain.PaymentEntry{
		ID:            s.genID.Generate(),
		OrgID:         orgID,
		PartyType:     req.PartyType,
		PartyID:       req.PartyID,
		PaymentType:   req.PaymentType,
		ModeOfPayment: strings.TrimSpace(req.ModeOfPayment),
		PaidAmount:    req.PaidAmount,
		PostingDate:   clock.Date(req.PostingDate),
		Docstatus:     docstatus.Draft,
		Remarks:       strings.TrimSpace(req.Remarks),
		Metadata:      datatypes.JSONMap(req.Metadata),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if entry.ModeOfPayment == "" {
		entry.ModeOfPayment = domain.DefaultModeOfPayment
	}
	if entry.PostingDate.IsZero() {
		entry.PostingDate = clock.Date(now)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		name, err := s.namer.Next(ctx, tx, naming.SeriesPayment, entry.PostingDate)
		if err != nil {
			return err
		}
		entry.Name = name
		if err := s.repo.Insert(ctx, tx, &entry); err != nil {
			return err
		}
		return s.audit(ctx, tx, "payment_entry.create", &entry)
	})
	if err != nil {
		return domain.PaymentEntry{}, err
	}
	s.afterTransition(ctx, orgID, "create")
	return entry, nil
}

func (s *Service) checkParty(ctx context.Context, partyType partydomain.PartyType, partyID snowflake.ID) error {
	if partyID == 0 {
		return domain.ErrInvalidParty
	}
	var err error
	switch partyType {
	case partydomain.PartyTypeCustomer:
		_, err = s.partySvc.GetCustomer(ctx, partyID)
	case partydomain.PartyTypeSupplier:
		_, err = s.partySvc.GetSupplier(ctx, partyID)
	}
	if errors.Is(err, partydomain.ErrCustomerNotFound) || errors.Is(err, partydomain.ErrSupplierNotFound) {
		return domain.ErrInvalidParty
	}
	return err
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (domain.PaymentEntry, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return domain.PaymentEntry{}, err
	}
	entry, err := s.load(ctx, s.db, orgID, id, false)
	if err != nil {
		return domain.PaymentEntry{}, err
	}
	return *entry, nil
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
	payments, pageInfo := pagination.Page(items, req.Limit(), func(p domain.PaymentEntry) int64 { return int64(p.ID) })
	return domain.ListResponse{PageInfo: pageInfo, Payments: payments}, nil
}

func (s *Service) Submit(ctx context.Context, id snowflake.ID) (domain.PaymentEntry, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return domain.PaymentEntry{}, err
	}

	var submitted domain.PaymentEntry
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := s.load(ctx, tx, orgID, id, true)
		if err != nil {
			return err
		}
		if err := entry.Docstatus.CanSubmit(); err != nil {
			return err
		}

		if err := s.ledgerSvc.Post(ctx, tx, s.posting(entry)); err != nil {
			return err
		}

		entry.Docstatus = docstatus.Submitted
		entry.UpdatedAt = s.clock.Now().UTC()
		if err := s.repo.SetDocstatus(ctx, tx, orgID, entry.ID, entry.Docstatus, entry.UpdatedAt); err != nil {
			return err
		}
		submitted = *entry
		return s.audit(ctx, tx, "payment_entry.submit", entry)
	})
	if err != nil {
		return domain.PaymentEntry{}, err
	}

	s.afterTransition(ctx, orgID, "submit")
	s.log.Info("payment entry submitted",
		zap.String("payment_entry", submitted.Name),
		zap.String("payment_type", string(submitted.PaymentType)),
		zap.Int64("paid_amount", submitted.PaidAmount),
	)
	return submitted, nil
}

func (s *Service) posting(entry *domain.PaymentEntry) ledgerdomain.Posting {
	accounts := s.settings.Get().Accounts
	partyAccount := accounts.Receivable
	if entry.PartyType == partydomain.PartyTypeSupplier {
		partyAccount = accounts.Payable
	}

	var lines []ledgerdomain.PostingLine
	if entry.PaymentType == domain.PaymentTypeReceive {
		lines = []ledgerdomain.PostingLine{
			ledgerdomain.Debit(accounts.Cash, "", 0, entry.PaidAmount),
			ledgerdomain.Credit(partyAccount, entry.PartyType, entry.PartyID, entry.PaidAmount),
		}
	} else {
		lines = []ledgerdomain.PostingLine{
			ledgerdomain.Debit(partyAccount, entry.PartyType, entry.PartyID, entry.PaidAmount),
			ledgerdomain.Credit(accounts.Cash, "", 0, entry.PaidAmount),
		}
	}

	return ledgerdomain.Posting{
		VoucherType: ledgerdomain.VoucherTypePayment,
		VoucherID:   entry.ID,
		VoucherNo:   entry.Name,
		PostingDate: entry.PostingDate,
		Remarks:     entry.Remarks,
		Lines:       lines,
	}
}

func (s *Service) Cancel(ctx context.Context, id snowflake.ID) (domain.PaymentEntry, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return domain.PaymentEntry{}, err
	}

	var cancelled domain.PaymentEntry
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := s.load(ctx, tx, orgID, id, true)
		if err != nil {
			return err
		}
		if err := entry.Docstatus.CanCancel(); err != nil {
			return err
		}
		if err := s.ledgerSvc.Reverse(ctx, tx, ledgerdomain.VoucherTypePayment, entry.ID); err != nil {
			return err
		}

		entry.Docstatus = docstatus.Cancelled
		entry.UpdatedAt = s.clock.Now().UTC()
		if err := s.repo.SetDocstatus(ctx, tx, orgID, entry.ID, entry.Docstatus, entry.UpdatedAt); err != nil {
			return err
		}
		cancelled = *entry
		return s.audit(ctx, tx, "payment_entry.cancel", entry)
	})
	if err != nil {
		return domain.PaymentEntry{}, err
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
		entry, err := s.load(ctx, tx, orgID, id, true)
		if err != nil {
			return err
		}
		if err := entry.Docstatus.CanDelete(); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, tx, orgID, entry.ID); err != nil {
			return err
		}
		return s.audit(ctx, tx, "payment_entry.delete", entry)
	})
	if err != nil {
		return err
	}
	s.afterTransition(ctx, orgID, "delete")
	return nil
}

func (s *Service) load(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, forUpdate bool) (*domain.PaymentEntry, error) {
	if id == 0 {
		return nil, domain.ErrInvalidID
	}
	entry, err := s.repo.FindByID(ctx, db, orgID, id, forUpdate)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, domain.ErrNotFound
	}
	entry.PostingDate = entry.PostingDate.UTC()
	return entry, nil
}

func (s *Service) afterTransition(ctx context.Context, orgID snowflake.ID, action string) {
	s.reportCache.Invalidate(ctx, orgID)
	s.obsMetrics.RecordDocumentTransition(ctx, doctype, action)
}

func (s *Service) audit(ctx context.Context, tx *gorm.DB, action string, entry *domain.PaymentEntry) error {
	if s.auditSvc == nil {
		return nil
	}
	return s.auditSvc.AuditLog(ctx, tx, action, doctype, entry.ID.String(), map[string]any{
		"name":         entry.Name,
		"party_type":   string(entry.PartyType),
		"payment_type": string(entry.PaymentType),
		"paid_amount":  entry.PaidAmount,
		"docstatus":    int(entry.Docstatus),
	})
}

func orgIDFromContext(ctx context.Context) (snowflake.ID, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, domain.ErrInvalidOrganization
	}
	return orgID, nil
}
