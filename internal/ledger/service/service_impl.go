package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/agrimarket/internal/cache"
	"github.com/smallbiznis/agrimarket/internal/clock"
	"github.com/smallbiznis/agrimarket/internal/config"
	ledgerdomain "github.com/smallbiznis/agrimarket/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/agrimarket/internal/observability/metrics"
	"github.com/smallbiznis/agrimarket/internal/orgcontext"
	partydomain "github.com/smallbiznis/agrimarket/internal/party/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Settings    config.SettingsProvider
	ObsMetrics  *obsmetrics.Metrics `optional:"true"`
	ReportCache cache.ReportCache   `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	settings    config.SettingsProvider
	obsMetrics  *obsmetrics.Metrics
	reportCache cache.ReportCache
}

func NewService(p Params) ledgerdomain.Service {
	reportCache := p.ReportCache
	if reportCache == nil {
		reportCache = cache.NewNoopReportCache()
	}
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("ledger.service"),
		genID:       p.GenID,
		settings:    p.Settings,
		obsMetrics:  p.ObsMetrics,
		reportCache: reportCache,
	}
}

type accountSeed struct {
	code        string
	name        string
	rootType    ledgerdomain.RootType
	accountType ledgerdomain.AccountType
}

func (s *Service) chartOfAccounts() []accountSeed {
	accounts := s.settings.Get().Accounts
	return []accountSeed{
		{accounts.Receivable, "Debtors", ledgerdomain.RootTypeAsset, ledgerdomain.AccountTypeReceivable},
		{accounts.Payable, "Creditors", ledgerdomain.RootTypeLiability, ledgerdomain.AccountTypePayable},
		{accounts.Cash, "Cash", ledgerdomain.RootTypeAsset, ledgerdomain.AccountTypeCash},
		{accounts.CommissionIncome, "Commission Income", ledgerdomain.RootTypeIncome, ledgerdomain.AccountTypeIncome},
		{accounts.Sales, "Sales", ledgerdomain.RootTypeIncome, ledgerdomain.AccountTypeIncome},
		{accounts.TaxPayable, "Tax Payable", ledgerdomain.RootTypeLiability, ledgerdomain.AccountTypeTax},
		{accounts.OpeningEquity, "Opening Balance Equity", ledgerdomain.RootTypeEquity, ledgerdomain.AccountTypeOther},
	}
}

func (s *Service) EnsureChartOfAccounts(ctx context.Context) error {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return err
	}
	return s.ensureChart(ctx, s.db, orgID)
}

func (s *Service) ensureChart(ctx context.Context, tx *gorm.DB, orgID snowflake.ID) error {
	now := time.Now().UTC()
	for _, seed := range s.chartOfAccounts() {
		account := ledgerdomain.LedgerAccount{
			ID:          s.genID.Generate(),
			OrgID:       orgID,
			Code:        seed.code,
			Name:        seed.name,
			RootType:    seed.rootType,
			AccountType: seed.accountType,
			CreatedAt:   now,
		}
		err := tx.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "org_id"}, {Name: "code"}},
				DoNothing: true,
			}).
			Create(&account).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) ListAccounts(ctx context.Context) ([]ledgerdomain.LedgerAccount, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var accounts []ledgerdomain.LedgerAccount
	err = s.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("code asc").
		Find(&accounts).Error
	return accounts, err
}

func (s *Service) Post(ctx context.Context, tx *gorm.DB, posting ledgerdomain.Posting) error {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(posting.VoucherType)) == "" || posting.VoucherID == 0 {
		return ledgerdomain.ErrInvalidVoucher
	}
	if posting.PostingDate.IsZero() {
		return ledgerdomain.ErrInvalidPostingDate
	}
	if len(posting.Lines) < 2 {
		return ledgerdomain.ErrInvalidEntryLines
	}
	for _, line := range posting.Lines {
		if strings.TrimSpace(line.AccountCode) == "" {
			return ledgerdomain.ErrInvalidAccount
		}
		if line.Amount < 0 {
			return ledgerdomain.ErrInvalidLineAmount
		}
		if line.PartyType != "" && (!line.PartyType.Valid() || line.PartyID == 0) {
			return ledgerdomain.ErrPartyRequired
		}
	}

	inserted := false
	err = s.withTx(ctx, tx, func(tx *gorm.DB) error {
		accounts, err := s.resolveAccounts(ctx, tx, orgID, posting.Lines)
		if err != nil {
			return err
		}

		lines := make([]ledgerdomain.LedgerEntryLine, 0, len(posting.Lines))
		for _, line := range posting.Lines {
			account := accounts[line.AccountCode]
			if account.AccountType.RequiresParty() && line.PartyType == "" {
				return ledgerdomain.ErrPartyRequired
			}
			direction, err := normalizeDirection(line.Direction)
			if err != nil {
				return err
			}
			lines = append(lines, ledgerdomain.LedgerEntryLine{
				AccountID: account.ID,
				PartyType: line.PartyType,
				PartyID:   line.PartyID,
				Direction: direction,
				Amount:    line.Amount,
			})
		}
		if err := ledgerdomain.ValidateBalanced(lines); err != nil {
			return err
		}

		entry := ledgerdomain.LedgerEntry{
			OrgID:       orgID,
			VoucherType: posting.VoucherType,
			VoucherID:   posting.VoucherID,
			Kind:        ledgerdomain.EntryKindPosting,
			VoucherNo:   posting.VoucherNo,
			PostingDate: clock.Date(posting.PostingDate),
			IsOpening:   posting.IsOpening,
			Remarks:     posting.Remarks,
		}
		inserted, err = s.insertEntry(ctx, tx, &entry, lines)
		return err
	})
	if err != nil {
		return err
	}

	if inserted {
		s.obsMetrics.RecordLedgerEntry(ctx, string(posting.VoucherType), string(ledgerdomain.EntryKindPosting))
	} else {
		s.log.Debug("ledger posting already exists",
			zap.String("voucher_type", string(posting.VoucherType)),
			zap.String("voucher_id", posting.VoucherID.String()),
		)
	}
	return nil
}

func (s *Service) Reverse(ctx context.Context, tx *gorm.DB, voucherType ledgerdomain.VoucherType, voucherID snowflake.ID) error {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(voucherType)) == "" || voucherID == 0 {
		return ledgerdomain.ErrInvalidVoucher
	}

	inserted := false
	err = s.withTx(ctx, tx, func(tx *gorm.DB) error {
		var originals []ledgerdomain.LedgerEntry
		err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("org_id = ? AND voucher_type = ? AND voucher_id = ? AND kind = ?",
				orgID, voucherType, voucherID, ledgerdomain.EntryKindPosting).
			Limit(1).
			Find(&originals).Error
		if err != nil {
			return err
		}
		if len(originals) == 0 {
			return nil
		}
		original := originals[0]

		var lines []ledgerdomain.LedgerEntryLine
		if err := tx.WithContext(ctx).
			Where("ledger_entry_id = ?", original.ID).
			Order("id asc").
			Find(&lines).Error; err != nil {
			return err
		}

		if err := tx.WithContext(ctx).
			Model(&ledgerdomain.LedgerEntry{}).
			Where("id = ?", original.ID).
			Update("is_cancelled", true).Error; err != nil {
			return err
		}

		mirror := ledgerdomain.LedgerEntry{
			OrgID:       orgID,
			VoucherType: voucherType,
			VoucherID:   voucherID,
			Kind:        ledgerdomain.EntryKindReversal,
			VoucherNo:   original.VoucherNo,
			PostingDate: original.PostingDate,
			IsOpening:   original.IsOpening,
			IsCancelled: true,
			Remarks:     "Cancellation of " + original.VoucherNo,
		}
		inserted, err = s.insertEntry(ctx, tx, &mirror, ledgerdomain.Mirror(lines))
		return err
	})
	if err != nil {
		return err
	}
	if inserted {
		s.obsMetrics.RecordLedgerEntry(ctx, string(voucherType), string(ledgerdomain.EntryKindReversal))
	}
	return nil
}

func (s *Service) PostOpeningBalance(ctx context.Context, req ledgerdomain.OpeningBalanceRequest) (ledgerdomain.LedgerEntry, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return ledgerdomain.LedgerEntry{}, err
	}
	if req.Debit < 0 || req.Credit < 0 || (req.Debit == 0) == (req.Credit == 0) {
		return ledgerdomain.LedgerEntry{}, ledgerdomain.ErrInvalidLineAmount
	}
	code := strings.TrimSpace(req.AccountCode)
	if code == "" {
		return ledgerdomain.LedgerEntry{}, ledgerdomain.ErrInvalidAccount
	}
	if req.PostingDate.IsZero() {
		return ledgerdomain.LedgerEntry{}, ledgerdomain.ErrInvalidPostingDate
	}

	equity := s.settings.Get().Accounts.OpeningEquity
	voucherID := s.genID.Generate()
	var lines []ledgerdomain.PostingLine
	if req.Debit > 0 {
		lines = []ledgerdomain.PostingLine{
			ledgerdomain.Debit(code, req.PartyType, req.PartyID, req.Debit),
			ledgerdomain.Credit(equity, "", 0, req.Debit),
		}
	} else {
		lines = []ledgerdomain.PostingLine{
			ledgerdomain.Debit(equity, "", 0, req.Credit),
			ledgerdomain.Credit(code, req.PartyType, req.PartyID, req.Credit),
		}
	}

	posting := ledgerdomain.Posting{
		VoucherType: ledgerdomain.VoucherTypeOpening,
		VoucherID:   voucherID,
		VoucherNo:   "OPEN-" + voucherID.String(),
		PostingDate: req.PostingDate,
		IsOpening:   true,
		Remarks:     req.Remarks,
		Lines:       lines,
	}
	if err := s.Post(ctx, nil, posting); err != nil {
		return ledgerdomain.LedgerEntry{}, err
	}
	s.reportCache.Invalidate(ctx, orgID)

	var entry ledgerdomain.LedgerEntry
	err = s.db.WithContext(ctx).
		Where("org_id = ? AND voucher_type = ? AND voucher_id = ?", orgID, posting.VoucherType, voucherID).
		First(&entry).Error
	return entry, err
}

func (s *Service) PartyOpeningBalance(ctx context.Context, partyType partydomain.PartyType, partyID snowflake.ID, fromDate time.Time) (ledgerdomain.Balance, error) {
	balances, err := s.PartyOpeningBalances(ctx, partyType, []snowflake.ID{partyID}, fromDate)
	if err != nil {
		return ledgerdomain.Balance{}, err
	}
	return balances[partyID], nil
}

func (s *Service) PartyOpeningBalances(ctx context.Context, partyType partydomain.PartyType, partyIDs []snowflake.ID, fromDate time.Time) (map[snowflake.ID]ledgerdomain.Balance, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[snowflake.ID]ledgerdomain.Balance, len(partyIDs))
	if len(partyIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		PartyID snowflake.ID
		Debit   int64
		Credit  int64
	}
	err = s.db.WithContext(ctx).Raw(
		`SELECT l.party_id AS party_id,
		        COALESCE(SUM(CASE WHEN l.direction = ? THEN l.amount ELSE 0 END), 0) AS debit,
		        COALESCE(SUM(CASE WHEN l.direction = ? THEN l.amount ELSE 0 END), 0) AS credit
		 FROM ledger_entry_lines l
		 JOIN ledger_entries e ON e.id = l.ledger_entry_id
		 WHERE e.org_id = ? AND l.party_type = ? AND l.party_id IN ?
		   AND e.is_cancelled = ?
		   AND (e.posting_date < ? OR e.is_opening = ?)
		 GROUP BY l.party_id`,
		ledgerdomain.LedgerEntryDirectionDebit,
		ledgerdomain.LedgerEntryDirectionCredit,
		orgID,
		string(partyType),
		partyIDs,
		false,
		clock.Date(fromDate),
		true,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.PartyID] = ledgerdomain.Balance{Debit: row.Debit, Credit: row.Credit}
	}
	return out, nil
}

func (s *Service) AccountBalances(ctx context.Context, accountCodes []string, from, to time.Time) (map[string]ledgerdomain.AccountBalance, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]ledgerdomain.AccountBalance, len(accountCodes))
	for _, code := range accountCodes {
		out[code] = ledgerdomain.AccountBalance{AccountCode: code}
	}
	if len(accountCodes) == 0 {
		return out, nil
	}

	var rows []struct {
		Code          string
		OpeningDebit  int64
		OpeningCredit int64
		PeriodDebit   int64
		PeriodCredit  int64
	}
	from, to = clock.Date(from), clock.Date(to)
	err = s.db.WithContext(ctx).Raw(
		`SELECT a.code AS code,
		        COALESCE(SUM(CASE WHEN (e.posting_date < ? OR e.is_opening = ?) AND l.direction = ? THEN l.amount ELSE 0 END), 0) AS opening_debit,
		        COALESCE(SUM(CASE WHEN (e.posting_date < ? OR e.is_opening = ?) AND l.direction = ? THEN l.amount ELSE 0 END), 0) AS opening_credit,
		        COALESCE(SUM(CASE WHEN e.posting_date >= ? AND e.posting_date <= ? AND l.direction = ? THEN l.amount ELSE 0 END), 0) AS period_debit,
		        COALESCE(SUM(CASE WHEN e.posting_date >= ? AND e.posting_date <= ? AND l.direction = ? THEN l.amount ELSE 0 END), 0) AS period_credit
		 FROM ledger_entry_lines l
		 JOIN ledger_entries e ON e.id = l.ledger_entry_id
		 JOIN ledger_accounts a ON a.id = l.account_id
		 WHERE e.org_id = ? AND a.code IN ? AND e.is_cancelled = ?
		 GROUP BY a.code`,
		from, true, ledgerdomain.LedgerEntryDirectionDebit,
		from, true, ledgerdomain.LedgerEntryDirectionCredit,
		from, to, ledgerdomain.LedgerEntryDirectionDebit,
		from, to, ledgerdomain.LedgerEntryDirectionCredit,
		orgID,
		accountCodes,
		false,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.Code] = ledgerdomain.AccountBalance{
			AccountCode: row.Code,
			Opening:     ledgerdomain.Balance{Debit: row.OpeningDebit, Credit: row.OpeningCredit},
			Period:      ledgerdomain.Balance{Debit: row.PeriodDebit, Credit: row.PeriodCredit},
		}
	}
	return out, nil
}

func (s *Service) ListGLEntries(ctx context.Context, filter ledgerdomain.GLFilter) ([]ledgerdomain.GLEntry, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if filter.FromDate != nil && filter.ToDate != nil && filter.FromDate.After(*filter.ToDate) {
		return nil, ledgerdomain.ErrInvalidDateRange
	}

	var rows []struct {
		EntryID     snowflake.ID
		LineID      snowflake.ID
		PostingDate time.Time
		AccountCode string
		AccountName string
		PartyType   string
		PartyID     snowflake.ID
		Direction   string
		Amount      int64
		VoucherType string
		VoucherID   snowflake.ID
		VoucherNo   string
		Kind        string
		IsOpening   bool
		IsCancelled bool
		Remarks     string
	}
	stmt := s.db.WithContext(ctx).
		Table("ledger_entry_lines AS l").
		Select(`e.id AS entry_id, l.id AS line_id, e.posting_date AS posting_date,
			a.code AS account_code, a.name AS account_name, l.party_type AS party_type,
			l.party_id AS party_id, l.direction AS direction, l.amount AS amount,
			e.voucher_type AS voucher_type, e.voucher_id AS voucher_id, e.voucher_no AS voucher_no,
			e.kind AS kind, e.is_opening AS is_opening, e.is_cancelled AS is_cancelled, e.remarks AS remarks`).
		Joins("JOIN ledger_entries e ON e.id = l.ledger_entry_id").
		Joins("JOIN ledger_accounts a ON a.id = l.account_id").
		Where("e.org_id = ?", orgID)
	if filter.VoucherType != "" {
		stmt = stmt.Where("e.voucher_type = ?", filter.VoucherType)
	}
	if filter.VoucherID != 0 {
		stmt = stmt.Where("e.voucher_id = ?", filter.VoucherID)
	}
	if filter.PartyType != "" {
		stmt = stmt.Where("l.party_type = ?", string(filter.PartyType))
	}
	if filter.PartyID != 0 {
		stmt = stmt.Where("l.party_id = ?", filter.PartyID)
	}
	if filter.AccountCode != "" {
		stmt = stmt.Where("a.code = ?", filter.AccountCode)
	}
	if filter.FromDate != nil {
		stmt = stmt.Where("e.posting_date >= ?", clock.Date(*filter.FromDate))
	}
	if filter.ToDate != nil {
		stmt = stmt.Where("e.posting_date <= ?", clock.Date(*filter.ToDate))
	}
	if !filter.IncludeCancelled {
		stmt = stmt.Where("e.is_cancelled = ?", false)
	}
	if err := stmt.Order("e.posting_date asc, e.id asc, l.id asc").Scan(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]ledgerdomain.GLEntry, 0, len(rows))
	for _, row := range rows {
		entry := ledgerdomain.GLEntry{
			EntryID:     row.EntryID,
			LineID:      row.LineID,
			PostingDate: row.PostingDate.UTC(),
			AccountCode: row.AccountCode,
			AccountName: row.AccountName,
			PartyType:   partydomain.PartyType(row.PartyType),
			PartyID:     row.PartyID,
			VoucherType: ledgerdomain.VoucherType(row.VoucherType),
			VoucherID:   row.VoucherID,
			VoucherNo:   row.VoucherNo,
			Kind:        ledgerdomain.EntryKind(row.Kind),
			IsOpening:   row.IsOpening,
			IsCancelled: row.IsCancelled,
			Remarks:     row.Remarks,
		}
		if ledgerdomain.LedgerEntryDirection(row.Direction) == ledgerdomain.LedgerEntryDirectionDebit {
			entry.Debit = row.Amount
		} else {
			entry.Credit = row.Amount
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Service) resolveAccounts(ctx context.Context, tx *gorm.DB, orgID snowflake.ID, lines []ledgerdomain.PostingLine) (map[string]ledgerdomain.LedgerAccount, error) {
	codes := make([]string, 0, len(lines))
	seen := map[string]struct{}{}
	for _, line := range lines {
		if _, ok := seen[line.AccountCode]; ok {
			continue
		}
		seen[line.AccountCode] = struct{}{}
		codes = append(codes, line.AccountCode)
	}
	sort.Strings(codes)

	load := func() (map[string]ledgerdomain.LedgerAccount, error) {
		var accounts []ledgerdomain.LedgerAccount
		if err := tx.WithContext(ctx).
			Where("org_id = ? AND code IN ?", orgID, codes).
			Find(&accounts).Error; err != nil {
			return nil, err
		}
		out := make(map[string]ledgerdomain.LedgerAccount, len(accounts))
		for _, account := range accounts {
			out[account.Code] = account
		}
		return out, nil
	}

	accounts, err := load()
	if err != nil {
		return nil, err
	}
	if len(accounts) < len(codes) {
		// A company posts before its chart was seeded on first use.
		if err := s.ensureChart(ctx, tx, orgID); err != nil {
			return nil, err
		}
		if accounts, err = load(); err != nil {
			return nil, err
		}
		if len(accounts) < len(codes) {
			return nil, ledgerdomain.ErrAccountNotFound
		}
	}
	return accounts, nil
}

func (s *Service) insertEntry(ctx context.Context, tx *gorm.DB, entry *ledgerdomain.LedgerEntry, lines []ledgerdomain.LedgerEntryLine) (bool, error) {
	now := time.Now().UTC()
	entry.ID = s.genID.Generate()
	entry.CreatedAt = now

	result := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "org_id"}, {Name: "voucher_type"}, {Name: "voucher_id"}, {Name: "kind"},
			},
			DoNothing: true,
		}).
		Create(entry)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	for i := range lines {
		lines[i].ID = s.genID.Generate()
		lines[i].LedgerEntryID = entry.ID
		lines[i].CreatedAt = now
	}
	if err := tx.WithContext(ctx).Create(&lines).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) withTx(ctx context.Context, tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx != nil {
		return fn(tx)
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

func normalizeDirection(direction ledgerdomain.LedgerEntryDirection) (ledgerdomain.LedgerEntryDirection, error) {
	switch strings.ToLower(strings.TrimSpace(string(direction))) {
	case string(ledgerdomain.LedgerEntryDirectionDebit):
		return ledgerdomain.LedgerEntryDirectionDebit, nil
	case string(ledgerdomain.LedgerEntryDirectionCredit):
		return ledgerdomain.LedgerEntryDirectionCredit, nil
	default:
		return "", ledgerdomain.ErrInvalidLineDirection
	}
}

func orgIDFromContext(ctx context.Context) (snowflake.ID, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, ledgerdomain.ErrInvalidOrganization
	}
	return orgID, nil
}
