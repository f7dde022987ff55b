package service

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/agrimarket/internal/config"
	ledgerdomain "github.com/smallbiznis/agrimarket/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/agrimarket/internal/observability/metrics"
	partydomain "github.com/smallbiznis/agrimarket/internal/party/domain"
	"github.com/smallbiznis/agrimarket/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

const (
	customerA snowflake.ID = 101
	supplierA snowflake.ID = 201
)

func newTestService(t *testing.T) (ledgerdomain.Service, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t,
		&ledgerdomain.LedgerAccount{},
		&ledgerdomain.LedgerEntry{},
		&ledgerdomain.LedgerEntryLine{},
	)
	svc := NewService(Params{
		DB:         db,
		Log:        zaptest.NewLogger(t),
		GenID:      testutil.NewNode(t),
		Settings:   config.StaticSettings(config.DefaultSettings()),
		ObsMetrics: obsmetrics.NewNoop(),
	})
	return svc, db
}

func formPosting(voucherID snowflake.ID, date time.Time, amount int64) ledgerdomain.Posting {
	return ledgerdomain.Posting{
		VoucherType: ledgerdomain.VoucherTypeInvoiceForm,
		VoucherID:   voucherID,
		VoucherNo:   "IF-2024-00001",
		PostingDate: date,
		Lines: []ledgerdomain.PostingLine{
			ledgerdomain.Debit("debtors", partydomain.PartyTypeCustomer, customerA, amount),
			ledgerdomain.Credit("creditors", partydomain.PartyTypeSupplier, supplierA, amount),
		},
	}
}

func TestPostSeedsChartAndIsIdempotent(t *testing.T) {
	svc, db := newTestService(t)
	ctx := testutil.Context()

	posting := formPosting(1, testutil.Date(2024, 1, 10), 5000)
	require.NoError(t, svc.Post(ctx, nil, posting))
	require.NoError(t, svc.Post(ctx, nil, posting))

	var entries int64
	require.NoError(t, db.Model(&ledgerdomain.LedgerEntry{}).Count(&entries).Error)
	assert.Equal(t, int64(1), entries)

	accounts, err := svc.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 7)

	gl, err := svc.ListGLEntries(ctx, ledgerdomain.GLFilter{VoucherID: 1})
	require.NoError(t, err)
	require.Len(t, gl, 2)
	assert.Equal(t, int64(5000), gl[0].Debit+gl[1].Debit)
	assert.Equal(t, int64(5000), gl[0].Credit+gl[1].Credit)
}

func TestPostRejectsInvalidPostings(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := testutil.Context()

	unbalanced := formPosting(2, testutil.Date(2024, 1, 10), 5000)
	unbalanced.Lines[1].Amount = 4000
	assert.ErrorIs(t, svc.Post(ctx, nil, unbalanced), ledgerdomain.ErrUnbalanced)

	zero := formPosting(3, testutil.Date(2024, 1, 10), 0)
	assert.ErrorIs(t, svc.Post(ctx, nil, zero), ledgerdomain.ErrZeroPosting)

	noParty := formPosting(4, testutil.Date(2024, 1, 10), 100)
	noParty.Lines[0].PartyType = ""
	noParty.Lines[0].PartyID = 0
	assert.ErrorIs(t, svc.Post(ctx, nil, noParty), ledgerdomain.ErrPartyRequired)

	unknown := formPosting(5, testutil.Date(2024, 1, 10), 100)
	unknown.Lines[1].AccountCode = "missing"
	unknown.Lines[1].PartyType = ""
	unknown.Lines[1].PartyID = 0
	assert.ErrorIs(t, svc.Post(ctx, nil, unknown), ledgerdomain.ErrAccountNotFound)

	single := formPosting(6, testutil.Date(2024, 1, 10), 100)
	single.Lines = single.Lines[:1]
	assert.ErrorIs(t, svc.Post(ctx, nil, single), ledgerdomain.ErrInvalidEntryLines)

	negative := formPosting(7, testutil.Date(2024, 1, 10), -100)
	assert.ErrorIs(t, svc.Post(ctx, nil, negative), ledgerdomain.ErrInvalidLineAmount)
}

func TestReverseExcludesVoucherFromBalances(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := testutil.Context()

	require.NoError(t, svc.Post(ctx, nil, formPosting(10, testutil.Date(2024, 1, 5), 3000)))
	require.NoError(t, svc.Post(ctx, nil, formPosting(11, testutil.Date(2024, 1, 6), 2000)))

	require.NoError(t, svc.Reverse(ctx, nil, ledgerdomain.VoucherTypeInvoiceForm, 10))
	require.NoError(t, svc.Reverse(ctx, nil, ledgerdomain.VoucherTypeInvoiceForm, 10))
	require.NoError(t, svc.Reverse(ctx, nil, ledgerdomain.VoucherTypeInvoiceForm, 999))

	balance, err := svc.PartyOpeningBalance(ctx, partydomain.PartyTypeCustomer, customerA, testutil.Date(2024, 2, 1))
	require.NoError(t, err)
	assert.Equal(t, ledgerdomain.Balance{Debit: 2000}, balance)

	all, err := svc.ListGLEntries(ctx, ledgerdomain.GLFilter{VoucherID: 10, IncludeCancelled: true})
	require.NoError(t, err)
	require.Len(t, all, 4)
	for _, entry := range all {
		assert.True(t, entry.IsCancelled)
	}

	active, err := svc.ListGLEntries(ctx, ledgerdomain.GLFilter{VoucherID: 10})
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestOpeningBalancesAndAccountBalances(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := testutil.Context()

	_, err := svc.PostOpeningBalance(ctx, ledgerdomain.OpeningBalanceRequest{
		AccountCode: "debtors",
		PartyType:   partydomain.PartyTypeCustomer,
		PartyID:     customerA,
		Debit:       700,
		PostingDate: testutil.Date(2024, 3, 1),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Post(ctx, nil, formPosting(20, testutil.Date(2024, 1, 15), 1000)))
	require.NoError(t, svc.Post(ctx, nil, formPosting(21, testutil.Date(2024, 2, 15), 400)))

	// Opening entries count as opening even when dated inside the period.
	balances, err := svc.PartyOpeningBalances(ctx, partydomain.PartyTypeCustomer, []snowflake.ID{customerA}, testutil.Date(2024, 2, 1))
	require.NoError(t, err)
	assert.Equal(t, ledgerdomain.Balance{Debit: 1700}, balances[customerA])

	accounts, err := svc.AccountBalances(ctx, []string{"debtors", "creditors", "cash"}, testutil.Date(2024, 2, 1), testutil.Date(2024, 2, 28))
	require.NoError(t, err)
	assert.Equal(t, ledgerdomain.Balance{Debit: 1700}, accounts["debtors"].Opening)
	assert.Equal(t, ledgerdomain.Balance{Debit: 400}, accounts["debtors"].Period)
	assert.Equal(t, ledgerdomain.Balance{Credit: 1000}, accounts["creditors"].Opening)
	assert.Equal(t, ledgerdomain.Balance{Credit: 400}, accounts["creditors"].Period)
	assert.Equal(t, ledgerdomain.AccountBalance{AccountCode: "cash"}, accounts["cash"])
}

func TestOpeningEntryInsidePeriodCountsAsMovement(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := testutil.Context()

	_, err := svc.PostOpeningBalance(ctx, ledgerdomain.OpeningBalanceRequest{
		AccountCode: "cash",
		Debit:       700,
		PostingDate: testutil.Date(2024, 2, 10),
	})
	require.NoError(t, err)

	accounts, err := svc.AccountBalances(ctx, []string{"cash"}, testutil.Date(2024, 2, 1), testutil.Date(2024, 2, 28))
	require.NoError(t, err)
	assert.Equal(t, ledgerdomain.Balance{Debit: 700}, accounts["cash"].Opening)
	assert.Equal(t, ledgerdomain.Balance{Debit: 700}, accounts["cash"].Period)
}

func TestPostOpeningBalanceInvalidatesReports(t *testing.T) {
	db := testutil.NewDB(t,
		&ledgerdomain.LedgerAccount{},
		&ledgerdomain.LedgerEntry{},
		&ledgerdomain.LedgerEntryLine{},
	)
	reports := testutil.NewRecordingCache()
	svc := NewService(Params{
		DB:          db,
		Log:         zaptest.NewLogger(t),
		GenID:       testutil.NewNode(t),
		Settings:    config.StaticSettings(config.DefaultSettings()),
		ReportCache: reports,
	})

	_, err := svc.PostOpeningBalance(testutil.Context(), ledgerdomain.OpeningBalanceRequest{
		AccountCode: "cash",
		Credit:      250,
		PostingDate: testutil.Date(2024, 1, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, reports.Invalidations())
}

func TestPostOpeningBalanceRequiresOneSide(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.PostOpeningBalance(testutil.Context(), ledgerdomain.OpeningBalanceRequest{
		AccountCode: "cash",
		Debit:       10,
		Credit:      10,
		PostingDate: testutil.Date(2024, 1, 1),
	})
	assert.ErrorIs(t, err, ledgerdomain.ErrInvalidLineAmount)
}

func TestValidateBalanced(t *testing.T) {
	lines := []ledgerdomain.LedgerEntryLine{
		{Direction: ledgerdomain.LedgerEntryDirectionDebit, Amount: 10},
		{Direction: ledgerdomain.LedgerEntryDirectionCredit, Amount: 10},
	}
	assert.NoError(t, ledgerdomain.ValidateBalanced(lines))

	mirrored := ledgerdomain.Mirror(lines)
	assert.Equal(t, ledgerdomain.LedgerEntryDirectionCredit, mirrored[0].Direction)
	assert.Equal(t, ledgerdomain.LedgerEntryDirectionDebit, lines[0].Direction)
	assert.ErrorIs(t, ledgerdomain.ValidateBalanced([]ledgerdomain.LedgerEntryLine{{Direction: "sideways", Amount: 1}}), ledgerdomain.ErrInvalidLineDirection)
}
