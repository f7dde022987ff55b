package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/agrimarket/internal/clock"
	"github.com/smallbiznis/agrimarket/internal/config"
	filesdomain "github.com/smallbiznis/agrimarket/internal/files/domain"
	filesrepository "github.com/smallbiznis/agrimarket/internal/files/repository"
	filesservice "github.com/smallbiznis/agrimarket/internal/files/service"
	invoiceformdomain "github.com/smallbiznis/agrimarket/internal/invoiceform/domain"
	invoiceformrepository "github.com/smallbiznis/agrimarket/internal/invoiceform/repository"
	invoiceformservice "github.com/smallbiznis/agrimarket/internal/invoiceform/service"
	ledgerdomain "github.com/smallbiznis/agrimarket/internal/ledger/domain"
	ledgerservice "github.com/smallbiznis/agrimarket/internal/ledger/service"
	"github.com/smallbiznis/agrimarket/internal/naming"
	partydomain "github.com/smallbiznis/agrimarket/internal/party/domain"
	partyrepository "github.com/smallbiznis/agrimarket/internal/party/repository"
	partyservice "github.com/smallbiznis/agrimarket/internal/party/service"
	paymentdomain "github.com/smallbiznis/agrimarket/internal/payment/domain"
	paymentrepository "github.com/smallbiznis/agrimarket/internal/payment/repository"
	paymentservice "github.com/smallbiznis/agrimarket/internal/payment/service"
	"github.com/smallbiznis/agrimarket/internal/providers/pdf"
	"github.com/smallbiznis/agrimarket/internal/providers/xlsx"
	"github.com/smallbiznis/agrimarket/internal/report/domain"
	salesinvoicedomain "github.com/smallbiznis/agrimarket/internal/salesinvoice/domain"
	"github.com/smallbiznis/agrimarket/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type rateResolverMock struct {
	mock.Mock
}

func (m *rateResolverMock) DefaultRate(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func (c *memoryCache) Get(_ context.Context, orgID snowflake.ID, report, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	payload, ok := c.entries[orgID.String()+report+key]
	return payload, ok
}

func (c *memoryCache) Set(_ context.Context, orgID snowflake.ID, report, key string, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[orgID.String()+report+key] = payload
}

func (c *memoryCache) Invalidate(context.Context, snowflake.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string][]byte{}
}

type fixture struct {
	svc      domain.Service
	files    filesdomain.Service
	ledger   ledgerdomain.Service
	forms    invoiceformdomain.Service
	cache    *memoryCache
	green    partydomain.Supplier
	blue     partydomain.Supplier
	stall    partydomain.Customer
	corner   partydomain.Customer
	porter   partydomain.Customer
	formFeb  invoiceformdomain.InvoiceForm
	formMar  invoiceformdomain.InvoiceForm
	supplied paymentdomain.PaymentEntry
	received paymentdomain.PaymentEntry
}

// newFixture books a February form for the opening balances, a March form
// with a pamper row, a supplier payment, a customer receipt and a draft payment.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t,
		&partydomain.Customer{},
		&partydomain.Supplier{},
		&ledgerdomain.LedgerAccount{},
		&ledgerdomain.LedgerEntry{},
		&ledgerdomain.LedgerEntryLine{},
		&naming.NamingSeries{},
		&invoiceformdomain.InvoiceForm{},
		&invoiceformdomain.InvoiceFormItem{},
		&invoiceformdomain.InvoiceFormCommission{},
		&invoiceformdomain.InvoiceFormPamperCommission{},
		&salesinvoicedomain.SalesInvoice{},
		&salesinvoicedomain.SalesInvoiceItem{},
		&paymentdomain.PaymentEntry{},
		&filesdomain.File{},
	)
	log := zaptest.NewLogger(t)
	node := testutil.NewNode(t)
	settings := config.StaticSettings(config.DefaultSettings())
	fakeClock := clock.NewFakeClock(testutil.Date(2024, 4, 1))

	partySvc := partyservice.New(partyservice.Params{
		DB: db, Log: log, GenID: node, Repo: partyrepository.Provide(), Settings: settings,
	})
	ledgerSvc := ledgerservice.NewService(ledgerservice.Params{
		DB: db, Log: log, GenID: node, Settings: settings,
	})
	formSvc := invoiceformservice.New(invoiceformservice.Params{
		DB:        db,
		Log:       log,
		GenID:     node,
		Clock:     fakeClock,
		Repo:      invoiceformrepository.Provide(),
		PartySvc:  partySvc,
		LedgerSvc: ledgerSvc,
		Namer:     naming.New(),
		Settings:  settings,
		PDF:       &pdf.NoOpProvider{},
	})
	paymentSvc := paymentservice.New(paymentservice.Params{
		DB:        db,
		Log:       log,
		GenID:     node,
		Clock:     fakeClock,
		Repo:      paymentrepository.Provide(),
		PartySvc:  partySvc,
		LedgerSvc: ledgerSvc,
		Namer:     naming.New(),
		Settings:  settings,
	})
	fileSvc := filesservice.New(filesservice.Params{
		DB: db, Log: log, GenID: node, Clock: fakeClock, Repo: filesrepository.Provide(),
	})
	rates := &rateResolverMock{}
	rates.On("DefaultRate", mock.Anything).Return(decimal.NewFromInt(10), nil)
	reportCache := &memoryCache{entries: map[string][]byte{}}

	f := &fixture{
		svc: New(Params{
			DB:          db,
			Log:         log,
			Clock:       fakeClock,
			LedgerSvc:   ledgerSvc,
			TaxResolver: rates,
			Settings:    settings,
			FileSvc:     fileSvc,
			PDF:         pdf.New(),
			XLSX:        xlsx.New(),
			ReportCache: reportCache,
		}),
		files:  fileSvc,
		ledger: ledgerSvc,
		forms:  formSvc,
		cache:  reportCache,
	}

	ctx := testutil.Context()
	var err error
	f.green, err = partySvc.CreateSupplier(ctx, partydomain.CreateSupplierRequest{
		Name: "Green Valley", CommissionPercentage: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	f.blue, err = partySvc.CreateSupplier(ctx, partydomain.CreateSupplierRequest{
		Name: "Blue Hills", CommissionPercentage: decimal.NewFromInt(5),
	})
	require.NoError(t, err)
	f.stall, err = partySvc.CreateCustomer(ctx, partydomain.CreateCustomerRequest{
		Name: "Market Stall", IsCustomer: true, CommissionPercentage: decimal.NewFromInt(2),
	})
	require.NoError(t, err)
	f.corner, err = partySvc.CreateCustomer(ctx, partydomain.CreateCustomerRequest{
		Name: "Corner Shop", CustomerGroup: "Wholesale", IsCustomer: true,
	})
	require.NoError(t, err)
	f.porter, err = partySvc.CreateCustomer(ctx, partydomain.CreateCustomerRequest{
		Name: "Porter", IsPamper: true, CommissionPercentage: decimal.NewFromInt(1),
	})
	require.NoError(t, err)

	stallID, porterID := f.stall.ID, f.porter.ID
	submit := func(req invoiceformdomain.CreateRequest) invoiceformdomain.InvoiceForm {
		form, err := formSvc.Create(ctx, req)
		require.NoError(t, err)
		form, err = formSvc.Submit(ctx, form.ID)
		require.NoError(t, err)
		return form
	}
	f.formFeb = submit(invoiceformdomain.CreateRequest{
		SupplierID:  f.green.ID,
		CustomerID:  &stallID,
		PostingDate: testutil.Date(2024, 2, 10),
		Items: []invoiceformdomain.ItemRequest{
			{ItemCode: "APPLE", ItemName: "Apple", Qty: decimal.NewFromInt(10), Price: 1000},
		},
	})
	f.formMar = submit(invoiceformdomain.CreateRequest{
		SupplierID:  f.green.ID,
		CustomerID:  &stallID,
		PamperID:    &porterID,
		PostingDate: testutil.Date(2024, 3, 5),
		Items: []invoiceformdomain.ItemRequest{
			{ItemCode: "APPLE", ItemName: "Apple", Qty: decimal.NewFromInt(10), Price: 1000},
			{ItemCode: "PEAR", ItemName: "Pear", Qty: decimal.NewFromInt(5), Price: 1000, CustomerID: porterID},
		},
	})

	pay := func(req paymentdomain.CreateRequest, doSubmit bool) paymentdomain.PaymentEntry {
		entry, err := paymentSvc.Create(ctx, req)
		require.NoError(t, err)
		if doSubmit {
			entry, err = paymentSvc.Submit(ctx, entry.ID)
			require.NoError(t, err)
		}
		return entry
	}
	f.supplied = pay(paymentdomain.CreateRequest{
		PartyType:   partydomain.PartyTypeSupplier,
		PartyID:     f.green.ID,
		PaymentType: paymentdomain.PaymentTypePay,
		PaidAmount:  3000,
		PostingDate: testutil.Date(2024, 3, 20),
		Remarks:     "advance",
	}, true)
	f.received = pay(paymentdomain.CreateRequest{
		PartyType:   partydomain.PartyTypeCustomer,
		PartyID:     f.stall.ID,
		PaymentType: paymentdomain.PaymentTypeReceive,
		PaidAmount:  4000,
		PostingDate: testutil.Date(2024, 3, 21),
		Remarks:     "cash sale",
	}, true)
	pay(paymentdomain.CreateRequest{
		PartyType:   partydomain.PartyTypeSupplier,
		PartyID:     f.green.ID,
		PaymentType: paymentdomain.PaymentTypePay,
		PaidAmount:  999,
		PostingDate: testutil.Date(2024, 3, 25),
	}, false)

	return f
}

func march(partyType partydomain.PartyType, party snowflake.ID) domain.Filter {
	return domain.Filter{
		PartyType: partyType,
		Party:     party,
		FromDate:  testutil.Date(2024, 3, 1),
		ToDate:    testutil.Date(2024, 3, 31),
	}
}

func TestFilterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Context()

	_, err := f.svc.StatementForms(ctx, domain.Filter{PartyType: "Farmer"})
	assert.ErrorIs(t, err, domain.ErrInvalidPartyType)

	filter := march(partydomain.PartyTypeSupplier, 0)
	filter.FromDate, filter.ToDate = filter.ToDate, filter.FromDate
	_, err = f.svc.DetailedReport(ctx, filter)
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)

	_, err = f.svc.CollectionForm(ctx, march(partydomain.PartyTypeSupplier, 404))
	assert.ErrorIs(t, err, domain.ErrPartyNotFound)

	_, err = f.svc.TrialBalance(ctx, domain.TrialBalanceFilter{FromDate: testutil.Date(2024, 3, 1)})
	assert.ErrorIs(t, err, domain.ErrInvalidFilter)

	_, err = f.svc.ItemsList(ctx, domain.ItemsListFilter{FromDate: testutil.Date(2024, 3, 2), ToDate: testutil.Date(2024, 3, 1)})
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)

	_, err = f.svc.StatementForms(t.Context(), march(partydomain.PartyTypeSupplier, 0))
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)
}

func TestStatementFormsSupplier(t *testing.T) {
	f := newFixture(t)

	parties, err := f.svc.StatementForms(testutil.Context(), march(partydomain.PartyTypeSupplier, 0))
	require.NoError(t, err)
	require.Len(t, parties, 1, "suppliers without activity are left out")

	green := parties[0]
	assert.Equal(t, "Green Valley", green.PartyName)
	require.Len(t, green.Items, 2)
	assert.Equal(t, int64(1000), green.Items[0].Commission)
	assert.Equal(t, int64(500), green.Items[1].Commission)

	require.Len(t, green.Totals, 3)
	assert.Equal(t, domain.LabelTotalWithoutTaxes, green.Totals[0].Label)
	assert.True(t, decimal.NewFromInt(15).Equal(green.Totals[0].Qty))
	assert.Equal(t, int64(15000), green.Totals[0].Total)
	assert.Equal(t, int64(1500), green.Totals[0].Commission)
	assert.Equal(t, domain.StatementTotal{Label: domain.LabelTaxes, Commission: 150}, green.Totals[1])
	assert.Equal(t, domain.LabelTotalWithTaxes, green.Totals[2].Label)
	assert.Equal(t, int64(1350), green.Totals[2].Commission)

	require.Len(t, green.Payments, 1)
	assert.Equal(t, f.supplied.Name, green.Payments[0].PaymentName)
	require.NotNil(t, green.PaymentsTotal)
	assert.Equal(t, int64(3000), *green.PaymentsTotal)
}

func TestStatementFormsCustomer(t *testing.T) {
	f := newFixture(t)

	parties, err := f.svc.StatementForms(testutil.Context(), march(partydomain.PartyTypeCustomer, 0))
	require.NoError(t, err)
	require.Len(t, parties, 1)

	stall := parties[0]
	assert.Equal(t, f.stall.ID, stall.PartyID)
	require.Len(t, stall.Items, 1)
	assert.Equal(t, int64(0), stall.Items[0].Commission)
	require.Len(t, stall.Totals, 2, "no taxes row for customers")
	assert.Equal(t, int64(10000), stall.Totals[1].Total)
	require.NotNil(t, stall.PaymentsTotal)
	assert.Equal(t, int64(4000), *stall.PaymentsTotal)
}

func TestDetailedReportSupplierSummary(t *testing.T) {
	f := newFixture(t)

	parties, err := f.svc.DetailedReport(testutil.Context(), march(partydomain.PartyTypeSupplier, f.green.ID))
	require.NoError(t, err)
	require.Len(t, parties, 1)

	summary := parties[0].Summary
	require.Len(t, summary, 7)
	assert.Equal(t, domain.SummaryRow{Statement: domain.LabelOpeningBalance, Credit: 10000, BalanceTo: 10000}, summary[0])

	assert.True(t, strings.HasSuffix(summary[1].Statement, "10.00 Apple"), summary[1].Statement)
	assert.Equal(t, int64(10000), summary[1].Credit)
	assert.Equal(t, int64(20000), summary[1].BalanceTo)
	assert.Equal(t, int64(25000), summary[2].BalanceTo)

	assert.Equal(t, f.supplied.Name, summary[3].Reference)
	assert.Equal(t, int64(3000), summary[3].Debit)
	assert.Equal(t, int64(22000), summary[3].BalanceTo)

	assert.Equal(t, domain.LabelCommissions, summary[4].Statement)
	assert.Equal(t, int64(1500), summary[4].Debit)
	assert.Equal(t, domain.LabelTaxes, summary[5].Statement)
	assert.Equal(t, int64(150), summary[5].Debit)
	assert.Equal(t, int64(20350), summary[5].BalanceTo)

	assert.Equal(t, domain.SummaryRow{
		Statement: domain.LabelTotal,
		Debit:     4650,
		Credit:    25000,
		BalanceTo: 20350,
	}, summary[6])
}

func TestDetailedReportCustomerOpeningIncludesUnbilledCommission(t *testing.T) {
	f := newFixture(t)

	parties, err := f.svc.DetailedReport(testutil.Context(), march(partydomain.PartyTypeCustomer, f.stall.ID))
	require.NoError(t, err)
	require.Len(t, parties, 1)

	stall := parties[0]
	require.Len(t, stall.Items, 1)
	assert.Equal(t, int64(200), stall.Items[0].Commission)
	require.Len(t, stall.Payments, 1)
	assert.Equal(t, int64(4000), stall.Payments[0].PaidAmount)

	summary := stall.Summary
	require.Len(t, summary, 4)
	// 10000 posted in February plus 200 unbilled commission and 20 tax on it.
	assert.Equal(t, int64(10220), summary[0].Debit)
	assert.Equal(t, int64(10220), summary[0].BalanceFrom)

	assert.Equal(t, int64(10000), summary[1].Debit, "customer columns are switched")
	assert.Equal(t, int64(20220), summary[1].BalanceFrom)
	assert.Equal(t, int64(4000), summary[2].Credit)
	assert.Equal(t, int64(16220), summary[2].BalanceFrom)

	assert.Equal(t, domain.SummaryRow{
		Statement:   domain.LabelTotal,
		Debit:       20220,
		Credit:      4000,
		BalanceFrom: 16220,
	}, summary[3])
}

func TestDetailedReportOptions(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Context()

	filter := march(partydomain.PartyTypeSupplier, f.green.ID)
	filter.NeglectItems = true
	filter.ConsiderDraft = true
	parties, err := f.svc.DetailedReport(ctx, filter)
	require.NoError(t, err)
	require.Len(t, parties, 1)

	green := parties[0]
	require.Len(t, green.Items, 1, "one row per form")
	assert.Equal(t, int64(15000), green.Items[0].Total)
	assert.Equal(t, int64(1500), green.Items[0].Commission)
	assert.Len(t, green.Payments, 2, "draft payment is included")

	_, err = f.svc.DetailedReport(ctx, march(partydomain.PartyTypeSupplier, f.blue.ID))
	assert.ErrorIs(t, err, domain.ErrNoData)
}

func TestDetailedReportNeglectItemsCustomerCommission(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Context()

	stallID := f.stall.ID
	form, err := f.forms.Create(ctx, invoiceformdomain.CreateRequest{
		SupplierID:  f.blue.ID,
		CustomerID:  &stallID,
		PostingDate: testutil.Date(2024, 3, 12),
		Items: []invoiceformdomain.ItemRequest{
			{ItemCode: "PLUM", ItemName: "Plum", Qty: decimal.NewFromInt(2), Price: 1000},
			{ItemCode: "FIG", ItemName: "Fig", Qty: decimal.NewFromInt(3), Price: 1000},
		},
	})
	require.NoError(t, err)
	_, err = f.forms.Submit(ctx, form.ID)
	require.NoError(t, err)

	filter := march(partydomain.PartyTypeCustomer, f.stall.ID)
	filter.NeglectItems = true
	parties, err := f.svc.DetailedReport(ctx, filter)
	require.NoError(t, err)
	require.Len(t, parties, 1)

	var merged *domain.StatementItem
	for i := range parties[0].Items {
		if parties[0].Items[i].FormID == form.ID {
			merged = &parties[0].Items[i]
		}
	}
	require.NotNil(t, merged)
	assert.Equal(t, int64(5000), merged.Total)
	assert.Contains(t, []int64{40, 60}, merged.Commission, "only one item's commission is kept")
}

func TestCollectionForm(t *testing.T) {
	f := newFixture(t)

	parties, err := f.svc.CollectionForm(testutil.Context(), march(partydomain.PartyTypeSupplier, 0))
	require.NoError(t, err)
	require.Len(t, parties, 2)

	blue := parties[0]
	assert.Equal(t, "Blue Hills", blue.PartyName)
	require.Len(t, blue.Rows, 2, "parties without activity keep opening and total rows")
	assert.Equal(t, domain.LabelTotal, blue.Rows[1].Reference)

	green := parties[1]
	require.Len(t, green.Rows, 5)
	assert.Equal(t, int64(10000), green.Rows[0].Credit)

	apple := green.Rows[1]
	assert.Equal(t, domain.DoctypeInvoiceForm, apple.Doctype)
	assert.Equal(t, int64(1100), apple.Debit, "commission plus tax")
	assert.Equal(t, int64(10000), apple.Credit)
	assert.Equal(t, int64(550), green.Rows[2].Debit)

	payment := green.Rows[3]
	assert.Equal(t, domain.DoctypePaymentEntry, payment.Doctype)
	assert.Equal(t, "Cash - advance", payment.Statement)
	assert.Equal(t, int64(3000), payment.Debit)

	total := green.Rows[4]
	assert.Equal(t, int64(4650), total.Debit)
	assert.Equal(t, int64(25000), total.Credit)
	assert.Equal(t, int64(-20350), total.Balance)
}

func TestCollectionFormPartyGroup(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Context()

	all, err := f.svc.CollectionForm(ctx, march(partydomain.PartyTypeCustomer, 0))
	require.NoError(t, err)
	names := make([]string, 0, len(all))
	for _, party := range all {
		names = append(names, party.PartyName)
	}
	assert.Equal(t, []string{"Corner Shop", "Market Stall"}, names, "pampers and farmers are not market customers")

	filter := march(partydomain.PartyTypeCustomer, 0)
	filter.PartyGroup = "Wholesale"
	grouped, err := f.svc.CollectionForm(ctx, filter)
	require.NoError(t, err)
	require.Len(t, grouped, 1)
	assert.Equal(t, f.corner.ID, grouped[0].PartyID)
}

func TestTrialBalance(t *testing.T) {
	f := newFixture(t)

	rows, err := f.svc.TrialBalance(testutil.Context(), domain.TrialBalanceFilter{
		FromDate: testutil.Date(2024, 3, 1),
		ToDate:   testutil.Date(2024, 3, 31),
	})
	require.NoError(t, err)
	require.Len(t, rows, 8)

	byTitle := map[string]domain.TrialBalanceRow{}
	for _, row := range rows {
		byTitle[row.Title] = row
	}

	customers := byTitle["Customers"]
	assert.Equal(t, int64(10000), customers.OpeningDebit)
	assert.Equal(t, int64(15000), customers.Debit)
	assert.Equal(t, int64(4000), customers.Credit)
	assert.Equal(t, int64(-5000), customers.ClosingDebit)
	assert.Equal(t, int64(-4000), customers.ClosingCredit)

	suppliers := byTitle["Suppliers"]
	assert.Equal(t, int64(10000), suppliers.OpeningCredit)
	assert.Equal(t, int64(3000), suppliers.Debit)
	assert.Equal(t, int64(15000), suppliers.Credit)

	cash := byTitle["Cash"]
	assert.Equal(t, int64(4000), cash.Debit)
	assert.Equal(t, int64(3000), cash.Credit)

	income := byTitle["Income"]
	assert.True(t, income.IsParent)
	assert.Equal(t, "Income", byTitle["Commissions"].Parent)
}

func TestTrialBalanceParentRollsUpChildren(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Context()

	_, err := f.ledger.PostOpeningBalance(ctx, ledgerdomain.OpeningBalanceRequest{
		AccountCode: "sales",
		Credit:      700,
		PostingDate: testutil.Date(2024, 2, 20),
	})
	require.NoError(t, err)
	_, err = f.ledger.PostOpeningBalance(ctx, ledgerdomain.OpeningBalanceRequest{
		AccountCode: "commission_income",
		Credit:      300,
		PostingDate: testutil.Date(2024, 2, 20),
	})
	require.NoError(t, err)

	rows, err := f.svc.TrialBalance(ctx, domain.TrialBalanceFilter{
		FromDate: testutil.Date(2024, 3, 1),
		ToDate:   testutil.Date(2024, 3, 31),
	})
	require.NoError(t, err)
	for _, row := range rows {
		if row.Title == "Income" {
			assert.Equal(t, int64(1000), row.OpeningCredit)
			assert.Equal(t, int64(1000), row.ClosingCredit)
			return
		}
	}
	t.Fatal("income row missing")
}

func TestItemsList(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Context()

	rows, err := f.svc.ItemsList(ctx, domain.ItemsListFilter{SupplierID: f.green.ID})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, f.formFeb.Name, rows[0].FormName)
	assert.Equal(t, "Green Valley", rows[0].SupplierName)

	rows, err = f.svc.ItemsList(ctx, domain.ItemsListFilter{ItemCode: "PEAR"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Porter", rows[0].CustomerName)
	assert.Equal(t, int64(500), rows[0].Commission)

	rows, err = f.svc.ItemsList(ctx, domain.ItemsListFilter{InvoiceName: f.formMar.Name, FromDate: testutil.Date(2024, 3, 1)})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestReportsAreCachedUntilInvalidated(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Context()
	filter := domain.TrialBalanceFilter{FromDate: testutil.Date(2024, 3, 1), ToDate: testutil.Date(2024, 3, 31)}

	first, err := f.svc.TrialBalance(ctx, filter)
	require.NoError(t, err)
	assert.Len(t, f.cache.entries, 1)

	_, err = f.ledger.PostOpeningBalance(ctx, ledgerdomain.OpeningBalanceRequest{
		AccountCode: "cash",
		Debit:       500,
		PostingDate: testutil.Date(2024, 3, 3),
	})
	require.NoError(t, err)

	cached, err := f.svc.TrialBalance(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	f.cache.Invalidate(ctx, snowflake.ID(testutil.OrgID))
	fresh, err := f.svc.TrialBalance(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(500), fresh[0].OpeningDebit)
}

func TestRenderFiles(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Context()

	statements, err := f.svc.RenderStatementForms(ctx, march(partydomain.PartyTypeSupplier, 0))
	require.NoError(t, err)
	require.Len(t, statements.FileURLs, 1)

	detailed, err := f.svc.RenderDetailedReport(ctx, march(partydomain.PartyTypeCustomer, 0))
	require.NoError(t, err)
	assert.Len(t, detailed.FileURLs, 1)

	collection, err := f.svc.RenderCollectionForm(ctx, march(partydomain.PartyTypeSupplier, 0))
	require.NoError(t, err)
	require.Len(t, collection.FileURLs, 1)
	file := fileFromURL(t, f, collection.FileURLs[0])
	assert.Equal(t, filesdomain.ContentTypePDF, file.ContentType)
	assert.Equal(t, "%PDF", string(file.Content[:4]))

	trial, err := f.svc.RenderTrialBalance(ctx, domain.TrialBalanceFilter{
		FromDate: testutil.Date(2024, 3, 1),
		ToDate:   testutil.Date(2024, 3, 31),
	}, domain.FormatXLSX)
	require.NoError(t, err)
	file = fileFromURL(t, f, trial.FileURLs[0])
	assert.Equal(t, filesdomain.ContentTypeXLSX, file.ContentType)
	assert.True(t, strings.HasSuffix(file.Name, ".xlsx"))

	items, err := f.svc.RenderItemsList(ctx, domain.ItemsListFilter{}, domain.FormatPDF)
	require.NoError(t, err)
	assert.Len(t, items.FileURLs, 1)

	_, err = f.svc.RenderItemsList(ctx, domain.ItemsListFilter{}, domain.FormatJSON)
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)
}

func fileFromURL(t *testing.T, f *fixture, url string) filesdomain.File {
	t.Helper()
	id, err := snowflake.ParseString(strings.TrimPrefix(url, "/api/files/"))
	require.NoError(t, err)
	file, err := f.files.Get(testutil.Context(), id)
	require.NoError(t, err)
	return file
}

func TestParseFormat(t *testing.T) {
	format, err := domain.ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, domain.FormatJSON, format)
	format, err = domain.ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, domain.FormatXLSX, format)
	_, err = domain.ParseFormat("csv")
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)
}
