package service

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/agrimarket/internal/clock"
	"github.com/smallbiznis/agrimarket/internal/config"
	"github.com/smallbiznis/agrimarket/internal/docstatus"
	invoiceformdomain "github.com/smallbiznis/agrimarket/internal/invoiceform/domain"
	invoiceformrepository "github.com/smallbiznis/agrimarket/internal/invoiceform/repository"
	invoiceformservice "github.com/smallbiznis/agrimarket/internal/invoiceform/service"
	ledgerdomain "github.com/smallbiznis/agrimarket/internal/ledger/domain"
	ledgerservice "github.com/smallbiznis/agrimarket/internal/ledger/service"
	"github.com/smallbiznis/agrimarket/internal/naming"
	partydomain "github.com/smallbiznis/agrimarket/internal/party/domain"
	partyrepository "github.com/smallbiznis/agrimarket/internal/party/repository"
	partyservice "github.com/smallbiznis/agrimarket/internal/party/service"
	"github.com/smallbiznis/agrimarket/internal/providers/pdf"
	"github.com/smallbiznis/agrimarket/internal/salesinvoice/domain"
	"github.com/smallbiznis/agrimarket/internal/salesinvoice/repository"
	"github.com/smallbiznis/agrimarket/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fixture struct {
	svc      domain.Service
	forms    invoiceformdomain.Service
	ledger   ledgerdomain.Service
	supplier partydomain.Supplier
	customer partydomain.Customer
	form     invoiceformdomain.InvoiceForm
	reports  *testutil.RecordingCache
}

func newFixture(t *testing.T) fixture {
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
		&domain.SalesInvoice{},
		&domain.SalesInvoiceItem{},
	)
	log := zaptest.NewLogger(t)
	node := testutil.NewNode(t)
	settings := config.StaticSettings(config.DefaultSettings())
	fakeClock := clock.NewFakeClock(testutil.Date(2024, 3, 20))

	partySvc := partyservice.New(partyservice.Params{
		DB:       db,
		Log:      log,
		GenID:    node,
		Repo:     partyrepository.Provide(),
		Settings: settings,
	})
	ledgerSvc := ledgerservice.NewService(ledgerservice.Params{
		DB:       db,
		Log:      log,
		GenID:    node,
		Settings: settings,
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

	ctx := testutil.Context()
	supplier, err := partySvc.CreateSupplier(ctx, partydomain.CreateSupplierRequest{
		Name:                 "Green Valley",
		CommissionPercentage: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	customer, err := partySvc.CreateCustomer(ctx, partydomain.CreateCustomerRequest{
		Name:                 "Market Stall",
		IsCustomer:           true,
		CommissionPercentage: decimal.NewFromInt(2),
	})
	require.NoError(t, err)

	customerID := customer.ID
	form, err := formSvc.Create(ctx, invoiceformdomain.CreateRequest{
		SupplierID:  supplier.ID,
		CustomerID:  &customerID,
		PostingDate: testutil.Date(2024, 3, 5),
		Items: []invoiceformdomain.ItemRequest{
			{ItemCode: "APPLE", Qty: decimal.NewFromInt(10), Price: 1000},
		},
	})
	require.NoError(t, err)
	form, err = formSvc.Submit(ctx, form.ID)
	require.NoError(t, err)

	reports := testutil.NewRecordingCache()
	return fixture{
		svc: New(Params{
			DB:             db,
			Log:            log,
			GenID:          node,
			Clock:          fakeClock,
			Repo:           repository.Provide(),
			PartySvc:       partySvc,
			LedgerSvc:      ledgerSvc,
			InvoiceFormSvc: formSvc,
			Namer:          naming.New(),
			Settings:       settings,
			ReportCache:    reports,
		}),
		forms:    formSvc,
		ledger:   ledgerSvc,
		supplier: supplier,
		customer: customer,
		form:     form,
		reports:  reports,
	}
}

func (f fixture) supplierCommissionRequest() domain.CreateRequest {
	formID := f.form.ID
	return domain.CreateRequest{
		CustomerID:          *f.supplier.RelatedCustomerID,
		PostingDate:         testutil.Date(2024, 3, 15),
		IsCommissionInvoice: true,
		CommissionPartyType: partydomain.PartyTypeSupplier,
		TaxRate:             decimal.NewFromInt(14),
		Items: []domain.ItemRequest{
			{ItemCode: "COMMISSION", InvoiceFormID: &formID, Qty: decimal.NewFromInt(1), Rate: 1000},
		},
	}
}

func TestCreateComputesTotals(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Context()

	inv, err := f.svc.Create(ctx, domain.CreateRequest{
		CustomerID: f.customer.ID,
		TaxRate:    decimal.RequireFromString("12.5"),
		Items: []domain.ItemRequest{
			{ItemCode: "CRATE", Qty: decimal.NewFromInt(3), Rate: 333},
			{ItemCode: "ROPE", Qty: decimal.RequireFromString("0.5"), Rate: 101},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "SINV-2024-00001", inv.Name)
	assert.True(t, testutil.Date(2024, 3, 20).Equal(inv.PostingDate))
	assert.Equal(t, int64(999), inv.Items[0].Amount)
	assert.Equal(t, int64(51), inv.Items[1].Amount)
	assert.Equal(t, int64(1050), inv.NetTotal)
	assert.Equal(t, int64(131), inv.TaxTotal)
	assert.Equal(t, int64(1181), inv.GrandTotal)

	stored, err := f.svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 2)
	assert.Equal(t, inv.GrandTotal, stored.GrandTotal)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Context()

	item := []domain.ItemRequest{{ItemCode: "X", Qty: decimal.NewFromInt(1), Rate: 1}}
	cases := []struct {
		name string
		req  domain.CreateRequest
		want error
	}{
		{"missing customer", domain.CreateRequest{Items: item}, domain.ErrInvalidCustomer},
		{"unknown customer", domain.CreateRequest{CustomerID: 99, Items: item}, domain.ErrInvalidCustomer},
		{"no items", domain.CreateRequest{CustomerID: f.customer.ID}, domain.ErrNoItems},
		{"party type without commission", domain.CreateRequest{
			CustomerID: f.customer.ID, CommissionPartyType: partydomain.PartyTypeCustomer, Items: item,
		}, domain.ErrInvalidPartyType},
		{"tax rate", domain.CreateRequest{CustomerID: f.customer.ID, TaxRate: decimal.NewFromInt(-1), Items: item}, domain.ErrInvalidTaxRate},
		{"item code", domain.CreateRequest{CustomerID: f.customer.ID, Items: []domain.ItemRequest{{Rate: 1}}}, domain.ErrInvalidItemCode},
		{"rate", domain.CreateRequest{CustomerID: f.customer.ID, Items: []domain.ItemRequest{{ItemCode: "X", Rate: -1}}}, domain.ErrInvalidRate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSubmitPostsCommissionIncome(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Context()

	inv, err := f.svc.Create(ctx, f.supplierCommissionRequest())
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, inv.ID)
	require.NoError(t, err)

	entries, err := f.ledger.ListGLEntries(ctx, ledgerdomain.GLFilter{
		VoucherType: ledgerdomain.VoucherTypeSalesInvoice,
		VoucherID:   inv.ID,
	})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	byAccount := map[string]ledgerdomain.GLEntry{}
	for _, e := range entries {
		byAccount[e.AccountCode] = e
	}
	assert.Equal(t, int64(1140), byAccount["debtors"].Debit)
	assert.Equal(t, *f.supplier.RelatedCustomerID, byAccount["debtors"].PartyID)
	assert.Equal(t, int64(1000), byAccount["commission_income"].Credit)
	assert.Equal(t, int64(140), byAccount["tax_payable"].Credit)

	_, err = f.svc.Submit(ctx, inv.ID)
	assert.ErrorIs(t, err, docstatus.ErrNotDraft)
	assert.ErrorIs(t, f.svc.Delete(ctx, inv.ID), docstatus.ErrNotDeletable)
}

func TestSubmitSalesWithoutTax(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Context()

	inv, err := f.svc.Create(ctx, domain.CreateRequest{
		CustomerID: f.customer.ID,
		Items:      []domain.ItemRequest{{ItemCode: "CRATE", Qty: decimal.NewFromInt(2), Rate: 500}},
	})
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, inv.ID)
	require.NoError(t, err)

	entries, err := f.ledger.ListGLEntries(ctx, ledgerdomain.GLFilter{
		VoucherType: ledgerdomain.VoucherTypeSalesInvoice,
		VoucherID:   inv.ID,
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		if e.AccountCode == "sales" {
			assert.Equal(t, int64(1000), e.Credit)
		}
	}

	zero, err := f.svc.Create(ctx, domain.CreateRequest{
		CustomerID: f.customer.ID,
		Items:      []domain.ItemRequest{{ItemCode: "FREE", Qty: decimal.NewFromInt(1)}},
	})
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, zero.ID)
	assert.ErrorIs(t, err, domain.ErrZeroTotal)
}

func TestCancelReleasesSupplierFlag(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Context()

	inv, err := f.svc.Create(ctx, f.supplierCommissionRequest())
	require.NoError(t, err)
	require.NoError(t, f.forms.MarkSupplierCommissionInvoiced(ctx, nil, f.form.ID, true))
	_, err = f.svc.Submit(ctx, inv.ID)
	require.NoError(t, err)

	_, err = f.forms.Cancel(ctx, f.form.ID)
	assert.ErrorIs(t, err, invoiceformdomain.ErrHasCommissionInvoices)

	cancelled, err := f.svc.Cancel(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, docstatus.Cancelled, cancelled.Docstatus)

	form, err := f.forms.Get(ctx, f.form.ID)
	require.NoError(t, err)
	assert.False(t, form.HasSupplierCommissionInvoice)

	entries, err := f.ledger.ListGLEntries(ctx, ledgerdomain.GLFilter{
		VoucherType: ledgerdomain.VoucherTypeSalesInvoice,
		VoucherID:   inv.ID,
	})
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, f.svc.Delete(ctx, inv.ID))
	_, err = f.svc.Get(ctx, inv.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.forms.Cancel(ctx, f.form.ID)
	assert.NoError(t, err)
}

func TestDeleteDraftInvalidatesReports(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Context()

	inv, err := f.svc.Create(ctx, f.supplierCommissionRequest())
	require.NoError(t, err)
	require.NoError(t, f.forms.MarkSupplierCommissionInvoiced(ctx, nil, f.form.ID, true))
	before := f.reports.Invalidations()

	require.NoError(t, f.svc.Delete(ctx, inv.ID))

	form, err := f.forms.Get(ctx, f.form.ID)
	require.NoError(t, err)
	assert.False(t, form.HasSupplierCommissionInvoice)
	assert.Greater(t, f.reports.Invalidations(), before)
}

func TestDeleteDraftReleasesCustomerRows(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Context()

	formID := f.form.ID
	inv, err := f.svc.Create(ctx, domain.CreateRequest{
		CustomerID:          f.customer.ID,
		IsCommissionInvoice: true,
		CommissionPartyType: partydomain.PartyTypeCustomer,
		Items: []domain.ItemRequest{
			{ItemCode: "COMMISSION", InvoiceFormID: &formID, Qty: decimal.NewFromInt(1), Rate: 200},
		},
	})
	require.NoError(t, err)
	_, err = f.forms.MarkCustomerCommissionInvoiced(ctx, nil, f.form.ID, f.customer.ID, true)
	require.NoError(t, err)

	form, err := f.forms.Get(ctx, f.form.ID)
	require.NoError(t, err)
	require.True(t, form.HasCustomerCommissionInvoices)

	require.NoError(t, f.svc.Delete(ctx, inv.ID))

	form, err = f.forms.Get(ctx, f.form.ID)
	require.NoError(t, err)
	assert.False(t, form.HasCustomerCommissionInvoices)
	assert.False(t, form.Items[0].HasCommissionInvoice)
	assert.False(t, form.HasSupplierCommissionInvoice)
}

func TestReleaseWithoutPartyTypeFallsBackToSupplier(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Context()

	req := f.supplierCommissionRequest()
	req.CommissionPartyType = ""
	inv, err := f.svc.Create(ctx, req)
	require.NoError(t, err)
	require.NoError(t, f.forms.MarkSupplierCommissionInvoiced(ctx, nil, f.form.ID, true))

	require.NoError(t, f.svc.Delete(ctx, inv.ID))

	form, err := f.forms.Get(ctx, f.form.ID)
	require.NoError(t, err)
	assert.False(t, form.HasSupplierCommissionInvoice)
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Context()

	commission, err := f.svc.Create(ctx, f.supplierCommissionRequest())
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, domain.CreateRequest{
		CustomerID: f.customer.ID,
		Items:      []domain.ItemRequest{{ItemCode: "CRATE", Qty: decimal.NewFromInt(1), Rate: 10}},
	})
	require.NoError(t, err)

	yes := true
	resp, err := f.svc.List(ctx, domain.ListRequest{ListFilter: domain.ListFilter{IsCommissionInvoice: &yes}})
	require.NoError(t, err)
	require.Len(t, resp.SalesInvoices, 1)
	assert.Equal(t, commission.ID, resp.SalesInvoices[0].ID)

	resp, err = f.svc.List(ctx, domain.ListRequest{ListFilter: domain.ListFilter{InvoiceFormID: f.form.ID}})
	require.NoError(t, err)
	assert.Len(t, resp.SalesInvoices, 1)

	resp, err = f.svc.List(ctx, domain.ListRequest{ListFilter: domain.ListFilter{CustomerID: f.customer.ID}})
	require.NoError(t, err)
	assert.Len(t, resp.SalesInvoices, 1)

	_, err = f.svc.Get(ctx, snowflake.ID(0))
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}
