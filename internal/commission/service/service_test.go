package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/agrimarket/internal/clock"
	"github.com/smallbiznis/agrimarket/internal/commission/domain"
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
	salesinvoicedomain "github.com/smallbiznis/agrimarket/internal/salesinvoice/domain"
	salesinvoicerepository "github.com/smallbiznis/agrimarket/internal/salesinvoice/repository"
	salesinvoiceservice "github.com/smallbiznis/agrimarket/internal/salesinvoice/service"
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

type fixture struct {
	svc      domain.Service
	forms    invoiceformdomain.Service
	invoices salesinvoicedomain.Service
	rates    *rateResolverMock
	supplier partydomain.Supplier
	customer partydomain.Customer
	pamper   partydomain.Customer
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
		&salesinvoicedomain.SalesInvoice{},
		&salesinvoicedomain.SalesInvoiceItem{},
	)
	log := zaptest.NewLogger(t)
	node := testutil.NewNode(t)
	settings := config.StaticSettings(config.DefaultSettings())
	fakeClock := clock.NewFakeClock(testutil.Date(2024, 4, 2))

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
	salesSvc := salesinvoiceservice.New(salesinvoiceservice.Params{
		DB:             db,
		Log:            log,
		GenID:          node,
		Clock:          fakeClock,
		Repo:           salesinvoicerepository.Provide(),
		PartySvc:       partySvc,
		LedgerSvc:      ledgerSvc,
		InvoiceFormSvc: formSvc,
		Namer:          naming.New(),
		Settings:       settings,
	})
	rates := &rateResolverMock{}

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
	pamper, err := partySvc.CreateCustomer(ctx, partydomain.CreateCustomerRequest{
		Name:                 "Porter",
		IsPamper:             true,
		CommissionPercentage: decimal.NewFromInt(1),
	})
	require.NoError(t, err)

	return fixture{
		svc: New(Params{
			DB:              db,
			Log:             log,
			Clock:           fakeClock,
			PartySvc:        partySvc,
			InvoiceFormSvc:  formSvc,
			SalesInvoiceSvc: salesSvc,
			TaxResolver:     rates,
			Settings:        settings,
		}),
		forms:    formSvc,
		invoices: salesSvc,
		rates:    rates,
		supplier: supplier,
		customer: customer,
		pamper:   pamper,
	}
}

// submitForm books a form with one row for the customer and one for the pamper.
func (f fixture) submitForm(t *testing.T, day int) invoiceformdomain.InvoiceForm {
	t.Helper()
	ctx := testutil.Context()
	customerID, pamperID := f.customer.ID, f.pamper.ID
	form, err := f.forms.Create(ctx, invoiceformdomain.CreateRequest{
		SupplierID:  f.supplier.ID,
		CustomerID:  &customerID,
		PamperID:    &pamperID,
		PostingDate: testutil.Date(2024, 3, day),
		Items: []invoiceformdomain.ItemRequest{
			{ItemCode: "APPLE", Qty: decimal.NewFromInt(10), Price: 1000},
			{ItemCode: "PEAR", Qty: decimal.NewFromInt(5), Price: 1000, CustomerID: f.pamper.ID},
		},
	})
	require.NoError(t, err)
	form, err = f.forms.Submit(ctx, form.ID)
	require.NoError(t, err)
	return form
}

func (f fixture) filter(partyType partydomain.PartyType, party snowflake.ID) domain.Filter {
	return domain.Filter{
		FromDate:  testutil.Date(2024, 3, 1),
		ToDate:    testutil.Date(2024, 3, 31),
		PartyType: partyType,
		Party:     party,
	}
}

func TestListPendingValidatesFilter(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Context()

	_, err := f.svc.ListPending(ctx, domain.Filter{FromDate: testutil.Date(2024, 3, 1), Party: f.supplier.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidFilter)
	_, err = f.svc.ListPending(ctx, domain.Filter{FromDate: testutil.Date(2024, 3, 1), PartyType: partydomain.PartyTypeSupplier})
	assert.ErrorIs(t, err, domain.ErrInvalidFilter)
	_, err = f.svc.ListPending(ctx, domain.Filter{PartyType: partydomain.PartyTypeSupplier, Party: f.supplier.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidFilter)

	filter := f.filter(partydomain.PartyTypeSupplier, f.supplier.ID)
	filter.FromDate, filter.ToDate = filter.ToDate, filter.FromDate
	_, err = f.svc.ListPending(ctx, filter)
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)

	_, err = f.svc.ListPending(ctx, f.filter(partydomain.PartyTypeSupplier, 404))
	assert.ErrorIs(t, err, domain.ErrInvalidFilter)
}

func TestListPending(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Context()
	form := f.submitForm(t, 5)

	supplierRows, err := f.svc.ListPending(ctx, f.filter(partydomain.PartyTypeSupplier, f.supplier.ID))
	require.NoError(t, err)
	require.Len(t, supplierRows, 1)
	assert.Equal(t, form.ID, supplierRows[0].InvoiceID)
	assert.Equal(t, int64(1500), supplierRows[0].Total)

	customerRows, err := f.svc.ListPending(ctx, f.filter(partydomain.PartyTypeCustomer, f.customer.ID))
	require.NoError(t, err)
	require.Len(t, customerRows, 1)
	assert.Equal(t, int64(200), customerRows[0].Total)

	pamperRows, err := f.svc.ListPending(ctx, f.filter(partydomain.PartyTypeCustomer, f.pamper.ID))
	require.NoError(t, err)
	require.Len(t, pamperRows, 1)
	assert.Equal(t, int64(50), pamperRows[0].Total)

	open := f.filter(partydomain.PartyTypeSupplier, f.supplier.ID)
	open.ToDate = testutil.Date(2024, 3, 4)
	early, err := f.svc.ListPending(ctx, open)
	require.NoError(t, err)
	assert.Empty(t, early)
}

func TestGenerateSupplierInvoices(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Context()
	first := f.submitForm(t, 5)
	f.submitForm(t, 9)
	f.rates.On("DefaultRate", mock.Anything).Return(decimal.NewFromInt(14), nil).Once()

	created, err := f.svc.Generate(ctx, domain.GenerateRequest{
		Filter:   f.filter(partydomain.PartyTypeSupplier, f.supplier.ID),
		Invoices: []snowflake.ID{first.ID},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	f.rates.AssertExpectations(t)

	inv := created[0]
	assert.Equal(t, *f.supplier.RelatedCustomerID, inv.CustomerID)
	assert.Equal(t, docstatus.Draft, inv.Docstatus)
	assert.True(t, inv.IsCommissionInvoice)
	assert.Equal(t, partydomain.PartyTypeSupplier, inv.CommissionPartyType)
	assert.True(t, testutil.Date(2024, 4, 2).Equal(inv.PostingDate))
	require.Len(t, inv.Items, 1)
	assert.Equal(t, "COMMISSION", inv.Items[0].ItemCode)
	assert.Equal(t, first.ID, *inv.Items[0].InvoiceFormID)
	assert.Equal(t, int64(1500), inv.NetTotal)
	assert.Equal(t, int64(210), inv.TaxTotal)
	assert.Equal(t, int64(1710), inv.GrandTotal)

	form, err := f.forms.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, form.HasSupplierCommissionInvoice)

	remaining, err := f.svc.ListPending(ctx, f.filter(partydomain.PartyTypeSupplier, f.supplier.ID))
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.NotEqual(t, first.ID, remaining[0].InvoiceID)

	_, err = f.svc.Generate(ctx, domain.GenerateRequest{
		Filter:   f.filter(partydomain.PartyTypeSupplier, f.supplier.ID),
		Invoices: []snowflake.ID{first.ID},
	})
	assert.ErrorIs(t, err, domain.ErrNotPending)

	// deleting the draft releases the form again
	require.NoError(t, f.invoices.Delete(ctx, inv.ID))
	again, err := f.svc.ListPending(ctx, f.filter(partydomain.PartyTypeSupplier, f.supplier.ID))
	require.NoError(t, err)
	assert.Len(t, again, 2)
}

func TestGenerateCustomerInvoices(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Context()
	form := f.submitForm(t, 5)
	f.rates.On("DefaultRate", mock.Anything).Return(decimal.Zero, nil)

	created, err := f.svc.Generate(ctx, domain.GenerateRequest{
		Filter: f.filter(partydomain.PartyTypeCustomer, f.customer.ID),
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, f.customer.ID, created[0].CustomerID)
	assert.Equal(t, int64(200), created[0].GrandTotal)

	stored, err := f.forms.Get(ctx, form.ID)
	require.NoError(t, err)
	assert.True(t, stored.Items[0].HasCommissionInvoice)
	assert.False(t, stored.Items[1].HasCommissionInvoice)
	assert.False(t, stored.HasCustomerCommissionInvoices)

	_, err = f.svc.Generate(ctx, domain.GenerateRequest{
		Filter: f.filter(partydomain.PartyTypeCustomer, f.pamper.ID),
	})
	require.NoError(t, err)
	stored, err = f.forms.Get(ctx, form.ID)
	require.NoError(t, err)
	assert.True(t, stored.HasCustomerCommissionInvoices)

	none, err := f.svc.Generate(ctx, domain.GenerateRequest{
		Filter: f.filter(partydomain.PartyTypeCustomer, f.customer.ID),
	})
	require.NoError(t, err)
	assert.Empty(t, none)
}
