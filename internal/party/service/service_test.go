package service

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/agrimarket/internal/audit/domain"
	auditrepository "github.com/smallbiznis/agrimarket/internal/audit/repository"
	auditservice "github.com/smallbiznis/agrimarket/internal/audit/service"
	"github.com/smallbiznis/agrimarket/internal/config"
	"github.com/smallbiznis/agrimarket/internal/docstatus"
	invoiceformdomain "github.com/smallbiznis/agrimarket/internal/invoiceform/domain"
	ledgerdomain "github.com/smallbiznis/agrimarket/internal/ledger/domain"
	ledgerservice "github.com/smallbiznis/agrimarket/internal/ledger/service"
	"github.com/smallbiznis/agrimarket/internal/party/domain"
	"github.com/smallbiznis/agrimarket/internal/party/repository"
	paymentdomain "github.com/smallbiznis/agrimarket/internal/payment/domain"
	salesinvoicedomain "github.com/smallbiznis/agrimarket/internal/salesinvoice/domain"
	"github.com/smallbiznis/agrimarket/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	svc     domain.Service
	ledger  ledgerdomain.Service
	audit   auditdomain.Service
	reports *testutil.RecordingCache
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := testutil.NewDB(t,
		&domain.Customer{},
		&domain.Supplier{},
		&ledgerdomain.LedgerAccount{},
		&ledgerdomain.LedgerEntry{},
		&ledgerdomain.LedgerEntryLine{},
		&auditdomain.AuditLog{},
		&invoiceformdomain.InvoiceForm{},
		&invoiceformdomain.InvoiceFormItem{},
		&salesinvoicedomain.SalesInvoice{},
		&paymentdomain.PaymentEntry{},
	)
	log := zaptest.NewLogger(t)
	node := testutil.NewNode(t)
	settings := config.StaticSettings(config.DefaultSettings())
	reports := testutil.NewRecordingCache()

	auditSvc := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Repo:  auditrepository.Provide(),
	})
	return fixture{
		db: db,
		svc: New(Params{
			DB:          db,
			Log:         log,
			GenID:       node,
			Repo:        repository.Provide(),
			Settings:    settings,
			AuditSvc:    auditSvc,
			ReportCache: reports,
		}),
		ledger: ledgerservice.NewService(ledgerservice.Params{
			DB:       db,
			Log:      log,
			GenID:    node,
			Settings: settings,
		}),
		audit:   auditSvc,
		reports: reports,
	}
}

func TestCreateSupplierCreatesFarmerCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Context()

	supplier, err := f.svc.CreateSupplier(ctx, domain.CreateSupplierRequest{
		Name:                 "  Green Valley  ",
		CommissionPercentage: decimal.RequireFromString("7.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Green Valley", supplier.Name)
	assert.Equal(t, "Farmers", supplier.RelatedCustomerGroup)
	require.NotNil(t, supplier.RelatedCustomerID)

	customer, err := f.svc.GetCustomer(ctx, *supplier.RelatedCustomerID)
	require.NoError(t, err)
	assert.True(t, customer.IsFarmer)
	assert.Equal(t, "Farmers", customer.CustomerGroup)
	assert.Equal(t, "Green Valley", customer.Name)
	assert.True(t, decimal.RequireFromString("7.5").Equal(customer.CommissionPercentage))

	stored, err := f.svc.GetSupplier(ctx, supplier.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.RelatedCustomerID)
	assert.Equal(t, customer.ID, *stored.RelatedCustomerID)

	logs, err := f.audit.List(ctx, auditdomain.ListAuditLogRequest{TargetType: "supplier"})
	require.NoError(t, err)
	require.Len(t, logs.AuditLogs, 1)
	assert.Equal(t, "supplier.create", logs.AuditLogs[0].Action)
}

func TestCreateSupplierUsesRequestedGroup(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Context()

	supplier, err := f.svc.CreateSupplier(ctx, domain.CreateSupplierRequest{
		Name:                 "Hill Farm",
		RelatedCustomerGroup: "Growers",
	})
	require.NoError(t, err)

	customer, err := f.svc.GetCustomer(ctx, *supplier.RelatedCustomerID)
	require.NoError(t, err)
	assert.Equal(t, "Growers", customer.CustomerGroup)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Context()

	_, err := f.svc.CreateSupplier(ctx, domain.CreateSupplierRequest{Name: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = f.svc.CreateSupplier(ctx, domain.CreateSupplierRequest{
		Name:                 "Over",
		CommissionPercentage: decimal.NewFromInt(101),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPercentage)

	_, err = f.svc.CreateCustomer(ctx, domain.CreateCustomerRequest{
		Name:                 "Negative",
		CommissionPercentage: decimal.NewFromInt(-1),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPercentage)

	_, err = f.svc.GetCustomer(ctx, 12345)
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestUpdateSupplierCommissionUpdatesRelatedCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Context()

	supplier, err := f.svc.CreateSupplier(ctx, domain.CreateSupplierRequest{
		Name:                 "River Farm",
		CommissionPercentage: decimal.NewFromInt(5),
	})
	require.NoError(t, err)

	updated, err := f.svc.UpdateSupplierCommission(ctx, supplier.ID, decimal.NewFromInt(8))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(8).Equal(updated.CommissionPercentage))

	pct, err := f.svc.SupplierCommissionPercentage(ctx, supplier.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(8).Equal(pct))

	customer, err := f.svc.GetCustomer(ctx, *supplier.RelatedCustomerID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(8).Equal(customer.CommissionPercentage))
}

func TestDeleteSupplierRemovesRelatedCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Context()

	supplier, err := f.svc.CreateSupplier(ctx, domain.CreateSupplierRequest{Name: "Orchard"})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteSupplier(ctx, supplier.ID))

	_, err = f.svc.GetSupplier(ctx, supplier.ID)
	assert.ErrorIs(t, err, domain.ErrSupplierNotFound)
	_, err = f.svc.GetCustomer(ctx, *supplier.RelatedCustomerID)
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestDeleteBlockedByActivePostings(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Context()

	supplier, err := f.svc.CreateSupplier(ctx, domain.CreateSupplierRequest{Name: "Meadow"})
	require.NoError(t, err)
	buyer, err := f.svc.CreateCustomer(ctx, domain.CreateCustomerRequest{Name: "Market Stall", IsCustomer: true})
	require.NoError(t, err)

	posting := ledgerdomain.Posting{
		VoucherType: ledgerdomain.VoucherTypeInvoiceForm,
		VoucherID:   77,
		VoucherNo:   "IF-2024-00001",
		PostingDate: testutil.Date(2024, 5, 1),
		Lines: []ledgerdomain.PostingLine{
			ledgerdomain.Debit("debtors", domain.PartyTypeCustomer, buyer.ID, 1200),
			ledgerdomain.Credit("creditors", domain.PartyTypeSupplier, supplier.ID, 1200),
		},
	}
	require.NoError(t, f.ledger.Post(ctx, nil, posting))

	assert.ErrorIs(t, f.svc.DeleteCustomer(ctx, buyer.ID), domain.ErrCustomerInUse)
	assert.ErrorIs(t, f.svc.DeleteSupplier(ctx, supplier.ID), domain.ErrSupplierInUse)

	// Cancelled vouchers no longer hold the parties.
	require.NoError(t, f.ledger.Reverse(ctx, nil, ledgerdomain.VoucherTypeInvoiceForm, 77))
	assert.NoError(t, f.svc.DeleteCustomer(ctx, buyer.ID))
	assert.NoError(t, f.svc.DeleteSupplier(ctx, supplier.ID))
}

func TestDeleteBlockedBySubmittedDocuments(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Context()
	org := snowflake.ID(testutil.OrgID)
	now := testutil.Date(2024, 6, 1)

	supplier, err := f.svc.CreateSupplier(ctx, domain.CreateSupplierRequest{Name: "Ridge"})
	require.NoError(t, err)
	buyer, err := f.svc.CreateCustomer(ctx, domain.CreateCustomerRequest{Name: "Corner Shop", IsCustomer: true})
	require.NoError(t, err)
	payee, err := f.svc.CreateCustomer(ctx, domain.CreateCustomerRequest{Name: "Porter", IsCustomer: true})
	require.NoError(t, err)

	form := invoiceformdomain.InvoiceForm{
		ID: 501, OrgID: org, Name: "IF-2024-00009", SupplierID: supplier.ID,
		PostingDate: now, Docstatus: docstatus.Submitted, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, f.db.Create(&form).Error)
	require.NoError(t, f.db.Create(&invoiceformdomain.InvoiceFormItem{
		ID: 502, OrgID: org, FormID: form.ID, Idx: 1, ItemCode: "TOMATO", CustomerID: buyer.ID,
	}).Error)
	require.NoError(t, f.db.Create(&paymentdomain.PaymentEntry{
		ID: 503, OrgID: org, Name: "PE-2024-00001", PartyType: domain.PartyTypeCustomer, PartyID: payee.ID,
		PaymentType: paymentdomain.PaymentTypeReceive, PaidAmount: 100, PostingDate: now,
		Docstatus: docstatus.Draft, CreatedAt: now, UpdatedAt: now,
	}).Error)

	assert.ErrorIs(t, f.svc.DeleteSupplier(ctx, supplier.ID), domain.ErrSupplierInUse)
	assert.ErrorIs(t, f.svc.DeleteCustomer(ctx, buyer.ID), domain.ErrCustomerInUse)
	// Drafts do not hold the party.
	require.NoError(t, f.svc.DeleteCustomer(ctx, payee.ID))

	require.NoError(t, f.db.Model(&invoiceformdomain.InvoiceForm{}).
		Where("id = ?", form.ID).Update("docstatus", docstatus.Cancelled).Error)
	assert.NoError(t, f.svc.DeleteCustomer(ctx, buyer.ID))
	assert.NoError(t, f.svc.DeleteSupplier(ctx, supplier.ID))
}

func TestDeleteCustomerBlockedBySubmittedSalesInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Context()
	now := testutil.Date(2024, 6, 2)

	buyer, err := f.svc.CreateCustomer(ctx, domain.CreateCustomerRequest{Name: "Grocer", IsCustomer: true})
	require.NoError(t, err)
	require.NoError(t, f.db.Create(&salesinvoicedomain.SalesInvoice{
		ID: 601, OrgID: snowflake.ID(testutil.OrgID), Name: "SINV-2024-00001", CustomerID: buyer.ID,
		PostingDate: now, Docstatus: docstatus.Submitted, CreatedAt: now, UpdatedAt: now,
	}).Error)

	assert.ErrorIs(t, f.svc.DeleteCustomer(ctx, buyer.ID), domain.ErrCustomerInUse)
}

func TestPartyChangesInvalidateReports(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Context()

	_, err := f.svc.CreateCustomer(ctx, domain.CreateCustomerRequest{Name: "Kiosk", IsCustomer: true})
	require.NoError(t, err)
	assert.Equal(t, 1, f.reports.Invalidations())

	supplier, err := f.svc.CreateSupplier(ctx, domain.CreateSupplierRequest{Name: "Lowland"})
	require.NoError(t, err)
	assert.Equal(t, 2, f.reports.Invalidations())

	_, err = f.svc.UpdateSupplierCommission(ctx, supplier.ID, decimal.NewFromInt(4))
	require.NoError(t, err)
	assert.Equal(t, 3, f.reports.Invalidations())

	require.NoError(t, f.svc.DeleteSupplier(ctx, supplier.ID))
	assert.Equal(t, 4, f.reports.Invalidations())
}

func TestListCustomersFilters(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Context()

	_, err := f.svc.CreateSupplier(ctx, domain.CreateSupplierRequest{Name: "Farmer One"})
	require.NoError(t, err)
	_, err = f.svc.CreateCustomer(ctx, domain.CreateCustomerRequest{Name: "Buyer One", IsCustomer: true})
	require.NoError(t, err)

	farmer := true
	resp, err := f.svc.ListCustomers(ctx, domain.ListCustomerRequest{
		ListCustomerFilter: domain.ListCustomerFilter{IsFarmer: &farmer},
	})
	require.NoError(t, err)
	require.Len(t, resp.Customers, 1)
	assert.Equal(t, "Farmer One", resp.Customers[0].Name)
	assert.False(t, resp.HasMore)

	all, err := f.svc.ListCustomers(ctx, domain.ListCustomerRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Customers, 2)
}
