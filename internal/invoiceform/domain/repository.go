package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/agrimarket/internal/docstatus"
	"github.com/smallbiznis/agrimarket/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, form *InvoiceForm) error
	// FindByID loads the header only. forUpdate locks the row on databases that support it.
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, forUpdate bool) (*InvoiceForm, error)
	LoadChildren(ctx context.Context, db *gorm.DB, form *InvoiceForm) error
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListFilter, page pagination.Pagination) ([]InvoiceForm, error)
	UpdateHeader(ctx context.Context, db *gorm.DB, form *InvoiceForm) error
	ReplaceChildren(ctx context.Context, db *gorm.DB, form *InvoiceForm) error
	SetDocstatus(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, status docstatus.Docstatus, at time.Time) error
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error

	SetSupplierCommissionInvoiced(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, invoiced bool) error
	SetItemsCommissionInvoiced(ctx context.Context, db *gorm.DB, orgID, formID, customerID snowflake.ID, invoiced bool) (int64, error)
	SetCustomerCommissionsInvoiced(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, invoiced bool) error

	PendingSupplierForms(ctx context.Context, db *gorm.DB, orgID, supplierID snowflake.ID, from, to time.Time) ([]InvoiceForm, error)
	PendingCustomerCommissions(ctx context.Context, db *gorm.DB, orgID, customerID snowflake.ID, from, to time.Time) ([]PendingCustomerCommission, error)
	// CountActiveCommissionInvoices counts non-cancelled sales invoices with items referencing the form.
	CountActiveCommissionInvoices(ctx context.Context, db *gorm.DB, orgID, formID snowflake.ID) (int64, error)
}

type ListFilter struct {
	SupplierID snowflake.ID
	CustomerID snowflake.ID
	Docstatus  *docstatus.Docstatus
	FromDate   *time.Time
	ToDate     *time.Time
}
