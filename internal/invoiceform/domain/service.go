package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/agrimarket/pkg/db/pagination"
	"gorm.io/gorm"
)

type CreateRequest struct {
	SupplierID        snowflake.ID           `json:"supplier_id"`
	PamperID          *snowflake.ID          `json:"pamper_id"`
	CustomerID        *snowflake.ID          `json:"customer_id"`
	PostingDate       time.Time              `json:"posting_date"`
	Items             []ItemRequest          `json:"items"`
	Commissions       []CommissionRequest    `json:"commissions"`
	PamperCommissions []PamperCommissionLine `json:"pamper_commissions"`
	Remarks           string                 `json:"remarks"`
	Metadata          map[string]any         `json:"metadata"`
}

// UpdateRequest replaces the editable content of a draft form.
type UpdateRequest = CreateRequest

type ItemRequest struct {
	ItemCode   string          `json:"item_code"`
	ItemName   string          `json:"item_name"`
	Qty        decimal.Decimal `json:"qty"`
	Price      int64           `json:"price"`
	CustomerID snowflake.ID    `json:"customer_id"`
	PamperID   *snowflake.ID   `json:"pamper_id"`
}

type CommissionRequest struct {
	ItemCode   string `json:"item_code"`
	Commission int64  `json:"commission"`
	Taxes      int64  `json:"taxes"`
}

type PamperCommissionLine struct {
	PamperID   snowflake.ID    `json:"pamper_id"`
	Price      int64           `json:"price"`
	Percentage decimal.Decimal `json:"percentage"`
}

type ListRequest struct {
	pagination.Pagination
	ListFilter
}

type ListResponse struct {
	pagination.PageInfo
	InvoiceForms []InvoiceForm `json:"invoice_forms"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (InvoiceForm, error)
	Get(ctx context.Context, id snowflake.ID) (InvoiceForm, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateRequest) (InvoiceForm, error)
	// Submit posts the form to the ledger: customers are debited and the supplier credited.
	Submit(ctx context.Context, id snowflake.ID) (InvoiceForm, error)
	Cancel(ctx context.Context, id snowflake.ID) (InvoiceForm, error)
	Delete(ctx context.Context, id snowflake.ID) error

	PendingSupplierCommissions(ctx context.Context, supplierID snowflake.ID, from, to time.Time) ([]InvoiceForm, error)
	PendingCustomerCommissions(ctx context.Context, customerID snowflake.ID, from, to time.Time) ([]PendingCustomerCommission, error)
	MarkSupplierCommissionInvoiced(ctx context.Context, tx *gorm.DB, formID snowflake.ID, invoiced bool) error
	// MarkCustomerCommissionInvoiced flags the customer's rows, rolls the form flag up and
	// returns how many rows belong to the customer.
	MarkCustomerCommissionInvoiced(ctx context.Context, tx *gorm.DB, formID, customerID snowflake.ID, invoiced bool) (int64, error)

	RenderPDF(ctx context.Context, id snowflake.ID) ([]byte, error)
}

var (
	ErrInvalidOrganization   = errors.New("invalid_organization")
	ErrInvalidID             = errors.New("invalid_id")
	ErrNotFound              = errors.New("invoice_form_not_found")
	ErrInvalidSupplier       = errors.New("invalid_supplier")
	ErrInvalidCustomer       = errors.New("invalid_customer")
	ErrInvalidPamper         = errors.New("invalid_pamper")
	ErrInvalidItemCustomer   = errors.New("invalid_item_customer")
	ErrInvalidItemPamper     = errors.New("invalid_item_pamper")
	ErrInvalidItemCode       = errors.New("invalid_item_code")
	ErrInvalidQty            = errors.New("invalid_qty")
	ErrInvalidPrice          = errors.New("invalid_price")
	ErrInvalidCommissionItem = errors.New("invalid_commission_item")
	ErrInvalidCommission     = errors.New("invalid_commission")
	ErrInvalidPercentage     = errors.New("invalid_percentage")
	ErrInvalidPostingDate    = errors.New("invalid_posting_date")
	ErrNoItems               = errors.New("invoice_form_has_no_items")
	ErrZeroTotal             = errors.New("invoice_form_total_is_zero")
	ErrHasCommissionInvoices = errors.New("invoice_form_has_commission_invoices")
	ErrInvalidDateRange      = errors.New("invalid_date_range")
	ErrNoPrintout            = errors.New("invoice_form_printout_empty")
)
