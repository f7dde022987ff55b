package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	partydomain "github.com/smallbiznis/agrimarket/internal/party/domain"
	"github.com/smallbiznis/agrimarket/pkg/db/pagination"
	"gorm.io/gorm"
)

type CreateRequest struct {
	CustomerID          snowflake.ID          `json:"customer_id"`
	PostingDate         time.Time             `json:"posting_date"`
	IsCommissionInvoice bool                  `json:"is_commission_invoice"`
	CommissionPartyType partydomain.PartyType `json:"commission_party_type"`
	TaxRate             decimal.Decimal       `json:"tax_rate"`
	Items               []ItemRequest         `json:"items"`
	Remarks             string                `json:"remarks"`
	Metadata            map[string]any        `json:"metadata"`
}

type ItemRequest struct {
	ItemCode      string          `json:"item_code"`
	Description   string          `json:"description"`
	InvoiceFormID *snowflake.ID   `json:"invoice_form_id"`
	Qty           decimal.Decimal `json:"qty"`
	Rate          int64           `json:"rate"`
}

type ListRequest struct {
	pagination.Pagination
	ListFilter
}

type ListResponse struct {
	pagination.PageInfo
	SalesInvoices []SalesInvoice `json:"sales_invoices"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (SalesInvoice, error)
	// CreateTx stores a draft invoice through the caller's transaction.
	CreateTx(ctx context.Context, tx *gorm.DB, req CreateRequest) (SalesInvoice, error)
	Get(ctx context.Context, id snowflake.ID) (SalesInvoice, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Submit(ctx context.Context, id snowflake.ID) (SalesInvoice, error)
	// Cancel reverses the posting and releases the commission flags of the referenced forms.
	Cancel(ctx context.Context, id snowflake.ID) (SalesInvoice, error)
	Delete(ctx context.Context, id snowflake.ID) error
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("sales_invoice_not_found")
	ErrInvalidCustomer     = errors.New("invalid_customer")
	ErrInvalidPartyType    = errors.New("invalid_commission_party_type")
	ErrInvalidItemCode     = errors.New("invalid_item_code")
	ErrInvalidQty          = errors.New("invalid_qty")
	ErrInvalidRate         = errors.New("invalid_rate")
	ErrInvalidTaxRate      = errors.New("invalid_tax_rate")
	ErrNoItems             = errors.New("sales_invoice_has_no_items")
	ErrZeroTotal           = errors.New("sales_invoice_total_is_zero")
	ErrInvalidDateRange    = errors.New("invalid_date_range")
)
