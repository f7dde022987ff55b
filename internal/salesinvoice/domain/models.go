package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/agrimarket/internal/docstatus"
	partydomain "github.com/smallbiznis/agrimarket/internal/party/domain"
	"gorm.io/datatypes"
)

// SalesInvoice bills a customer. Commission invoices carry items that point back at invoice forms.
type SalesInvoice struct {
	ID          snowflake.ID        `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID        `gorm:"not null;index;uniqueIndex:ux_sales_invoices_org_name,priority:1" json:"company_id"`
	Name        string              `gorm:"type:text;not null;uniqueIndex:ux_sales_invoices_org_name,priority:2" json:"name"`
	CustomerID  snowflake.ID        `gorm:"not null;index" json:"customer_id"`
	PostingDate time.Time           `gorm:"not null;index" json:"posting_date"`
	Docstatus   docstatus.Docstatus `gorm:"not null;default:0;index" json:"docstatus"`

	IsCommissionInvoice bool                  `gorm:"not null;default:false" json:"is_commission_invoice"`
	CommissionPartyType partydomain.PartyType `gorm:"type:text;not null;default:''" json:"commission_party_type,omitempty"`

	TaxRate    decimal.Decimal `gorm:"type:numeric(9,4);not null;default:0" json:"tax_rate"`
	NetTotal   int64           `gorm:"not null;default:0" json:"net_total"`
	TaxTotal   int64           `gorm:"not null;default:0" json:"tax_total"`
	GrandTotal int64           `gorm:"not null;default:0" json:"grand_total"`

	Remarks   string            `gorm:"type:text;not null;default:''" json:"remarks"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null" json:"updated_at"`

	Items []SalesInvoiceItem `gorm:"-" json:"items"`
}

func (SalesInvoice) TableName() string { return "sales_invoices" }

type SalesInvoiceItem struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrgID         snowflake.ID    `gorm:"not null;index" json:"-"`
	InvoiceID     snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	Idx           int             `gorm:"not null" json:"idx"`
	ItemCode      string          `gorm:"type:text;not null" json:"item_code"`
	Description   string          `gorm:"type:text;not null;default:''" json:"description"`
	InvoiceFormID *snowflake.ID   `gorm:"index" json:"invoice_form_id,omitempty"`
	Qty           decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"qty"`
	Rate          int64           `gorm:"not null;default:0" json:"rate"`
	Amount        int64           `gorm:"not null;default:0" json:"amount"`
}

func (SalesInvoiceItem) TableName() string { return "sales_invoice_items" }
