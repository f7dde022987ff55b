package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/agrimarket/internal/docstatus"
	"gorm.io/datatypes"
)

// InvoiceForm records goods a supplier sold at the market to one or more customers.
type InvoiceForm struct {
	ID          snowflake.ID        `gorm:"primaryKey" json:"id"`
	OrgID       snowflake.ID        `gorm:"not null;index;uniqueIndex:ux_invoice_forms_org_name,priority:1" json:"company_id"`
	Name        string              `gorm:"type:text;not null;uniqueIndex:ux_invoice_forms_org_name,priority:2" json:"name"`
	SupplierID  snowflake.ID        `gorm:"not null;index" json:"supplier_id"`
	PamperID    *snowflake.ID       `gorm:"index" json:"pamper_id,omitempty"`
	CustomerID  *snowflake.ID       `gorm:"index" json:"customer_id,omitempty"`
	PostingDate time.Time           `gorm:"not null;index" json:"posting_date"`
	Docstatus   docstatus.Docstatus `gorm:"not null;default:0;index" json:"docstatus"`

	GrandTotal              int64 `gorm:"not null;default:0" json:"grand_total"`
	TotalCommission         int64 `gorm:"not null;default:0" json:"total_commission"`
	TotalCustomerCommission int64 `gorm:"not null;default:0" json:"total_customer_commission"`

	HasSupplierCommissionInvoice  bool `gorm:"not null;default:false" json:"has_supplier_commission_invoice"`
	HasCustomerCommissionInvoices bool `gorm:"not null;default:false" json:"has_customer_commission_invoices"`

	Remarks   string            `gorm:"type:text;not null;default:''" json:"remarks"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null" json:"updated_at"`

	Items             []InvoiceFormItem             `gorm:"-" json:"items"`
	Commissions       []InvoiceFormCommission       `gorm:"-" json:"commissions"`
	PamperCommissions []InvoiceFormPamperCommission `gorm:"-" json:"pamper_commissions"`
}

func (InvoiceForm) TableName() string { return "invoice_forms" }

// InvoiceFormItem is one sold line. The customer is either the form customer or its pamper.
type InvoiceFormItem struct {
	ID                   snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrgID                snowflake.ID    `gorm:"not null;index" json:"-"`
	FormID               snowflake.ID    `gorm:"not null;index" json:"form_id"`
	Idx                  int             `gorm:"not null" json:"idx"`
	ItemCode             string          `gorm:"type:text;not null;index" json:"item_code"`
	ItemName             string          `gorm:"type:text;not null;default:''" json:"item_name"`
	Qty                  decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"qty"`
	Price                int64           `gorm:"not null;default:0" json:"price"`
	Total                int64           `gorm:"not null;default:0" json:"total"`
	CustomerID           snowflake.ID    `gorm:"not null;index" json:"customer_id"`
	PamperID             *snowflake.ID   `json:"pamper_id,omitempty"`
	Commission           int64           `gorm:"not null;default:0" json:"commission"`
	CustomerCommission   int64           `gorm:"not null;default:0" json:"customer_commission"`
	HasCommissionInvoice bool            `gorm:"not null;default:false" json:"has_commission_invoice"`
}

func (InvoiceFormItem) TableName() string { return "invoice_form_items" }

type InvoiceFormCommission struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	FormID          snowflake.ID `gorm:"not null;index" json:"form_id"`
	Idx             int          `gorm:"not null" json:"idx"`
	ItemCode        string       `gorm:"type:text;not null" json:"item_code"`
	Commission      int64        `gorm:"not null;default:0" json:"commission"`
	Taxes           int64        `gorm:"not null;default:0" json:"taxes"`
	CommissionTotal int64        `gorm:"not null;default:0" json:"commission_total"`
}

func (InvoiceFormCommission) TableName() string { return "invoice_form_commissions" }

type InvoiceFormPamperCommission struct {
	ID         snowflake.ID    `gorm:"primaryKey" json:"id"`
	FormID     snowflake.ID    `gorm:"not null;index" json:"form_id"`
	Idx        int             `gorm:"not null" json:"idx"`
	PamperID   snowflake.ID    `gorm:"not null" json:"pamper_id"`
	Price      int64           `gorm:"not null;default:0" json:"price"`
	Percentage decimal.Decimal `gorm:"type:numeric(9,4);not null;default:0" json:"percentage"`
	Commission int64           `gorm:"not null;default:0" json:"commission"`
}

func (InvoiceFormPamperCommission) TableName() string { return "invoice_form_pamper_commissions" }

// PendingCustomerCommission sums a customer's uninvoiced commission on one form.
type PendingCustomerCommission struct {
	FormID      snowflake.ID `json:"invoice_id"`
	FormName    string       `json:"invoice_name"`
	PostingDate time.Time    `json:"posting_date"`
	Total       int64        `json:"total"`
}
