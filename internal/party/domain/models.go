package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PartyType names the kind of counterparty a ledger line or document refers to.
type PartyType string

const (
	PartyTypeCustomer PartyType = "Customer"
	PartyTypeSupplier PartyType = "Supplier"
)

// Valid reports whether t is a known party type.
func (t PartyType) Valid() bool {
	return t == PartyTypeCustomer || t == PartyTypeSupplier
}

// Customer is a buyer at the market. Farmers are customers linked to a supplier.
type Customer struct {
	ID                   snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID                snowflake.ID      `gorm:"not null;index" json:"company_id"`
	Name                 string            `gorm:"type:text;not null" json:"name"`
	CustomerGroup        string            `gorm:"type:text;not null;default:'';index" json:"customer_group"`
	IsFarmer             bool              `gorm:"not null;default:false" json:"is_farmer"`
	IsCustomer           bool              `gorm:"not null;default:false" json:"is_customer"`
	IsPamper             bool              `gorm:"not null;default:false" json:"is_pamper"`
	CommissionPercentage decimal.Decimal   `gorm:"type:numeric(9,4);not null;default:0" json:"commission_percentage"`
	Metadata             datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt            time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt            time.Time         `gorm:"not null" json:"updated_at"`
}

func (Customer) TableName() string { return "customers" }

// Supplier consigns goods to the market and pays a commission on sales.
type Supplier struct {
	ID                   snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrgID                snowflake.ID      `gorm:"not null;index" json:"company_id"`
	Name                 string            `gorm:"type:text;not null" json:"name"`
	SupplierGroup        string            `gorm:"type:text;not null;default:'';index" json:"supplier_group"`
	CommissionPercentage decimal.Decimal   `gorm:"type:numeric(9,4);not null;default:0" json:"commission_percentage"`
	RelatedCustomerID    *snowflake.ID     `gorm:"index" json:"related_customer_id,omitempty"`
	RelatedCustomerGroup string            `gorm:"type:text;not null;default:''" json:"related_customer_group"`
	Metadata             datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt            time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt            time.Time         `gorm:"not null" json:"updated_at"`
}

func (Supplier) TableName() string { return "suppliers" }
