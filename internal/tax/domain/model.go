package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/agrimarket/pkg/money"
)

// TaxTemplate is a company tax rate applied to commission invoices.
// NOTE:
// - code is referenced from agriculture settings (defaultTax) and must stay stable
// - at most one enabled template per company carries IsDefault
type TaxTemplate struct {
	ID    snowflake.ID `gorm:"primaryKey"`
	OrgID snowflake.ID `gorm:"column:org_id;not null;index;uniqueIndex:ux_tax_templates_org_code,priority:1"`

	Code        string          `gorm:"type:text;not null;uniqueIndex:ux_tax_templates_org_code,priority:2"`
	Name        string          `gorm:"type:text;not null"`
	RatePercent decimal.Decimal `gorm:"column:rate_percent;type:numeric(9,4);not null;default:0"` // percent (e.g. 11 for 11%)

	Description *string `gorm:"type:text"`

	IsDefault bool `gorm:"column:is_default;not null;default:false"`
	IsEnabled bool `gorm:"column:is_enabled;not null;default:true"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (TaxTemplate) TableName() string { return "tax_templates" }

func (t *TaxTemplate) Validate() error {
	if t.Code == "" {
		return ErrInvalidTaxCode
	}
	if t.Name == "" {
		return ErrInvalidName
	}
	if !money.ValidPercent(t.RatePercent) {
		return ErrInvalidTaxRate
	}
	return nil
}

// ComputeTax returns the tax due on amount at ratePercent.
func ComputeTax(amount int64, ratePercent decimal.Decimal) int64 {
	return money.PercentOf(amount, ratePercent)
}
