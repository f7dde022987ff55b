package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// RateResolver returns the tax rate applied to commission invoices.
type RateResolver interface {
	// DefaultRate resolves the settings tax code first, then the company default
	// template, and returns zero when neither is usable.
	DefaultRate(ctx context.Context) (decimal.Decimal, error)
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	SetDefault(ctx context.Context, id string) (*Response, error)
	Disable(ctx context.Context, id string) (*Response, error)
}

type ListRequest struct {
	Name      string
	Code      string
	IsEnabled *bool
	SortBy    string
	OrderBy   string
}

type CreateRequest struct {
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	RatePercent decimal.Decimal `json:"rate_percent"`
	Description *string         `json:"description"`
	IsDefault   bool            `json:"is_default"`
	IsEnabled   *bool           `json:"is_enabled"`
}

type UpdateRequest struct {
	ID          string           `json:"id"`
	Name        *string          `json:"name,omitempty"`
	RatePercent *decimal.Decimal `json:"rate_percent,omitempty"`
	Description *string          `json:"description,omitempty"`
}

type Response struct {
	ID          string          `json:"id"`
	CompanyID   string          `json:"company_id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	RatePercent decimal.Decimal `json:"rate_percent"`
	Description *string         `json:"description,omitempty"`
	IsDefault   bool            `json:"is_default"`
	IsEnabled   bool            `json:"is_enabled"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
