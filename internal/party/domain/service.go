package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/agrimarket/pkg/db/pagination"
)

type CreateCustomerRequest struct {
	Name                 string          `json:"name"`
	CustomerGroup        string          `json:"customer_group"`
	IsFarmer             bool            `json:"is_farmer"`
	IsCustomer           bool            `json:"is_customer"`
	IsPamper             bool            `json:"is_pamper"`
	CommissionPercentage decimal.Decimal `json:"commission_percentage"`
	Metadata             map[string]any  `json:"metadata"`
}

type ListCustomerRequest struct {
	pagination.Pagination
	ListCustomerFilter
}

type ListCustomerFilter struct {
	Name          string
	CustomerGroup string
	IsFarmer      *bool
	IsCustomer    *bool
	IsPamper      *bool
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

type CreateSupplierRequest struct {
	Name                 string          `json:"name"`
	SupplierGroup        string          `json:"supplier_group"`
	CommissionPercentage decimal.Decimal `json:"commission_percentage"`
	RelatedCustomerGroup string          `json:"related_customer_group"`
	Metadata             map[string]any  `json:"metadata"`
}

type ListSupplierRequest struct {
	pagination.Pagination
	ListSupplierFilter
}

type ListSupplierFilter struct {
	Name          string
	SupplierGroup string
}

type ListSupplierResponse struct {
	pagination.PageInfo
	Suppliers []Supplier `json:"suppliers"`
}

type Service interface {
	CreateCustomer(ctx context.Context, req CreateCustomerRequest) (Customer, error)
	GetCustomer(ctx context.Context, id snowflake.ID) (Customer, error)
	CustomersByID(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]Customer, error)
	ListCustomers(ctx context.Context, req ListCustomerRequest) (ListCustomerResponse, error)
	DeleteCustomer(ctx context.Context, id snowflake.ID) error

	// CreateSupplier stores the supplier together with its farmer customer.
	CreateSupplier(ctx context.Context, req CreateSupplierRequest) (Supplier, error)
	GetSupplier(ctx context.Context, id snowflake.ID) (Supplier, error)
	SuppliersByID(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]Supplier, error)
	ListSuppliers(ctx context.Context, req ListSupplierRequest) (ListSupplierResponse, error)
	UpdateSupplierCommission(ctx context.Context, id snowflake.ID, pct decimal.Decimal) (Supplier, error)
	// DeleteSupplier removes the related customer first, then the supplier.
	DeleteSupplier(ctx context.Context, id snowflake.ID) error
	SupplierCommissionPercentage(ctx context.Context, id snowflake.ID) (decimal.Decimal, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidPercentage   = errors.New("invalid_commission_percentage")
	ErrInvalidID           = errors.New("invalid_id")
	ErrCustomerNotFound    = errors.New("customer_not_found")
	ErrSupplierNotFound    = errors.New("supplier_not_found")
	ErrCustomerInUse       = errors.New("customer_in_use")
	ErrSupplierInUse       = errors.New("supplier_in_use")
)
