package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/agrimarket/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	InsertCustomer(ctx context.Context, db *gorm.DB, customer *Customer) error
	FindCustomer(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Customer, error)
	FindCustomers(ctx context.Context, db *gorm.DB, orgID snowflake.ID, ids []snowflake.ID) ([]Customer, error)
	ListCustomers(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListCustomerFilter, page pagination.Pagination) ([]Customer, error)
	UpdateCustomerCommission(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, pct decimal.Decimal) error
	DeleteCustomer(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error

	InsertSupplier(ctx context.Context, db *gorm.DB, supplier *Supplier) error
	FindSupplier(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Supplier, error)
	FindSuppliers(ctx context.Context, db *gorm.DB, orgID snowflake.ID, ids []snowflake.ID) ([]Supplier, error)
	ListSuppliers(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListSupplierFilter, page pagination.Pagination) ([]Supplier, error)
	LinkRelatedCustomer(ctx context.Context, db *gorm.DB, orgID, supplierID, customerID snowflake.ID, group string) error
	UpdateSupplierCommission(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, pct decimal.Decimal) error
	DeleteSupplier(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error

	// CountActivePostings counts non-cancelled ledger lines and submitted
	// documents that reference the party.
	CountActivePostings(ctx context.Context, db *gorm.DB, orgID snowflake.ID, partyType PartyType, partyID snowflake.ID) (int64, error)
}
