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
	Insert(ctx context.Context, db *gorm.DB, inv *SalesInvoice) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, forUpdate bool) (*SalesInvoice, error)
	LoadItems(ctx context.Context, db *gorm.DB, inv *SalesInvoice) error
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListFilter, page pagination.Pagination) ([]SalesInvoice, error)
	SetDocstatus(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, status docstatus.Docstatus, at time.Time) error
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error
}

type ListFilter struct {
	CustomerID          snowflake.ID
	InvoiceFormID       snowflake.ID
	Docstatus           *docstatus.Docstatus
	IsCommissionInvoice *bool
	FromDate            *time.Time
	ToDate              *time.Time
}
