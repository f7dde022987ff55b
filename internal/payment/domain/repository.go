package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/agrimarket/internal/docstatus"
	partydomain "github.com/smallbiznis/agrimarket/internal/party/domain"
	"github.com/smallbiznis/agrimarket/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *PaymentEntry) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, forUpdate bool) (*PaymentEntry, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListFilter, page pagination.Pagination) ([]PaymentEntry, error)
	SetDocstatus(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, status docstatus.Docstatus, at time.Time) error
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error
}

type ListFilter struct {
	PartyType   partydomain.PartyType
	PartyID     snowflake.ID
	PaymentType PaymentType
	Docstatus   *docstatus.Docstatus
	FromDate    *time.Time
	ToDate      *time.Time
}
