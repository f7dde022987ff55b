package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Create(ctx context.Context, tmpl *TaxTemplate) error
	FindByID(ctx context.Context, orgID, id snowflake.ID) (*TaxTemplate, error)
	FindByCode(ctx context.Context, orgID snowflake.ID, code string) (*TaxTemplate, error)
	GetDefault(ctx context.Context, orgID snowflake.ID) (*TaxTemplate, error)
	List(ctx context.Context, orgID snowflake.ID, filter ListRequest) ([]TaxTemplate, error)
	Update(ctx context.Context, tmpl *TaxTemplate) error
	SetDefault(ctx context.Context, orgID, id snowflake.ID) error
}
