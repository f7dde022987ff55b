package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	taxdomain "github.com/smallbiznis/agrimarket/internal/tax/domain"
	"github.com/smallbiznis/agrimarket/pkg/db/option"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) taxdomain.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, tmpl *taxdomain.TaxTemplate) error {
	return r.db.WithContext(ctx).Create(tmpl).Error
}

func (r *repository) FindByID(ctx context.Context, orgID, id snowflake.ID) (*taxdomain.TaxTemplate, error) {
	return r.first(ctx, "org_id = ? AND id = ?", orgID, id)
}

func (r *repository) FindByCode(ctx context.Context, orgID snowflake.ID, code string) (*taxdomain.TaxTemplate, error) {
	return r.first(ctx, "org_id = ? AND code = ?", orgID, code)
}

func (r *repository) GetDefault(ctx context.Context, orgID snowflake.ID) (*taxdomain.TaxTemplate, error) {
	return r.first(ctx, "org_id = ? AND is_default = ? AND is_enabled = ?", orgID, true, true)
}

func (r *repository) first(ctx context.Context, query string, args ...any) (*taxdomain.TaxTemplate, error) {
	var tmpl taxdomain.TaxTemplate
	err := r.db.WithContext(ctx).
		Where(query, args...).
		Order("id asc").
		First(&tmpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tmpl, nil
}

func (r *repository) List(ctx context.Context, orgID snowflake.ID, filter taxdomain.ListRequest) ([]taxdomain.TaxTemplate, error) {
	var items []taxdomain.TaxTemplate
	stmt := r.db.WithContext(ctx).
		Model(&taxdomain.TaxTemplate{}).
		Where("org_id = ?", orgID)

	if filter.Name != "" {
		stmt = option.ApplyOperator(option.Condition{Field: "name", Operator: option.LIKE, Value: filter.Name}).Apply(stmt)
	}
	if filter.Code != "" {
		stmt = stmt.Where("code = ?", filter.Code)
	}
	if filter.IsEnabled != nil {
		stmt = stmt.Where("is_enabled = ?", *filter.IsEnabled)
	}

	stmt = option.WithSortBy(option.QuerySortBy{
		Field:   filter.SortBy,
		Desc:    filter.OrderBy == "desc",
		Default: "code",
		Allow: map[string]bool{
			"created_at": true,
			"updated_at": true,
			"name":       true,
			"code":       true,
		},
	}).Apply(stmt)

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) Update(ctx context.Context, tmpl *taxdomain.TaxTemplate) error {
	return r.db.WithContext(ctx).
		Model(&taxdomain.TaxTemplate{}).
		Where("org_id = ? AND id = ?", tmpl.OrgID, tmpl.ID).
		Updates(map[string]any{
			"name":         tmpl.Name,
			"rate_percent": tmpl.RatePercent,
			"description":  tmpl.Description,
			"is_default":   tmpl.IsDefault,
			"is_enabled":   tmpl.IsEnabled,
			"updated_at":   tmpl.UpdatedAt,
		}).Error
}

// SetDefault clears the flag on every other template of the company.
func (r *repository) SetDefault(ctx context.Context, orgID, id snowflake.ID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&taxdomain.TaxTemplate{}).
			Where("org_id = ? AND id <> ?", orgID, id).
			Update("is_default", false).Error; err != nil {
			return err
		}
		return tx.Model(&taxdomain.TaxTemplate{}).
			Where("org_id = ? AND id = ?", orgID, id).
			Update("is_default", true).Error
	})
}
