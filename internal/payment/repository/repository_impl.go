package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/agrimarket/internal/docstatus"
	"github.com/smallbiznis/agrimarket/internal/payment/domain"
	"github.com/smallbiznis/agrimarket/pkg/db/option"
	"github.com/smallbiznis/agrimarket/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.PaymentEntry) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, forUpdate bool) (*domain.PaymentEntry, error) {
	stmt := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Limit(1)
	if forUpdate {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var entries []domain.PaymentEntry
	if err := stmt.Find(&entries).Error; err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListFilter, page pagination.Pagination) ([]domain.PaymentEntry, error) {
	var entries []domain.PaymentEntry
	stmt := db.WithContext(ctx).
		Model(&domain.PaymentEntry{}).
		Where("org_id = ?", orgID)
	if filter.PartyType != "" {
		stmt = stmt.Where("party_type = ?", string(filter.PartyType))
	}
	if filter.PartyID != 0 {
		stmt = stmt.Where("party_id = ?", filter.PartyID)
	}
	if filter.PaymentType != "" {
		stmt = stmt.Where("payment_type = ?", string(filter.PaymentType))
	}
	if filter.Docstatus != nil {
		stmt = stmt.Where("docstatus = ?", *filter.Docstatus)
	}
	if filter.FromDate != nil {
		stmt = stmt.Where("posting_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		stmt = stmt.Where("posting_date <= ?", *filter.ToDate)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)

	err := stmt.Find(&entries).Error
	return entries, err
}

func (r *repo) SetDocstatus(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, status docstatus.Docstatus, at time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.PaymentEntry{}).
		Where("org_id = ? AND id = ?", orgID, id).
		Updates(map[string]any{"docstatus": status, "updated_at": at}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Delete(&domain.PaymentEntry{}).Error
}
