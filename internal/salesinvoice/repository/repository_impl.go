package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/agrimarket/internal/docstatus"
	"github.com/smallbiznis/agrimarket/internal/salesinvoice/domain"
	"github.com/smallbiznis/agrimarket/pkg/db/option"
	"github.com/smallbiznis/agrimarket/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, inv *domain.SalesInvoice) error {
	if err := db.WithContext(ctx).Create(inv).Error; err != nil {
		return err
	}
	if len(inv.Items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&inv.Items).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, forUpdate bool) (*domain.SalesInvoice, error) {
	stmt := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Limit(1)
	if forUpdate {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var invoices []domain.SalesInvoice
	if err := stmt.Find(&invoices).Error; err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return nil, nil
	}
	return &invoices[0], nil
}

func (r *repo) LoadItems(ctx context.Context, db *gorm.DB, inv *domain.SalesInvoice) error {
	return db.WithContext(ctx).
		Where("invoice_id = ?", inv.ID).
		Order("idx asc").
		Find(&inv.Items).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListFilter, page pagination.Pagination) ([]domain.SalesInvoice, error) {
	var invoices []domain.SalesInvoice
	stmt := db.WithContext(ctx).
		Model(&domain.SalesInvoice{}).
		Where("org_id = ?", orgID)
	if filter.CustomerID != 0 {
		stmt = stmt.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.InvoiceFormID != 0 {
		stmt = stmt.Where("id IN (SELECT invoice_id FROM sales_invoice_items WHERE invoice_form_id = ?)", filter.InvoiceFormID)
	}
	if filter.Docstatus != nil {
		stmt = stmt.Where("docstatus = ?", *filter.Docstatus)
	}
	if filter.IsCommissionInvoice != nil {
		stmt = stmt.Where("is_commission_invoice = ?", *filter.IsCommissionInvoice)
	}
	if filter.FromDate != nil {
		stmt = stmt.Where("posting_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		stmt = stmt.Where("posting_date <= ?", *filter.ToDate)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)

	err := stmt.Find(&invoices).Error
	return invoices, err
}

func (r *repo) SetDocstatus(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, status docstatus.Docstatus, at time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.SalesInvoice{}).
		Where("org_id = ? AND id = ?", orgID, id).
		Updates(map[string]any{"docstatus": status, "updated_at": at}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error {
	if err := db.WithContext(ctx).
		Where("invoice_id = ?", id).
		Delete(&domain.SalesInvoiceItem{}).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Delete(&domain.SalesInvoice{}).Error
}
