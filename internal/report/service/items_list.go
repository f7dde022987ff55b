package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/agrimarket/internal/clock"
	"github.com/smallbiznis/agrimarket/internal/docstatus"
	"github.com/smallbiznis/agrimarket/internal/report/domain"
)

func normalizeItemsListFilter(filter domain.ItemsListFilter) (domain.ItemsListFilter, error) {
	filter.InvoiceName = strings.TrimSpace(filter.InvoiceName)
	filter.ItemCode = strings.TrimSpace(filter.ItemCode)
	if !filter.FromDate.IsZero() {
		filter.FromDate = clock.Date(filter.FromDate)
	}
	if !filter.ToDate.IsZero() {
		filter.ToDate = clock.Date(filter.ToDate)
	}
	if !filter.FromDate.IsZero() && !filter.ToDate.IsZero() && filter.ToDate.Before(filter.FromDate) {
		return filter, domain.ErrInvalidDateRange
	}
	return filter, nil
}

func (s *Service) ItemsList(ctx context.Context, filter domain.ItemsListFilter) ([]domain.ItemsListRow, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	filter, err = normalizeItemsListFilter(filter)
	if err != nil {
		return nil, err
	}
	return cached(ctx, s, orgID, reportItemsList, filter, func() ([]domain.ItemsListRow, error) {
		return s.itemsList(ctx, orgID, filter)
	})
}

func (s *Service) itemsList(ctx context.Context, orgID snowflake.ID, filter domain.ItemsListFilter) ([]domain.ItemsListRow, error) {
	stmt := s.db.WithContext(ctx).
		Table("invoice_forms AS f").
		Select(`f.id AS form_id, f.name AS form_name, f.posting_date AS posting_date,
			f.supplier_id AS supplier_id, COALESCE(sp.name, '') AS supplier_name,
			i.item_code AS item_code, i.item_name AS item_name,
			i.customer_id AS customer_id, COALESCE(c.name, '') AS customer_name,
			i.qty AS qty, i.price AS price, i.total AS total, i.commission AS commission`).
		Joins("JOIN invoice_form_items AS i ON i.form_id = f.id").
		Joins("LEFT JOIN suppliers AS sp ON sp.id = f.supplier_id").
		Joins("LEFT JOIN customers AS c ON c.id = i.customer_id").
		Where("f.org_id = ? AND f.docstatus = ?", orgID, docstatus.Submitted)

	if filter.SupplierID != 0 {
		stmt = stmt.Where("f.supplier_id = ?", filter.SupplierID)
	}
	if filter.InvoiceName != "" {
		stmt = stmt.Where("f.name = ?", filter.InvoiceName)
	}
	if filter.ItemCode != "" {
		stmt = stmt.Where("i.item_code = ?", filter.ItemCode)
	}
	if !filter.FromDate.IsZero() {
		stmt = stmt.Where("f.posting_date >= ?", filter.FromDate)
	}
	if !filter.ToDate.IsZero() {
		stmt = stmt.Where("f.posting_date <= ?", filter.ToDate)
	}

	var rows []domain.ItemsListRow
	err := stmt.Order("f.posting_date ASC, f.name ASC, i.idx ASC").Scan(&rows).Error
	return rows, err
}
