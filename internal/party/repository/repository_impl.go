package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/agrimarket/internal/docstatus"
	"github.com/smallbiznis/agrimarket/internal/party/domain"
	"github.com/smallbiznis/agrimarket/pkg/db/option"
	"github.com/smallbiznis/agrimarket/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertCustomer(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).Create(customer).Error
}

func (r *repo) FindCustomer(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Customer, error) {
	var customers []domain.Customer
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Limit(1).
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	if len(customers) == 0 {
		return nil, nil
	}
	return &customers[0], nil
}

func (r *repo) FindCustomers(ctx context.Context, db *gorm.DB, orgID snowflake.ID, ids []snowflake.ID) ([]domain.Customer, error) {
	var customers []domain.Customer
	if len(ids) == 0 {
		return customers, nil
	}
	err := db.WithContext(ctx).
		Where("org_id = ? AND id IN ?", orgID, ids).
		Order("name asc").
		Find(&customers).Error
	return customers, err
}

func (r *repo) ListCustomers(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListCustomerFilter, page pagination.Pagination) ([]domain.Customer, error) {
	var customers []domain.Customer
	stmt := db.WithContext(ctx).
		Model(&domain.Customer{}).
		Where("org_id = ?", orgID)
	if filter.Name != "" {
		stmt = option.ApplyOperator(option.Condition{Field: "name", Operator: option.LIKE, Value: filter.Name}).Apply(stmt)
	}
	if filter.CustomerGroup != "" {
		stmt = stmt.Where("customer_group = ?", filter.CustomerGroup)
	}
	if filter.IsFarmer != nil {
		stmt = stmt.Where("is_farmer = ?", *filter.IsFarmer)
	}
	if filter.IsCustomer != nil {
		stmt = stmt.Where("is_customer = ?", *filter.IsCustomer)
	}
	if filter.IsPamper != nil {
		stmt = stmt.Where("is_pamper = ?", *filter.IsPamper)
	}
	err := option.ApplyPagination(page).Apply(stmt).Find(&customers).Error
	return customers, err
}

func (r *repo) UpdateCustomerCommission(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, pct decimal.Decimal) error {
	return db.WithContext(ctx).
		Model(&domain.Customer{}).
		Where("org_id = ? AND id = ?", orgID, id).
		Updates(map[string]any{
			"commission_percentage": pct,
			"updated_at":            time.Now().UTC(),
		}).Error
}

func (r *repo) DeleteCustomer(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Delete(&domain.Customer{}).Error
}

func (r *repo) InsertSupplier(ctx context.Context, db *gorm.DB, supplier *domain.Supplier) error {
	return db.WithContext(ctx).Create(supplier).Error
}

func (r *repo) FindSupplier(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Supplier, error) {
	var suppliers []domain.Supplier
	err := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Limit(1).
		Find(&suppliers).Error
	if err != nil {
		return nil, err
	}
	if len(suppliers) == 0 {
		return nil, nil
	}
	return &suppliers[0], nil
}

func (r *repo) FindSuppliers(ctx context.Context, db *gorm.DB, orgID snowflake.ID, ids []snowflake.ID) ([]domain.Supplier, error) {
	var suppliers []domain.Supplier
	if len(ids) == 0 {
		return suppliers, nil
	}
	err := db.WithContext(ctx).
		Where("org_id = ? AND id IN ?", orgID, ids).
		Order("name asc").
		Find(&suppliers).Error
	return suppliers, err
}

func (r *repo) ListSuppliers(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListSupplierFilter, page pagination.Pagination) ([]domain.Supplier, error) {
	var suppliers []domain.Supplier
	stmt := db.WithContext(ctx).
		Model(&domain.Supplier{}).
		Where("org_id = ?", orgID)
	if filter.Name != "" {
		stmt = option.ApplyOperator(option.Condition{Field: "name", Operator: option.LIKE, Value: filter.Name}).Apply(stmt)
	}
	if filter.SupplierGroup != "" {
		stmt = stmt.Where("supplier_group = ?", filter.SupplierGroup)
	}
	err := option.ApplyPagination(page).Apply(stmt).Find(&suppliers).Error
	return suppliers, err
}

func (r *repo) LinkRelatedCustomer(ctx context.Context, db *gorm.DB, orgID, supplierID, customerID snowflake.ID, group string) error {
	return db.WithContext(ctx).
		Model(&domain.Supplier{}).
		Where("org_id = ? AND id = ?", orgID, supplierID).
		Updates(map[string]any{
			"related_customer_id":    customerID,
			"related_customer_group": group,
			"updated_at":             time.Now().UTC(),
		}).Error
}

func (r *repo) UpdateSupplierCommission(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, pct decimal.Decimal) error {
	return db.WithContext(ctx).
		Model(&domain.Supplier{}).
		Where("org_id = ? AND id = ?", orgID, id).
		Updates(map[string]any{
			"commission_percentage": pct,
			"updated_at":            time.Now().UTC(),
		}).Error
}

func (r *repo) DeleteSupplier(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error {
	return db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Delete(&domain.Supplier{}).Error
}

func (r *repo) CountActivePostings(ctx context.Context, db *gorm.DB, orgID snowflake.ID, partyType domain.PartyType, partyID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT
		   (SELECT COUNT(*)
		      FROM ledger_entry_lines l
		      JOIN ledger_entries e ON e.id = l.ledger_entry_id
		     WHERE e.org_id = ? AND l.party_type = ? AND l.party_id = ? AND e.is_cancelled = ?)
		 + (SELECT COUNT(*) FROM invoice_forms f
		     WHERE f.org_id = ? AND f.docstatus = ? AND (f.supplier_id = ? OR f.customer_id = ? OR f.pamper_id = ?))
		 + (SELECT COUNT(*) FROM invoice_form_items i
		      JOIN invoice_forms f ON f.id = i.form_id
		     WHERE f.org_id = ? AND f.docstatus = ? AND (i.customer_id = ? OR i.pamper_id = ?))
		 + (SELECT COUNT(*) FROM sales_invoices s
		     WHERE s.org_id = ? AND s.docstatus = ? AND s.customer_id = ?)
		 + (SELECT COUNT(*) FROM payment_entries p
		     WHERE p.org_id = ? AND p.docstatus = ? AND p.party_type = ? AND p.party_id = ?)`,
		orgID, string(partyType), partyID, false,
		orgID, docstatus.Submitted, partyID, partyID, partyID,
		orgID, docstatus.Submitted, partyID, partyID,
		orgID, docstatus.Submitted, partyID,
		orgID, docstatus.Submitted, string(partyType), partyID,
	).Scan(&count).Error
	return count, err
}
