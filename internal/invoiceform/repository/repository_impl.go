package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/agrimarket/internal/docstatus"
	"github.com/smallbiznis/agrimarket/internal/invoiceform/domain"
	"github.com/smallbiznis/agrimarket/pkg/db/option"
	"github.com/smallbiznis/agrimarket/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, form *domain.InvoiceForm) error {
	if err := db.WithContext(ctx).Create(form).Error; err != nil {
		return err
	}
	return r.insertChildren(ctx, db, form)
}

func (r *repo) insertChildren(ctx context.Context, db *gorm.DB, form *domain.InvoiceForm) error {
	if len(form.Items) > 0 {
		if err := db.WithContext(ctx).Create(&form.Items).Error; err != nil {
			return err
		}
	}
	if len(form.Commissions) > 0 {
		if err := db.WithContext(ctx).Create(&form.Commissions).Error; err != nil {
			return err
		}
	}
	if len(form.PamperCommissions) > 0 {
		if err := db.WithContext(ctx).Create(&form.PamperCommissions).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, forUpdate bool) (*domain.InvoiceForm, error) {
	stmt := db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Limit(1)
	if forUpdate {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var forms []domain.InvoiceForm
	if err := stmt.Find(&forms).Error; err != nil {
		return nil, err
	}
	if len(forms) == 0 {
		return nil, nil
	}
	return &forms[0], nil
}

func (r *repo) LoadChildren(ctx context.Context, db *gorm.DB, form *domain.InvoiceForm) error {
	if err := db.WithContext(ctx).
		Where("form_id = ?", form.ID).
		Order("idx asc").
		Find(&form.Items).Error; err != nil {
		return err
	}
	if err := db.WithContext(ctx).
		Where("form_id = ?", form.ID).
		Order("idx asc").
		Find(&form.Commissions).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).
		Where("form_id = ?", form.ID).
		Order("idx asc").
		Find(&form.PamperCommissions).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListFilter, page pagination.Pagination) ([]domain.InvoiceForm, error) {
	var forms []domain.InvoiceForm
	stmt := db.WithContext(ctx).
		Model(&domain.InvoiceForm{}).
		Where("org_id = ?", orgID)
	if filter.SupplierID != 0 {
		stmt = stmt.Where("supplier_id = ?", filter.SupplierID)
	}
	if filter.CustomerID != 0 {
		stmt = stmt.Where(
			"(customer_id = ? OR id IN (SELECT form_id FROM invoice_form_items WHERE customer_id = ?))",
			filter.CustomerID, filter.CustomerID,
		)
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

	err := stmt.Find(&forms).Error
	return forms, err
}

func (r *repo) UpdateHeader(ctx context.Context, db *gorm.DB, form *domain.InvoiceForm) error {
	return db.WithContext(ctx).
		Model(&domain.InvoiceForm{}).
		Where("org_id = ? AND id = ?", form.OrgID, form.ID).
		Updates(map[string]any{
			"supplier_id":               form.SupplierID,
			"pamper_id":                 form.PamperID,
			"customer_id":               form.CustomerID,
			"posting_date":              form.PostingDate,
			"grand_total":               form.GrandTotal,
			"total_commission":          form.TotalCommission,
			"total_customer_commission": form.TotalCustomerCommission,
			"remarks":                   form.Remarks,
			"metadata":                  form.Metadata,
			"updated_at":                form.UpdatedAt,
		}).Error
}

func (r *repo) ReplaceChildren(ctx context.Context, db *gorm.DB, form *domain.InvoiceForm) error {
	if err := r.deleteChildren(ctx, db, form.ID); err != nil {
		return err
	}
	return r.insertChildren(ctx, db, form)
}

func (r *repo) deleteChildren(ctx context.Context, db *gorm.DB, formID snowflake.ID) error {
	for _, model := range []any{
		&domain.InvoiceFormItem{},
		&domain.InvoiceFormCommission{},
		&domain.InvoiceFormPamperCommission{},
	} {
		if err := db.WithContext(ctx).Where("form_id = ?", formID).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) SetDocstatus(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, status docstatus.Docstatus, at time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.InvoiceForm{}).
		Where("org_id = ? AND id = ?", orgID, id).
		Updates(map[string]any{"docstatus": status, "updated_at": at}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) error {
	if err := r.deleteChildren(ctx, db, id); err != nil {
		return err
	}
	return db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Delete(&domain.InvoiceForm{}).Error
}

func (r *repo) SetSupplierCommissionInvoiced(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, invoiced bool) error {
	return db.WithContext(ctx).
		Model(&domain.InvoiceForm{}).
		Where("org_id = ? AND id = ?", orgID, id).
		Update("has_supplier_commission_invoice", invoiced).Error
}

func (r *repo) SetItemsCommissionInvoiced(ctx context.Context, db *gorm.DB, orgID, formID, customerID snowflake.ID, invoiced bool) (int64, error) {
	result := db.WithContext(ctx).
		Model(&domain.InvoiceFormItem{}).
		Where("org_id = ? AND form_id = ? AND customer_id = ?", orgID, formID, customerID).
		Update("has_commission_invoice", invoiced)
	return result.RowsAffected, result.Error
}

func (r *repo) SetCustomerCommissionsInvoiced(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, invoiced bool) error {
	return db.WithContext(ctx).
		Model(&domain.InvoiceForm{}).
		Where("org_id = ? AND id = ?", orgID, id).
		Update("has_customer_commission_invoices", invoiced).Error
}

func (r *repo) PendingSupplierForms(ctx context.Context, db *gorm.DB, orgID, supplierID snowflake.ID, from, to time.Time) ([]domain.InvoiceForm, error) {
	var forms []domain.InvoiceForm
	err := db.WithContext(ctx).
		Where("org_id = ? AND supplier_id = ? AND docstatus = ? AND has_supplier_commission_invoice = ?",
			orgID, supplierID, docstatus.Submitted, false).
		Where("posting_date >= ? AND posting_date <= ?", from, to).
		Order("posting_date asc, id asc").
		Find(&forms).Error
	return forms, err
}

func (r *repo) PendingCustomerCommissions(ctx context.Context, db *gorm.DB, orgID, customerID snowflake.ID, from, to time.Time) ([]domain.PendingCustomerCommission, error) {
	var rows []domain.PendingCustomerCommission
	err := db.WithContext(ctx).Raw(
		`SELECT f.id AS form_id, f.name AS form_name, f.posting_date AS posting_date,
		        COALESCE(SUM(i.customer_commission), 0) AS total
		 FROM invoice_forms f
		 JOIN invoice_form_items i ON i.form_id = f.id
		 WHERE f.org_id = ? AND i.customer_id = ? AND f.docstatus = ?
		   AND f.has_customer_commission_invoices = ? AND i.has_commission_invoice = ?
		   AND f.posting_date >= ? AND f.posting_date <= ?
		 GROUP BY f.id, f.name, f.posting_date
		 ORDER BY f.posting_date ASC, f.id ASC`,
		orgID,
		customerID,
		docstatus.Submitted,
		false,
		false,
		from,
		to,
	).Scan(&rows).Error
	return rows, err
}

func (r *repo) CountActiveCommissionInvoices(ctx context.Context, db *gorm.DB, orgID, formID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(DISTINCT s.id)
		 FROM sales_invoice_items si
		 JOIN sales_invoices s ON s.id = si.invoice_id
		 WHERE s.org_id = ? AND si.invoice_form_id = ? AND s.docstatus <> ?`,
		orgID,
		formID,
		docstatus.Cancelled,
	).Scan(&count).Error
	return count, err
}
