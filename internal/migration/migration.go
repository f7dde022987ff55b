package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/smallbiznis/agrimarket/internal/audit/domain"
	filesdomain "github.com/smallbiznis/agrimarket/internal/files/domain"
	invoiceformdomain "github.com/smallbiznis/agrimarket/internal/invoiceform/domain"
	ledgerdomain "github.com/smallbiznis/agrimarket/internal/ledger/domain"
	"github.com/smallbiznis/agrimarket/internal/naming"
	partydomain "github.com/smallbiznis/agrimarket/internal/party/domain"
	paymentdomain "github.com/smallbiznis/agrimarket/internal/payment/domain"
	salesinvoicedomain "github.com/smallbiznis/agrimarket/internal/salesinvoice/domain"
	taxdomain "github.com/smallbiznis/agrimarket/internal/tax/domain"
	"gorm.io/gorm"
)

//go:embed sql/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "sql"

// RunMigrations applies the embedded postgres schema.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// Models lists every persisted model in dependency order.
func Models() []any {
	return []any{
		&partydomain.Customer{},
		&partydomain.Supplier{},
		&taxdomain.TaxTemplate{},
		&naming.NamingSeries{},
		&ledgerdomain.LedgerAccount{},
		&ledgerdomain.LedgerEntry{},
		&ledgerdomain.LedgerEntryLine{},
		&invoiceformdomain.InvoiceForm{},
		&invoiceformdomain.InvoiceFormItem{},
		&invoiceformdomain.InvoiceFormCommission{},
		&invoiceformdomain.InvoiceFormPamperCommission{},
		&salesinvoicedomain.SalesInvoice{},
		&salesinvoicedomain.SalesInvoiceItem{},
		&paymentdomain.PaymentEntry{},
		&auditdomain.AuditLog{},
		&filesdomain.File{},
	}
}

// AutoMigrate creates the schema from the models. Used for sqlite and mysql,
// which the embedded scripts do not target.
func AutoMigrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
