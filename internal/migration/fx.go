package migration

import (
	"context"

	"github.com/smallbiznis/agrimarket/internal/config"
	ledgerdomain "github.com/smallbiznis/agrimarket/internal/ledger/domain"
	"github.com/smallbiznis/agrimarket/internal/orgcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, ledgerSvc ledgerdomain.Service, log *zap.Logger) error {
		if err := Migrate(conn, cfg.DBType); err != nil {
			return err
		}

		ctx := orgcontext.WithOrgID(context.Background(), cfg.DefaultCompanyID)
		if err := ledgerSvc.EnsureChartOfAccounts(ctx); err != nil {
			return err
		}
		log.Named("migrations").Info("schema ready",
			zap.String("db_type", cfg.DBType),
			zap.Int64("default_company", cfg.DefaultCompanyID),
		)
		return nil
	}),
)

// Migrate brings the schema up to date for the given database type.
func Migrate(conn *gorm.DB, dbType string) error {
	if dbType != "postgres" {
		return AutoMigrate(conn)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB)
}
