package migration

import (
	exportdomain "github.com/tabresto/fiscal/internal/exportjob/domain"
	settingsdomain "github.com/tabresto/fiscal/internal/fiscalsettings/domain"
	orderdomain "github.com/tabresto/fiscal/internal/order/domain"
	recapdomain "github.com/tabresto/fiscal/internal/recap/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, log *zap.Logger) error {
		if conn.Dialector.Name() != "postgres" {
			// Dev and test databases (sqlite, mysql) use gorm's schema
			// sync; the versioned SQL targets postgres.
			return conn.AutoMigrate(
				&settingsdomain.FiscalSettings{},
				&orderdomain.Order{},
				&orderdomain.OrderLine{},
				&recapdomain.RecapitulatifTVA{},
				&exportdomain.ExportJob{},
				&exportdomain.ExportArtifact{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB, log.Named("migration"))
	}),
)
