package migrations

import (
	"github.com/fuswap/backend/internal/models"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func init() {
	register(&gormigrate.Migration{
		ID: "000002_create_ledger_tables",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(
				&models.Wallet{},
				&models.Transaction{},
				&models.User{},
				&models.ReferralTransaction{},
			)
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(
				&models.ReferralTransaction{},
				&models.User{},
				&models.Transaction{},
				&models.Wallet{},
			)
		},
	})
}
