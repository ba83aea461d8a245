package migrations

import (
	"github.com/fuswap/backend/internal/models"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func init() {
	register(&gormigrate.Migration{
		ID: "000001_create_exchange_tables",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(
				&models.ExchangeRate{},
				&models.VoucherRate{},
				&models.ActiveVoucher{},
			)
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(
				&models.ActiveVoucher{},
				&models.VoucherRate{},
				&models.ExchangeRate{},
			)
		},
	})
}
