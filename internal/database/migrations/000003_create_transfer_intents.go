package migrations

import (
	"github.com/fuswap/backend/internal/models"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func init() {
	register(&gormigrate.Migration{
		ID: "000003_create_transfer_intents",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&models.TransferIntent{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&models.TransferIntent{})
		},
	})
}
