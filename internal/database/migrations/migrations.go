package migrations

import (
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// migrationsList holds all migrations, registered from init in ID order
var migrationsList []*gormigrate.Migration

func register(m *gormigrate.Migration) {
	migrationsList = append(migrationsList, m)
}

// RunMigrations applies every pending migration
func RunMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, migrationsList)
	if err := m.Migrate(); err != nil {
		return fmt.Errorf("could not migrate: %w", err)
	}
	return nil
}
