// Package dbtest opens migrated in-memory databases for package tests.
package dbtest

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fuswap/backend/internal/database/migrations"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a fresh, fully migrated SQLite database. The pool is pinned to
// one connection so every query sees the same in-memory database.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migrations.RunMigrations(db))
	return db
}

// Redis starts an in-process Redis server and returns a client for it
func Redis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}
