// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"marketplace/internal/config"
	"marketplace/internal/infrastructure/database"
	"marketplace/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated SQLite database in a temp dir. A single connection is
// used, so code under test must pass tx to everything it calls inside a transaction.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	return openDB(t, 1)
}

// NewConcurrentDB is NewDB with conns connections, for tests where writers
// genuinely overlap. SQLite serialises them through its file lock.
func NewConcurrentDB(t testing.TB, conns int) *gorm.DB {
	t.Helper()
	return openDB(t, conns)
}

func openDB(t testing.TB, conns int) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "market.db") + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(conns)

	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// Config returns the default configuration without reading a file.
func Config(t testing.TB) *config.Config {
	t.Helper()

	t.Setenv("MARKET_SERVER_JWT_SECRET", "test-secret")
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	return cfg
}

// SeedAccount creates userID's account with the given spendable and withdrawable balances.
func SeedAccount(t testing.TB, db *gorm.DB, userID, spendable, withdrawable int64) *model.Account {
	t.Helper()

	account := &model.Account{UserID: userID, Spendable: spendable, Withdrawable: withdrawable}
	require.NoError(t, db.Create(account).Error)
	return account
}

// SeedProduct creates an active manual priced product.
func SeedProduct(t testing.TB, db *gorm.DB, sellerID, price, stock int64) *model.Product {
	t.Helper()

	product := &model.Product{
		SellerID:    sellerID,
		Name:        "test product",
		Price:       price,
		Stock:       stock,
		Active:      true,
		PricingMode: model.PricingModeManual,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

// Account reads userID's current balances.
func Account(t testing.TB, db *gorm.DB, userID int64) *model.Account {
	t.Helper()

	var account model.Account
	require.NoError(t, db.Where("user_id = ?", userID).First(&account).Error)
	return &account
}
