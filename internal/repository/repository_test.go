package repository

import (
	"context"
	"testing"

	"factvault/internal/database"
	"factvault/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory sqlite database with the full schema.
// A single connection serializes writers, which is what sqlite wants anyway.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "not-a-real-hash",
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestFact(t *testing.T, db *gorm.DB, content, category string, active bool) *models.Fact {
	t.Helper()
	fact := &models.Fact{
		Content:  content,
		Category: category,
		IsActive: active,
	}
	require.NoError(t, db.Create(fact).Error)
	// IsActive has a gorm default of true, which overrides a zero-value false
	// on create; flip it with an explicit update instead.
	if !active {
		require.NoError(t, db.Model(fact).Update("is_active", false).Error)
	}
	return fact
}

func testCtx() context.Context {
	return context.Background()
}
