package service

import (
	"testing"

	"postboard/internal/models"
	"postboard/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupUnitOfWork(t *testing.T) (*repository.UnitOfWork, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}))
	return repository.NewUnitOfWork(db), db
}

func assertNotFound(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	require.True(t, models.IsNotFound(err), "expected NOT_FOUND, got %v", err)
}
