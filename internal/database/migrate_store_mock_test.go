package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMigrationStore struct {
	mock.Mock
}

func (m *MockMigrationStore) GetAppliedMigrations(ctx context.Context) ([]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockMigrationStore) ApplyMigration(ctx context.Context, mig Migration) error {
	return m.Called(ctx, mig).Error(0)
}

func (m *MockMigrationStore) RevertMigration(ctx context.Context, mig Migration) error {
	return m.Called(ctx, mig).Error(0)
}

func threeMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "one", UpScript: "SELECT 1;", DownScript: "SELECT 1;"},
		{Version: 2, Name: "two", UpScript: "SELECT 2;", DownScript: "SELECT 2;"},
		{Version: 3, Name: "three", UpScript: "SELECT 3;", DownScript: "SELECT 3;"},
	}
}

func TestMigrator_Up_StopsAtFirstFailure(t *testing.T) {
	db := connectMemory(t)
	migrations := threeMigrations()
	store := new(MockMigrationStore)
	m := &Migrator{db: db, store: store, migrations: migrations}

	store.On("GetAppliedMigrations", mock.Anything).Return([]int{1}, nil)
	store.On("ApplyMigration", mock.Anything, migrations[1]).Return(nil)
	store.On("ApplyMigration", mock.Anything, migrations[2]).Return(errors.New("syntax error"))

	applied, err := m.Up(context.Background())

	assert.ErrorContains(t, err, "syntax error")
	require.Len(t, applied, 1)
	assert.Equal(t, 2, applied[0].Version)
	store.AssertExpectations(t)
	store.AssertNotCalled(t, "ApplyMigration", mock.Anything, migrations[0])
}

func TestMigrator_Up_RefusesUnknownAppliedVersions(t *testing.T) {
	db := connectMemory(t)
	store := new(MockMigrationStore)
	m := &Migrator{db: db, store: store, migrations: threeMigrations()}

	store.On("GetAppliedMigrations", mock.Anything).Return([]int{1, 8}, nil)

	_, err := m.Up(context.Background())
	assert.ErrorContains(t, err, "000008")
	store.AssertNotCalled(t, "ApplyMigration", mock.Anything, mock.Anything)
}

func TestMigrator_Down_RevertsThroughStore(t *testing.T) {
	db := connectMemory(t)
	migrations := threeMigrations()
	store := new(MockMigrationStore)
	m := &Migrator{db: db, store: store, migrations: migrations}

	store.On("GetAppliedMigrations", mock.Anything).Return([]int{1, 2, 3}, nil)
	store.On("RevertMigration", mock.Anything, migrations[2]).Return(nil)

	require.NoError(t, m.Down(context.Background(), 3))
	store.AssertExpectations(t)
}
