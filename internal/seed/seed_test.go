package seed

import (
	"context"
	"testing"
	"unicode/utf8"

	"postboard/internal/cache"
	"postboard/internal/models"
	"postboard/internal/repository"
	"postboard/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSeeder(t *testing.T) (*Seeder, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}))

	uow := repository.NewUnitOfWork(db)
	return NewSeeder(service.NewUserService(uow, nil), service.NewPostService(uow), 42), db
}

func TestSeedUsersAndPosts(t *testing.T) {
	s, db := setupSeeder(t)
	ctx := context.Background()

	users, err := s.SeedUsers(ctx, 5)
	require.NoError(t, err)
	require.Len(t, users, 5)

	ids := make(map[int64]bool)
	for _, u := range users {
		assert.LessOrEqual(t, utf8.RuneCountInString(u.Username), maxUsernameLen)
		ids[int64(u.ID)] = true
	}

	posts, err := s.SeedPosts(ctx, users, 12)
	require.NoError(t, err)
	require.Len(t, posts, 12)
	for _, p := range posts {
		assert.True(t, ids[p.UserID], "post author must be a seeded user")
		assert.LessOrEqual(t, utf8.RuneCountInString(p.Title), maxTitleLen)
		assert.LessOrEqual(t, utf8.RuneCountInString(p.Content), maxContentLen)
	}

	// Running again must not trip the username constraint.
	_, err = s.SeedUsers(ctx, 5)
	require.NoError(t, err)

	require.NoError(t, Clear(ctx, db, nil))
	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestClear_DropsCachedUsers(t *testing.T) {
	_, db := setupSeeder(t)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	c := cache.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	users := service.NewUserService(repository.NewUnitOfWork(db), c)

	alice, err := users.CreateUser(ctx, models.User{Username: "alice"})
	require.NoError(t, err)
	id := int64(alice.ID)

	_, err = users.GetUser(ctx, id)
	require.NoError(t, err)
	require.True(t, mr.Exists(cache.UserKey(id)), "lookup should warm the cache")

	require.NoError(t, Clear(ctx, db, c))

	assert.False(t, mr.Exists(cache.UserKey(id)))
	_, err = users.GetUser(ctx, id)
	require.Error(t, err)
	assert.True(t, models.IsNotFound(err), "expected NOT_FOUND, got %v", err)
}

func TestSeedPosts_NoAuthors(t *testing.T) {
	s, _ := setupSeeder(t)
	_, err := s.SeedPosts(context.Background(), nil, 1)
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "héé", truncate("héééé", 3))
}
