package service

import (
	"context"
	"sync"
	"testing"

	"postboard/internal/cache"
	"postboard/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Lifecycle(t *testing.T) {
	uow, _ := setupUnitOfWork(t)
	svc := NewUserService(uow, nil)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, models.User{Username: "alice"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	id := int64(created.ID)
	got, err := svc.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID, "id must be stable across fetches")
	assert.Equal(t, "alice", got.Username)

	updated, err := svc.UpdateUser(ctx, id, models.User{Username: "alicia"})
	require.NoError(t, err)
	assert.Equal(t, "alicia", updated.Username)

	got, err = svc.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alicia", got.Username, "update must persist across an independent fetch")

	deleted, err := svc.DeleteUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, *got, *deleted)

	_, err = svc.GetUser(ctx, id)
	assertNotFound(t, err)
}

func TestUserService_MissingIDIsNotFound(t *testing.T) {
	uow, _ := setupUnitOfWork(t)
	svc := NewUserService(uow, nil)
	ctx := context.Background()

	for _, id := range []int64{0, -1, 999} {
		_, err := svc.GetUser(ctx, id)
		assertNotFound(t, err)

		_, err = svc.UpdateUser(ctx, id, models.User{Username: "x"})
		assertNotFound(t, err)

		_, err = svc.DeleteUser(ctx, id)
		assertNotFound(t, err)
	}
}

func TestUserService_DuplicateUsername(t *testing.T) {
	uow, _ := setupUnitOfWork(t)
	svc := NewUserService(uow, nil)
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, models.User{Username: "alice"})
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, models.User{Username: "alice"})
	require.Error(t, err)
	assert.Equal(t, 500, models.StatusFor(err))

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUserService_EmptyUsernameIsStored(t *testing.T) {
	uow, _ := setupUnitOfWork(t)
	svc := NewUserService(uow, nil)

	created, err := svc.CreateUser(context.Background(), models.User{Username: ""})
	require.NoError(t, err)
	assert.Equal(t, "", created.Username)
}

func TestUserService_CacheIsInvalidatedOnWrite(t *testing.T) {
	uow, _ := setupUnitOfWork(t)
	mr := miniredis.RunT(t)
	c := cache.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })

	svc := NewUserService(uow, c)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, models.User{Username: "bob"})
	require.NoError(t, err)
	id := int64(created.ID)

	_, err = svc.GetUser(ctx, id)
	require.NoError(t, err)
	require.True(t, mr.Exists(cache.UserKey(id)))

	_, err = svc.UpdateUser(ctx, id, models.User{Username: "robert"})
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.UserKey(id)))

	got, err := svc.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "robert", got.Username)

	_, err = svc.DeleteUser(ctx, id)
	require.NoError(t, err)
	_, err = svc.GetUser(ctx, id)
	assertNotFound(t, err)
}

// beforeStoreHook runs fn once, right before the client writes a value with SET.
type beforeStoreHook struct {
	once sync.Once
	fn   func()
}

func (h *beforeStoreHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *beforeStoreHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if cmd.Name() == "set" {
			h.once.Do(h.fn)
		}
		return next(ctx, cmd)
	}
}

func (h *beforeStoreHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		for _, cmd := range cmds {
			if cmd.Name() == "set" {
				h.once.Do(h.fn)
				break
			}
		}
		return next(ctx, cmds)
	}
}

func TestUserService_DeleteDuringLookupIsNotCached(t *testing.T) {
	uow, _ := setupUnitOfWork(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := cache.NewFromClient(client)
	t.Cleanup(func() { _ = c.Close() })

	svc := NewUserService(uow, c)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, models.User{Username: "alice"})
	require.NoError(t, err)
	id := int64(created.ID)

	// The delete commits after the lookup read the row but before it is cached.
	client.AddHook(&beforeStoreHook{fn: func() {
		_, err := svc.DeleteUser(ctx, id)
		require.NoError(t, err)
	}})

	got, err := svc.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = svc.GetUser(ctx, id)
	assertNotFound(t, err)
	assert.False(t, mr.Exists(cache.UserKey(id)))
}

func TestUserService_UpdateDuringLookupIsNotCached(t *testing.T) {
	uow, _ := setupUnitOfWork(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := cache.NewFromClient(client)
	t.Cleanup(func() { _ = c.Close() })

	svc := NewUserService(uow, c)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, models.User{Username: "bob"})
	require.NoError(t, err)
	id := int64(created.ID)

	client.AddHook(&beforeStoreHook{fn: func() {
		_, err := svc.UpdateUser(ctx, id, models.User{Username: "robert"})
		require.NoError(t, err)
	}})

	_, err = svc.GetUser(ctx, id)
	require.NoError(t, err)

	got, err := svc.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "robert", got.Username)
}
