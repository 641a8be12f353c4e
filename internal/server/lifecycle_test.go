package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"postboard/internal/campaign"
	"postboard/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return fmt.Sprint(port)
}

func newRunnableServer(t *testing.T, port string) *Server {
	t.Helper()
	cfg := testConfig()
	cfg.Port = port

	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	return NewServerWithDeps(cfg, db, nil, campaign.NewStore())
}

func TestRun_CleansUpBeforeReturning(t *testing.T) {
	port := freePort(t)
	s := newRunnableServer(t, port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cleanedUp := false
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, func(context.Context) error {
			time.Sleep(50 * time.Millisecond)
			cleanedUp = true
			return nil
		})
	}()

	url := "http://127.0.0.1:" + port + "/health/live"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	assert.True(t, cleanedUp, "cleanup must finish before Run returns")

	sqlDB, err := s.db.DB()
	require.NoError(t, err)
	assert.Error(t, sqlDB.Ping(), "database pool must be closed")

	_, err = http.Get(url)
	assert.Error(t, err, "listener must be closed")
}

func TestRun_ListenFailureStillCleansUp(t *testing.T) {
	busy, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer func() { _ = busy.Close() }()

	s := newRunnableServer(t, fmt.Sprint(busy.Addr().(*net.TCPAddr).Port))

	cleanupErr := errors.New("tracer flush failed")
	calls := 0
	err = s.Run(context.Background(), func(context.Context) error {
		calls++
		return cleanupErr
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen")
	assert.ErrorIs(t, err, cleanupErr)
	assert.Equal(t, 1, calls)
}
