package server

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"postboard/internal/campaign"
	"postboard/internal/config"
	"postboard/internal/database"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:           "0",
		Env:            "test",
		RootPath:       "/api/v1",
		DatabaseURL:    "sqlite::memory:",
		DBMaxOpenConns: 1,
		AllowedOrigins: "*",
	}
}

// newTestServer returns an app over a fresh in-memory database. The schema is
// created here because the server itself never migrates.
func newTestServer(t *testing.T, opts ...func(*config.Config)) (*fiber.App, *gorm.DB) {
	t.Helper()
	cfg := testConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	s := NewServerWithDeps(cfg, db, nil, campaign.NewStore())
	return s.NewApp(), db
}

func doRequest(t *testing.T, app *fiber.App, method, path, body string) (int, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}
