package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFoundError(MsgIDNotFound)))
	assert.True(t, IsNotFound(fmt.Errorf("wrapped: %w", NewNotFoundError(MsgIDNotFound))))
	assert.False(t, IsNotFound(NewInternalError(errors.New("boom"))))
	assert.False(t, IsNotFound(errors.New("plain")))
	assert.False(t, IsNotFound(nil))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, fiber.StatusNotFound, StatusFor(NewNotFoundError("x")))
	assert.Equal(t, fiber.StatusInternalServerError, StatusFor(NewInternalError(errors.New("x"))))
	assert.Equal(t, fiber.StatusInternalServerError, StatusFor(errors.New("x")))
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("duplicate key")
	err := NewInternalError(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Internal Server Error: duplicate key", err.Error())
}

func TestRespondWithError_HidesInternalCause(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{"not found", NewNotFoundError(MsgIDNotFound), fiber.StatusNotFound, MsgIDNotFound},
		{"internal", NewInternalError(errors.New("pq: secret table detail")), fiber.StatusInternalServerError, MsgInternal},
		{"plain error", errors.New("raw"), fiber.StatusInternalServerError, MsgInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return RespondWithError(c, 0, tt.err)
			})

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			body, _ := io.ReadAll(resp.Body)
			var got ErrorResponse
			require.NoError(t, json.Unmarshal(body, &got))
			assert.Equal(t, tt.wantDetail, got.Detail)
		})
	}
}
