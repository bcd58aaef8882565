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

func TestAppError_WrapAndUnwrap(t *testing.T) {
	cause := errors.New("db down")
	err := NewInternalError(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Internal server error: db down", err.Error())
	assert.True(t, IsCode(fmt.Errorf("wrapped: %w", err), CodeInternal))
	assert.False(t, IsCode(err, CodeNotFound))
}

func TestNewFieldValidationError_StableMessage(t *testing.T) {
	err := NewFieldValidationError(map[string]string{
		"username": "required",
		"email":    "invalid",
	})
	assert.Equal(t, CodeValidation, err.Code)
	assert.Equal(t, "Invalid input: email, username", err.Message)
	assert.Len(t, err.Fields, 2)
}

func TestRespondWithError(t *testing.T) {
	app := fiber.New()
	app.Get("/app", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusBadRequest, NewFieldValidationError(map[string]string{"title": "required"}))
	})
	app.Get("/internal", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusInternalServerError, NewInternalError(errors.New("secret dsn")))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/app", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	var body ErrorResponse
	raw, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, CodeValidation, body.Code)
	assert.Equal(t, "required", body.Fields["title"])

	resp, err = app.Test(httptest.NewRequest("GET", "/internal", nil))
	require.NoError(t, err)
	raw, _ = io.ReadAll(resp.Body)
	assert.NotContains(t, string(raw), "secret dsn")
}
