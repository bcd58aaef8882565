package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"faceblog/internal/config"
	"faceblog/internal/models"
	"faceblog/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	*Server
	app *fiber.App
	db  *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	cfg := &config.Config{
		Port:                 "0",
		Env:                  "test",
		DBDriver:             "sqlite",
		JWTSecret:            "test-secret-that-is-long-enough-123",
		JWTIssuer:            "faceblog-api",
		JWTAudience:          "faceblog-clients",
		JWTTTL:               time.Hour,
		ImageUploadDir:       t.TempDir(),
		ImageMaxUploadSizeMB: 1,
	}
	s, err := NewServer(cfg, db, nil, nil)
	require.NoError(t, err)
	return &testServer{Server: s, app: s.App(), db: db}
}

// login creates a user and returns it with a valid bearer token.
func (ts *testServer) login(t *testing.T, username string) (*models.User, string) {
	t.Helper()
	user := testutil.CreateUser(t, ts.db, username)
	token, err := ts.tokens.Issue(user.ID, user.Username)
	require.NoError(t, err)
	return user, token
}

// do sends a JSON request and decodes the JSON response body.
func (ts *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

// doList is do for endpoints returning a JSON array.
func (ts *testServer) doList(t *testing.T, path, token string) (int, []map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var out []map[string]any
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}
