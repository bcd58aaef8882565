package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"faceblog/internal/middleware"
	"faceblog/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	form := map[string]string{
		"username":         "nina",
		"email":            "nina@example.com",
		"password":         "hunter22x",
		"confirm_password": "hunter22x",
	}
	status, body := ts.do(t, http.MethodPost, "/register", "", form)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Account created!", body["message"])

	t.Run("duplicate email", func(t *testing.T) {
		dup := map[string]string{
			"username":         "nina2",
			"email":            "nina@example.com",
			"password":         "hunter22x",
			"confirm_password": "hunter22x",
		}
		status, body := ts.do(t, http.MethodPost, "/register", "", dup)
		assert.Equal(t, http.StatusBadRequest, status)
		fields, ok := body["fields"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, service.MsgDuplicateEmail, fields["email"])
	})

	t.Run("invalid form", func(t *testing.T) {
		status, body := ts.do(t, http.MethodPost, "/register", "", map[string]string{
			"username": "x", "email": "bad", "password": "short", "confirm_password": "other",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		fields, ok := body["fields"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, fields, "username")
		assert.Contains(t, fields, "email")
		assert.Contains(t, fields, "confirm_password")
	})

	t.Run("wrong password is generic", func(t *testing.T) {
		status, body := ts.do(t, http.MethodPost, "/login", "", map[string]string{
			"email": "nina@example.com", "password": "wrong-pass1",
		})
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, service.MsgLoginUnsuccessful, body["error"])
	})

	t.Run("success issues token", func(t *testing.T) {
		status, body := ts.do(t, http.MethodPost, "/login", "", map[string]string{
			"email": "nina@example.com", "password": "hunter22x",
		})
		require.Equal(t, http.StatusOK, status)
		token, ok := body["token"].(string)
		require.True(t, ok)

		status, _ = ts.doList(t, "/dms", token)
		assert.Equal(t, http.StatusOK, status)
	})
}

func TestLoginSetsCookie(t *testing.T) {
	ts := newTestServer(t)
	status, _ := ts.do(t, http.MethodPost, "/register", "", map[string]string{
		"username": "omar", "email": "omar@example.com", "password": "hunter22x", "confirm_password": "hunter22x",
	})
	require.Equal(t, http.StatusCreated, status)

	req := httptest.NewRequest(http.MethodPost, "/login", jsonBody(t, map[string]string{
		"email": "omar@example.com", "password": "hunter22x",
	}))
	req.Header.Set("Content-Type", "application/json")
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == middleware.AccessTokenCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	cookieReq := httptest.NewRequest(http.MethodGet, "/dms", nil)
	cookieReq.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookie, Value: cookie.Value})
	cookieResp, err := ts.app.Test(cookieReq, -1)
	require.NoError(t, err)
	defer func() { _ = cookieResp.Body.Close() }()
	assert.Equal(t, http.StatusOK, cookieResp.StatusCode)
}
