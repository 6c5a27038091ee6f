package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/dailytasks/pkg/auth"
)

// resolveApp echoes the resolved user id of the x-user-id header.
func resolveApp(session fiber.Handler) *fiber.App {
	app := fiber.New()
	if session != nil {
		app.Use(session)
	}
	app.Get("/whoami", func(c *fiber.Ctx) error {
		id, err := ResolveUserID(c, c.Get("x-user-id"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		ctxID, _ := GetUserIDFromContext(c.UserContext())
		return c.JSON(fiber.Map{"id": id, "ctx": ctxID})
	})
	return app
}

func do(t *testing.T, app *fiber.App, header map[string]string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestResolveUserID_HeaderMode(t *testing.T) {
	app := resolveApp(nil)

	tests := []struct {
		name       string
		header     map[string]string
		wantStatus int
		wantBody   string
	}{
		{name: "asserted id is trusted", header: map[string]string{"x-user-id": "7"}, wantStatus: http.StatusOK, wantBody: `{"ctx":7,"id":7}`},
		{name: "missing id", header: nil, wantStatus: http.StatusBadRequest, wantBody: ErrMissingUserID.Error()},
		{name: "not a number", header: map[string]string{"x-user-id": "abc"}, wantStatus: http.StatusBadRequest, wantBody: ErrInvalidUserID.Error()},
		{name: "zero", header: map[string]string{"x-user-id": "0"}, wantStatus: http.StatusBadRequest, wantBody: ErrInvalidUserID.Error()},
		{name: "negative", header: map[string]string{"x-user-id": "-3"}, wantStatus: http.StatusBadRequest, wantBody: ErrInvalidUserID.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, app, tt.header)
			assert.Equal(t, tt.wantStatus, status)
			assert.Contains(t, body, tt.wantBody)
		})
	}
}

func TestSessionAuth(t *testing.T) {
	tm := auth.NewTokenManager("secret", time.Hour)
	token, _, err := tm.Generate(7, "alice")
	require.NoError(t, err)
	otherToken, _, err := auth.NewTokenManager("other", time.Hour).Generate(7, "alice")
	require.NoError(t, err)

	app := resolveApp(NewSessionAuth(tm).Handler())

	tests := []struct {
		name       string
		header     map[string]string
		wantStatus int
		wantBody   string
	}{
		{name: "missing header", wantStatus: http.StatusUnauthorized, wantBody: "Authorization header is required"},
		{name: "not bearer", header: map[string]string{"Authorization": "Basic abc"}, wantStatus: http.StatusUnauthorized, wantBody: "Invalid authorization header format"},
		{name: "foreign signature", header: map[string]string{"Authorization": "Bearer " + otherToken}, wantStatus: http.StatusUnauthorized, wantBody: "Invalid or expired session"},
		{name: "token alone identifies the user", header: map[string]string{"Authorization": "Bearer " + token}, wantStatus: http.StatusOK, wantBody: `{"ctx":7,"id":7}`},
		{
			name:       "matching asserted id",
			header:     map[string]string{"Authorization": "Bearer " + token, "x-user-id": "7"},
			wantStatus: http.StatusOK,
			wantBody:   `"id":7`,
		},
		{
			name:       "asserted id differs from session",
			header:     map[string]string{"Authorization": "Bearer " + token, "x-user-id": "8"},
			wantStatus: http.StatusBadRequest,
			wantBody:   ErrSessionMismatch.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, app, tt.header)
			assert.Equal(t, tt.wantStatus, status)
			assert.Contains(t, body, tt.wantBody)
		})
	}
}

func TestParseUserID(t *testing.T) {
	id, err := ParseUserID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, s := range []string{"", "1.5", "1e3", "0", "-1", "99999999999999999999"} {
		_, err := ParseUserID(s)
		assert.ErrorIs(t, err, ErrInvalidUserID, s)
	}
}
