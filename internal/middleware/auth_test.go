package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"guildkeeper/internal/auth"
	"guildkeeper/internal/models"
	"guildkeeper/internal/policy"
	"guildkeeper/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-000"

type accountsFixture map[string]*models.Account

func (f accountsFixture) load(_ context.Context, id string) (*models.Account, error) {
	if id == "broken" {
		return nil, errors.New("db down")
	}
	a, ok := f[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return a, nil
}

func newAuthApp(t *testing.T, accounts accountsFixture) (*fiber.App, *auth.TokenIssuer) {
	t.Helper()
	tokens := auth.NewTokenIssuer(testSecret, time.Hour)
	authn := NewAuthenticator(tokens, accounts.load)

	app := fiber.New()
	whoami := func(c *fiber.Ctx) error {
		actor := ActorFrom(c)
		return c.JSON(fiber.Map{"id": actor.ID, "role": actor.Role, "userID": c.Locals(LocalUserID)})
	}
	app.Get("/required", authn.Required(), whoami)
	app.Get("/optional", authn.Optional(), whoami)
	app.Get("/admin", authn.Required(), AdminRequired(), whoami)
	app.Put("/users/:id", authn.Required(), SelfOrAdmin("id"), whoami)
	return app, tokens
}

func expiredToken(t *testing.T, sub string) string {
	t.Helper()
	past := time.Now().Add(-2 * time.Hour)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"iss": auth.Issuer,
		"aud": auth.Audience,
		"iat": past.Unix(),
		"exp": past.Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string) (int, models.Envelope, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var raw map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	env := models.Envelope{}
	if msg, ok := raw["message"].(string); ok {
		env.Message = msg
	}
	if ok, isBool := raw["success"].(bool); isBool {
		env.Success = ok
	}
	return resp.StatusCode, env, raw
}

func TestAuthenticator_Required(t *testing.T) {
	accounts := accountsFixture{
		"u1":    {ID: "u1", Email: "u1@example.com", Role: models.RoleUser, Active: true},
		"off":   {ID: "off", Role: models.RoleUser, Active: false},
		"admin": {ID: "admin", Role: models.RoleAdmin, Active: true},
	}
	app, tokens := newAuthApp(t, accounts)

	issue := func(sub string) string {
		tok, err := tokens.Issue(sub)
		require.NoError(t, err)
		return tok
	}

	tests := []struct {
		name       string
		token      string
		wantStatus int
		wantMsg    string
	}{
		{"no token", "", http.StatusUnauthorized, MsgNoToken},
		{"garbage token", "not-a-jwt", http.StatusUnauthorized, MsgInvalidToken},
		{"expired token", expiredToken(t, "u1"), http.StatusUnauthorized, MsgTokenExpired},
		{"unknown account", issue("ghost"), http.StatusUnauthorized, MsgUserNotFound},
		{"deactivated account", issue("off"), http.StatusForbidden, MsgDeactivated},
		{"store failure", issue("broken"), http.StatusInternalServerError, "Internal server error"},
		{"valid token", issue("u1"), http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env, raw := doRequest(t, app, http.MethodGet, "/required", tt.token)
			assert.Equal(t, tt.wantStatus, status)
			if tt.wantMsg != "" {
				assert.False(t, env.Success)
				assert.Equal(t, tt.wantMsg, env.Message)
				return
			}
			assert.Equal(t, "u1", raw["id"])
			assert.Equal(t, "u1", raw["userID"])
		})
	}
}

func TestBearerToken(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		tok, ok := BearerToken(c)
		return c.JSON(fiber.Map{"token": tok, "ok": ok})
	})

	for header, want := range map[string]bool{
		"Bearer abc": true,
		"bearer abc": true,
		"Basic abc":  false,
		"Bearer":     false,
		"Bearer   ":  false,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		resp, err := app.Test(req)
		require.NoError(t, err)
		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		_ = resp.Body.Close()
		assert.Equal(t, want, body["ok"], header)
	}
}

func TestAuthenticator_Optional(t *testing.T) {
	accounts := accountsFixture{"u1": {ID: "u1", Role: models.RoleUser, Active: true}}
	app, tokens := newAuthApp(t, accounts)
	tok, err := tokens.Issue("u1")
	require.NoError(t, err)

	status, _, raw := doRequest(t, app, http.MethodGet, "/optional", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "", raw["id"])

	status, _, raw = doRequest(t, app, http.MethodGet, "/optional", "garbage")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "", raw["id"])

	status, _, raw = doRequest(t, app, http.MethodGet, "/optional", tok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "u1", raw["id"])
}

func TestAdminRequiredAndSelfOrAdmin(t *testing.T) {
	accounts := accountsFixture{
		"u1":    {ID: "u1", Role: models.RoleUser, Active: true},
		"admin": {ID: "admin", Role: models.RoleAdmin, Active: true},
	}
	app, tokens := newAuthApp(t, accounts)
	user, _ := tokens.Issue("u1")
	admin, _ := tokens.Issue("admin")

	status, env, _ := doRequest(t, app, http.MethodGet, "/admin", user)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, MsgAdminRequired, env.Message)

	status, _, raw := doRequest(t, app, http.MethodGet, "/admin", admin)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, string(models.RoleAdmin), raw["role"])

	status, _, _ = doRequest(t, app, http.MethodPut, "/users/u1", user)
	assert.Equal(t, http.StatusOK, status)
	status, _, _ = doRequest(t, app, http.MethodPut, "/users/other", user)
	assert.Equal(t, http.StatusForbidden, status)
	status, _, _ = doRequest(t, app, http.MethodPut, "/users/other", admin)
	assert.Equal(t, http.StatusOK, status)
}

func TestActorFrom_Anonymous(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		assert.Equal(t, policy.Actor{}, ActorFrom(c))
		assert.Nil(t, AccountFrom(c))
		return c.SendStatus(fiber.StatusNoContent)
	})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
