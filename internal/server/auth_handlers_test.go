package server

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"guildkeeper/internal/middleware"
	"guildkeeper/internal/models"
	"guildkeeper/internal/repository"
	"guildkeeper/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserRepository mocks the account lookups used by login. Other methods
// fall through to the embedded repository.
type MockUserRepository struct {
	repository.UserRepository
	mock.Mock
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

// storeWithUsers swaps the user repository of a store.
type storeWithUsers struct {
	repository.Store
	users repository.UserRepository
}

func (s storeWithUsers) Users() repository.UserRepository { return s.users }

func registerBody(email string) map[string]string {
	return map[string]string{
		"name":      "Gandalf",
		"surname":   "Grey",
		"email":     email,
		"password":  "mellon123",
		"birthDate": "1990-05-01",
		"gender":    "male",
	}
}

func TestRegisterLoginMe(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(http.MethodPost, "/api/auth/register", "", registerBody("Gandalf@Middle.Earth"))
	require.Equal(t, http.StatusCreated, status, "%v", body)
	assert.Equal(t, "User registered successfully", body["message"])
	registered := data(t, body)
	assert.NotEmpty(t, registered["token"])
	user := registered["user"].(map[string]any)
	assert.Equal(t, "gandalf@middle.earth", user["email"])
	assert.Equal(t, "user", user["role"])
	assert.NotContains(t, user, "password")

	status, body = env.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "gandalf@middle.earth", "password": "mellon123",
	})
	require.Equal(t, http.StatusOK, status, "%v", body)
	token := data(t, body)["token"].(string)

	status, body = env.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, user["id"], data(t, body)["id"])
}

func TestRegister_Errors(t *testing.T) {
	env := newTestEnv(t)
	testutil.SeedAccount(t, env.store, "taken@guildkeeper.test", models.RoleUser)

	tests := []struct {
		name        string
		body        any
		wantMessage string
		wantErrors  int
	}{
		{"duplicate email", registerBody("TAKEN@guildkeeper.test"), "User with this email already exists", 0},
		{"invalid fields", map[string]string{"email": "nope", "password": "123"}, "", 4},
		{"malformed body", "not an object", "Invalid request body", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.do(http.MethodPost, "/api/auth/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, false, body["success"])
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, body["message"])
			}
			if tt.wantErrors > 0 {
				errs, _ := body["errors"].([]any)
				assert.GreaterOrEqual(t, len(errs), tt.wantErrors)
			}
		})
	}
}

func TestLogin_Failures(t *testing.T) {
	env := newTestEnv(t)
	inactive := testutil.SeedAccount(t, env.store, "inactive@guildkeeper.test", models.RoleUser)
	_, err := env.store.Users().SetActive(context.Background(), []string{inactive.ID}, false)
	require.NoError(t, err)
	testutil.SeedAccount(t, env.store, "user@guildkeeper.test", models.RoleUser)

	tests := []struct {
		name        string
		email       string
		password    string
		wantStatus  int
		wantMessage string
	}{
		{"unknown email", "ghost@guildkeeper.test", "whatever", http.StatusUnauthorized, "Invalid email or password"},
		{"wrong password", "user@guildkeeper.test", "wrong-password", http.StatusUnauthorized, "Invalid email or password"},
		{"deactivated", "inactive@guildkeeper.test", testutil.DefaultPassword, http.StatusForbidden, "Account is deactivated"},
		{"missing password", "user@guildkeeper.test", "", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.do(http.MethodPost, "/api/auth/login", "", map[string]string{
				"email": tt.email, "password": tt.password,
			})
			assert.Equal(t, tt.wantStatus, status)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, body["message"])
			}
		})
	}
}

func TestLogin_StoreFailure(t *testing.T) {
	base := testutil.NewSQLStore(t)
	users := &MockUserRepository{UserRepository: base.Users()}
	users.On("GetByEmail", mock.Anything, "user@guildkeeper.test").
		Return(nil, errors.New("connection reset"))

	env := newTestEnvWithStore(t, storeWithUsers{Store: base, users: users})

	status, body := env.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "user@guildkeeper.test", "password": "secret1",
	})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", body["message"])
	users.AssertExpectations(t)
}

func TestAuthMiddlewareMessages(t *testing.T) {
	env := newTestEnv(t)
	account, token := env.seed("user@guildkeeper.test", models.RoleUser)

	status, body := env.do(http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, middleware.MsgNoToken, body["message"])

	status, body = env.do(http.MethodGet, "/api/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, middleware.MsgInvalidToken, body["message"])

	_, err := env.store.Users().SetActive(context.Background(), []string{account.ID}, false)
	require.NoError(t, err)
	status, body = env.do(http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, middleware.MsgDeactivated, body["message"])

	require.NoError(t, env.store.Users().Delete(context.Background(), account.ID))
	status, body = env.do(http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, middleware.MsgUserNotFound, body["message"])
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seed("user@guildkeeper.test", models.RoleUser)
	testutil.SeedAccount(t, env.store, "other@guildkeeper.test", models.RoleUser)

	status, body := env.do(http.MethodPut, "/api/auth/profile", token, map[string]string{
		"name": "Frodo", "surname": "Baggins",
	})
	require.Equal(t, http.StatusOK, status, "%v", body)
	assert.Equal(t, "Frodo", data(t, body)["name"])

	// PUT /me is an alias of /profile.
	status, body = env.do(http.MethodPut, "/api/auth/me", token, map[string]string{
		"email": "other@guildkeeper.test",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User with this email already exists", body["message"])
}

func TestRegister_DisabledByFeatureFlag(t *testing.T) {
	store := testutil.NewSQLStore(t)
	cfg := testConfig(t)
	cfg.FeatureFlags = "registration=off,beta_search=on"
	srv, err := NewServerWithDeps(cfg, store, nil)
	require.NoError(t, err)
	env := &testEnv{t: t, srv: srv, app: srv.App(), store: store, cfg: cfg}

	status, body := env.do(http.MethodPost, "/api/auth/register", "", registerBody("new@guildkeeper.test"))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Registration is currently disabled", body["message"])

	_, token := env.seed("admin@guildkeeper.test", models.RoleAdmin)
	status, body = env.do(http.MethodGet, "/api/admin/feature-flags", token, nil)
	require.Equal(t, http.StatusOK, status, "%v", body)
	flags := data(t, body)
	assert.Equal(t, map[string]any{"registration": "off", "beta_search": "on"}, flags["raw"])
	assert.Equal(t, map[string]any{"registration": false, "beta_search": true}, flags["evaluated"])

	_, userToken := env.seed("user@guildkeeper.test", models.RoleUser)
	status, _ = env.do(http.MethodGet, "/api/admin/feature-flags", userToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
}
