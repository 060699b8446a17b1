package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"guildkeeper/internal/auth"
	"guildkeeper/internal/models"
	"guildkeeper/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newAuthService(t *testing.T) (*AuthService, fixture) {
	t.Helper()
	fx := newFixture(t)
	return NewAuthService(fx.store.Users(), auth.NewTokenIssuer(testSecret, time.Hour)), fx
}

func TestAuthService_Register(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{
		Name:      "Aria",
		Surname:   "Stone",
		Email:     "  Aria@Example.COM ",
		Password:  "secret1",
		BirthDate: "1995-04-12",
		Gender:    "Female",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "aria@example.com", res.User.Email)
	assert.Equal(t, models.RoleUser, res.User.Role)
	assert.True(t, res.User.Active)
	assert.Equal(t, models.GenderFemale, res.User.Gender)
	assert.NotEqual(t, "secret1", res.User.Password)

	claims, err := auth.NewTokenIssuer(testSecret, time.Hour).Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.Subject)

	_, err = svc.Register(ctx, RegisterInput{
		Name:      "Other",
		Email:     "aria@example.com",
		Password:  "secret2",
		BirthDate: "1990-01-01",
	})
	assert.Equal(t, models.CodeDuplicate, appCode(t, err))
	assert.EqualError(t, err, MsgEmailExists)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:      "A",
		Email:     "not-an-email",
		Password:  "123",
		BirthDate: "yesterday",
		Gender:    "robot",
	})
	require.Error(t, err)

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeValidation, appErr.Code)
	assert.Len(t, appErr.Details, 5)
}

func TestAuthService_Login(t *testing.T) {
	svc, fx := newAuthService(t)
	ctx := context.Background()

	inactive := testutil.SeedAccount(t, fx.store, "gone@guildkeeper.test", models.RoleUser)
	_, err := fx.store.Users().SetActive(ctx, []string{inactive.ID}, false)
	require.NoError(t, err)

	tests := []struct {
		name     string
		in       LoginInput
		wantCode string
	}{
		{"valid", LoginInput{Email: "USER@guildkeeper.test", Password: testutil.DefaultPassword}, ""},
		{"wrong password", LoginInput{Email: fx.user.Email, Password: "wrong-pass"}, models.CodeUnauthorized},
		{"unknown email", LoginInput{Email: "nobody@guildkeeper.test", Password: testutil.DefaultPassword}, models.CodeUnauthorized},
		{"deactivated", LoginInput{Email: inactive.Email, Password: testutil.DefaultPassword}, models.CodeForbidden},
		{"missing password", LoginInput{Email: fx.user.Email}, models.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Login(ctx, tt.in)
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, fx.user.ID, res.User.ID)
				return
			}
			assert.Equal(t, tt.wantCode, appCode(t, err))
		})
	}
}

func TestAuthService_UpdateProfile(t *testing.T) {
	svc, fx := newAuthService(t)
	ctx := context.Background()

	updated, err := svc.UpdateProfile(ctx, fx.user.ID, AccountFields{
		Name:    ptr("Renamed"),
		Surname: ptr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Empty(t, updated.Surname)
	assert.Equal(t, models.RoleUser, updated.Role)

	_, err = svc.UpdateProfile(ctx, fx.user.ID, AccountFields{Email: ptr(fx.admin.Email)})
	assert.Equal(t, models.CodeDuplicate, appCode(t, err))

	// Keeping one's own address is not a conflict.
	_, err = svc.UpdateProfile(ctx, fx.user.ID, AccountFields{Email: ptr(fx.user.Email)})
	assert.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, models.NewID(), AccountFields{Name: ptr("Ghost")})
	assert.Equal(t, models.CodeNotFound, appCode(t, err))
}

func TestAuthService_StoreFailure(t *testing.T) {
	fx := newFixture(t)
	users := &userRepoStub{
		UserRepository: fx.store.Users(),
		emailTakenFn: func(context.Context, string, string) (bool, error) {
			return false, errors.New("connection reset")
		},
	}
	svc := NewAuthService(users, auth.NewTokenIssuer(testSecret, time.Hour))

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:      "Aria",
		Email:     "aria@example.com",
		Password:  "secret1",
		BirthDate: "1995-04-12",
	})
	assert.Equal(t, models.CodeInternal, appCode(t, err))
}

func TestAuthService_Me(t *testing.T) {
	svc, fx := newAuthService(t)

	me, err := svc.Me(context.Background(), fx.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, fx.admin.Email, me.Email)
}
