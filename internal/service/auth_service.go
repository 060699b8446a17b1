package service

import (
	"context"
	"errors"
	"strings"

	"guildkeeper/internal/auth"
	"guildkeeper/internal/models"
	"guildkeeper/internal/repository"
	"guildkeeper/internal/validation"
)

// AuthService handles registration, login and self-service profile edits.
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenIssuer
}

// RegisterInput is the public sign-up payload.
type RegisterInput struct {
	Name      string `json:"name"`
	Surname   string `json:"surname"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	BirthDate string `json:"birthDate"`
	Gender    string `json:"gender"`
}

func (in RegisterInput) fields() AccountFields {
	f := AccountFields{
		Surname: &in.Surname,
		Gender:  &in.Gender,
	}
	if in.Name != "" {
		f.Name = &in.Name
	}
	if in.Email != "" {
		f.Email = &in.Email
	}
	if in.BirthDate != "" {
		f.BirthDate = &in.BirthDate
	}
	return f
}

// LoginInput carries credentials.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token string          `json:"token"`
	User  *models.Account `json:"user"`
}

func NewAuthService(users repository.UserRepository, tokens *auth.TokenIssuer) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Register creates a regular, active account and signs a token for it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	account := &models.Account{
		ID:     models.NewID(),
		Role:   models.RoleUser,
		Active: true,
	}

	var errs validation.Errors
	in.fields().apply(&errs, account, true)
	errs.Add(validation.ValidatePassword(in.Password))
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if err := s.createAccount(ctx, account, in.Password); err != nil {
		return nil, err
	}
	return s.result(account)
}

// createAccount hashes password and stores account, enforcing email uniqueness.
func (s *AuthService) createAccount(ctx context.Context, account *models.Account, password string) error {
	taken, err := s.users.EmailTaken(ctx, account.Email, "")
	if err != nil {
		return repoError(err, "User")
	}
	if taken {
		return models.NewDuplicateError(MsgEmailExists)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.NewInternalError(err)
	}
	account.Password = hash

	// The unique index still guards against a concurrent registration.
	return duplicateOr(s.users.Create(ctx, account), "User", MsgEmailExists)
}

// Login verifies credentials and signs a token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	email := validation.NormalizeEmail(in.Email)

	var errs validation.Errors
	errs.Add(validation.ValidateEmail(email))
	if in.Password == "" {
		errs.Addf("password is required")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	account, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, models.NewUnauthorizedError(MsgInvalidLogin)
		}
		return nil, repoError(err, "User")
	}

	ok, err := auth.CheckPassword(account.Password, in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !ok {
		return nil, models.NewUnauthorizedError(MsgInvalidLogin)
	}
	if !account.Active {
		return nil, models.NewForbiddenError(MsgAccountInactive)
	}
	return s.result(account)
}

func (s *AuthService) result(account *models.Account) (*AuthResult, error) {
	token, err := s.tokens.Issue(account.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{Token: token, User: account}, nil
}

// Me returns the account with id.
func (s *AuthService) Me(ctx context.Context, id string) (*models.Account, error) {
	account, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "User")
	}
	return account, nil
}

// UpdateProfile applies a partial profile edit to the caller's own account.
// Role, status and password are not reachable from here.
func (s *AuthService) UpdateProfile(ctx context.Context, id string, in AccountFields) (*models.Account, error) {
	account, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "User")
	}

	var errs validation.Errors
	in.apply(&errs, account, false)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if in.Email != nil {
		if err := ensureEmailFree(ctx, s.users, account.Email, account.ID); err != nil {
			return nil, err
		}
	}

	if err := s.users.Update(ctx, account); err != nil {
		return nil, duplicateOr(err, "User", MsgEmailExists)
	}
	return account, nil
}

func ensureEmailFree(ctx context.Context, users repository.UserRepository, email, excludeID string) error {
	taken, err := users.EmailTaken(ctx, strings.ToLower(email), excludeID)
	if err != nil {
		return repoError(err, "User")
	}
	if taken {
		return models.NewDuplicateError(MsgEmailExists)
	}
	return nil
}
