// Package middleware provides authentication, logging, metrics and rate limiting middleware.
package middleware

import (
	"context"
	"errors"
	"strings"

	"guildkeeper/internal/auth"
	"guildkeeper/internal/models"
	"guildkeeper/internal/policy"
	"guildkeeper/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by the authenticator.
const (
	LocalActor   = "actor"
	LocalUserID  = "userID"
	LocalAccount = "account"
)

// Authentication failure messages.
const (
	MsgNoToken       = "Access denied. No token provided"
	MsgInvalidToken  = "Invalid token"
	MsgTokenExpired  = "Token has expired"
	MsgUserNotFound  = "User not found"
	MsgDeactivated   = "Account is deactivated"
	MsgAdminRequired = "Admin access required"
)

// AccountLoader fetches the account named by a token subject.
type AccountLoader func(ctx context.Context, id string) (*models.Account, error)

// Authenticator verifies bearer tokens and attaches the calling account to the request.
type Authenticator struct {
	tokens *auth.TokenIssuer
	load   AccountLoader
}

// NewAuthenticator returns an Authenticator that checks tokens with tokens and loads
// accounts with load.
func NewAuthenticator(tokens *auth.TokenIssuer, load AccountLoader) *Authenticator {
	return &Authenticator{tokens: tokens, load: load}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) (string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// authenticate resolves the request's account. The returned status is meaningful only
// when err is non-nil.
func (a *Authenticator) authenticate(c *fiber.Ctx) (*models.Account, int, error) {
	token, ok := BearerToken(c)
	if !ok {
		return nil, fiber.StatusUnauthorized, models.NewUnauthorizedError(MsgNoToken)
	}

	claims, err := a.tokens.Parse(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, fiber.StatusUnauthorized, models.NewUnauthorizedError(MsgTokenExpired)
		}
		return nil, fiber.StatusUnauthorized, models.NewUnauthorizedError(MsgInvalidToken)
	}

	account, err := a.load(c.UserContext(), claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fiber.StatusUnauthorized, models.NewUnauthorizedError(MsgUserNotFound)
		}
		return nil, fiber.StatusInternalServerError, models.NewInternalError(err)
	}
	if !account.Active {
		return nil, fiber.StatusForbidden, models.NewForbiddenError(MsgDeactivated)
	}
	return account, 0, nil
}

func attach(c *fiber.Ctx, account *models.Account) {
	c.Locals(LocalActor, policy.ActorFromAccount(account))
	c.Locals(LocalUserID, account.ID)
	c.Locals(LocalAccount, account)
	c.SetUserContext(WithUserID(c.UserContext(), account.ID))
}

// Required rejects requests without a valid token for an active account.
func (a *Authenticator) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		account, status, err := a.authenticate(c)
		if err != nil {
			if status == fiber.StatusInternalServerError {
				Logger.ErrorContext(c.UserContext(), "failed to load account for token", "error", err)
			}
			return models.RespondWithError(c, status, err)
		}
		attach(c, account)
		return c.Next()
	}
}

// Optional attaches the caller when a valid token is present and never rejects.
func (a *Authenticator) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := BearerToken(c); ok {
			if account, _, err := a.authenticate(c); err == nil {
				attach(c, account)
			}
		}
		return c.Next()
	}
}

// AdminRequired rejects non-admin callers with 403. It must run after Required.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !ActorFrom(c).IsAdmin() {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError(MsgAdminRequired))
		}
		return c.Next()
	}
}

// SelfOrAdmin allows the request when the caller is an admin or the account named by
// the route parameter param. It must run after Required.
func SelfOrAdmin(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := policy.Authorize(ActorFrom(c), c.Params(param), "Access denied"); err != nil {
			return models.RespondWithError(c, fiber.StatusForbidden, err)
		}
		return c.Next()
	}
}

// ActorFrom returns the identity attached by the authenticator, or an anonymous actor.
func ActorFrom(c *fiber.Ctx) policy.Actor {
	actor, _ := c.Locals(LocalActor).(policy.Actor)
	return actor
}

// AccountFrom returns the account attached by the authenticator, if any.
func AccountFrom(c *fiber.Ctx) *models.Account {
	account, _ := c.Locals(LocalAccount).(*models.Account)
	return account
}
