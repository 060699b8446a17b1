// Package policy holds the single authorization rule shared by every mutating operation:
// admins may act on anything, everyone else only on what they own.
package policy

import "guildkeeper/internal/models"

// Actor is the identity making the current request.
type Actor struct {
	ID    string
	Email string
	Role  models.Role
}

// ActorFromAccount derives the request identity from a loaded account.
func ActorFromAccount(a *models.Account) Actor {
	return Actor{ID: a.ID, Email: a.Email, Role: a.Role}
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Anonymous reports whether the request carried no identity.
func (a Actor) Anonymous() bool {
	return a.ID == ""
}

// CanModify is the ownership predicate: admin or owner.
func CanModify(actor Actor, ownerID string) bool {
	if actor.Anonymous() {
		return false
	}
	return actor.IsAdmin() || actor.ID == ownerID
}

// Authorize returns a forbidden error carrying message when actor may not modify
// a resource owned by ownerID.
func Authorize(actor Actor, ownerID, message string) error {
	if CanModify(actor, ownerID) {
		return nil
	}
	return models.NewForbiddenError(message)
}

// RequireAdmin returns a forbidden error carrying message unless actor is an admin.
func RequireAdmin(actor Actor, message string) error {
	if actor.IsAdmin() {
		return nil
	}
	return models.NewForbiddenError(message)
}

// ForbidSelf rejects admin-endpoint operations that target the actor's own account.
func ForbidSelf(actor Actor, targetID, message string) error {
	if actor.ID == targetID {
		return models.NewValidationError(message)
	}
	return nil
}
