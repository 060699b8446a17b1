package service

import (
	"errors"

	"guildkeeper/internal/models"
	"guildkeeper/internal/repository"
)

// User-facing messages shared by several services.
const (
	MsgEmailExists      = "User with this email already exists"
	MsgInvalidLogin     = "Invalid email or password"
	MsgAccountInactive  = "Account is deactivated"
	MsgCommentsLocked   = "Comments are locked for this post"
	MsgAdminOnlyPosts   = "Only administrators can create posts"
	MsgAdminRequired    = "Admin access required"
	MsgPostAccessDenied = "You do not have permission to view this post"
)

// repoError converts storage sentinels into API errors. resource names the entity in
// the not-found message ("User", "Post", ...). AppErrors pass through unchanged.
func repoError(err error, resource string) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return models.NewNotFoundError(resource)
	default:
		return models.NewInternalError(err)
	}
}

// duplicateOr maps a unique-index violation to message, anything else through repoError.
func duplicateOr(err error, resource, message string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return models.NewDuplicateError(message)
	}
	return repoError(err, resource)
}
