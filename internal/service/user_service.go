package service

import (
	"context"
	"fmt"
	"strings"

	"guildkeeper/internal/models"
	"guildkeeper/internal/notifications"
	"guildkeeper/internal/policy"
	"guildkeeper/internal/repository"
	"guildkeeper/internal/validation"
)

// Paging limits of the admin user listing.
const (
	DefaultUserPageSize = 10
	MaxUserPageSize     = 50
)

// Bulk actions accepted by UserService.Bulk.
const (
	BulkActivate   = "activate"
	BulkDeactivate = "deactivate"
	BulkDelete     = "delete"
	BulkMakeAdmin  = "makeAdmin"
	BulkMakeUser   = "makeUser"
)

// AvatarRemover deletes the stored image files of an account.
type AvatarRemover interface {
	RemoveFiles(account *models.Account)
}

// UserService implements account administration.
type UserService struct {
	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	avatars  AvatarRemover
	auth     *AuthService
	events   events
}

// ListUsersInput selects a page of accounts.
type ListUsersInput struct {
	Filter repository.UserFilter
	Sort   repository.Sort
	Page   models.Page
}

// UserList is one page of accounts plus population counts.
type UserList struct {
	Users      []*models.Account `json:"users"`
	Pagination models.Pagination `json:"pagination"`
	Stats      *models.UserStats `json:"stats"`
}

// CreateUserInput is the admin account creation payload.
type CreateUserInput struct {
	RegisterInput
	Role   string `json:"role"`
	Active *bool  `json:"active"`
}

// UpdateUserInput is a partial account edit. Role and Active are honoured for admins only.
type UpdateUserInput struct {
	AccountFields
	Role   *string `json:"role"`
	Active *bool   `json:"active"`
}

// BulkResult reports how many accounts a bulk action touched.
type BulkResult struct {
	AffectedUsers int64  `json:"affectedUsers"`
	Message       string `json:"-"`
}

func NewUserService(store repository.Store, auth *AuthService, avatars AvatarRemover) *UserService {
	return &UserService{
		users:    store.Users(),
		posts:    store.Posts(),
		comments: store.Comments(),
		avatars:  avatars,
		auth:     auth,
	}
}

// UsePublisher makes the role and status toggles notify the affected account.
func (s *UserService) UsePublisher(p EventPublisher) {
	s.events = events{pub: p}
}

// List returns a filtered page of accounts with population stats.
func (s *UserService) List(ctx context.Context, actor policy.Actor, in ListUsersInput) (*UserList, error) {
	if err := policy.RequireAdmin(actor, MsgAdminRequired); err != nil {
		return nil, err
	}
	if in.Sort.Field == "" {
		in.Sort = repository.DefaultSort
	}

	users, total, err := s.users.List(ctx, in.Filter, in.Sort, in.Page)
	if err != nil {
		return nil, repoError(err, "User")
	}
	stats, err := s.users.Stats(ctx)
	if err != nil {
		return nil, repoError(err, "User")
	}
	if users == nil {
		users = []*models.Account{}
	}
	return &UserList{
		Users:      users,
		Pagination: models.NewPagination("users", in.Page, total),
		Stats:      stats,
	}, nil
}

// Get returns one account to its owner or an admin.
func (s *UserService) Get(ctx context.Context, actor policy.Actor, id string) (*models.Account, error) {
	if err := policy.Authorize(actor, id, "You do not have permission to view this user"); err != nil {
		return nil, err
	}
	account, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "User")
	}
	return account, nil
}

// Create adds an account on behalf of an admin.
func (s *UserService) Create(ctx context.Context, actor policy.Actor, in CreateUserInput) (*models.Account, error) {
	if err := policy.RequireAdmin(actor, MsgAdminRequired); err != nil {
		return nil, err
	}

	account := &models.Account{ID: models.NewID(), Role: models.RoleUser, Active: true}
	var errs validation.Errors
	if strings.TrimSpace(in.Name) == "" || in.Email == "" || in.Password == "" || in.BirthDate == "" {
		return nil, models.NewValidationError("Name, email, password and birth date are required")
	}
	in.fields().apply(&errs, account, true)
	errs.Add(validation.ValidatePassword(in.Password))
	if in.Role != "" {
		role := models.Role(in.Role)
		if role.Valid() {
			account.Role = role
		} else {
			errs.Addf("role must be admin or user")
		}
	}
	if in.Active != nil {
		account.Active = *in.Active
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if err := s.auth.createAccount(ctx, account, in.Password); err != nil {
		return nil, err
	}
	return account, nil
}

// Update applies a partial edit. Owners may edit their profile fields. Only admins may
// change role or status.
func (s *UserService) Update(ctx context.Context, actor policy.Actor, id string, in UpdateUserInput) (*models.Account, error) {
	if err := policy.Authorize(actor, id, "You do not have permission to update this user"); err != nil {
		return nil, err
	}
	account, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "User")
	}

	var errs validation.Errors
	in.apply(&errs, account, false)
	if actor.IsAdmin() {
		if in.Role != nil {
			role := models.Role(*in.Role)
			if role.Valid() {
				account.Role = role
			} else {
				errs.Addf("role must be admin or user")
			}
		}
		if in.Active != nil {
			account.Active = *in.Active
		}
	}
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

// Delete removes another account together with its content.
func (s *UserService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if err := policy.RequireAdmin(actor, MsgAdminRequired); err != nil {
		return err
	}
	if err := policy.ForbidSelf(actor, id, "You cannot delete your own account"); err != nil {
		return err
	}
	account, err := s.users.GetByID(ctx, id)
	if err != nil {
		return repoError(err, "User")
	}
	return s.cascade(ctx, account)
}

// DeleteSelf removes the caller's account together with its content.
func (s *UserService) DeleteSelf(ctx context.Context, actor policy.Actor) error {
	account, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return repoError(err, "User")
	}
	return s.cascade(ctx, account)
}

// cascade deletes the posts (with their comments), the comments, the account and
// finally the avatar files. The files go last so a failed delete leaves a working
// account behind.
func (s *UserService) cascade(ctx context.Context, account *models.Account) error {
	postIDs, err := s.posts.IDsByAuthor(ctx, account.ID)
	if err != nil {
		return repoError(err, "Post")
	}
	if len(postIDs) > 0 {
		if _, err := s.comments.DeleteByPosts(ctx, postIDs); err != nil {
			return repoError(err, "Comment")
		}
	}
	if _, err := s.posts.DeleteByAuthor(ctx, account.ID); err != nil {
		return repoError(err, "Post")
	}
	if _, err := s.comments.DeleteByAuthor(ctx, account.ID); err != nil {
		return repoError(err, "Comment")
	}
	if err := s.users.Delete(ctx, account.ID); err != nil {
		return repoError(err, "User")
	}
	if s.avatars != nil {
		s.avatars.RemoveFiles(account)
	}
	return nil
}

// ToggleRole flips an account between admin and user.
func (s *UserService) ToggleRole(ctx context.Context, actor policy.Actor, id string) (*models.Account, error) {
	if err := policy.RequireAdmin(actor, MsgAdminRequired); err != nil {
		return nil, err
	}
	if err := policy.ForbidSelf(actor, id, "You cannot change your own role"); err != nil {
		return nil, err
	}
	account, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "User")
	}

	role := models.RoleAdmin
	if account.IsAdmin() {
		role = models.RoleUser
	}
	if _, err := s.users.SetRole(ctx, []string{id}, role); err != nil {
		return nil, repoError(err, "User")
	}
	account.Role = role
	s.events.toUser(ctx, id, notifications.Event{
		Type: notifications.RoleChanged, ActorID: actor.ID, Data: map[string]any{"role": role},
	})
	return account, nil
}

// ToggleStatus flips an account between active and deactivated.
func (s *UserService) ToggleStatus(ctx context.Context, actor policy.Actor, id string) (*models.Account, error) {
	if err := policy.RequireAdmin(actor, MsgAdminRequired); err != nil {
		return nil, err
	}
	if err := policy.ForbidSelf(actor, id, "You cannot deactivate your own account"); err != nil {
		return nil, err
	}
	account, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "User")
	}

	if _, err := s.users.SetActive(ctx, []string{id}, !account.Active); err != nil {
		return nil, repoError(err, "User")
	}
	account.Active = !account.Active
	s.events.toUser(ctx, id, notifications.Event{
		Type: notifications.StatusChanged, ActorID: actor.ID, Data: map[string]any{"active": account.Active},
	})
	return account, nil
}

// Bulk applies action to every listed account except the caller's own.
func (s *UserService) Bulk(ctx context.Context, actor policy.Actor, ids []string, action string) (*BulkResult, error) {
	if err := policy.RequireAdmin(actor, MsgAdminRequired); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, models.NewValidationError("A list of users is required")
	}
	switch action {
	case BulkActivate, BulkDeactivate, BulkDelete, BulkMakeAdmin, BulkMakeUser:
	default:
		return nil, models.NewValidationError("Invalid action")
	}

	targets := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == actor.ID {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		if !models.ValidID(id) {
			return nil, models.NewInvalidIDError()
		}
		seen[id] = struct{}{}
		targets = append(targets, id)
	}
	if len(targets) == 0 {
		return nil, models.NewValidationError("You cannot perform this action on your own account")
	}

	var (
		affected int64
		err      error
		message  string
	)
	switch action {
	case BulkActivate:
		affected, err = s.users.SetActive(ctx, targets, true)
		message = "Users activated"
	case BulkDeactivate:
		affected, err = s.users.SetActive(ctx, targets, false)
		message = "Users deactivated"
	case BulkMakeAdmin:
		affected, err = s.users.SetRole(ctx, targets, models.RoleAdmin)
		message = "Users promoted to administrators"
	case BulkMakeUser:
		affected, err = s.users.SetRole(ctx, targets, models.RoleUser)
		message = "Users changed to regular users"
	case BulkDelete:
		affected, err = s.deleteMany(ctx, targets)
		return &BulkResult{AffectedUsers: affected, Message: fmt.Sprintf("%d users deleted", affected)}, err
	}
	if err != nil {
		return nil, repoError(err, "User")
	}
	return &BulkResult{AffectedUsers: affected, Message: fmt.Sprintf("%s (%d users)", message, affected)}, nil
}

func (s *UserService) deleteMany(ctx context.Context, ids []string) (int64, error) {
	var deleted int64
	for _, id := range ids {
		account, err := s.users.GetByID(ctx, id)
		if err != nil {
			if models.IsCode(repoError(err, "User"), models.CodeNotFound) {
				continue
			}
			return deleted, repoError(err, "User")
		}
		if err := s.cascade(ctx, account); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}
