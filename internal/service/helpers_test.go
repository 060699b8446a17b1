package service

import (
	"context"
	"errors"
	"testing"

	"guildkeeper/internal/models"
	"guildkeeper/internal/policy"
	"guildkeeper/internal/repository"
	"guildkeeper/internal/testutil"
)

func ptr[T any](v T) *T { return &v }

func actorOf(a *models.Account) policy.Actor {
	return policy.ActorFromAccount(a)
}

// userRepoStub overrides selected UserRepository methods. Calls to methods without a
// func field reach the embedded repository.
type userRepoStub struct {
	repository.UserRepository
	getByIDFn    func(context.Context, string) (*models.Account, error)
	emailTakenFn func(context.Context, string, string) (bool, error)
	updateFn     func(context.Context, *models.Account) error
	deleteFn     func(context.Context, string) error
}

func (s *userRepoStub) Delete(ctx context.Context, id string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return s.UserRepository.Delete(ctx, id)
}

// storeWithUsers swaps the user repository of an otherwise real store.
type storeWithUsers struct {
	repository.Store
	users repository.UserRepository
}

func (s storeWithUsers) Users() repository.UserRepository {
	return s.users
}

func (s *userRepoStub) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, id)
	}
	return s.UserRepository.GetByID(ctx, id)
}

func (s *userRepoStub) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	if s.emailTakenFn != nil {
		return s.emailTakenFn(ctx, email, excludeID)
	}
	return s.UserRepository.EmailTaken(ctx, email, excludeID)
}

func (s *userRepoStub) Update(ctx context.Context, account *models.Account) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, account)
	}
	return s.UserRepository.Update(ctx, account)
}

// fixture is a store seeded with one admin and one regular account.
type fixture struct {
	store repository.Store
	admin *models.Account
	user  *models.Account
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := testutil.NewSQLStore(t)
	return fixture{
		store: store,
		admin: testutil.SeedAccount(t, store, "admin@guildkeeper.test", models.RoleAdmin),
		user:  testutil.SeedAccount(t, store, "user@guildkeeper.test", models.RoleUser),
	}
}

// appCode returns the AppError code of err, or "" for nil.
func appCode(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		return ""
	}
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *models.AppError, got %T: %v", err, err)
	}
	return appErr.Code
}

func seedComment(t *testing.T, store repository.Store, author *models.Account, post *models.Post, text string) *models.Comment {
	t.Helper()
	c := &models.Comment{ID: models.NewID(), Text: text, AuthorID: author.ID, PostID: post.ID}
	if err := store.Comments().Create(context.Background(), c); err != nil {
		t.Fatalf("seed comment: %v", err)
	}
	return c
}

// avatarRemoverSpy records the accounts whose files were removed.
type avatarRemoverSpy struct {
	removed []string
}

func (s *avatarRemoverSpy) RemoveFiles(account *models.Account) {
	s.removed = append(s.removed, account.ID)
}
