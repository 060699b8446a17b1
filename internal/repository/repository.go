// Package repository defines the storage contracts shared by the Mongo and SQL back ends.
package repository

import (
	"context"
	"errors"

	"guildkeeper/internal/models"
)

var (
	// ErrNotFound is returned when a lookup by id or key matches nothing.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a unique index.
	ErrDuplicate = errors.New("duplicate key")
)

// UserRepository defines the interface for account data operations
type UserRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
	List(ctx context.Context, filter UserFilter, sort Sort, page models.Page) ([]*models.Account, int64, error)
	Stats(ctx context.Context) (*models.UserStats, error)
	ListByRole(ctx context.Context, role models.Role) ([]*models.Account, error)
	Update(ctx context.Context, account *models.Account) error
	SetRole(ctx context.Context, ids []string, role models.Role) (int64, error)
	SetActive(ctx context.Context, ids []string, active bool) (int64, error)
	Delete(ctx context.Context, id string) error
}

// PostRepository defines the interface for post data operations.
// Reads return posts with author, categories and tags populated.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context, filter PostFilter, sort Sort, page models.Page) ([]*models.Post, int64, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id string) error
	IDsByAuthor(ctx context.Context, authorID string) ([]string, error)
	DeleteByAuthor(ctx context.Context, authorID string) (int64, error)
	UsedCategoryIDs(ctx context.Context) ([]string, error)
	UsedTagIDs(ctx context.Context) ([]string, error)
	PullCategory(ctx context.Context, categoryID string) error
	PullTag(ctx context.Context, tagID string) error
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ListByPost(ctx context.Context, postID string, page models.Page) ([]*models.Comment, int64, error)
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id string) error
	DeleteByAuthor(ctx context.Context, authorID string) (int64, error)
	DeleteByPosts(ctx context.Context, postIDs []string) (int64, error)
}

// TaxonomyRepository stores one kind of shared lookup entry (categories or tags).
type TaxonomyRepository[T models.Category | models.Tag] interface {
	Create(ctx context.Context, entry *T) error
	GetByID(ctx context.Context, id string) (*T, error)
	GetByIDs(ctx context.Context, ids []string) ([]T, error)
	ListActive(ctx context.Context) ([]T, error)
	Update(ctx context.Context, entry *T) error
	Delete(ctx context.Context, id string) error
	// Resolve returns the entry called name, creating it with defaults when absent.
	// Concurrent callers resolving the same name observe a single entry.
	Resolve(ctx context.Context, name string) (*T, error)
}

type (
	CategoryRepository = TaxonomyRepository[models.Category]
	TagRepository      = TaxonomyRepository[models.Tag]
)

// Store bundles the repositories of one storage back end.
type Store interface {
	Users() UserRepository
	Posts() PostRepository
	Comments() CommentRepository
	Categories() CategoryRepository
	Tags() TagRepository
	// Driver names the back end ("mongo", "postgres", "sqlite").
	Driver() string
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
