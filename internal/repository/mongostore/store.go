// Package mongostore implements the repositories on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"time"

	"guildkeeper/internal/database"
	"guildkeeper/internal/models"
	"guildkeeper/internal/observability"
	"guildkeeper/internal/repository"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const driverName = "mongo"

// Store is a repository.Store backed by a Mongo database.
type Store struct {
	client     *mongo.Client
	db         *mongo.Database
	users      *userRepository
	posts      *postRepository
	comments   *commentRepository
	categories *taxonomyRepository[models.Category]
	tags       *taxonomyRepository[models.Tag]
}

var _ repository.Store = (*Store)(nil)

// New wraps db. client may be nil when the caller owns the connection.
func New(client *mongo.Client, db *mongo.Database) *Store {
	b := base{
		metrics: observability.NewDatabaseMetrics(driverName),
		traces:  observability.NewTraceLayer("mongodb"),
	}
	return &Store{
		client:   client,
		db:       db,
		users:    &userRepository{base: b.forTable(database.CollUsers), coll: db.Collection(database.CollUsers)},
		posts:    &postRepository{base: b.forTable(database.CollPosts), db: db, coll: db.Collection(database.CollPosts)},
		comments: &commentRepository{base: b.forTable(database.CollComments), db: db, coll: db.Collection(database.CollComments)},
		categories: &taxonomyRepository[models.Category]{
			base: b.forTable(database.CollCategories),
			coll: db.Collection(database.CollCategories),
			fresh: func(name string, now time.Time) *models.Category {
				return &models.Category{
					ID: models.NewID(), Name: name, Color: models.DefaultCategoryColor,
					Active: true, CreatedAt: now, UpdatedAt: now,
				}
			},
			id: func(c *models.Category) string { return c.ID },
			touch: func(c *models.Category, now time.Time) {
				if c.CreatedAt.IsZero() {
					c.CreatedAt = now
				}
				c.UpdatedAt = now
			},
		},
		tags: &taxonomyRepository[models.Tag]{
			base: b.forTable(database.CollTags),
			coll: db.Collection(database.CollTags),
			fresh: func(name string, now time.Time) *models.Tag {
				return &models.Tag{
					ID: models.NewID(), Name: name, Color: models.DefaultTagColor,
					Active: true, CreatedAt: now, UpdatedAt: now,
				}
			},
			id: func(t *models.Tag) string { return t.ID },
			touch: func(t *models.Tag, now time.Time) {
				if t.CreatedAt.IsZero() {
					t.CreatedAt = now
				}
				t.UpdatedAt = now
			},
		},
	}
}

func (s *Store) Users() repository.UserRepository { return s.users }
func (s *Store) Posts() repository.PostRepository { return s.posts }
func (s *Store) Comments() repository.CommentRepository { return s.comments }
func (s *Store) Categories() repository.CategoryRepository { return s.categories }
func (s *Store) Tags() repository.TagRepository { return s.tags }
func (s *Store) Driver() string { return driverName }

// Database exposes the underlying database for index management.
func (s *Store) Database() *mongo.Database { return s.db }

// Ping checks that the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}

// Close disconnects the client when the store owns it.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

type base struct {
	metrics *observability.DatabaseMetrics
	traces  *observability.TraceLayer
	log     *observability.RepoLogger
	table   string
}

func (b base) forTable(table string) base {
	b.table = table
	b.log = observability.NewRepoLogger(driverName, table)
	return b
}

// begin starts a span and latency timer for method. The returned func ends both and
// must be passed the final error.
func (b base) begin(ctx context.Context, method string) (context.Context, func(error)) {
	ctx, span := b.traces.TraceRepositoryMethod(ctx, method, b.table)
	done := b.metrics.TrackQuery(method, b.table)
	return ctx, func(err error) {
		done()
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			b.log.LogError(ctx, err, method)
		}
		observability.EndSpan(span, err)
	}
}

// translate maps driver errors onto the repository sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repository.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return repository.ErrDuplicate
	default:
		return err
	}
}

func orEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
