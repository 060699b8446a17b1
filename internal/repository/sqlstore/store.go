// Package sqlstore implements the repositories on GORM for Postgres and SQLite.
package sqlstore

import (
	"context"
	"errors"
	"strings"

	"guildkeeper/internal/models"
	"guildkeeper/internal/observability"
	"guildkeeper/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Store is a repository.Store backed by a GORM connection.
type Store struct {
	db         *gorm.DB
	driver     string
	users      *userRepository
	posts      *postRepository
	comments   *commentRepository
	categories *taxonomyRepository[models.Category]
	tags       *taxonomyRepository[models.Tag]
}

var _ repository.Store = (*Store)(nil)

// New wraps db. driver is the dialect name used in logs, metrics and spans.
func New(db *gorm.DB, driver string) *Store {
	b := base{
		metrics: observability.NewDatabaseMetrics(driver),
		traces:  observability.NewTraceLayer(driver),
		driver:  driver,
	}
	return &Store{
		db:       db,
		driver:   driver,
		users:    &userRepository{db: db, base: b.forTable("users")},
		posts:    &postRepository{db: db, base: b.forTable("posts")},
		comments: &commentRepository{db: db, base: b.forTable("comments")},
		categories: &taxonomyRepository[models.Category]{
			db:   db,
			base: b.forTable("categories"),
			fresh: func(name string) *models.Category {
				return &models.Category{ID: models.NewID(), Name: name, Color: models.DefaultCategoryColor, Active: true}
			},
		},
		tags: &taxonomyRepository[models.Tag]{
			db:   db,
			base: b.forTable("tags"),
			fresh: func(name string) *models.Tag {
				return &models.Tag{ID: models.NewID(), Name: name, Color: models.DefaultTagColor, Active: true}
			},
		},
	}
}

func (s *Store) Users() repository.UserRepository { return s.users }
func (s *Store) Posts() repository.PostRepository { return s.posts }
func (s *Store) Comments() repository.CommentRepository { return s.comments }
func (s *Store) Categories() repository.CategoryRepository { return s.categories }
func (s *Store) Tags() repository.TagRepository { return s.tags }
func (s *Store) Driver() string { return s.driver }

// DB exposes the underlying connection for migrations and admin tooling.
func (s *Store) DB() *gorm.DB { return s.db }

// Ping checks the connection pool.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close(_ context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// base carries the per-table instrumentation shared by every repository.
type base struct {
	metrics *observability.DatabaseMetrics
	traces  *observability.TraceLayer
	log     *observability.RepoLogger
	driver  string
	table   string
}

func (b base) forTable(table string) base {
	b.table = table
	b.log = observability.NewRepoLogger(b.driver, table)
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
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repository.ErrDuplicate
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return repository.ErrDuplicate
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return repository.ErrDuplicate
	}
	return err
}

// likeEscaper makes LIKE metacharacters in user input match literally. Clauses using
// likePattern must declare likeEscape.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

const likeEscape = `ESCAPE '\'`

// likePattern builds a case-insensitive substring pattern for s.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}
