package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"guildkeeper/internal/auth"
	"guildkeeper/internal/cache"
	"guildkeeper/internal/config"
	"guildkeeper/internal/database"
	"guildkeeper/internal/models"
	"guildkeeper/internal/repository"
	"guildkeeper/internal/repository/mongostore"
	"guildkeeper/internal/repository/sqlstore"
	"guildkeeper/internal/seed"

	"github.com/redis/go-redis/v9"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedBuiltIns bool
}

// InitRuntime opens the store and Redis and optionally runs built-in seeding.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (repository.Store, *redis.Client, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := ensureDevAdmin(ctx, cfg, store); err != nil {
		_ = store.Close(ctx)
		return nil, nil, fmt.Errorf("failed to bootstrap development admin: %w", err)
	}

	if opts.SeedBuiltIns {
		catalog, err := seed.LoadCatalog()
		if err == nil {
			_, err = seed.BuiltIns(ctx, store, catalog)
		}
		if err != nil {
			_ = store.Close(ctx)
			return nil, nil, fmt.Errorf("failed to seed built-in taxonomy: %w", err)
		}
	}

	return store, r, nil
}

// OpenStore connects the back end named by cfg.DBDriver. Outside production the
// relational schema is migrated. The Mongo indexes are ensured in every environment:
// the unique email and taxonomy name indexes back the store's duplicate detection.
func OpenStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.DBDriver {
	case config.DriverMongo:
		client, db, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := database.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return mongostore.New(client, db), nil
	case config.DriverPostgres, config.DriverSQLite:
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, err
		}
		return sqlstore.New(db, cfg.DBDriver), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// ensureDevAdmin makes sure the configured development admin exists and holds the
// admin role. It does nothing outside development or when the bootstrap flag is off.
func ensureDevAdmin(ctx context.Context, cfg *config.Config, store repository.Store) error {
	if cfg == nil || store == nil {
		return nil
	}
	if !cfg.IsDevelopment() || !cfg.DevBootstrapAdmin {
		return nil
	}

	email := strings.TrimSpace(strings.ToLower(cfg.DevAdminEmail))
	if email == "" {
		email = "admin@guildkeeper.local"
	}
	if cfg.DevAdminPassword == "" {
		return errors.New("DEV_ADMIN_PASSWORD must be set when DEV_BOOTSTRAP_ADMIN is enabled")
	}

	users := store.Users()
	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsAdmin() && existing.Active {
			return nil
		}
		if _, err := users.SetRole(ctx, []string{existing.ID}, models.RoleAdmin); err != nil {
			return err
		}
		if _, err := users.SetActive(ctx, []string{existing.ID}, true); err != nil {
			return err
		}
	case errors.Is(err, repository.ErrNotFound):
		hash, err := auth.HashPassword(cfg.DevAdminPassword)
		if err != nil {
			return fmt.Errorf("hash admin password: %w", err)
		}
		admin := &models.Account{
			ID:        models.NewID(),
			Name:      "Admin",
			Surname:   "Administrator",
			Email:     email,
			Password:  hash,
			BirthDate: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
			Role:      models.RoleAdmin,
			Active:    true,
		}
		if err := users.Create(ctx, admin); err != nil {
			return err
		}
	default:
		return err
	}

	log.Printf("development admin bootstrap ensured for %s", email)
	return nil
}
