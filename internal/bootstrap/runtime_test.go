package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"guildkeeper/internal/cache"
	"guildkeeper/internal/config"
	"guildkeeper/internal/database"
	"guildkeeper/internal/models"
	"guildkeeper/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	mr := miniredis.RunT(t)
	t.Cleanup(func() { cache.SetClient(nil) })
	return &config.Config{
		Env:               "development",
		DBDriver:          config.DriverSQLite,
		SQLitePath:        filepath.Join(t.TempDir(), "guildkeeper.db"),
		RedisURL:          mr.Addr(),
		DevBootstrapAdmin: true,
		DevAdminEmail:     "Root@GuildKeeper.local",
		DevAdminPassword:  "supersecret",
	}
}

func TestInitRuntime_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := sqliteConfig(t)

	store, rdb, err := InitRuntime(ctx, cfg, Options{SeedBuiltIns: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(ctx) })

	assert.Equal(t, config.DriverSQLite, store.Driver())
	require.NotNil(t, rdb)
	assert.NoError(t, rdb.Ping(ctx).Err())

	admin, err := store.Users().GetByEmail(ctx, "root@guildkeeper.local")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.True(t, admin.Active)

	cats, err := store.Categories().ListActive(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, cats)
}

func TestEnsureDevAdmin_PromotesExisting(t *testing.T) {
	ctx := context.Background()
	cfg := sqliteConfig(t)
	cfg.DevBootstrapAdmin = false

	store, _, err := InitRuntime(ctx, cfg, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(ctx) })

	account := &models.Account{
		ID: models.NewID(), Name: "Root", Email: "root@guildkeeper.local",
		Password: "x", Role: models.RoleUser, Active: false,
	}
	require.NoError(t, store.Users().Create(ctx, account))

	cfg.DevBootstrapAdmin = true
	require.NoError(t, ensureDevAdmin(ctx, cfg, store))

	got, err := store.Users().GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, got.Role)
	assert.True(t, got.Active)
}

func TestEnsureDevAdmin_Skips(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
	}{
		{"production", config.Config{Env: "production", DevBootstrapAdmin: true, DevAdminPassword: "x"}},
		{"flag off", config.Config{Env: "development"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.NewSQLStore(t)
			require.NoError(t, ensureDevAdmin(context.Background(), &tt.cfg, store))

			admins, err := store.Users().ListByRole(context.Background(), models.RoleAdmin)
			require.NoError(t, err)
			assert.Empty(t, admins)
		})
	}
}

func TestEnsureDevAdmin_RequiresPassword(t *testing.T) {
	ctx := context.Background()
	cfg := sqliteConfig(t)
	cfg.DevAdminPassword = ""

	_, _, err := InitRuntime(ctx, cfg, Options{})
	assert.ErrorContains(t, err, "DEV_ADMIN_PASSWORD")
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), &config.Config{DBDriver: "oracle"})
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")
}

func TestOpenStore_MongoProductionEnsuresUniqueIndexes(t *testing.T) {
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}
	ctx := context.Background()
	cfg := &config.Config{
		Env:           "production",
		DBDriver:      config.DriverMongo,
		MongoURI:      uri,
		MongoDatabase: "guildkeeper_test_bootstrap_indexes",
	}

	store, err := OpenStore(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(ctx) })

	client, db, err := database.ConnectMongo(ctx, uri, cfg.MongoDatabase)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	want := map[string]string{
		database.CollUsers:      "email_unique",
		database.CollCategories: "name_unique",
		database.CollTags:       "name_unique",
	}
	for coll, index := range want {
		specs, err := db.Collection(coll).Indexes().ListSpecifications(ctx)
		require.NoError(t, err)
		var found bool
		for _, idx := range specs {
			if idx.Name == index {
				found = true
				require.NotNil(t, idx.Unique)
				assert.True(t, *idx.Unique, "%s.%s", coll, index)
			}
		}
		assert.True(t, found, "%s is missing %s", coll, index)
	}
}
