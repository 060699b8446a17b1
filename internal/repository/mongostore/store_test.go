package mongostore

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"guildkeeper/internal/database"
	"guildkeeper/internal/models"
	"guildkeeper/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore connects to MONGODB_TEST_URI and uses a throwaway database per test.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}
	ctx := context.Background()
	name := "guildkeeper_test_" + strings.ToLower(strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()))
	client, db, err := database.ConnectMongo(ctx, uri, name)
	require.NoError(t, err)
	require.NoError(t, database.EnsureIndexes(ctx, db))

	s := New(client, db)
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = s.Close(context.Background())
	})
	return s
}

func newAccount(email string, role models.Role) *models.Account {
	return &models.Account{
		ID:        models.NewID(),
		Name:      "Test",
		Email:     email,
		Password:  "hash",
		BirthDate: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Role:      role,
		Active:    true,
	}
}

func TestMongoStore_Users(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := newAccount("ana@test.com", models.RoleUser)
	require.NoError(t, s.Users().Create(ctx, a))
	dup := newAccount("ana@test.com", models.RoleUser)
	assert.ErrorIs(t, s.Users().Create(ctx, dup), repository.ErrDuplicate)

	admin := newAccount("boss@guild.com", models.RoleAdmin)
	require.NoError(t, s.Users().Create(ctx, admin))

	found, total, err := s.Users().List(ctx, repository.UserFilter{Search: "GUILD"}, repository.DefaultSort, models.Page{Number: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, admin.ID, found[0].ID)

	stats, err := s.Users().Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.UserStats{Total: 2, Active: 2, Admins: 1, RegularUsers: 1}, *stats)

	taken, err := s.Users().EmailTaken(ctx, "ana@test.com", a.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	require.NoError(t, s.Users().Delete(ctx, a.ID))
	_, err = s.Users().GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMongoStore_PostsPopulateAndFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	author := newAccount("dm@test.com", models.RoleAdmin)
	require.NoError(t, s.Users().Create(ctx, author))
	cat, err := s.Categories().Resolve(ctx, "Campaigns")
	require.NoError(t, err)

	p := &models.Post{
		ID: models.NewID(), Title: "Curse of Strahd", Body: "Gothic horror", AuthorID: author.ID,
		Type: models.PostTypeCampaign, CategoryIDs: []string{cat.ID}, Level: &models.Range{Min: 3, Max: 10}, Public: true,
	}
	require.NoError(t, s.Posts().Create(ctx, p))

	got, err := s.Posts().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "dm@test.com", got.Author.Email)
	require.Len(t, got.Categories, 1)
	assert.Equal(t, "Campaigns", got.Categories[0].Name)

	five := 5
	posts, total, err := s.Posts().List(ctx, repository.PostFilter{MinLevel: &five, Search: "strahd"}, repository.DefaultSort, models.Page{Number: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, posts, 1)

	used, err := s.Posts().UsedCategoryIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{cat.ID}, used)

	require.NoError(t, s.Posts().PullCategory(ctx, cat.ID))
	got, err = s.Posts().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.CategoryIDs)
}

func TestMongoStore_ResolveConcurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const workers = 8
	ids := make([]string, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tag, err := s.Tags().Resolve(ctx, "one-shot")
			if assert.NoError(t, err) {
				ids[i] = tag.ID
			}
		}()
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	active, err := s.Tags().ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
	assert.Equal(t, models.DefaultTagColor, active[0].Color)
}
