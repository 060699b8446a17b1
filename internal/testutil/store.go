package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"guildkeeper/internal/database"
	"guildkeeper/internal/models"
	"guildkeeper/internal/repository"
	"guildkeeper/internal/repository/sqlstore"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
)

// DefaultPassword is the plain password of every seeded account.
const DefaultPassword = "password123"

// NewSQLStore returns a migrated store on a private in-memory SQLite database.
func NewSQLStore(t testing.TB) repository.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	s := sqlstore.New(db, "sqlite")
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

// PasswordHash hashes password at the minimum bcrypt cost so fixtures stay fast.
func PasswordHash(t testing.TB, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(hash)
}

// SeedAccount stores an active account with DefaultPassword.
func SeedAccount(t testing.TB, store repository.Store, email string, role models.Role) *models.Account {
	t.Helper()
	a := &models.Account{
		ID:        models.NewID(),
		Name:      "Test",
		Surname:   "User",
		Email:     email,
		Password:  PasswordHash(t, DefaultPassword),
		BirthDate: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		Gender:    models.GenderOther,
		Role:      role,
		Active:    true,
	}
	if err := store.Users().Create(context.Background(), a); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return a
}

// SeedPost stores a post by author. mutate may adjust it before insertion.
func SeedPost(t testing.TB, store repository.Store, author *models.Account, title string, mutate func(*models.Post)) *models.Post {
	t.Helper()
	p := &models.Post{
		ID:       models.NewID(),
		Title:    title,
		Body:     "Body of " + title,
		AuthorID: author.ID,
		Type:     models.PostTypeDiscussion,
		Public:   true,
	}
	if mutate != nil {
		mutate(p)
	}
	if err := store.Posts().Create(context.Background(), p); err != nil {
		t.Fatalf("seed post: %v", err)
	}
	return p
}
