package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"guildkeeper/internal/models"
	"guildkeeper/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
)

// Factory builds domain entities and persists them to the store.
// It is a thin helper used by the demo seeder and tests.
type Factory struct {
	store        repository.Store
	opts         Options
	passwordHash string
	faker        *gofakeit.Faker
	rnd          *rand.Rand
}

// NewFactory creates a Factory bound to store. passwordHash is stored on every
// generated account so one bcrypt run covers the whole seed.
func NewFactory(store repository.Store, opts Options, passwordHash string) *Factory {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		store:        store,
		opts:         opts,
		passwordHash: passwordHash,
		faker:        gofakeit.New(seed),
		//nolint:gosec // weak random number generator is fine for seeding
		rnd: rand.New(rand.NewSource(seed)),
	}
}

// BuildAccount constructs an active account with a fake identity but does not persist it.
func (f *Factory) BuildAccount(overrides ...func(*models.Account)) *models.Account {
	first, last := f.faker.FirstName(), f.faker.LastName()
	genders := []models.Gender{models.GenderMale, models.GenderFemale, models.GenderOther}
	account := &models.Account{
		ID:        models.NewID(),
		Name:      first,
		Surname:   last,
		Email:     strings.ToLower(fmt.Sprintf("%s.%s.%d@guildkeeper.dev", first, last, f.faker.Number(100, 9999))),
		Password:  f.passwordHash,
		BirthDate: f.faker.DateRange(time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2006, 1, 1, 0, 0, 0, 0, time.UTC)),
		Gender:    genders[f.rnd.Intn(len(genders))],
		Role:      models.RoleUser,
		Active:    true,
	}
	for _, override := range overrides {
		override(account)
	}
	return account
}

// CreateAccount builds and persists an account.
func (f *Factory) CreateAccount(ctx context.Context, overrides ...func(*models.Account)) (*models.Account, error) {
	account := f.BuildAccount(overrides...)
	if f.opts.DryRun {
		log.Printf("[dry-run] CreateAccount: %s", account.Email)
		return account, nil
	}
	if err := f.store.Users().Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// BuildPost constructs a post of postType by author but does not persist it.
// Game posts get a level range, player count, location and status.
func (f *Factory) BuildPost(author *models.Account, postType models.PostType, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		ID:       models.NewID(),
		Title:    strings.TrimSuffix(f.faker.Sentence(5), "."),
		Body:     f.faker.Paragraph(1, 3, 8, "\n\n"),
		AuthorID: author.ID,
		Type:     postType,
		Public:   f.rnd.Float32() < 0.85,
	}

	// realistic created_at spread
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	post.CreatedAt = time.Now().Add(-time.Duration(f.rnd.Intn(maxDays*24*60)) * time.Minute)
	post.UpdatedAt = post.CreatedAt

	if isGameType(postType) {
		low := f.rnd.Intn(15) + 1
		post.Level = &models.Range{Min: low, Max: low + f.rnd.Intn(6)}
		players := f.rnd.Intn(3) + 3
		post.Players = &models.Range{Min: players, Max: players + f.rnd.Intn(3)}
		post.Location = f.faker.City()
		statuses := []models.PostStatus{models.PostStatusPlanning, models.PostStatusActive, models.PostStatusCompleted, models.PostStatusOnHold}
		post.Status = statuses[f.rnd.Intn(len(statuses))]
	}
	post.ClampRanges()

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost builds and persists a post.
func (f *Factory) CreatePost(ctx context.Context, author *models.Account, postType models.PostType, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(author, postType, overrides...)
	if f.opts.DryRun {
		log.Printf("[dry-run] CreatePost: type=%s author=%s title=%q", post.Type, post.AuthorID, post.Title)
		return post, nil
	}
	if err := f.store.Posts().Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment builds and persists a comment by author on post.
func (f *Factory) CreateComment(ctx context.Context, author *models.Account, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		ID:        models.NewID(),
		Text:      f.faker.Sentence(12),
		AuthorID:  author.ID,
		PostID:    post.ID,
		CreatedAt: post.CreatedAt.Add(time.Duration(f.rnd.Intn(72)+1) * time.Hour),
	}
	comment.UpdatedAt = comment.CreatedAt

	for _, override := range overrides {
		override(comment)
	}

	if f.opts.DryRun {
		return comment, nil
	}
	if err := f.store.Comments().Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// pick returns up to n distinct random elements of ids.
func (f *Factory) pick(ids []string, n int) []string {
	if n > len(ids) {
		n = len(ids)
	}
	out := make([]string, 0, n)
	for _, i := range f.rnd.Perm(len(ids))[:n] {
		out = append(out, ids[i])
	}
	return out
}

func isGameType(t models.PostType) bool {
	for _, gt := range models.PostGroupTypes[models.PostGroupGame] {
		if gt == t {
			return true
		}
	}
	return false
}
