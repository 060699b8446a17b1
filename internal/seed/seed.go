package seed

import (
	"context"
	"errors"
	"fmt"
	"log"

	"guildkeeper/internal/auth"
	"guildkeeper/internal/models"
	"guildkeeper/internal/repository"
)

// Demo account defaults.
const (
	DemoAdminEmail      = "admin@guildkeeper.dev"
	DefaultDemoPassword = "password123"
)

// Options configure the demo seeder.
type Options struct {
	Accounts        int
	Posts           int
	CommentsPerPost int
	// MaxDays spreads creation dates over the last MaxDays days.
	MaxDays int
	// Password is given to every demo account. Defaults to DefaultDemoPassword.
	Password string
	// RandSeed makes the generated content reproducible when non-zero.
	RandSeed int64
	// DryRun builds entities without writing them.
	DryRun bool
}

// DefaultOptions returns the sizes used by `cmd/seed -demo`.
func DefaultOptions() Options {
	return Options{Accounts: 20, Posts: 40, CommentsPerPost: 3, MaxDays: 90}
}

// Summary counts what a Demo run created.
type Summary struct {
	Admin    *models.Account
	Accounts int
	Posts    int
	Comments int
}

// Demo fills the store with fake accounts, posts and comments. Posts are written by
// the demo admin since only admins publish. They reference random active categories
// and tags, so BuiltIns should run first.
func Demo(ctx context.Context, store repository.Store, opts Options) (*Summary, error) {
	log.Printf("🌱 Starting demo seeding with %d accounts and %d posts...", opts.Accounts, opts.Posts)

	password := opts.Password
	if password == "" {
		password = DefaultDemoPassword
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}
	f := NewFactory(store, opts, hash)

	admin, err := ensureDemoAdmin(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to create demo admin: %w", err)
	}
	summary := &Summary{Admin: admin}

	accounts := []*models.Account{admin}
	for i := 0; i < opts.Accounts; i++ {
		account, err := f.CreateAccount(ctx)
		if err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				continue
			}
			return nil, fmt.Errorf("failed to create account: %w", err)
		}
		accounts = append(accounts, account)
		summary.Accounts++
	}
	log.Printf("✓ %d demo accounts created", summary.Accounts)

	var categoryIDs, tagIDs []string
	if !opts.DryRun {
		if categoryIDs, tagIDs, err = activeTaxonomy(ctx, store); err != nil {
			return nil, err
		}
	}

	types := []models.PostType{
		models.PostTypeCampaign, models.PostTypeAdventure, models.PostTypeTavernTale,
		models.PostTypeQuest, models.PostTypeDiscussion, models.PostTypeAnnouncement,
	}
	for i := 0; i < opts.Posts; i++ {
		postType := types[f.rnd.Intn(len(types))]
		post, err := f.CreatePost(ctx, admin, postType, func(p *models.Post) {
			p.CategoryIDs = f.pick(categoryIDs, f.rnd.Intn(3))
			p.TagIDs = f.pick(tagIDs, f.rnd.Intn(4))
			p.Pinned = i == 0
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create post: %w", err)
		}
		summary.Posts++

		for j := 0; j < opts.CommentsPerPost; j++ {
			author := accounts[f.rnd.Intn(len(accounts))]
			if _, err := f.CreateComment(ctx, author, post); err != nil {
				return nil, fmt.Errorf("failed to create comment: %w", err)
			}
			summary.Comments++
		}
	}
	log.Printf("✓ %d posts and %d comments created", summary.Posts, summary.Comments)

	log.Println("🎉 Demo seeding completed successfully!")
	return summary, nil
}

// ensureDemoAdmin returns the demo admin, creating it on the first run.
func ensureDemoAdmin(ctx context.Context, f *Factory) (*models.Account, error) {
	if !f.opts.DryRun {
		existing, err := f.store.Users().GetByEmail(ctx, DemoAdminEmail)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	return f.CreateAccount(ctx, func(a *models.Account) {
		a.Name = "Admin"
		a.Surname = "Administrator"
		a.Email = DemoAdminEmail
		a.Role = models.RoleAdmin
	})
}

func activeTaxonomy(ctx context.Context, store repository.Store) ([]string, []string, error) {
	cats, err := store.Categories().ListActive(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list categories: %w", err)
	}
	tags, err := store.Tags().ListActive(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list tags: %w", err)
	}
	return models.CategoryIDs(cats), models.TagIDs(tags), nil
}
