// Command main seeds the built-in taxonomy and, optionally, demo content.
package main

import (
	"context"
	"flag"
	"log"

	"guildkeeper/internal/bootstrap"
	"guildkeeper/internal/config"
	"guildkeeper/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()

	demo := flag.Bool("demo", false, "Also create demo accounts, posts and comments")
	numAccounts := flag.Int("accounts", defaults.Accounts, "Number of demo accounts to create")
	numPosts := flag.Int("posts", defaults.Posts, "Number of demo posts to create")
	comments := flag.Int("comments", defaults.CommentsPerPost, "Maximum comments per demo post")
	maxDays := flag.Int("days", defaults.MaxDays, "Spread demo posts over this many past days")
	password := flag.String("password", seed.DefaultDemoPassword, "Password of every demo account")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible demo data (0 = time based)")
	dryRun := flag.Bool("dry-run", false, "Generate demo data without writing it")
	flag.Parse()

	log.Println("🌱 GuildKeeper Seeder")
	log.Println("====================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	store, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = store.Close(ctx) }()

	catalog, err := seed.LoadCatalog()
	if err != nil {
		log.Fatalf("❌ Invalid built-in catalog: %v", err)
	}
	if !*dryRun {
		res, err := seed.BuiltIns(ctx, store, catalog)
		if err != nil {
			log.Fatalf("❌ Built-in taxonomy seeding failed: %v", err)
		}
		log.Printf("Built-ins: %d categories, %d tags created", res.Categories, res.Tags)
	}

	if !*demo {
		log.Println("✨ Done.")
		return
	}

	summary, err := seed.Demo(ctx, store, seed.Options{
		Accounts:        *numAccounts,
		Posts:           *numPosts,
		CommentsPerPost: *comments,
		MaxDays:         *maxDays,
		Password:        *password,
		RandSeed:        *randSeed,
		DryRun:          *dryRun,
	})
	if err != nil {
		log.Fatalf("❌ Demo seeding failed: %v", err)
	}

	log.Printf("✨ Demo data: %d accounts, %d posts, %d comments", summary.Accounts, summary.Posts, summary.Comments)
	if summary.Admin != nil {
		log.Printf("📧 Admin: %s", summary.Admin.Email)
	}
	log.Printf("📧 All demo accounts have the password: %s", *password)
}
