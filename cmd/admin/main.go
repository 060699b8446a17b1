// Package main provides admin management utilities for GuildKeeper.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"guildkeeper/internal/bootstrap"
	"guildkeeper/internal/config"
	"guildkeeper/internal/models"
	"guildkeeper/internal/repository"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	store, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = store.Close(ctx) }()

	users := store.Users()
	command := os.Args[1]

	switch command {
	case "promote", "demote":
		if len(os.Args) < 3 {
			fmt.Printf("Usage: go run ./cmd/admin/main.go %s <user_id|email>\n", command)
			os.Exit(1)
		}
		role := models.RoleAdmin
		if command == "demote" {
			role = models.RoleUser
		}
		if err := setRole(ctx, users, os.Args[2], role); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

	case "list-admins":
		if err := listAdmins(ctx, users); err != nil {
			log.Fatalf("Failed to fetch admins: %v", err)
		}

	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin/main.go promote <user_id|email>   - Promote user to admin")
	fmt.Println("  go run ./cmd/admin/main.go demote <user_id|email>    - Demote admin to user")
	fmt.Println("  go run ./cmd/admin/main.go list-admins               - List all admins")
}

// lookup resolves ref as an account id when it parses as one, otherwise as an email.
func lookup(ctx context.Context, users repository.UserRepository, ref string) (*models.Account, error) {
	if models.ValidID(ref) {
		return users.GetByID(ctx, ref)
	}
	return users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(ref)))
}

func setRole(ctx context.Context, users repository.UserRepository, ref string, role models.Role) error {
	account, err := lookup(ctx, users, ref)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("user %s not found", ref)
		}
		return fmt.Errorf("database error: %w", err)
	}

	if account.Role == role {
		fmt.Printf("User %s (ID: %s) already has role %s\n", account.Email, account.ID, role)
		return nil
	}
	if _, err := users.SetRole(ctx, []string{account.ID}, role); err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	fmt.Printf("✅ %s (ID: %s) is now %s\n", account.Email, account.ID, role)
	return nil
}

func listAdmins(ctx context.Context, users repository.UserRepository) error {
	admins, err := users.ListByRole(ctx, models.RoleAdmin)
	if err != nil {
		return err
	}

	if len(admins) == 0 {
		fmt.Println("No admins found in the system")
		return nil
	}

	fmt.Println("\n📋 Current Admins:")
	fmt.Println("─────────────────────────────────────")
	for _, admin := range admins {
		status := "active"
		if !admin.Active {
			status = "deactivated"
		}
		fmt.Printf("ID: %s | Name: %s %s | Email: %s | %s\n", admin.ID, admin.Name, admin.Surname, admin.Email, status)
	}
	fmt.Println("─────────────────────────────────────")
	return nil
}
