// Command guildctl is a small command line client for the GuildKeeper API.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"guildkeeper/pkg/client"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "guildctl: %v\n", err)
		os.Exit(1)
	}
}

func usage() error {
	return errors.New(`usage: guildctl [-server URL] [-token-file PATH] <command>

commands:
  login <email>                       sign in (password read from stdin or GUILDKEEPER_PASSWORD)
  whoami                              show the signed-in account
  logout                              forget the stored session
  posts [-page N] [-limit N] [-group general|dnd] [-search TEXT] [-mine]`)
}

func run(args []string) error {
	fs := flag.NewFlagSet("guildctl", flag.ContinueOnError)
	serverURL := fs.String("server", envOr("GUILDKEEPER_URL", "http://localhost:5000"), "API base URL")
	tokenFile := fs.String("token-file", "", "Session token file (default ~/.guildkeeper/token)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return usage()
	}

	path := *tokenFile
	if path == "" {
		var err error
		if path, err = client.DefaultTokenPath(); err != nil {
			return err
		}
	}
	c := client.New(*serverURL, client.WithTokenStore(client.FileTokenStore{Path: path}))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rest := fs.Args()[1:]
	switch fs.Arg(0) {
	case "login":
		return login(ctx, c, rest)
	case "whoami":
		return whoami(ctx, c)
	case "logout":
		if err := c.Logout(); err != nil {
			return err
		}
		fmt.Println("Logged out")
		return nil
	case "posts":
		return posts(ctx, c, rest)
	default:
		return usage()
	}
}

func login(ctx context.Context, c *client.Client, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: guildctl login <email>")
	}
	password := os.Getenv("GUILDKEEPER_PASSWORD")
	if password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	user, err := c.Login(ctx, args[0], password)
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s %s <%s> (%s)\n", user.Name, user.Surname, user.Email, user.Role)
	return nil
}

func whoami(ctx context.Context, c *client.Client) error {
	user, err := c.Restore(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		return errors.New("not logged in")
	}
	fmt.Printf("ID:     %s\nName:   %s %s\nEmail:  %s\nRole:   %s\nActive: %t\n",
		user.ID, user.Name, user.Surname, user.Email, user.Role, user.Active)
	return nil
}

func posts(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("posts", flag.ContinueOnError)
	page := fs.Int("page", 1, "Page number")
	limit := fs.Int("limit", 10, "Posts per page")
	group := fs.String("group", "", "general or dnd")
	search := fs.String("search", "", "Text search")
	mine := fs.Bool("mine", false, "List your own posts")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := c.Restore(ctx); err != nil {
		return err
	}
	res, err := c.Posts(ctx, client.PostQuery{
		Page: *page, Limit: *limit, Group: *group, Search: *search, Mine: *mine,
	})
	if err != nil {
		return err
	}

	for _, p := range res.Posts {
		flags := ""
		if p.Pinned {
			flags += " [pinned]"
		}
		if !p.Public {
			flags += " [hidden]"
		}
		fmt.Printf("%s  %-12s %s%s\n", p.CreatedAt.Format("2006-01-02"), p.Type, p.Title, flags)
	}
	pg := res.Pagination
	fmt.Printf("-- page %d/%d, %d posts --\n", pg.CurrentPage, pg.TotalPages, pg.Total)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
