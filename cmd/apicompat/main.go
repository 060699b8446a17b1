// Command apicompat fails when an API document drops paths, operations or
// response codes that an older document promised. Without -base it checks
// the swagger document compiled into the server.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"guildkeeper/docs"
)

func main() {
	basePath := flag.String("base", "", "published swagger document (default: the embedded one)")
	revisionPath := flag.String("revision", "", "swagger document to check")
	dump := flag.Bool("dump", false, "print the embedded swagger document and exit")
	flag.Parse()

	if *dump {
		fmt.Println(docs.SwaggerInfo.ReadDoc())
		return
	}
	if strings.TrimSpace(*revisionPath) == "" {
		fmt.Fprintln(os.Stderr, "usage: apicompat [-base <path>] -revision <path> | -dump")
		os.Exit(2)
	}

	base, err := loadBase(*basePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load base document: %v\n", err)
		os.Exit(1)
	}
	revision, err := loadFile(*revisionPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load revision document: %v\n", err)
		os.Exit(1)
	}

	if issues := breakingChanges(base, revision); len(issues) > 0 {
		fmt.Fprintln(os.Stderr, "backward compatibility check failed:")
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "- %s\n", issue)
		}
		os.Exit(1)
	}
	fmt.Println("api compatibility check passed")
}

func loadBase(path string) (surface, error) {
	if strings.TrimSpace(path) == "" {
		return parseSurface([]byte(docs.SwaggerInfo.ReadDoc()))
	}
	return loadFile(path)
}

func loadFile(path string) (surface, error) {
	// #nosec G304: path comes from CLI flags in a dev tool
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseSurface(raw)
}
