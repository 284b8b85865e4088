// Command addadmin grants or revokes the admin flag on an existing account.
// Admin status can only be changed from the host, never through the web UI.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"financas/internal/storage"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("addadmin", flag.ContinueOnError)
	fs.SetOutput(stderr)

	username := fs.String("user", "", "Username")
	revoke := fs.Bool("revoke", false, "Revoke admin instead of granting it")
	dbPath := fs.String("db", "./data/financas.db", "Path to database file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" {
		fmt.Fprintln(stdout, "Usage: addadmin -user <username> [-revoke] [-db <db_path>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: user")
	}

	// Allow overriding db path via env var if not explicitly set via flag
	if path := os.Getenv("SQLITE_DB_PATH"); path != "" && *dbPath == "./data/financas.db" {
		*dbPath = path
	}

	repo, err := storage.NewSQLiteRepository(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer repo.Close()

	ctx := context.Background()
	if err := repo.SetAdmin(ctx, *username, !*revoke); err != nil {
		return fmt.Errorf("failed to update user %s: %w", *username, err)
	}

	if *revoke {
		fmt.Fprintf(stdout, "Admin revoked from %s\n", *username)
	} else {
		fmt.Fprintf(stdout, "Admin granted to %s\n", *username)
	}
	return nil
}
