package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	var (
		databaseURL = flag.String("database", os.Getenv("CCB_DATABASE_URL"), "database URL")
		sourceDir   = flag.String("source", "file://migrations", "migrations source")
		down        = flag.Bool("down", false, "roll back one migration instead of migrating up")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "database URL is required (flag -database or CCB_DATABASE_URL)")
		os.Exit(1)
	}

	m, err := migrate.New(*sourceDir, *databaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating migrator: %v\n", err)
		os.Exit(1)
	}
	defer m.Close()

	if *down {
		err = m.Steps(-1)
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}

	version, dirty, _ := m.Version()
	fmt.Printf("database at version %d (dirty=%v)\n", version, dirty)
}
