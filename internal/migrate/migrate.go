// Package migrate applies the embedded users schema with goose.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"

	"github.com/pressly/goose/v3"
)

//go:embed sql
var migrations embed.FS

// dialects maps a database/sql driver name to its goose dialect and migration directory.
var dialects = map[string]struct {
	goose goose.Dialect
	dir   string
}{
	"pgx":     {goose.DialectPostgres, "sql/postgres"},
	"sqlite3": {goose.DialectSQLite3, "sql/sqlite3"},
	"mysql":   {goose.DialectMySQL, "sql/mysql"},
}

func newProvider(db *sql.DB, driver string) (*goose.Provider, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("no migrations for driver %q", driver)
	}
	fsys, err := fs.Sub(migrations, d.dir)
	if err != nil {
		return nil, fmt.Errorf("open migrations for %s: %w", driver, err)
	}
	return goose.NewProvider(d.goose, db, fsys)
}

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB, driver string) error {
	p, err := newProvider(db, driver)
	if err != nil {
		return err
	}
	results, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	for _, r := range results {
		log.Printf("[migrate] applied %s in %s", r.Source.Path, r.Duration)
	}
	return nil
}

// Down rolls every applied migration back.
func Down(ctx context.Context, db *sql.DB, driver string) error {
	p, err := newProvider(db, driver)
	if err != nil {
		return err
	}
	results, err := p.DownTo(ctx, 0)
	if err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	for _, r := range results {
		log.Printf("[migrate] rolled back %s in %s", r.Source.Path, r.Duration)
	}
	return nil
}
