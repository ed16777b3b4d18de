package repository

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// Dialect carries the per-driver SQL differences the repository cares about.
type Dialect struct {
	// Driver is the database/sql driver name.
	Driver string
	// System is the OpenTelemetry db.system value.
	System      string
	Placeholder sq.PlaceholderFormat
	// Returning is true when INSERT ... RETURNING id is supported.
	Returning bool
	Truncate  string
}

var (
	Postgres = Dialect{
		Driver:      "pgx",
		System:      "postgresql",
		Placeholder: sq.Dollar,
		Returning:   true,
		Truncate:    "TRUNCATE users RESTART IDENTITY",
	}
	SQLite = Dialect{
		Driver:      "sqlite3",
		System:      "sqlite",
		Placeholder: sq.Question,
		Returning:   true,
		Truncate:    "DELETE FROM users; DELETE FROM sqlite_sequence WHERE name = 'users'",
	}
	MySQL = Dialect{
		Driver:      "mysql",
		System:      "mysql",
		Placeholder: sq.Question,
		Truncate:    "TRUNCATE TABLE users",
	}
)

func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case Postgres.Driver:
		return Postgres, nil
	case SQLite.Driver:
		return SQLite, nil
	case MySQL.Driver:
		return MySQL, nil
	}
	return Dialect{}, fmt.Errorf("unsupported driver %q", driver)
}

func (d Dialect) builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(d.Placeholder)
}
