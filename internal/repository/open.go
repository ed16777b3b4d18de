package repository

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Open connects to the database behind driver/dsn and returns a pooled handle
// together with the function that releases it.
func Open(ctx context.Context, driver, dsn string, poolSize int) (*sqlx.DB, func(), error) {
	switch driver {
	case Postgres.Driver:
		poolConfig, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("parse database config: %w", err)
		}
		poolConfig.MaxConns = int32(poolSize)
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("create pool: %w", err)
		}
		db := sqlx.NewDb(stdlib.OpenDBFromPool(pool), driver)
		return db, func() {
			db.Close()
			pool.Close()
		}, nil

	case MySQL.Driver:
		mcfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("parse database config: %w", err)
		}
		// UPDATE must report matched rows, not changed rows, for not-found detection.
		mcfg.ClientFoundRows = true
		db, err := sqlx.Open(driver, mcfg.FormatDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("open mysql: %w", err)
		}
		db.SetMaxOpenConns(poolSize)
		return db, func() { db.Close() }, nil

	case SQLite.Driver:
		db, err := sqlx.Open(driver, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		// Every connection to :memory: is a separate database.
		if strings.Contains(dsn, ":memory:") {
			db.SetMaxOpenConns(1)
		} else {
			db.SetMaxOpenConns(poolSize)
		}
		return db, func() { db.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unsupported driver %q", driver)
}

// WaitForDB pings until the database answers or attempts run out.
func WaitForDB(ctx context.Context, db *sqlx.DB, attempts int) error {
	for i := 0; i < attempts; i++ {
		if err := db.PingContext(ctx); err == nil {
			return nil
		}
		log.Printf("waiting for database... (%d/%d)", i+1, attempts)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return fmt.Errorf("database connection timeout after %ds", attempts)
}
