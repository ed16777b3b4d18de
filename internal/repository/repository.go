package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db      *sqlx.DB
	dialect Dialect
	obs     *observer
}

func NewRepository(db *sqlx.DB, dialect Dialect) *Repository {
	return &Repository{
		db:      db,
		dialect: dialect,
		obs:     newObserver(dialect),
	}
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
