// Package repository stores products and promotions in PostgreSQL.
//
// Money columns are NUMERIC(12,0) and are read through shopspring/decimal,
// then narrowed to the int64 amounts used by the domain.
package repository

import (
	"context"

	"github.com/go-faster/errors"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-pricing/db"
)

// NewPool connects to databaseURL and registers the decimal codec used for
// money columns on every new connection.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse database url")
	}
	cfg.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "create pool")
	}
	return pool, nil
}

// RunMigrations applies the embedded schema. Statements are idempotent.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, db.Schema); err != nil {
		return errors.Wrap(err, "apply schema")
	}
	return nil
}

// wholeAmount narrows a stored money value to int64. Fractional or
// out-of-range values are rejected rather than rounded.
func wholeAmount(column string, d decimal.Decimal) (int64, error) {
	if !d.IsInteger() {
		return 0, errors.Errorf("%s: %s is not a whole amount", column, d)
	}
	if !d.BigInt().IsInt64() {
		return 0, errors.Errorf("%s: %s overflows int64", column, d)
	}
	return d.IntPart(), nil
}
