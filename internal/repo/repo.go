// Package repo is the Postgres implementation of store.Store.
package repo

import (
	"context"
	"errors"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/query"
	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/store"
)

var _ store.Store = (*Repo)(nil)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const uniqueViolation = "23505"

type Repo struct {
	Pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{Pool: pool}
}

// withTx runs fn in a transaction and commits when it returns nil.
func (r *Repo) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// conflict turns a unique violation on constraint <table>_<field>_key into a
// store.ConflictError.
func conflict(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	field := strings.TrimSuffix(pgErr.ConstraintName, "_key")
	if i := strings.Index(field, "_"); i >= 0 {
		field = field[i+1:]
	}
	return &store.ConflictError{Field: field}
}

func page(q sq.SelectBuilder, p query.Params) sq.SelectBuilder {
	return q.Limit(uint64(p.Limit)).Offset(uint64(p.Offset()))
}

func direction(desc bool) string {
	if desc {
		return "DESC"
	}
	return "ASC"
}

func (r *Repo) count(ctx context.Context, q sq.SelectBuilder) (int, error) {
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	err = r.Pool.QueryRow(ctx, sqlStr, args...).Scan(&n)
	return n, err
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
