package db

import (
	"context"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dprinces/Web-Dashboard-Virtual-Assistant/internal/observability"
)

// RunMigrations applies the .sql files at the root of migrations in lexical
// order, each in its own transaction. Applied versions are recorded in
// schema_migrations and skipped on later runs.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, migrations fs.FS) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	versions, err := fs.Glob(migrations, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	slices.Sort(versions)

	for _, version := range versions {
		var exists bool
		err := pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version=$1)`, version).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", version, err)
		}
		if exists {
			continue
		}

		sqlBytes, err := fs.ReadFile(migrations, version)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", version, err)
		}
		if strings.TrimSpace(string(sqlBytes)) == "" {
			return fmt.Errorf("migration %s is empty", version)
		}
		if err := apply(ctx, pool, version, string(sqlBytes)); err != nil {
			return err
		}
		observability.Logger().Info("migration applied", "version", version)
	}
	return nil
}

func apply(ctx context.Context, pool *pgxpool.Pool, version, sqlText string) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, sqlText); err != nil {
			return fmt.Errorf("exec migration %s: %w", version, err)
		}
		_, err := tx.Exec(ctx, `INSERT INTO schema_migrations(version, applied_at) VALUES ($1, $2)`, version, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("record migration %s: %w", version, err)
		}
		return nil
	})
}
