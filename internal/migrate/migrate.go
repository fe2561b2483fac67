// Package migrate applies the embedded SQL schema migrations in lexical order.
// Each file runs in its own transaction together with its schema_migrations row.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var embedded embed.FS

const createVersionTable = `create table if not exists schema_migrations (
    version text primary key,
    applied_at timestamptz not null default now()
)`

// Migration is one schema step.
type Migration struct {
	Version string
	SQL     string
}

// Migrator applies migrations over database/sql.
type Migrator struct {
	db         *sql.DB
	logger     zerolog.Logger
	migrations []Migration
}

// New returns a Migrator for the embedded migrations.
func New(db *sql.DB, logger zerolog.Logger) (*Migrator, error) {
	migrations, err := Load(embedded)
	if err != nil {
		return nil, err
	}
	return &Migrator{db: db, logger: logger, migrations: migrations}, nil
}

// Load reads migrations/*.sql from fsys sorted by file name.
func Load(fsys fs.FS) ([]Migration, error) {
	paths, err := fs.Glob(fsys, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("migrate: list migrations: %w", err)
	}
	sort.Strings(paths)
	out := make([]Migration, 0, len(paths))
	for _, p := range paths {
		body, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("migrate: read %s: %w", p, err)
		}
		name := strings.TrimSuffix(strings.TrimPrefix(p, "migrations/"), ".sql")
		out = append(out, Migration{Version: name, SQL: string(body)})
	}
	return out, nil
}

// Up applies every pending migration and returns the versions it applied.
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	if _, err := m.db.ExecContext(ctx, createVersionTable); err != nil {
		return nil, fmt.Errorf("migrate: ensure version table: %w", err)
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}

	var done []string
	for _, mig := range m.migrations {
		if applied[mig.Version] {
			continue
		}
		if err := m.apply(ctx, mig); err != nil {
			return done, err
		}
		m.logger.Info().Str("version", mig.Version).Msg("migration applied")
		done = append(done, mig.Version)
	}
	return done, nil
}

func (m *Migrator) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, `select version from schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("migrate: list applied: %w", err)
	}
	defer rows.Close()

	applied := map[string]bool{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("migrate: scan version: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func (m *Migrator) apply(ctx context.Context, mig Migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate: begin %s: %w", mig.Version, err)
	}
	if _, err := tx.ExecContext(ctx, mig.SQL); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("migrate: apply %s: %w", mig.Version, err)
	}
	if _, err := tx.ExecContext(ctx, `insert into schema_migrations (version) values ($1)`, mig.Version); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("migrate: record %s: %w", mig.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit %s: %w", mig.Version, err)
	}
	return nil
}
