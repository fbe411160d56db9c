package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/coursecake/internal/pkg/dberrors"
	"github.com/yigit/coursecake/internal/pkg/logger"
)

//go:embed schema/*.sql
var schemaFiles embed.FS

// schemaLockKey serializes concurrent EnsureSchema calls against one database.
const schemaLockKey = 7_301_114

// Migrator creates the catalog tables
type Migrator struct {
	db *pgxpool.Pool
}

// NewMigrator creates a new migrator
func NewMigrator(db *pgxpool.Pool) *Migrator {
	return &Migrator{
		db: db,
	}
}

// EnsureSchema applies every embedded schema file that has not been recorded yet.
// Files are applied in name order, each in its own transaction.
func (m *Migrator) EnsureSchema(ctx context.Context) error {
	if _, err := m.db.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`); err != nil {
		return dberrors.Classify("create migration tracking table", err)
	}

	files, err := fs.Glob(schemaFiles, "schema/*.sql")
	if err != nil {
		return fmt.Errorf("failed to list schema files: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		if err := m.applyFile(ctx, file); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) applyFile(ctx context.Context, file string) error {
	// "001_catalog.sql" => "001"
	version := strings.Split(path.Base(file), "_")[0]

	content, err := schemaFiles.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read schema file %s: %w", file, err)
	}

	tx, err := m.db.Begin(ctx)
	if err != nil {
		return dberrors.Classify("begin schema transaction", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockKey); err != nil {
		return dberrors.Classify("lock schema", err)
	}

	var applied bool
	err = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&applied)
	if err != nil {
		return dberrors.Classify("check schema version", err)
	}
	if applied {
		logger.Debug().Str("file", file).Msg("Schema file already applied, skipping")
		return nil
	}

	if _, err := tx.Exec(ctx, string(content)); err != nil {
		return dberrors.Classify("apply schema file "+file, err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
		return dberrors.Classify("record schema version", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return dberrors.Classify("commit schema file "+file, err)
	}

	logger.Info().Str("file", file).Msg("Schema file applied")
	return nil
}

// Reset drops every catalog table. Only meant for test teardown.
func (m *Migrator) Reset(ctx context.Context) error {
	return pgx.BeginFunc(ctx, m.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockKey); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
		DROP TABLE IF EXISTS course_classes;
		DROP TABLE IF EXISTS courses;
		DROP TABLE IF EXISTS universities;
		DROP TABLE IF EXISTS schema_migrations;`)
		return err
	})
}
