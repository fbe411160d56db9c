package migrations_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/coursecake/internal/app/migrations"
	"github.com/yigit/coursecake/internal/testutil"
)

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	pool := testutil.NewDatabase(t)
	ctx := context.Background()
	migrator := migrations.NewMigrator(pool)

	// NewDatabase already applied the schema once
	require.NoError(t, migrator.EnsureSchema(ctx))

	var versions int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM schema_migrations`).Scan(&versions))
	assert.Equal(t, 1, versions)

	var constraints int
	require.NoError(t, pool.QueryRow(ctx, `
		SELECT count(*) FROM pg_constraint
		WHERE conname IN ('courses_natural_key', 'course_classes_natural_key')`).Scan(&constraints))
	assert.Equal(t, 2, constraints)
}

func TestResetDropsCatalog(t *testing.T) {
	pool := testutil.NewDatabase(t)
	ctx := context.Background()
	migrator := migrations.NewMigrator(pool)

	_, err := pool.Exec(ctx, `INSERT INTO universities (name) VALUES ('UCI')`)
	require.NoError(t, err)

	require.NoError(t, migrator.Reset(ctx))

	var table *string
	require.NoError(t, pool.QueryRow(ctx, `SELECT to_regclass('public.universities')::text`).Scan(&table))
	assert.Nil(t, table)

	require.NoError(t, migrator.EnsureSchema(ctx))
	var universities int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM universities`).Scan(&universities))
	assert.Zero(t, universities)
}
