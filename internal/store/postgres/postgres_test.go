package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobbytablesbot/bobbytables/internal/config"
	"github.com/bobbytablesbot/bobbytables/internal/logger"
)

// openTest connects to TEST_POSTGRES_DSN and empties the tables.
func openTest(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	cfg := config.DatabaseConfig{Driver: "postgres", Postgres: config.PostgresConfig{URL: dsn}}
	s, err := Open(ctx, logger.Discard(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	_, err = s.pool.Exec(ctx, `TRUNCATE blacklisted, statistics, comic_titles`)
	require.NoError(t, err)
	return s
}

func TestBlacklist(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	require.NoError(t, s.AddBlacklist(ctx, "alice"))
	require.NoError(t, s.AddBlacklist(ctx, "alice"))

	listed, err := s.IsBlacklisted(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, listed)

	names, err := s.ListBlacklist(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, names)

	require.NoError(t, s.RemoveBlacklist(ctx, "alice"))
	names, err = s.ListBlacklist(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestStatisticsAndTitles(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	require.NoError(t, s.RecordReference(ctx, "c1", "327"))
	require.NoError(t, s.RecordReference(ctx, "c2", "1"))
	count, err := s.ReferenceCount(ctx, "327")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	total, err := s.TotalReferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	require.NoError(t, s.AddTitle(ctx, "exploitsofamom", 327))
	id, ok, err := s.LookupTitle(ctx, "exploitsofamom")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 327, id)
	_, ok, err = s.LookupTitle(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
