// Package postgres is the PostgreSQL store backend, for deployments that
// share one database across several bot profiles.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bobbytablesbot/bobbytables/internal/config"
	"github.com/bobbytablesbot/bobbytables/internal/db"
	"github.com/bobbytablesbot/bobbytables/internal/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Open migrates the database described by cfg and connects a pool to it.
func Open(ctx context.Context, log *slog.Logger, cfg config.DatabaseConfig) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := db.RunMigrate(log, cfg, "up", nil); err != nil {
		return nil, err
	}
	pool, err := db.OpenPostgres(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return New(log, pool), nil
}

// New wraps an existing pool. The schema must already be migrated.
func New(log *slog.Logger, pool *pgxpool.Pool) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{pool: pool, logger: log.With(slog.String("store", "postgres"))}
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) IsBlacklisted(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM blacklisted WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query blacklist: %w", err)
	}
	return exists, nil
}

func (s *Store) AddBlacklist(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("username is required")
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO blacklisted (username) VALUES ($1)`, username)
	if db.IsUniqueViolation(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("insert blacklist: %w", err)
	}
	s.logger.Debug("user blacklisted", slog.String("username", username))
	return nil
}

func (s *Store) RemoveBlacklist(ctx context.Context, username string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM blacklisted WHERE username = $1`, username); err != nil {
		return fmt.Errorf("delete blacklist: %w", err)
	}
	s.logger.Debug("user unblacklisted", slog.String("username", username))
	return nil
}

func (s *Store) ListBlacklist(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT username FROM blacklisted ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list blacklist: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list blacklist: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (s *Store) RecordReference(ctx context.Context, itemID, catalogID string) error {
	if _, err := s.pool.Exec(ctx, `INSERT INTO statistics (comment_id, comic_id) VALUES ($1, $2)`, itemID, catalogID); err != nil {
		return fmt.Errorf("insert statistic: %w", err)
	}
	return nil
}

func (s *Store) ReferenceCount(ctx context.Context, catalogID string) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM statistics WHERE comic_id = $1`, catalogID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count references: %w", err)
	}
	return n, nil
}

func (s *Store) TotalReferences(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM statistics`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count references: %w", err)
	}
	return n, nil
}

func (s *Store) LookupTitle(ctx context.Context, normalized string) (int, bool, error) {
	var id int
	err := s.pool.QueryRow(ctx, `SELECT number FROM comic_titles WHERE title = $1 LIMIT 1`, normalized).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup title: %w", err)
	}
	return id, true, nil
}

func (s *Store) AddTitle(ctx context.Context, normalized string, catalogID int) error {
	if _, err := s.pool.Exec(ctx, `INSERT INTO comic_titles (title, number) VALUES ($1, $2)`, normalized, catalogID); err != nil {
		return fmt.Errorf("insert title: %w", err)
	}
	return nil
}

func (s *Store) TitleCount(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM comic_titles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count titles: %w", err)
	}
	return n, nil
}
