// Package sqlite is the embedded store backend.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bobbytablesbot/bobbytables/internal/db"
	"github.com/bobbytablesbot/bobbytables/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps blacklist, statistics and titles in a single SQLite file.
type Store struct {
	conn   *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(ctx context.Context, log *slog.Logger, path string) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	conn, err := db.OpenSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateSQLite(log, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &Store{conn: conn, logger: log.With(slog.String("store", "sqlite"))}, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) IsBlacklisted(ctx context.Context, username string) (bool, error) {
	var n int
	err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM blacklisted WHERE username = ?`, username).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query blacklist: %w", err)
	}
	return n > 0, nil
}

func (s *Store) AddBlacklist(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("username is required")
	}
	if _, err := s.conn.ExecContext(ctx, `INSERT INTO blacklisted (username) VALUES (?) ON CONFLICT (username) DO NOTHING`, username); err != nil {
		return fmt.Errorf("insert blacklist: %w", err)
	}
	s.logger.Debug("user blacklisted", slog.String("username", username))
	return nil
}

func (s *Store) RemoveBlacklist(ctx context.Context, username string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM blacklisted WHERE username = ?`, username); err != nil {
		return fmt.Errorf("delete blacklist: %w", err)
	}
	s.logger.Debug("user unblacklisted", slog.String("username", username))
	return nil
}

func (s *Store) ListBlacklist(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT username FROM blacklisted ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list blacklist: %w", err)
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (s *Store) RecordReference(ctx context.Context, itemID, catalogID string) error {
	if _, err := s.conn.ExecContext(ctx, `INSERT INTO statistics (comment_id, comic_id) VALUES (?, ?)`, itemID, catalogID); err != nil {
		return fmt.Errorf("insert statistic: %w", err)
	}
	return nil
}

func (s *Store) ReferenceCount(ctx context.Context, catalogID string) (int, error) {
	var n int
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM statistics WHERE comic_id = ?`, catalogID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count references: %w", err)
	}
	return n, nil
}

func (s *Store) TotalReferences(ctx context.Context) (int, error) {
	var n int
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM statistics`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count references: %w", err)
	}
	return n, nil
}

func (s *Store) LookupTitle(ctx context.Context, normalized string) (int, bool, error) {
	var id int
	err := s.conn.QueryRowContext(ctx, `SELECT number FROM comic_titles WHERE title = ? LIMIT 1`, normalized).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup title: %w", err)
	}
	return id, true, nil
}

func (s *Store) AddTitle(ctx context.Context, normalized string, catalogID int) error {
	if _, err := s.conn.ExecContext(ctx, `INSERT INTO comic_titles (title, number) VALUES (?, ?)`, normalized, catalogID); err != nil {
		return fmt.Errorf("insert title: %w", err)
	}
	return nil
}

// TitleCount is the number of indexed rows, which the title sync treats as
// the highest comic id already stored.
func (s *Store) TitleCount(ctx context.Context) (int, error) {
	var n int
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM comic_titles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count titles: %w", err)
	}
	return n, nil
}
