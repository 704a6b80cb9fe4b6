// Package store defines the persistence the bot reads and writes: the user
// blacklist, reference statistics and the comic title index.
package store

import (
	"context"
	"errors"
)

// ErrUnsupportedDriver is returned by Open for an unknown database driver.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Blacklist holds users who asked the bot to ignore them.
type Blacklist interface {
	IsBlacklisted(ctx context.Context, username string) (bool, error)
	// AddBlacklist is a no-op for users already listed.
	AddBlacklist(ctx context.Context, username string) error
	RemoveBlacklist(ctx context.Context, username string) error
	ListBlacklist(ctx context.Context) ([]string, error)
}

// Statistics counts how often each comic has been referenced.
type Statistics interface {
	RecordReference(ctx context.Context, itemID, catalogID string) error
	ReferenceCount(ctx context.Context, catalogID string) (int, error)
	TotalReferences(ctx context.Context) (int, error)
}

// TitleIndex maps normalized comic titles to comic identifiers.
type TitleIndex interface {
	LookupTitle(ctx context.Context, normalized string) (int, bool, error)
	AddTitle(ctx context.Context, normalized string, catalogID int) error
	TitleCount(ctx context.Context) (int, error)
}

// Store is a complete backend.
type Store interface {
	Blacklist
	Statistics
	TitleIndex
	Close() error
}

// ReferenceStats is the statistics view for one comic.
type ReferenceStats struct {
	CatalogID string  `json:"id"`
	Count     int     `json:"count"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
}

// Stats reads ReferenceStats for catalogID.
func Stats(ctx context.Context, s Statistics, catalogID string) (ReferenceStats, error) {
	count, err := s.ReferenceCount(ctx, catalogID)
	if err != nil {
		return ReferenceStats{}, err
	}
	total, err := s.TotalReferences(ctx)
	if err != nil {
		return ReferenceStats{}, err
	}
	out := ReferenceStats{CatalogID: catalogID, Count: count, Total: total}
	if total > 0 {
		out.Percent = float64(count) * 100 / float64(total)
	}
	return out, nil
}
