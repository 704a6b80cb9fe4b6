// Package titles keeps the title index in step with the comic archive.
package titles

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/bobbytablesbot/bobbytables/internal/catalog"
	"github.com/bobbytablesbot/bobbytables/internal/resolver"
)

// Fetcher looks up a comic.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (catalog.Record, bool, error)
}

// Index is the title index being filled.
type Index interface {
	AddTitle(ctx context.Context, normalized string, catalogID int) error
	TitleCount(ctx context.Context) (int, error)
}

// Syncer appends the titles of comics published since the last run.
type Syncer struct {
	fetcher Fetcher
	index   Index
	logger  *slog.Logger
	running sync.Mutex
}

func NewSyncer(log *slog.Logger, fetcher Fetcher, index Index) *Syncer {
	if log == nil {
		log = slog.Default()
	}
	return &Syncer{
		fetcher: fetcher,
		index:   index,
		logger:  log.With(slog.String("service", "titles")),
	}
}

// Sync fetches comics from TitleCount()+1 upwards until the archive has no
// next comic, and returns how many titles were added. Comic 404 does not
// exist and is stored with an empty title so the count stays aligned with ids.
// A call made while another sync is running returns immediately.
func (s *Syncer) Sync(ctx context.Context) (int, error) {
	if !s.running.TryLock() {
		s.logger.Info("title sync already running")
		return 0, nil
	}
	defer s.running.Unlock()

	count, err := s.index.TitleCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("count titles: %w", err)
	}
	added := 0
	for id := count + 1; ; id++ {
		if err := ctx.Err(); err != nil {
			return added, err
		}
		if id == catalog.NotFoundID {
			if err := s.index.AddTitle(ctx, "", catalog.NotFoundID); err != nil {
				return added, fmt.Errorf("add title %d: %w", id, err)
			}
			added++
			continue
		}
		rec, ok, err := s.fetcher.Fetch(ctx, strconv.Itoa(id))
		if err != nil {
			return added, fmt.Errorf("fetch comic %d: %w", id, err)
		}
		if !ok {
			break
		}
		if err := s.index.AddTitle(ctx, resolver.NormalizeTitle(rec.SafeTitle), rec.ID); err != nil {
			return added, fmt.Errorf("add title %d: %w", id, err)
		}
		added++
	}
	s.logger.Info("title sync complete", slog.Int("added", added), slog.Int("total", count+added))
	return added, nil
}
