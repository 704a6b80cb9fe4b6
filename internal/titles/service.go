package titles

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
)

// Service runs the Syncer on a cron schedule.
type Service struct {
	syncer      *Syncer
	cron        *cron.Cron
	parser      cron.Parser
	schedule    string
	syncOnStart bool
	logger      *slog.Logger
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// NewService validates schedule ("@daily", "0 4 * * *", "0 0 4 * * *").
func NewService(log *slog.Logger, syncer *Syncer, schedule string, syncOnStart bool) (*Service, error) {
	if log == nil {
		log = slog.Default()
	}
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule = strings.TrimSpace(schedule)
	if _, err := parser.Parse(schedule); err != nil {
		return nil, fmt.Errorf("invalid titles schedule: %w", err)
	}
	return &Service{
		syncer:      syncer,
		cron:        cron.New(cron.WithParser(parser)),
		parser:      parser,
		schedule:    schedule,
		syncOnStart: syncOnStart,
		logger:      log.With(slog.String("service", "titles")),
	}, nil
}

// Start registers the job and starts the scheduler. With syncOnStart a first
// sync runs in the background right away.
func (s *Service) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	if _, err := s.cron.AddFunc(s.schedule, func() { s.run(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("schedule title sync: %w", err)
	}
	s.cron.Start()
	s.logger.Info("title sync scheduled", slog.String("schedule", s.schedule))
	if s.syncOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.run(runCtx)
		}()
	}
	return nil
}

// Stop cancels a running sync and waits for scheduled jobs to return.
func (s *Service) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	done := make(chan struct{})
	go func() {
		<-s.cron.Stop().Done()
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) run(ctx context.Context) {
	if _, err := s.syncer.Sync(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("title sync failed", slog.Any("error", err))
	}
}
