package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bobbytablesbot/bobbytables/internal/logger"
)

// DefaultPollInterval is the pause between two full rounds over the streams.
const DefaultPollInterval = 5 * time.Second

type route struct {
	stream  Stream
	handler Handler
}

// Manager polls its streams round-robin on one goroutine and hands each item
// to the stream's handler. A failing or panicking handler only loses its item.
type Manager struct {
	logger   *slog.Logger
	interval time.Duration

	mu      sync.Mutex
	routes  []route
	cancel  context.CancelFunc
	done    chan struct{}
	running atomic.Bool

	handled atomic.Int64
	failed  atomic.Int64
}

// NewManager creates a Manager that polls every interval, or
// DefaultPollInterval when interval is not positive.
func NewManager(log *slog.Logger, interval time.Duration) *Manager {
	if log == nil {
		log = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Manager{
		logger:   log.With(slog.String("component", "channel")),
		interval: interval,
	}
}

// Register adds a stream. Streams registered after Start are picked up on the next round.
func (m *Manager) Register(stream Stream, handler Handler) {
	if stream == nil || handler == nil {
		return
	}
	m.mu.Lock()
	m.routes = append(m.routes, route{stream: stream, handler: handler})
	m.mu.Unlock()
	m.logger.Info("stream registered", slog.String("stream", stream.Name()))
}

// Start launches the polling loop. It returns immediately; Stop ends the loop.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return errors.New("channel manager already started")
	}
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running.Store(true)
	m.logger.Info("manager start", slog.Duration("interval", m.interval))
	go m.loop(loopCtx, m.done)
	return nil
}

// Stop cancels the loop and waits for the current item to finish or ctx to expire.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel = nil
	m.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		m.logger.Info("manager stop", slog.Int64("handled", m.handled.Load()), slog.Int64("failed", m.failed.Load()))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running reports whether the polling loop is active.
func (m *Manager) Running() bool {
	return m.running.Load()
}

// Counts returns the number of items handled and the number that failed.
func (m *Manager) Counts() (handled, failed int64) {
	return m.handled.Load(), m.failed.Load()
}

func (m *Manager) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer m.running.Store(false)
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		m.Round(ctx)
		timer.Reset(m.interval)
	}
}

// Round polls every stream once and handles what they returned.
func (m *Manager) Round(ctx context.Context) {
	m.mu.Lock()
	routes := append([]route(nil), m.routes...)
	m.mu.Unlock()
	for _, r := range routes {
		if ctx.Err() != nil {
			return
		}
		items, err := r.stream.Poll(ctx)
		if err != nil {
			if ctx.Err() == nil {
				m.logger.Error("poll failed", slog.String("stream", r.stream.Name()), slog.Any("error", err))
			}
			continue
		}
		for _, item := range items {
			if ctx.Err() != nil {
				return
			}
			if err := m.handle(ctx, r, item); err != nil {
				m.failed.Add(1)
				m.logger.Error("item processing failed",
					slog.String("stream", r.stream.Name()),
					slog.String("item", item.Fullname),
					slog.Any("error", err))
				continue
			}
			m.handled.Add(1)
		}
	}
}

func (m *Manager) handle(ctx context.Context, r route, item Item) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
			m.logger.Error("handler panic", slog.String("item", item.Fullname), slog.String("stack", string(debug.Stack())))
		}
	}()
	ctx = logger.WithItem(ctx, m.logger, r.stream.Name(), item.Fullname)
	return r.handler(ctx, item)
}
