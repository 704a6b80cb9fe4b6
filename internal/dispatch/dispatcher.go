// Package dispatch decides whether and how the bot answers one stream item.
//
// Plan is the side-effect-free half: it checks the author, resolves the
// references in the text and composes the reply. Handle executes a plan
// against the store and the platform.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/bobbytablesbot/bobbytables/internal/catalog"
	"github.com/bobbytablesbot/bobbytables/internal/channel"
	"github.com/bobbytablesbot/bobbytables/internal/compose"
	"github.com/bobbytablesbot/bobbytables/internal/logger"
	"github.com/bobbytablesbot/bobbytables/internal/resolver"
)

// MaxReplyLength is the first reply length that is never posted.
const MaxReplyLength = 10000

// answeredCapacity bounds how many handled fullnames the dispatcher remembers.
const answeredCapacity = 1000

// Skip is the reason an item got no reply.
type Skip string

const (
	SkipNone         Skip = ""
	SkipDeleted      Skip = "deleted author"
	SkipSelf         Skip = "own item"
	SkipSaved        Skip = "already saved"
	SkipBlacklisted  Skip = "blacklisted author"
	SkipNoReferences Skip = "no references"
	SkipTooLong      Skip = "reply too long"
)

// Resolver finds the comic identifiers and title tokens in text.
type Resolver interface {
	ResolveNumbers(ctx context.Context, text string, strict bool) ([]string, error)
	ResolveTitles(text string) []string
}

// Fetcher looks up a comic.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (catalog.Record, bool, error)
}

// Composer renders records and joins them into a reply.
type Composer interface {
	Render(ctx context.Context, rec catalog.Record, pending int) (string, error)
	Combine(blocks []string) string
}

// Store is the persistence the dispatcher needs.
type Store interface {
	IsBlacklisted(ctx context.Context, username string) (bool, error)
	RecordReference(ctx context.Context, itemID, catalogID string) error
	LookupTitle(ctx context.Context, normalized string) (int, bool, error)
}

// Plan is what the bot would do with an item.
type Plan struct {
	Skipped Skip
	Strict  bool
	// Identifiers are the comics that made it into the reply, in order.
	Identifiers []string
	Reply       string
}

// Outcome is what Handle did.
type Outcome struct {
	Skipped     Skip
	Replied     bool
	Saved       bool
	Identifiers []string
}

// Dispatcher answers items for one bot account.
type Dispatcher struct {
	username string
	resolver Resolver
	fetcher  Fetcher
	composer Composer
	store    Store
	platform channel.Platform
	answered *answeredSet
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher replying as username. Items from every
// stream should share one Dispatcher so an item seen twice, such as a mention
// in a watched subreddit, is answered once.
func NewDispatcher(log *slog.Logger, username string, r Resolver, f Fetcher, c Composer, s Store, p channel.Platform) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		username: strings.TrimSpace(username),
		resolver: r,
		fetcher:  f,
		composer: c,
		store:    s,
		platform: p,
		answered: newAnsweredSet(answeredCapacity),
		logger:   log.With(slog.String("component", "dispatcher")),
	}
}

// HandleItem handles an item from a subreddit stream.
func (d *Dispatcher) HandleItem(ctx context.Context, item channel.Item) error {
	_, err := d.Handle(ctx, item, false)
	return err
}

// Handle plans a reply for item, records the references it contains, then
// replies and marks the item saved. A reply of MaxReplyLength or more is not
// posted; the item is only marked saved.
func (d *Dispatcher) Handle(ctx context.Context, item channel.Item, direct bool) (Outcome, error) {
	log := logger.FromContext(ctx, d.logger)

	plan, err := d.Plan(ctx, item, direct)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Skipped: plan.Skipped, Identifiers: plan.Identifiers}
	if plan.Skipped != SkipNone {
		log.Debug("item skipped", slog.String("reason", string(plan.Skipped)))
		return out, nil
	}

	for _, id := range plan.Identifiers {
		if err := d.store.RecordReference(ctx, item.ID, id); err != nil {
			return out, fmt.Errorf("record reference %s: %w", id, err)
		}
	}

	if len(plan.Reply) >= MaxReplyLength {
		log.Warn("reply too long, saving only", slog.Int("length", len(plan.Reply)))
		out.Skipped = SkipTooLong
	} else {
		if err := d.platform.Reply(ctx, item, plan.Reply); err != nil {
			return out, fmt.Errorf("reply: %w", err)
		}
		out.Replied = true
	}
	if err := d.platform.MarkSaved(ctx, item); err != nil {
		return out, fmt.Errorf("mark saved: %w", err)
	}
	out.Saved = true
	d.answered.add(answerKey(item))
	log.Info("item answered",
		slog.Bool("replied", out.Replied),
		slog.String("comics", strings.Join(plan.Identifiers, ",")))
	return out, nil
}

// Plan composes the reply for item without touching the platform or
// recording anything. Matching is strict unless direct is set or the text
// mentions the bot by name.
func (d *Dispatcher) Plan(ctx context.Context, item channel.Item, direct bool) (Plan, error) {
	if skip, err := d.check(ctx, item); err != nil || skip != SkipNone {
		return Plan{Skipped: skip}, err
	}
	strict := !direct && !d.mentioned(item.Text)
	return d.plan(ctx, item.Text, strict)
}

// PlanText composes the reply for free text, as if posted by someone else.
func (d *Dispatcher) PlanText(ctx context.Context, text string, strict bool) (Plan, error) {
	return d.plan(ctx, text, strict)
}

func (d *Dispatcher) plan(ctx context.Context, text string, strict bool) (Plan, error) {
	log := logger.FromContext(ctx, d.logger)
	plan := Plan{Strict: strict}

	ids, err := d.resolver.ResolveNumbers(ctx, text, strict)
	if err != nil {
		return plan, fmt.Errorf("resolve numbers: %w", err)
	}
	titles := d.resolver.ResolveTitles(text)

	var blocks []string
	answered := map[string]struct{}{}
	add := func(id string) error {
		rec, ok, err := d.fetcher.Fetch(ctx, id)
		if err != nil {
			log.Warn("catalog fetch failed", slog.String("comic", id), slog.Any("error", err))
			return nil
		}
		if !ok {
			return nil
		}
		block, err := d.composer.Render(ctx, rec, len(blocks))
		if err != nil {
			return fmt.Errorf("render %s: %w", id, err)
		}
		blocks = append(blocks, block)
		answered[id] = struct{}{}
		plan.Identifiers = append(plan.Identifiers, id)
		return nil
	}

	for _, id := range ids {
		if len(blocks) >= compose.MaxItems {
			break
		}
		if err := add(id); err != nil {
			return plan, err
		}
	}
	for _, title := range titles {
		if len(blocks) >= compose.MaxItems {
			break
		}
		num, ok, err := d.store.LookupTitle(ctx, resolver.NormalizeTitle(title))
		if err != nil {
			return plan, fmt.Errorf("lookup title: %w", err)
		}
		if !ok {
			continue
		}
		id := strconv.Itoa(num)
		if _, dup := answered[id]; dup {
			continue
		}
		if err := add(id); err != nil {
			return plan, err
		}
	}

	if len(blocks) == 0 {
		plan.Skipped = SkipNoReferences
		return plan, nil
	}
	plan.Reply = d.composer.Combine(blocks)
	return plan, nil
}

func (d *Dispatcher) check(ctx context.Context, item channel.Item) (Skip, error) {
	switch {
	case item.AuthorDeleted():
		return SkipDeleted, nil
	case d.username != "" && strings.EqualFold(item.Author, d.username):
		return SkipSelf, nil
	case item.Saved, d.answered.has(answerKey(item)):
		return SkipSaved, nil
	}
	listed, err := d.store.IsBlacklisted(ctx, item.Author)
	if err != nil {
		return SkipNone, fmt.Errorf("blacklist lookup: %w", err)
	}
	if listed {
		return SkipBlacklisted, nil
	}
	return SkipNone, nil
}

func (d *Dispatcher) mentioned(text string) bool {
	return d.username != "" && strings.Contains(strings.ToLower(text), strings.ToLower(d.username))
}

func answerKey(item channel.Item) string {
	if item.Fullname != "" {
		return item.Fullname
	}
	return item.ID
}

// answeredSet remembers the most recent items the dispatcher saved. Inbox
// listings carry no saved flag, so this is how a mention already answered
// from a subreddit stream is recognised.
type answeredSet struct {
	mu       sync.Mutex
	capacity int
	keys     map[string]struct{}
	order    []string
}

func newAnsweredSet(capacity int) *answeredSet {
	return &answeredSet{capacity: capacity, keys: make(map[string]struct{}, capacity)}
}

func (s *answeredSet) has(key string) bool {
	if key == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[key]
	return ok
}

func (s *answeredSet) add(key string) {
	if key == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key]; ok {
		return
	}
	if len(s.order) >= s.capacity {
		delete(s.keys, s.order[0])
		s.order = s.order[1:]
	}
	s.keys[key] = struct{}{}
	s.order = append(s.order, key)
}
