package reddit

import (
	"context"
	"log/slog"
	"sync"

	"github.com/bobbytablesbot/bobbytables/internal/channel"
	"github.com/bobbytablesbot/bobbytables/internal/channel/adapters/adapterutil"
)

// Stream names.
const (
	StreamComments    = "comments"
	StreamSubmissions = "submissions"
	StreamInbox       = "inbox"
)

// Stream polls one listing and yields each item once.
type Stream struct {
	client       *Client
	name         string
	path         string
	skipExisting bool
	seen         *seenSet
	logger       *slog.Logger

	mu      sync.Mutex
	started bool
}

var _ channel.Stream = (*Stream)(nil)

// Comments streams new comments in subreddits ("a+b"), skipping those posted before the first poll.
func (c *Client) Comments(subreddits string) *Stream {
	return c.newStream(StreamComments, "/r/"+subreddits+"/comments", true)
}

// Submissions streams new submissions in subreddits, skipping those posted before the first poll.
func (c *Client) Submissions(subreddits string) *Stream {
	return c.newStream(StreamSubmissions, "/r/"+subreddits+"/new", true)
}

// Inbox streams unread inbox items, including the backlog present at startup.
func (c *Client) Inbox() *Stream {
	return c.newStream(StreamInbox, "/message/unread", false)
}

func (c *Client) newStream(name, path string, skipExisting bool) *Stream {
	return &Stream{
		client:       c,
		name:         name,
		path:         path,
		skipExisting: skipExisting,
		seen:         newSeenSet(DefaultSeenCapacity),
		logger:       c.logger.With(slog.String("stream", name)),
	}
}

func (s *Stream) Name() string {
	return s.name
}

func (s *Stream) Poll(ctx context.Context) ([]channel.Item, error) {
	items, err := s.client.listing(ctx, s.path, DefaultListingLimit)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	first := !s.started
	s.started = true

	fresh := make([]channel.Item, 0, len(items))
	for _, it := range items {
		if !s.seen.add(it.Fullname) {
			continue
		}
		if first && s.skipExisting {
			continue
		}
		s.logger.Debug("item received",
			slog.String("item", it.Fullname),
			slog.String("author", it.Author),
			slog.String("text", adapterutil.SummarizeText(it.Text)))
		fresh = append(fresh, it)
	}
	return fresh, nil
}

// seenSet remembers the most recent fullnames, evicting the oldest.
type seenSet struct {
	capacity int
	order    []string
	members  map[string]struct{}
}

func newSeenSet(capacity int) *seenSet {
	return &seenSet{capacity: capacity, members: make(map[string]struct{}, capacity)}
}

// add returns false if key was already present.
func (s *seenSet) add(key string) bool {
	if _, ok := s.members[key]; ok {
		return false
	}
	if len(s.order) >= s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.members, oldest)
	}
	s.order = append(s.order, key)
	s.members[key] = struct{}{}
	return true
}
