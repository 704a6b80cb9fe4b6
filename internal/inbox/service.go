// Package inbox handles the bot's unread inbox: opt-out commands, username
// mentions and direct messages.
package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bobbytablesbot/bobbytables/internal/channel"
	"github.com/bobbytablesbot/bobbytables/internal/dispatch"
	"github.com/bobbytablesbot/bobbytables/internal/logger"
)

// Commands recognised in a message body, compared case-insensitively.
const (
	CommandIgnore   = "ignore me"
	CommandUnignore = "unignore me"
)

// Blacklist is the part of the store the opt-out commands change.
type Blacklist interface {
	AddBlacklist(ctx context.Context, username string) error
	RemoveBlacklist(ctx context.Context, username string) error
}

// Dispatcher answers an item.
type Dispatcher interface {
	Handle(ctx context.Context, item channel.Item, direct bool) (dispatch.Outcome, error)
}

// Reader marks inbox items read.
type Reader interface {
	MarkRead(ctx context.Context, item channel.Item) error
}

// Service handles items from the inbox stream.
type Service struct {
	blacklist  Blacklist
	dispatcher Dispatcher
	reader     Reader
	logger     *slog.Logger
}

// NewService creates a Service. dispatcher should be the one the subreddit
// streams use.
func NewService(log *slog.Logger, blacklist Blacklist, dispatcher Dispatcher, reader Reader) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		blacklist:  blacklist,
		dispatcher: dispatcher,
		reader:     reader,
		logger:     log.With(slog.String("service", "inbox")),
	}
}

// HandleItem runs an opt-out command or answers the item, then marks it read.
// Private messages and username mentions are matched loosely; comment replies
// need the same prefixes as subreddit comments.
func (s *Service) HandleItem(ctx context.Context, item channel.Item) error {
	log := logger.FromContext(ctx, s.logger)

	if !item.AuthorDeleted() {
		switch Command(item.Text) {
		case CommandIgnore:
			if err := s.blacklist.AddBlacklist(ctx, item.Author); err != nil {
				return fmt.Errorf("ignore %s: %w", item.Author, err)
			}
			log.Info("user opted out", slog.String("author", item.Author))
			return s.markRead(ctx, item)
		case CommandUnignore:
			if err := s.blacklist.RemoveBlacklist(ctx, item.Author); err != nil {
				return fmt.Errorf("unignore %s: %w", item.Author, err)
			}
			log.Info("user opted in", slog.String("author", item.Author))
			return s.markRead(ctx, item)
		}
	}

	out, err := s.dispatcher.Handle(ctx, item, Direct(item))
	if err != nil {
		return err
	}
	if out.Skipped != dispatch.SkipNone {
		log.Debug("inbox item not answered", slog.String("reason", string(out.Skipped)))
	}
	return s.markRead(ctx, item)
}

func (s *Service) markRead(ctx context.Context, item channel.Item) error {
	if err := s.reader.MarkRead(ctx, item); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

// Direct reports whether item was addressed to the bot: a private message or
// a username mention.
func Direct(item channel.Item) bool {
	return item.Kind == channel.KindMessage || strings.EqualFold(strings.TrimSpace(item.Subject), channel.SubjectMention)
}

// Command returns the opt-out command in body, or "" if body is not one.
func Command(body string) string {
	switch strings.ToLower(strings.TrimSpace(body)) {
	case CommandIgnore:
		return CommandIgnore
	case CommandUnignore:
		return CommandUnignore
	default:
		return ""
	}
}
