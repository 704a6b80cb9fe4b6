package channel

import "context"

// Platform performs the side effects the bot has on the forum.
type Platform interface {
	Reply(ctx context.Context, item Item, text string) error
	// MarkSaved flags item as handled; saved items are never answered twice.
	MarkSaved(ctx context.Context, item Item) error
}

// Stream yields items that arrived since the previous Poll.
type Stream interface {
	Name() string
	Poll(ctx context.Context) ([]Item, error)
}

// Handler processes one item.
type Handler func(ctx context.Context, item Item) error
