package inbox

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobbytablesbot/bobbytables/internal/catalog"
	"github.com/bobbytablesbot/bobbytables/internal/channel"
	"github.com/bobbytablesbot/bobbytables/internal/compose"
	"github.com/bobbytablesbot/bobbytables/internal/dispatch"
	"github.com/bobbytablesbot/bobbytables/internal/logger"
	"github.com/bobbytablesbot/bobbytables/internal/resolver"
)

type fakeBlacklist struct {
	added, removed []string
}

func (b *fakeBlacklist) AddBlacklist(_ context.Context, u string) error {
	b.added = append(b.added, u)
	return nil
}

func (b *fakeBlacklist) RemoveBlacklist(_ context.Context, u string) error {
	b.removed = append(b.removed, u)
	return nil
}

type fakeDispatcher struct {
	direct []bool
	err    error
}

func (d *fakeDispatcher) Handle(_ context.Context, _ channel.Item, direct bool) (dispatch.Outcome, error) {
	d.direct = append(d.direct, direct)
	return dispatch.Outcome{Replied: true, Saved: true}, d.err
}

type fakeReader struct {
	read []string
}

func (r *fakeReader) MarkRead(_ context.Context, item channel.Item) error {
	r.read = append(r.read, item.Fullname)
	return nil
}

func message(text string) channel.Item {
	return channel.Item{ID: "m1", Fullname: "t4_m1", Kind: channel.KindMessage, Author: "alice", Text: text}
}

func TestCommand(t *testing.T) {
	assert.Equal(t, CommandIgnore, Command("  Ignore Me\n"))
	assert.Equal(t, CommandUnignore, Command("UNIGNORE ME"))
	assert.Equal(t, "", Command("please ignore me"))
}

func TestHandleIgnore(t *testing.T) {
	bl, d, r := &fakeBlacklist{}, &fakeDispatcher{}, &fakeReader{}
	s := NewService(logger.Discard(), bl, d, r)

	require.NoError(t, s.HandleItem(context.Background(), message("Ignore me")))
	assert.Equal(t, []string{"alice"}, bl.added)
	assert.Empty(t, d.direct)
	assert.Equal(t, []string{"t4_m1"}, r.read)

	require.NoError(t, s.HandleItem(context.Background(), message("unignore me")))
	assert.Equal(t, []string{"alice"}, bl.removed)
}

func TestHandleDispatchesDirect(t *testing.T) {
	bl, d, r := &fakeBlacklist{}, &fakeDispatcher{}, &fakeReader{}
	s := NewService(logger.Discard(), bl, d, r)

	mention := channel.Item{ID: "x", Fullname: "t1_x", Kind: channel.KindComment, Author: "bob",
		Text: "u/BobbyTablesBot 327", Subject: channel.SubjectMention, WasComment: true}
	require.NoError(t, s.HandleItem(context.Background(), mention))
	assert.Equal(t, []bool{true}, d.direct)
	assert.Equal(t, []string{"t1_x"}, r.read)
	assert.Empty(t, bl.added)
}

func TestHandleDispatchErrorLeavesUnread(t *testing.T) {
	d := &fakeDispatcher{err: errors.New("db down")}
	r := &fakeReader{}
	s := NewService(logger.Discard(), &fakeBlacklist{}, d, r)

	assert.Error(t, s.HandleItem(context.Background(), message("show me 42")))
	assert.Empty(t, r.read)
}

func TestDeletedAuthorCannotOptOut(t *testing.T) {
	bl, d, r := &fakeBlacklist{}, &fakeDispatcher{}, &fakeReader{}
	s := NewService(logger.Discard(), bl, d, r)

	item := message("ignore me")
	item.Author = "[deleted]"
	require.NoError(t, s.HandleItem(context.Background(), item))
	assert.Empty(t, bl.added)
	assert.Len(t, d.direct, 1)
}

func TestDirect(t *testing.T) {
	tests := []struct {
		name string
		item channel.Item
		want bool
	}{
		{"private message", message("show 42"), true},
		{"mention", channel.Item{Kind: channel.KindComment, Subject: "Username Mention", WasComment: true}, true},
		{"comment reply", channel.Item{Kind: channel.KindComment, Subject: "comment reply", WasComment: true}, false},
		{"post reply", channel.Item{Kind: channel.KindComment, Subject: "post reply", WasComment: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Direct(tt.item))
		})
	}
}

type catalogStub struct{}

func (catalogStub) Fetch(_ context.Context, id string) (catalog.Record, bool, error) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return catalog.Record{}, false, nil
	}
	return catalog.Record{ID: n, Title: "Comic " + id, Img: "https://imgs.xkcd.com/comics/" + id + ".png"}, true, nil
}

type memoryStore struct{ refs int }

func (*memoryStore) IsBlacklisted(context.Context, string) (bool, error) { return false, nil }

func (s *memoryStore) RecordReference(context.Context, string, string) error {
	s.refs++
	return nil
}

func (*memoryStore) LookupTitle(context.Context, string) (int, bool, error) { return 0, false, nil }

type platformStub struct {
	replies []string
}

func (p *platformStub) Reply(_ context.Context, item channel.Item, _ string) error {
	p.replies = append(p.replies, item.Fullname)
	return nil
}

func (*platformStub) MarkSaved(context.Context, channel.Item) error { return nil }

func newDispatcher(p *platformStub) *dispatch.Dispatcher {
	log := logger.Discard()
	return dispatch.NewDispatcher(log, "BobbyTablesBot",
		resolver.NewResolver(log, nil),
		catalogStub{},
		compose.NewComposer(log, compose.Links{Comic: "https://xkcd.com"}, "", nil),
		&memoryStore{},
		p,
	)
}

func TestCommentReplyNeedsPrefix(t *testing.T) {
	p, r := &platformStub{}, &fakeReader{}
	s := NewService(logger.Discard(), &fakeBlacklist{}, newDispatcher(p), r)

	reply := channel.Item{ID: "r1", Fullname: "t1_r1", Kind: channel.KindComment, Author: "bob",
		Text: "that was 42", Subject: "comment reply", WasComment: true}
	require.NoError(t, s.HandleItem(context.Background(), reply))
	assert.Empty(t, p.replies)
	assert.Equal(t, []string{"t1_r1"}, r.read)

	reply.ID, reply.Fullname, reply.Text = "r2", "t1_r2", "that was !42"
	require.NoError(t, s.HandleItem(context.Background(), reply))
	assert.Equal(t, []string{"t1_r2"}, p.replies)
}

func TestMentionInWatchedSubredditAnsweredOnce(t *testing.T) {
	p, r := &platformStub{}, &fakeReader{}
	d := newDispatcher(p)
	s := NewService(logger.Discard(), &fakeBlacklist{}, d, r)

	fromSubreddit := channel.Item{ID: "m1", Fullname: "t1_m1", Kind: channel.KindComment, Author: "bob",
		Text: "u/BobbyTablesBot !327", Subreddit: "xkcd"}
	require.NoError(t, d.HandleItem(context.Background(), fromSubreddit))

	fromInbox := fromSubreddit
	fromInbox.Subject = channel.SubjectMention
	fromInbox.WasComment = true
	require.NoError(t, s.HandleItem(context.Background(), fromInbox))

	assert.Equal(t, []string{"t1_m1"}, p.replies)
	assert.Equal(t, []string{"t1_m1"}, r.read)
}
