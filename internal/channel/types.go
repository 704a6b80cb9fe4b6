package channel

import "strings"

// ItemKind is the thing-type prefix of a Reddit fullname.
type ItemKind string

const (
	KindComment    ItemKind = "t1"
	KindSubmission ItemKind = "t3"
	KindMessage    ItemKind = "t4"
)

// String returns the kind name used in logs.
func (k ItemKind) String() string {
	switch k {
	case KindComment:
		return "comment"
	case KindSubmission:
		return "submission"
	case KindMessage:
		return "message"
	default:
		return string(k)
	}
}

// SubjectMention is the inbox subject Reddit gives a username mention.
const SubjectMention = "username mention"

// DeletedAuthor is the author Reddit reports for removed accounts.
const DeletedAuthor = "[deleted]"

// Item is one element of a stream: a comment, a submission or an inbox message.
type Item struct {
	ID        string
	Fullname  string
	Kind      ItemKind
	Author    string
	Text      string
	Saved     bool
	Subreddit string
	// Subject is set for inbox items; SubjectMention marks a mention.
	Subject string
	// WasComment is set for inbox items that are replies or mentions in a thread.
	WasComment bool
}

// AuthorDeleted reports whether the item has no usable author.
func (i Item) AuthorDeleted() bool {
	author := strings.TrimSpace(i.Author)
	return author == "" || author == DeletedAuthor
}

// Fullname builds "<kind>_<id>".
func Fullname(kind ItemKind, id string) string {
	return string(kind) + "_" + id
}
