package reddit

import (
	"strings"

	"github.com/bobbytablesbot/bobbytables/internal/channel"
)

type listing struct {
	Data struct {
		Children []thing `json:"children"`
	} `json:"data"`
}

type thing struct {
	Kind string    `json:"kind"`
	Data thingData `json:"data"`
}

type thingData struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Author     string `json:"author"`
	Body       string `json:"body"`
	Title      string `json:"title"`
	Selftext   string `json:"selftext"`
	Subject    string `json:"subject"`
	Subreddit  string `json:"subreddit"`
	Saved      bool   `json:"saved"`
	WasComment bool   `json:"was_comment"`
}

// item converts a listing child; ok is false for kinds the bot does not handle.
func (t thing) item() (channel.Item, bool) {
	kind := channel.ItemKind(t.Kind)
	d := t.Data
	it := channel.Item{
		ID:         d.ID,
		Fullname:   d.Name,
		Kind:       kind,
		Author:     d.Author,
		Saved:      d.Saved,
		Subreddit:  d.Subreddit,
		Subject:    d.Subject,
		WasComment: d.WasComment,
	}
	if it.Fullname == "" {
		it.Fullname = channel.Fullname(kind, d.ID)
	}
	switch kind {
	case channel.KindComment, channel.KindMessage:
		it.Text = d.Body
	case channel.KindSubmission:
		it.Text = strings.TrimSpace(d.Title + "\n\n" + d.Selftext)
	default:
		return channel.Item{}, false
	}
	return it, true
}

type apiResponse struct {
	JSON struct {
		Errors [][]any `json:"errors"`
	} `json:"json"`
}
