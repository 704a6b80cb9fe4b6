// Package compose renders comic records into Reddit markdown replies.
package compose

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/bobbytablesbot/bobbytables/internal/catalog"
)

// MaxItems is the most comic blocks one reply carries.
const MaxItems = 10

const (
	spoilerOpen  = ">!"
	spoilerClose = "!<"
	zeroWidth    = "\u200b"
	rule         = "---"
)

// StatsReader reads reference counts.
type StatsReader interface {
	ReferenceCount(ctx context.Context, catalogID string) (int, error)
	TotalReferences(ctx context.Context) (int, error)
}

// Links holds the site roots the per-comic links are built from.
type Links struct {
	Comic   string
	Mobile  string
	Explain string
}

// Composer builds reply text.
type Composer struct {
	links  Links
	closer string
	stats  StatsReader
	logger *slog.Logger
}

// NewComposer creates a Composer. stats may be nil to render without statistics.
func NewComposer(log *slog.Logger, links Links, closer string, stats StatsReader) *Composer {
	if log == nil {
		log = slog.Default()
	}
	return &Composer{
		links: Links{
			Comic:   strings.TrimRight(links.Comic, "/"),
			Mobile:  strings.TrimRight(links.Mobile, "/"),
			Explain: strings.TrimRight(links.Explain, "/"),
		},
		closer: closer,
		stats:  stats,
		logger: log.With(slog.String("component", "composer")),
	}
}

// Render returns the markdown block for rec, with a statistics line when the
// comic has been referenced before. pending is the number of references the
// same reply records ahead of rec; they count towards the total.
func (c *Composer) Render(ctx context.Context, rec catalog.Record, pending int) (string, error) {
	id := strconv.Itoa(rec.ID)

	var b strings.Builder
	fmt.Fprintf(&b, "**[%s:](%s/%s/)** %s\n\n", id, c.links.Comic, id, rec.Title)
	fmt.Fprintf(&b, "**Alt-text:** %s%s%s\n\n", spoilerOpen, EscapeSpoiler(rec.Alt), spoilerClose)
	fmt.Fprintf(&b, "[Image](%s)\n\n", EscapeURL(rec.Img))
	fmt.Fprintf(&b, "[Mobile](%s/%s/)\n\n", c.links.Mobile, id)
	fmt.Fprintf(&b, "[Explanation](%s/%s)\n", c.links.Explain, id)

	line, err := c.statsLine(ctx, id, pending)
	if err != nil {
		return "", err
	}
	if line != "" {
		b.WriteString("\n")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (c *Composer) statsLine(ctx context.Context, id string, pending int) (string, error) {
	if c.stats == nil {
		return "", nil
	}
	count, err := c.stats.ReferenceCount(ctx, id)
	if err != nil {
		return "", fmt.Errorf("reference count for %s: %w", id, err)
	}
	if count <= 0 {
		return "", nil
	}
	total, err := c.stats.TotalReferences(ctx)
	if err != nil {
		return "", fmt.Errorf("total references: %w", err)
	}
	total += max(pending, 0)
	if total <= 0 {
		return "", nil
	}
	times := "times"
	if count == 1 {
		times = "time"
	}
	return fmt.Sprintf("This comic has been referenced %d %s, representing %s%% of all references.",
		count, times, Percent(count, total)), nil
}

// Combine joins at most MaxItems blocks and the footer into one reply.
func (c *Composer) Combine(blocks []string) string {
	if len(blocks) > MaxItems {
		c.logger.Debug("reply truncated", slog.Int("blocks", len(blocks)), slog.Int("kept", MaxItems))
		blocks = blocks[:MaxItems]
	}
	parts := make([]string, 0, len(blocks)+1)
	parts = append(parts, blocks...)
	parts = append(parts, rule+"\n\n"+c.closer)
	return strings.Join(parts, "\n")
}

// Percent formats 100*count/total rounded to two decimals.
func Percent(count, total int) string {
	if total == 0 {
		return "0.00"
	}
	p := math.Round(float64(count)*10000/float64(total)) / 100
	return strconv.FormatFloat(p, 'f', 2, 64)
}

// EscapeSpoiler keeps alt text from closing the spoiler it is wrapped in by
// putting a zero-width space in front of every "!<".
func EscapeSpoiler(alt string) string {
	return strings.ReplaceAll(alt, spoilerClose, zeroWidth+spoilerClose)
}

// EscapeURL percent-encodes every byte of raw except unreserved characters,
// "/" and ":".
func EscapeURL(raw string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if keepInURL(ch) {
			b.WriteByte(ch)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[ch>>4])
		b.WriteByte(hex[ch&0x0f])
	}
	return b.String()
}

func keepInURL(ch byte) bool {
	switch {
	case 'a' <= ch && ch <= 'z', 'A' <= ch && ch <= 'Z', '0' <= ch && ch <= '9':
		return true
	}
	switch ch {
	case '-', '_', '.', '~', '/', ':':
		return true
	}
	return false
}
