package compose

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"

	"github.com/bobbytablesbot/bobbytables/internal/catalog"
	"github.com/bobbytablesbot/bobbytables/internal/logger"
)

type fakeStats struct {
	counts map[string]int
	total  int
	err    error
}

func (f fakeStats) ReferenceCount(_ context.Context, id string) (int, error) {
	return f.counts[id], f.err
}

func (f fakeStats) TotalReferences(context.Context) (int, error) {
	return f.total, f.err
}

var testLinks = Links{
	Comic:   "https://xkcd.com/",
	Mobile:  "https://m.xkcd.com",
	Explain: "https://www.explainxkcd.com/wiki/index.php",
}

func exploits() catalog.Record {
	return catalog.Record{
		ID:    327,
		Title: "Exploits of a Mom",
		Alt:   "Her daughter is named Help I'm trapped in a driver's license factory.",
		Img:   "https://imgs.xkcd.com/comics/exploits_of_a_mom.png",
	}
}

func TestRender(t *testing.T) {
	c := NewComposer(logger.Discard(), testLinks, "^footer", nil)

	block, err := c.Render(context.Background(), exploits(), 0)
	require.NoError(t, err)

	want := "**[327:](https://xkcd.com/327/)** Exploits of a Mom\n\n" +
		"**Alt-text:** >!Her daughter is named Help I'm trapped in a driver's license factory.!<\n\n" +
		"[Image](https://imgs.xkcd.com/comics/exploits_of_a_mom.png)\n\n" +
		"[Mobile](https://m.xkcd.com/327/)\n\n" +
		"[Explanation](https://www.explainxkcd.com/wiki/index.php/327)\n"
	assert.Equal(t, want, block)
}

func TestRenderIsValidMarkdown(t *testing.T) {
	c := NewComposer(logger.Discard(), testLinks, "^footer", nil)
	rec := exploits()
	rec.Img = "https://imgs.xkcd.com/comics/a (b).png"
	block, err := c.Render(context.Background(), rec, 0)
	require.NoError(t, err)

	var html bytes.Buffer
	require.NoError(t, goldmark.Convert([]byte(c.Combine([]string{block})), &html))
	out := html.String()
	assert.Contains(t, out, `<a href="https://xkcd.com/327/">327:</a>`)
	assert.Contains(t, out, `<a href="https://imgs.xkcd.com/comics/a%20%28b%29.png">Image</a>`)
	assert.Contains(t, out, `<a href="https://m.xkcd.com/327/">Mobile</a>`)
	assert.Contains(t, out, `<a href="https://www.explainxkcd.com/wiki/index.php/327">Explanation</a>`)
	assert.Contains(t, out, "<hr")
}

func TestRenderNeutralisesSpoilerClose(t *testing.T) {
	c := NewComposer(logger.Discard(), testLinks, "", nil)
	rec := exploits()
	rec.Alt = "sneaky !< ending and another!<"

	block, err := c.Render(context.Background(), rec, 0)
	require.NoError(t, err)

	assert.Contains(t, block, ">!sneaky \u200b!< ending and another\u200b!<!<")
	// Only the real closing marker is not preceded by the zero-width space.
	assert.Equal(t, 1, strings.Count(block, "!<")-strings.Count(block, "\u200b!<"))
}

func TestRenderEscapesImageURL(t *testing.T) {
	c := NewComposer(logger.Discard(), testLinks, "", nil)
	rec := exploits()
	rec.Img = "https://imgs.xkcd.com/comics/a b(c)é.png"

	block, err := c.Render(context.Background(), rec, 0)
	require.NoError(t, err)
	assert.Contains(t, block, "[Image](https://imgs.xkcd.com/comics/a%20b%28c%29%C3%A9.png)")
}

func TestRenderStatistics(t *testing.T) {
	stats := fakeStats{counts: map[string]int{"327": 3, "1": 1}, total: 7}
	c := NewComposer(logger.Discard(), testLinks, "", stats)

	block, err := c.Render(context.Background(), exploits(), 0)
	require.NoError(t, err)
	assert.Contains(t, block, "referenced 3 times, representing 42.86% of all references.")

	rec := exploits()
	rec.ID = 1
	block, err = c.Render(context.Background(), rec, 0)
	require.NoError(t, err)
	assert.Contains(t, block, "referenced 1 time, representing 14.29%")
}

func TestRenderCountsPendingReferences(t *testing.T) {
	stats := fakeStats{counts: map[string]int{"327": 3}, total: 7}
	c := NewComposer(logger.Discard(), testLinks, "", stats)

	block, err := c.Render(context.Background(), exploits(), 3)
	require.NoError(t, err)
	assert.Contains(t, block, "referenced 3 times, representing 30.00% of all references.")
}

func TestRenderOmitsStatisticsWhenUnreferenced(t *testing.T) {
	for _, stats := range []fakeStats{
		{counts: map[string]int{}, total: 12},
		{counts: map[string]int{"327": 2}, total: 0},
	} {
		c := NewComposer(logger.Discard(), testLinks, "", stats)
		block, err := c.Render(context.Background(), exploits(), 0)
		require.NoError(t, err)
		assert.NotContains(t, block, "referenced")
	}
}

func TestRenderStatisticsError(t *testing.T) {
	c := NewComposer(logger.Discard(), testLinks, "", fakeStats{err: errors.New("db down")})
	_, err := c.Render(context.Background(), exploits(), 0)
	assert.Error(t, err)
}

func TestCombineTruncates(t *testing.T) {
	c := NewComposer(logger.Discard(), testLinks, "^closing", nil)

	blocks := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		blocks = append(blocks, "block-"+strconv.Itoa(i)+"\n")
	}
	out := c.Combine(blocks)

	for i := 0; i < MaxItems; i++ {
		assert.Contains(t, out, "block-"+strconv.Itoa(i)+"\n")
	}
	assert.NotContains(t, out, "block-10")
	assert.Equal(t, MaxItems, strings.Count(out, "block-"))
	assert.True(t, strings.HasSuffix(out, "---\n\n^closing"))
	assert.Len(t, blocks, 25, "input must not be modified")
}

func TestCombineSingle(t *testing.T) {
	c := NewComposer(logger.Discard(), testLinks, "^closing", nil)
	assert.Equal(t, "a\n\n---\n\n^closing", c.Combine([]string{"a\n"}))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "50.00", Percent(1, 2))
	assert.Equal(t, "33.33", Percent(1, 3))
	assert.Equal(t, "66.67", Percent(2, 3))
	assert.Equal(t, "100.00", Percent(4, 4))
	assert.Equal(t, "0.00", Percent(1, 0))
}

func TestEscapeURL(t *testing.T) {
	assert.Equal(t, "https://a.b/c-d_e.f~g", EscapeURL("https://a.b/c-d_e.f~g"))
	assert.Equal(t, "https://a.b/x%3Fy%3D1%26z%23f", EscapeURL("https://a.b/x?y=1&z#f"))
}
