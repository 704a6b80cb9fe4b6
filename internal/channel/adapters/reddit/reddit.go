// Package reddit talks to the Reddit OAuth API: it polls listings as
// channel streams and posts replies.
package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/bobbytablesbot/bobbytables/internal/channel"
	"github.com/bobbytablesbot/bobbytables/internal/channel/adapters/adapterutil"
)

// ErrAPI marks a request Reddit answered with an error.
var ErrAPI = errors.New("reddit api error")

// APIError describes a failed API call.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("reddit api: status %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return ErrAPI }

var _ channel.Platform = (*Client)(nil)

// Client is an authenticated, rate-limited Reddit API client.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewClient(log *slog.Logger, cfg Config) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	cfg, err := cfg.normalized()
	if err != nil {
		return nil, err
	}
	return &Client{
		cfg:     cfg,
		http:    newHTTPClient(cfg),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:  log.With(slog.String("adapter", "reddit"), slog.String("username", cfg.Username)),
	}, nil
}

// Username is the bot account name.
func (c *Client) Username() string {
	return c.cfg.Username
}

// Reply posts text as a reply to item.
func (c *Client) Reply(ctx context.Context, item channel.Item, text string) error {
	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("thing_id", item.Fullname)
	form.Set("text", text)
	if err := c.post(ctx, "/api/comment", form); err != nil {
		return err
	}
	c.logger.Info("reply posted", slog.String("item", item.Fullname), slog.Int("length", len(text)))
	return nil
}

// MarkSaved saves comments and submissions; inbox messages cannot be saved
// and are marked read instead.
func (c *Client) MarkSaved(ctx context.Context, item channel.Item) error {
	form := url.Values{}
	form.Set("id", item.Fullname)
	if item.Kind == channel.KindMessage {
		return c.post(ctx, "/api/read_message", form)
	}
	return c.post(ctx, "/api/save", form)
}

// MarkRead marks an inbox item read.
func (c *Client) MarkRead(ctx context.Context, item channel.Item) error {
	form := url.Values{}
	form.Set("id", item.Fullname)
	return c.post(ctx, "/api/read_message", form)
}

func (c *Client) listing(ctx context.Context, path string, limit int) ([]channel.Item, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("raw_json", "1")
	var l listing
	if err := c.do(ctx, http.MethodGet, path+"?"+q.Encode(), nil, &l); err != nil {
		return nil, err
	}
	items := make([]channel.Item, 0, len(l.Data.Children))
	// Listings are newest first.
	for i := len(l.Data.Children) - 1; i >= 0; i-- {
		it, ok := l.Data.Children[i].item()
		if !ok {
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

func (c *Client) post(ctx context.Context, path string, form url.Values) error {
	var resp apiResponse
	if err := c.do(ctx, http.MethodPost, path, form, &resp); err != nil {
		return err
	}
	if len(resp.JSON.Errors) > 0 {
		parts := make([]string, 0, len(resp.JSON.Errors))
		for _, e := range resp.JSON.Errors {
			parts = append(parts, fmt.Sprint(e...))
		}
		return &APIError{Status: http.StatusOK, Message: strings.Join(parts, "; ")}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.APIURL+path, body)
	if err != nil {
		return err
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("reddit %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read reddit response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: adapterutil.SummarizeText(string(data))}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode reddit response: %w", err)
	}
	return nil
}
