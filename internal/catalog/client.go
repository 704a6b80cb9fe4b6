// Package catalog fetches comic metadata from the xkcd JSON API.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// NotFoundID is the identifier the archive deliberately leaves empty. It is
// answered locally instead of asking the remote.
const NotFoundID = 404

// NotFoundImage is shown for NotFoundID.
const NotFoundImage = "https://www.explainxkcd.com/wiki/images/9/92/not_found.png"

// ErrEmptyBody is returned by decode when the remote answered 2xx with no content.
var ErrEmptyBody = errors.New("catalog: empty response body")

// Record is one comic's metadata.
type Record struct {
	ID        int    `json:"num"`
	Title     string `json:"title"`
	SafeTitle string `json:"safe_title"`
	Alt       string `json:"alt"`
	Img       string `json:"img"`
}

// NotFound returns the synthesized record for NotFoundID.
func NotFound() Record {
	return Record{
		ID:        NotFoundID,
		Title:     "Not Found",
		SafeTitle: "Not Found",
		Alt:       "\u00a0",
		Img:       NotFoundImage,
	}
}

// Client talks to the archive over HTTP. It keeps no cache: every call hits the remote.
type Client struct {
	baseURL string
	logger  *slog.Logger
	http    *http.Client
}

// NewClient creates a client for baseURL (e.g. https://xkcd.com).
func NewClient(log *slog.Logger, baseURL string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("catalog client: base url is required")
	}
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  log.With(slog.String("client", "catalog")),
		http: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Fetch returns the record for id. ok is false when the comic does not exist or
// the remote gave no usable answer; err is only set for transport failures.
func (c *Client) Fetch(ctx context.Context, id string) (Record, bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Record{}, false, nil
	}
	if id == strconv.Itoa(NotFoundID) {
		return NotFound(), true, nil
	}
	return c.get(ctx, c.baseURL+"/"+id+"/info.0.json")
}

// FetchLatest returns the identifier of the newest comic.
func (c *Client) FetchLatest(ctx context.Context) (int, bool, error) {
	rec, ok, err := c.get(ctx, c.baseURL+"/info.0.json")
	if err != nil || !ok {
		return 0, ok, err
	}
	if rec.ID <= 0 {
		return 0, false, nil
	}
	return rec.ID, true, nil
}

func (c *Client) get(ctx context.Context, url string) (Record, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Record{}, false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Record{}, false, fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.logger.Debug("comic not found", slog.String("url", url))
		return Record{}, false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("unexpected catalog status", slog.String("url", url), slog.Int("status", resp.StatusCode))
		return Record{}, false, nil
	}

	rec, err := decode(resp.Body)
	if err != nil {
		c.logger.Warn("unusable catalog response", slog.String("url", url), slog.Any("error", err))
		return Record{}, false, nil
	}
	return rec, true, nil
}

func decode(r io.Reader) (Record, error) {
	body, err := io.ReadAll(io.LimitReader(r, 1<<20))
	if err != nil {
		return Record{}, err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return Record{}, ErrEmptyBody
	}
	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return Record{}, fmt.Errorf("decode catalog record: %w", err)
	}
	return rec, nil
}
