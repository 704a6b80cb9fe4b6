package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobbytablesbot/bobbytables/internal/logger"
)

const exploitsOfAMom = `{"month": "10", "num": 327, "link": "", "year": "2007", "news": "",
"safe_title": "Exploits of a Mom", "alt": "Her daughter is named Help I'm trapped in a driver's license factory.",
"img": "https://imgs.xkcd.com/comics/exploits_of_a_mom.png", "title": "Exploits of a Mom", "day": "10"}`

func newTestServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		switch r.URL.Path {
		case "/327/info.0.json":
			_, _ = w.Write([]byte(exploitsOfAMom))
		case "/info.0.json":
			_, _ = w.Write([]byte(`{"num": 3000, "title": "Latest"}`))
		case "/500/info.0.json":
			w.WriteHeader(http.StatusInternalServerError)
		case "/7/info.0.json":
			w.WriteHeader(http.StatusOK)
		case "/8/info.0.json":
			_, _ = w.Write([]byte(`<html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch(t *testing.T) {
	srv := newTestServer(t, nil)
	client, err := NewClient(logger.Discard(), srv.URL+"/", time.Second)
	require.NoError(t, err)

	rec, ok, err := client.Fetch(context.Background(), "327")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Record{
		ID:        327,
		Title:     "Exploits of a Mom",
		SafeTitle: "Exploits of a Mom",
		Alt:       "Her daughter is named Help I'm trapped in a driver's license factory.",
		Img:       "https://imgs.xkcd.com/comics/exploits_of_a_mom.png",
	}, rec)
}

func TestFetchAbsent(t *testing.T) {
	srv := newTestServer(t, nil)
	client, err := NewClient(logger.Discard(), srv.URL, time.Second)
	require.NoError(t, err)

	for _, id := range []string{"-1", "999999", "500", "7", "8", ""} {
		_, ok, err := client.Fetch(context.Background(), id)
		assert.NoError(t, err, id)
		assert.False(t, ok, id)
	}
}

func TestFetchNotFoundSentinelIsLocal(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits)
	client, err := NewClient(logger.Discard(), srv.URL, time.Second)
	require.NoError(t, err)

	rec, ok, err := client.Fetch(context.Background(), "404")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, NotFound(), rec)
	assert.Equal(t, NotFoundID, rec.ID)
	assert.Equal(t, "Not Found", rec.Title)
	assert.Equal(t, int32(0), hits.Load())
}

func TestFetchLatest(t *testing.T) {
	srv := newTestServer(t, nil)
	client, err := NewClient(logger.Discard(), srv.URL, time.Second)
	require.NoError(t, err)

	id, ok, err := client.FetchLatest(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3000, id)
}

func TestFetchTransportError(t *testing.T) {
	srv := newTestServer(t, nil)
	client, err := NewClient(logger.Discard(), srv.URL, time.Second)
	require.NoError(t, err)
	srv.Close()

	_, ok, err := client.Fetch(context.Background(), "327")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(nil, "  ", 0)
	assert.Error(t, err)
}
