package reddit

import (
	"errors"
	"strings"
	"time"
)

// Reddit's OAuth API allows 60 requests per minute per client.
const (
	DefaultRequestsPerSecond = 1.0
	DefaultBurst             = 5
	DefaultListingLimit      = 100
	DefaultSeenCapacity      = 1000
)

// Config holds the credentials and endpoints of one bot account.
type Config struct {
	Username     string
	Password     string
	ClientID     string
	ClientSecret string
	UserAgent    string
	AuthURL      string
	APIURL       string
	Timeout      time.Duration

	// RequestsPerSecond and Burst configure the client-side rate limiter.
	RequestsPerSecond float64
	Burst             int
}

func (c Config) normalized() (Config, error) {
	c.Username = strings.TrimSpace(c.Username)
	c.ClientID = strings.TrimSpace(c.ClientID)
	c.AuthURL = strings.TrimRight(strings.TrimSpace(c.AuthURL), "/")
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	if c.Username == "" {
		return c, errors.New("reddit username is required")
	}
	if c.ClientID == "" {
		return c, errors.New("reddit client id is required")
	}
	if c.AuthURL == "" || c.APIURL == "" {
		return c, errors.New("reddit auth and api urls are required")
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if c.Burst <= 0 {
		c.Burst = DefaultBurst
	}
	return c, nil
}
