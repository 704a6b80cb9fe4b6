// Package boot turns the loaded configuration into the immutable runtime settings the bot runs with.
package boot

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bobbytablesbot/bobbytables/internal/config"
	"github.com/bobbytablesbot/bobbytables/internal/version"
)

// RuntimeConfig holds the validated profile and parsed durations. Secrets may be
// overridden by environment variables (REDDIT_PASSWORD, REDDIT_CLIENT_SECRET).
type RuntimeConfig struct {
	Section      string
	Username     string
	Password     string
	ClientID     string
	ClientSecret string
	UserAgent    string
	Subreddits   string
	Closer       string

	ServerAddr     string
	RedditAuthURL  string
	RedditAPIURL   string
	PollInterval   time.Duration
	RedditTimeout  time.Duration
	CatalogTimeout time.Duration
}

// ProvideRuntimeConfig builds RuntimeConfig from the given config and applies env overrides.
func ProvideRuntimeConfig(cfg config.Config) (*RuntimeConfig, error) {
	profile, err := cfg.Profile()
	if err != nil {
		return nil, err
	}

	ret := &RuntimeConfig{
		Section:        cfg.Section,
		Username:       strings.TrimSpace(profile.Username),
		Password:       profile.Password,
		ClientID:       strings.TrimSpace(profile.ClientID),
		ClientSecret:   profile.ClientSecret,
		UserAgent:      version.UserAgent(profile.UserAgent, profile.Username),
		Subreddits:     profile.SubredditPath(),
		Closer:         profile.Closer(),
		ServerAddr:     cfg.Server.Addr,
		RedditAuthURL:  cfg.Reddit.AuthURL,
		RedditAPIURL:   cfg.Reddit.APIURL,
		PollInterval:   config.Duration(cfg.Reddit.PollInterval, config.DefaultPollInterval),
		RedditTimeout:  config.Duration(cfg.Reddit.Timeout, config.DefaultTimeout),
		CatalogTimeout: config.Duration(cfg.Catalog.Timeout, config.DefaultTimeout),
	}

	if value := os.Getenv("REDDIT_PASSWORD"); value != "" {
		ret.Password = value
	}
	if value := os.Getenv("REDDIT_CLIENT_SECRET"); value != "" {
		ret.ClientSecret = value
	}
	if value, ok := os.LookupEnv("HTTP_ADDR"); ok {
		ret.ServerAddr = value
	}

	if ret.Username == "" {
		return nil, errors.New("username is required")
	}
	if ret.ClientID == "" {
		return nil, fmt.Errorf("client_id is required for section %q", cfg.Section)
	}
	if ret.Subreddits == "" {
		return nil, fmt.Errorf("at least one subreddit is required for section %q", cfg.Section)
	}
	return ret, nil
}

// ProvideDatabaseConfig returns the database settings with DATABASE_URL, when
// set, taking precedence over the configured Postgres connection.
func ProvideDatabaseConfig(cfg config.Config) config.DatabaseConfig {
	ret := cfg.Database
	if value := strings.TrimSpace(os.Getenv("DATABASE_URL")); value != "" {
		ret.Postgres.URL = value
	}
	return ret
}
