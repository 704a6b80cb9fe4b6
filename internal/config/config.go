// Package config loads and exposes application configuration (TOML).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath     = "config.toml"
	DefaultSection        = "default"
	DefaultHTTPAddr       = ":8080"
	DefaultDriver         = "sqlite"
	DefaultSQLitePath     = "database.db"
	DefaultPGHost         = "127.0.0.1"
	DefaultPGPort         = 5432
	DefaultPGUser         = "postgres"
	DefaultPGDatabase     = "bobbytables"
	DefaultPGSSLMode      = "disable"
	DefaultCatalogURL     = "https://xkcd.com"
	DefaultMobileURL      = "https://m.xkcd.com"
	DefaultExplainURL     = "https://www.explainxkcd.com/wiki/index.php"
	DefaultTimeout        = "10s"
	DefaultPollInterval   = "5s"
	DefaultTitlesSchedule = "@daily"
	DefaultRedditAuthURL  = "https://www.reddit.com"
	DefaultRedditAPIURL   = "https://oauth.reddit.com"
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log      LogConfig                `toml:"log"`
	Server   ServerConfig             `toml:"server"`
	Database DatabaseConfig           `toml:"database"`
	Catalog  CatalogConfig            `toml:"catalog"`
	Titles   TitlesConfig             `toml:"titles"`
	Reddit   RedditConfig             `toml:"reddit"`
	Profiles map[string]ProfileConfig `toml:"profiles"`

	// Section names the profile selected at load time.
	Section string `toml:"-"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the status HTTP server listen address. An empty Addr disables it.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// DatabaseConfig selects the store backend ("sqlite" or "postgres").
type DatabaseConfig struct {
	Driver   string         `toml:"driver"`
	Path     string         `toml:"path"`
	Postgres PostgresConfig `toml:"postgres"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
	// URL, when set, wins over the discrete fields.
	URL string `toml:"url"`
}

// CatalogConfig holds the comic archive endpoints used for lookups and reply links.
type CatalogConfig struct {
	BaseURL    string `toml:"base_url"`
	MobileURL  string `toml:"mobile_url"`
	ExplainURL string `toml:"explain_url"`
	Timeout    string `toml:"timeout"`
}

// TitlesConfig controls the title index refresh job.
type TitlesConfig struct {
	Schedule    string `toml:"schedule"`
	SyncOnStart bool   `toml:"sync_on_start"`
}

// RedditConfig holds forum API endpoints and the stream poll interval.
type RedditConfig struct {
	AuthURL      string `toml:"auth_url"`
	APIURL       string `toml:"api_url"`
	PollInterval string `toml:"poll_interval"`
	Timeout      string `toml:"timeout"`
}

// ProfileConfig is one named credential/subreddit section.
type ProfileConfig struct {
	Username     string   `toml:"username"`
	Password     string   `toml:"password"`
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	UserAgent    string   `toml:"user_agent"`
	Subreddits   []string `toml:"subreddits"`
	Footers      []string `toml:"footers"`
}

// SubredditPath joins the subreddits into the multireddit form ("a+b+c").
func (p ProfileConfig) SubredditPath() string {
	names := make([]string, 0, len(p.Subreddits))
	for _, name := range p.Subreddits {
		name = strings.TrimPrefix(strings.TrimSpace(name), "r/")
		if name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, "+")
}

// Closer renders the footers as one superscript line, e.g.
// "^footer1&nbsp;|&nbsp;footer2".
func (p ProfileConfig) Closer() string {
	return "^" + strings.ReplaceAll(strings.Join(p.Footers, " | "), " ", "&nbsp;")
}

// Profile returns the selected profile.
func (c Config) Profile() (ProfileConfig, error) {
	section := c.Section
	if section == "" {
		section = DefaultSection
	}
	p, ok := c.Profiles[section]
	if !ok {
		return ProfileConfig{}, fmt.Errorf("config section %q not found", section)
	}
	return p, nil
}

// Duration parses a configured duration, falling back to def when empty or invalid.
func Duration(raw, def string) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(raw)); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(def)
	return d
}

// Load reads and parses the TOML config file at path, selects section and
// applies default values for missing fields.
func Load(path, section string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Database: DatabaseConfig{
			Driver: DefaultDriver,
			Path:   DefaultSQLitePath,
			Postgres: PostgresConfig{
				Host:     DefaultPGHost,
				Port:     DefaultPGPort,
				User:     DefaultPGUser,
				Database: DefaultPGDatabase,
				SSLMode:  DefaultPGSSLMode,
			},
		},
		Catalog: CatalogConfig{
			BaseURL:    DefaultCatalogURL,
			MobileURL:  DefaultMobileURL,
			ExplainURL: DefaultExplainURL,
			Timeout:    DefaultTimeout,
		},
		Titles: TitlesConfig{
			Schedule:    DefaultTitlesSchedule,
			SyncOnStart: true,
		},
		Reddit: RedditConfig{
			AuthURL:      DefaultRedditAuthURL,
			APIURL:       DefaultRedditAPIURL,
			PollInterval: DefaultPollInterval,
			Timeout:      DefaultTimeout,
		},
		Profiles: map[string]ProfileConfig{},
		Section:  section,
	}
	if cfg.Section == "" {
		cfg.Section = DefaultSection
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("decode %s: %w", path, err)
	}

	return cfg, nil
}
