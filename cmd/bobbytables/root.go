package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bobbytablesbot/bobbytables/internal/boot"
	"github.com/bobbytablesbot/bobbytables/internal/config"
	"github.com/bobbytablesbot/bobbytables/internal/db"
	"github.com/bobbytablesbot/bobbytables/internal/logger"
	"github.com/bobbytablesbot/bobbytables/internal/store"
	"github.com/bobbytablesbot/bobbytables/internal/store/postgres"
	"github.com/bobbytablesbot/bobbytables/internal/store/sqlite"
	"github.com/bobbytablesbot/bobbytables/internal/version"
)

var (
	configPath string
	section    string
)

var rootCmd = &cobra.Command{
	Use:   "bobbytables",
	Short: "Reddit bot that answers xkcd references",
	Long: `bobbytables watches subreddit comments, submissions and its inbox for
references to xkcd comics ("!327", "!1...3", "!latest", "relevant xkcd: 327")
and replies with the comic's title, alt-text and links.

Running without a subcommand is the same as "bobbytables run".`,
	Version:       version.GetInfo(),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBot()
	},
}

func init() {
	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = config.DefaultConfigPath
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultPath, "path to the TOML config file")
	rootCmd.PersistentFlags().StringVarP(&section, "section", "s", config.DefaultSection, "profile section to run as")
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath, section)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// setup loads the config and initialises the process logger.
func setup() (config.Config, *slog.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger.Init(cfg.Log.Level, cfg.Log.Format), nil
}

// openStore opens the configured backend and brings its schema up to date.
func openStore(ctx context.Context, log *slog.Logger, cfg config.Config) (store.Store, error) {
	dbCfg := boot.ProvideDatabaseConfig(cfg)
	driver, err := db.NormalizeDriver(dbCfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", store.ErrUnsupportedDriver, dbCfg.Driver)
	}
	if driver == db.DriverPostgres {
		s, err := postgres.Open(ctx, log, dbCfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	s, err := sqlite.Open(ctx, log, dbCfg.Path)
	if err != nil {
		return nil, err
	}
	return s, nil
}
