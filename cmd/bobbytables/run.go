package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/bobbytablesbot/bobbytables/internal/boot"
	"github.com/bobbytablesbot/bobbytables/internal/catalog"
	"github.com/bobbytablesbot/bobbytables/internal/channel"
	"github.com/bobbytablesbot/bobbytables/internal/channel/adapters/reddit"
	"github.com/bobbytablesbot/bobbytables/internal/compose"
	"github.com/bobbytablesbot/bobbytables/internal/config"
	"github.com/bobbytablesbot/bobbytables/internal/dispatch"
	"github.com/bobbytablesbot/bobbytables/internal/handlers"
	"github.com/bobbytablesbot/bobbytables/internal/inbox"
	"github.com/bobbytablesbot/bobbytables/internal/logger"
	"github.com/bobbytablesbot/bobbytables/internal/resolver"
	"github.com/bobbytablesbot/bobbytables/internal/server"
	"github.com/bobbytablesbot/bobbytables/internal/store"
	"github.com/bobbytablesbot/bobbytables/internal/titles"
	"github.com/bobbytablesbot/bobbytables/internal/version"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bot until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBot()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runBot() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	app := fx.New(
		fx.Supply(cfg),
		fx.Provide(
			boot.ProvideRuntimeConfig,
			provideLogger,

			provideStore,
			provideCatalogClient,
			provideResolver,
			provideComposer,
			provideRedditClient,
			func(c *reddit.Client) channel.Platform { return c },
			func(s store.Store) store.Statistics { return s },
			provideDispatcher,
			provideInboxService,
			provideChannelManager,

			provideTitleSyncer,
			provideTitleService,

			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(handlers.NewStatsHandler),
			provideServer,
		),
		fx.Invoke(
			startTitleService,
			startChannelManager,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	)
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	return logger.Init(cfg.Log.Level, cfg.Log.Format)
}

func provideStore(lc fx.Lifecycle, log *slog.Logger, cfg config.Config) (store.Store, error) {
	s, err := openStore(context.Background(), log, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return s.Close()
		},
	})
	return s, nil
}

func provideCatalogClient(log *slog.Logger, cfg config.Config, rc *boot.RuntimeConfig) (*catalog.Client, error) {
	return catalog.NewClient(log, cfg.Catalog.BaseURL, rc.CatalogTimeout)
}

func provideResolver(log *slog.Logger, c *catalog.Client) *resolver.Resolver {
	return resolver.NewResolver(log, c)
}

func provideComposer(log *slog.Logger, cfg config.Config, rc *boot.RuntimeConfig, s store.Store) *compose.Composer {
	return compose.NewComposer(log, links(cfg), rc.Closer, s)
}

func links(cfg config.Config) compose.Links {
	return compose.Links{
		Comic:   cfg.Catalog.BaseURL,
		Mobile:  cfg.Catalog.MobileURL,
		Explain: cfg.Catalog.ExplainURL,
	}
}

func provideRedditClient(log *slog.Logger, rc *boot.RuntimeConfig) (*reddit.Client, error) {
	return reddit.NewClient(log, reddit.Config{
		Username:     rc.Username,
		Password:     rc.Password,
		ClientID:     rc.ClientID,
		ClientSecret: rc.ClientSecret,
		UserAgent:    rc.UserAgent,
		AuthURL:      rc.RedditAuthURL,
		APIURL:       rc.RedditAPIURL,
		Timeout:      rc.RedditTimeout,
	})
}

func provideDispatcher(log *slog.Logger, rc *boot.RuntimeConfig, r *resolver.Resolver, c *catalog.Client, comp *compose.Composer, s store.Store, p channel.Platform) *dispatch.Dispatcher {
	return dispatch.NewDispatcher(log, rc.Username, r, c, comp, s, p)
}

func provideInboxService(log *slog.Logger, s store.Store, d *dispatch.Dispatcher, c *reddit.Client) *inbox.Service {
	return inbox.NewService(log, s, d, c)
}

func provideChannelManager(log *slog.Logger, rc *boot.RuntimeConfig, c *reddit.Client, d *dispatch.Dispatcher, in *inbox.Service) *channel.Manager {
	m := channel.NewManager(log, rc.PollInterval)
	m.Register(c.Comments(rc.Subreddits), d.HandleItem)
	m.Register(c.Submissions(rc.Subreddits), d.HandleItem)
	m.Register(c.Inbox(), in.HandleItem)
	return m
}

func provideTitleSyncer(log *slog.Logger, c *catalog.Client, s store.Store) *titles.Syncer {
	return titles.NewSyncer(log, c, s)
}

func provideTitleService(log *slog.Logger, cfg config.Config, syncer *titles.Syncer) (*titles.Service, error) {
	return titles.NewService(log, syncer, cfg.Titles.Schedule, cfg.Titles.SyncOnStart)
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	RuntimeConfig  *boot.RuntimeConfig
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.RuntimeConfig.ServerAddr, params.ServerHandlers...)
}

func startTitleService(lc fx.Lifecycle, svc *titles.Service) {
	lc.Append(fx.Hook{
		OnStart: svc.Start,
		OnStop:  svc.Stop,
	})
}

func startChannelManager(lc fx.Lifecycle, m *channel.Manager) {
	lc.Append(fx.Hook{
		OnStart: m.Start,
		OnStop:  m.Stop,
	})
}

func startServer(lc fx.Lifecycle, log *slog.Logger, srv *server.Server, rc *boot.RuntimeConfig, shutdowner fx.Shutdowner) {
	log.Info("starting bobbytables",
		slog.String("version", version.GetInfo()),
		slog.String("section", rc.Section),
		slog.String("username", rc.Username),
		slog.String("subreddits", rc.Subreddits))
	if !srv.Enabled() {
		log.Info("status server disabled")
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil {
					log.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
