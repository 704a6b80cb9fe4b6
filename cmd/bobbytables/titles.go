package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/bobbytablesbot/bobbytables/internal/catalog"
	"github.com/bobbytablesbot/bobbytables/internal/config"
	"github.com/bobbytablesbot/bobbytables/internal/titles"
)

var titlesCmd = &cobra.Command{
	Use:   "titles",
	Short: "Manage the comic title index",
}

var titlesSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Add the titles of comics published since the last sync",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		s, err := openStore(ctx, log, cfg)
		if err != nil {
			return err
		}
		defer s.Close()
		client, err := catalog.NewClient(log, cfg.Catalog.BaseURL, config.Duration(cfg.Catalog.Timeout, config.DefaultTimeout))
		if err != nil {
			return err
		}
		added, err := titles.NewSyncer(log, client, s).Sync(ctx)
		if err != nil {
			return err
		}
		total, err := s.TitleCount(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %d titles, %d indexed\n", added, total)
		return nil
	},
}

func init() {
	titlesCmd.AddCommand(titlesSyncCmd)
	rootCmd.AddCommand(titlesCmd)
}
