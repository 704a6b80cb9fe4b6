package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var blacklistCmd = &cobra.Command{
	Use:   "blacklist",
	Short: "Manage users the bot ignores",
}

var blacklistAddCmd = &cobra.Command{
	Use:   "add <username>...",
	Short: "Stop answering users",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, s blacklistStore) error {
			for _, name := range args {
				if err := s.AddBlacklist(ctx, name); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ignoring %s\n", name)
			}
			return nil
		})
	},
}

var blacklistRemoveCmd = &cobra.Command{
	Use:   "remove <username>...",
	Short: "Answer users again",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, s blacklistStore) error {
			for _, name := range args {
				if err := s.RemoveBlacklist(ctx, name); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "answering %s\n", name)
			}
			return nil
		})
	},
}

var blacklistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ignored users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, s blacklistStore) error {
			names, err := s.ListBlacklist(ctx)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		})
	},
}

type blacklistStore interface {
	AddBlacklist(ctx context.Context, username string) error
	RemoveBlacklist(ctx context.Context, username string) error
	ListBlacklist(ctx context.Context) ([]string, error)
}

func withStore(fn func(ctx context.Context, s blacklistStore) error) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	ctx := context.Background()
	s, err := openStore(ctx, log, cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(ctx, s)
}

func init() {
	blacklistCmd.AddCommand(blacklistAddCmd, blacklistRemoveCmd, blacklistListCmd)
	rootCmd.AddCommand(blacklistCmd)
}
