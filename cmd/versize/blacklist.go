package main

import (
	"errors"
	"fmt"

	"versize/internal/blacklist"
	"versize/internal/config"
	"versize/internal/service"

	"github.com/spf13/cobra"
)

func blacklistCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blacklist",
		Short: "Inspect and maintain the blacklist file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print active entries, most recent first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				return errors.New("no config found in context")
			}
			svc := service.NewBlacklistService(blacklist.NewStore(cfg.BlacklistFile), service.Collaborators{}, "")
			_, err := fmt.Fprintln(cmd.OutOrStdout(), service.FormatBlacklist(svc.ListActive(cmd.Context()), 0))
			return err
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "sweep",
		Short: "Remove expired entries once, without notifications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				return errors.New("no config found in context")
			}
			sched := service.NewExpiryScheduler(blacklist.NewStore(cfg.BlacklistFile), service.Collaborators{}, "", cfg.SweepInterval)
			swept := sched.RunOnce(cmd.Context())
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired entries\n", len(swept))
			return err
		},
	})
	return cmd
}
