package main

import (
	"errors"
	"fmt"
	"time"

	"versize/internal/config"
	"versize/internal/middleware"

	"github.com/spf13/cobra"
)

func tokenCommand() *cobra.Command {
	var (
		userID string
		name   string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a panel token for a Discord user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				return errors.New("no config found in context")
			}
			token, err := middleware.IssueToken(cfg.JWTSecret, userID, name, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "Discord user id the token acts as")
	cmd.Flags().StringVar(&name, "name", "", "display name shown in the panel")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
