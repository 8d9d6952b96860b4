// Command versize runs the family bot, its reviewer panel and maintenance tools.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"versize/internal/config"
	"versize/internal/middleware"

	"github.com/spf13/cobra"
)

const programName = "versize"

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Application review and blacklist bot for a Discord family",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		middleware.Logger = middleware.NewLogger(cfg.Env)
		slog.SetDefault(middleware.Logger)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	}

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(tokenCommand())
	rootCmd.AddCommand(blacklistCommand())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error(err.Error(), "component", programName)
		stop()
		os.Exit(1)
	}
}
