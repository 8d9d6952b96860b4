package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"versize/internal/blacklist"
	"versize/internal/cache"
	"versize/internal/config"
	"versize/internal/discord"
	"versize/internal/featureflags"
	"versize/internal/notifications"
	"versize/internal/observability"
	"versize/internal/repository"
	"versize/internal/server"
	"versize/internal/service"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect the bot to Discord and serve the reviewer panel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serveRun(cmd.Context(), config.FromContext(cmd.Context()))
		},
	}
}

func serveRun(ctx context.Context, cfg *config.Config) error {
	if cfg == nil {
		return errors.New("no config found in context")
	}
	if err := cfg.RequireDiscord(); err != nil {
		return err
	}

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:  programName,
		Environment:  cfg.Env,
		Enabled:      cfg.TracingEnabled,
		Exporter:     cfg.TracingExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplerRatio: cfg.TracingSamplerRatio,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	rdb := cache.Connect(cfg.RedisURL)
	notifier := notifications.NewNotifier(rdb)
	hub := notifications.NewHub()
	var events service.EventPublisher = hub
	if notifier.Enabled() {
		events = notifier
	}

	session, err := discord.Open(cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	gateway := discord.NewGateway(session, cfg.GuildID, cfg.ApplicationChannel, cfg.ReviewerRoleIDs())

	store := blacklist.NewStore(cfg.BlacklistFile)
	flags := featureflags.NewManager(cfg.FeatureFlags)
	collab := service.Collaborators{
		Discussion: gateway,
		Members:    gateway,
		Sink:       gateway,
		Events:     events,
		Timeout:    cfg.CollaboratorTimeout,
	}

	reviews := service.NewReviewService(repository.NewCaseRepository(), collab, store, flags, service.ReviewConfig{
		ReviewerRoleIDs:    cfg.ReviewerRoleIDs(),
		AcceptRoleID:       cfg.AcceptRoleID,
		DecisionLogChannel: cfg.DecisionLogChannel,
	})
	blacklistSvc := service.NewBlacklistService(store, collab, cfg.BlacklistChannel)
	audit := service.NewAuditService(collab, cfg.AuditChannel)
	scheduler := service.NewExpiryScheduler(store, collab, cfg.BlacklistChannel, cfg.SweepInterval)

	router := discord.NewRouter(session, reviews, blacklistSvc, audit)
	session.AddHandler(router.Handler())
	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("discord session ready", "bot", r.User.Username, "guilds", len(r.Guilds))
		if err := discord.RegisterCommands(s, r.User.ID, cfg.GuildID); err != nil {
			slog.Error("failed to register slash commands", "guild_id", cfg.GuildID, "error", err)
		}
	})
	if err := session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	srv := server.NewServer(cfg, server.Deps{
		Reviews:   reviews,
		Blacklist: blacklistSvc,
		Audit:     audit,
		Hub:       hub,
		Notifier:  notifier,
		Redis:     rdb,
		Flags:     flags,
	})
	runErr := runUntilStopped(ctx, scheduler.Run, srv.Start)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("panel shutdown error", "error", err)
	}
	if err := session.Close(); err != nil {
		slog.Error("discord session close error", "error", err)
	}
	audit.Wait()
	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("tracing shutdown error", "error", err)
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			slog.Error("error closing redis", "error", err)
		}
	}
	return runErr
}

// runUntilStopped runs background and serve until ctx is done or serve returns.
// Either way background is cancelled and has returned before runUntilStopped does.
func runUntilStopped(ctx context.Context, background func(context.Context), serve func() error) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		background(runCtx)
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- serve() }()

	var err error
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err = <-errCh:
		slog.Error("panel stopped", "error", err)
	}
	cancel()
	<-done
	return err
}
