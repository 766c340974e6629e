package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/wrenchworks/liftline/internal/civil"
	"github.com/wrenchworks/liftline/internal/config"
	"github.com/wrenchworks/liftline/internal/db"
	"github.com/wrenchworks/liftline/internal/notify"
	"github.com/wrenchworks/liftline/internal/notify/discord"
	"github.com/wrenchworks/liftline/internal/notify/slack"
	"github.com/wrenchworks/liftline/internal/server"
	"github.com/wrenchworks/liftline/internal/utilization"
	"gorm.io/gorm"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Liftline API server",
		Long:  "Serves the workflow, bay scheduling, and utilization API, and schedules the daily shop digest.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "liftline.yaml", "path to Liftline config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if port <= 0 {
		port = cfg.Server.Port
	}

	log := zerolog.New(os.Stderr).With().Timestamp().Str("shop", cfg.Shop).Logger()

	caps, err := db.DetectCapabilities(gormDB)
	if err != nil {
		return err
	}
	if !caps.HasLedgerTable {
		log.Warn().Msg("assignment ledger table missing; utilization degrades to item-based reporting")
	} else if !caps.HasEngagementColumns {
		log.Warn().Msg("engagement columns missing; utilization counts assignment times")
	}

	fanout, err := buildNotifiers(log, cfg.Notify)
	if err != nil {
		return err
	}
	defer fanout.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	if fanout.Enabled() {
		digestOpts := utilization.Options{
			TargetMinutes: cfg.Utilization.TargetMinutes,
			WindowDays:    cfg.Utilization.WindowDays,
			Caps:          caps,
		}
		stopDigest := startDigestCron(ctx, log, gormDB, digestOpts, fanout, cfg.Notify.DigestCron)
		defer stopDigest()
	}

	return server.Start(ctx, server.StartOpts{
		DB:                gormDB,
		Port:              port,
		Out:               cmd.OutOrStdout(),
		Log:               log,
		Caps:              caps,
		Notify:            fanout,
		TargetMinutes:     cfg.Utilization.TargetMinutes,
		UtilizationWindow: cfg.Utilization.WindowDays,
	})
}

// buildNotifiers wires the chat platforms that have credentials configured.
func buildNotifiers(log zerolog.Logger, cfg config.NotifyConfig) (*notify.Fanout, error) {
	var notifiers []notify.Notifier

	if cfg.Slack.BotToken != "" {
		n, err := slack.New(slack.Opts{
			BotToken:  cfg.Slack.BotToken,
			ChannelID: cfg.Slack.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, n)
		log.Info().Str("channel", cfg.Slack.ChannelID).Msg("slack notifications enabled")
	}

	if cfg.Discord.BotToken != "" {
		n, err := discord.New(discord.Opts{
			BotToken:  cfg.Discord.BotToken,
			ChannelID: cfg.Discord.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, n)
		log.Info().Str("channel", cfg.Discord.ChannelID).Msg("discord notifications enabled")
	}

	return notify.NewFanout(log, notifiers...), nil
}

// startDigestCron schedules the end-of-day digest. Returns a stop function.
func startDigestCron(ctx context.Context, log zerolog.Logger, gormDB *gorm.DB, opts utilization.Options, fanout *notify.Fanout, expr string) func() {
	c := cron.New(cron.WithLocation(civil.Zone))
	_, err := c.AddFunc(expr, func() {
		day := time.Now().In(civil.Zone)
		msg, err := notify.BuildDailyDigest(gormDB, day, opts)
		if err != nil {
			log.Error().Err(err).Msg("daily digest failed")
			return
		}
		if msg == nil {
			log.Info().Msg("daily digest skipped: no activity")
			return
		}
		fanout.Send(ctx, *msg)
	})
	if err != nil {
		log.Error().Err(err).Str("cron", expr).Msg("bad digest schedule; digest disabled")
		return func() {}
	}
	c.Start()
	log.Info().Str("cron", expr).Msg("daily digest scheduled")
	return func() { c.Stop() }
}
