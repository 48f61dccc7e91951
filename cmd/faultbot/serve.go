package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/voltwrench/faultbot/pkg/bot"
	"github.com/voltwrench/faultbot/pkg/engine"
	"github.com/voltwrench/faultbot/pkg/metrics"
	"github.com/voltwrench/faultbot/pkg/packs"
	"github.com/voltwrench/faultbot/pkg/session"
	"github.com/voltwrench/faultbot/pkg/web"
)

// sessionMaxIdle is how long an untouched chat session survives before the
// sweeper drops it.
const sessionMaxIdle = 12 * time.Hour

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot and the operational HTTP server",
	Long: `Runs the Telegram bot with long polling plus an HTTP server for health,
metrics and pack media. Configuration comes from flags or environment:

  FAULTBOT_TOKEN       Telegram bot token (required)
  FAULTBOT_PACK_DIR    directory of <manufacturer>.yaml packs
  FAULTBOT_MEDIA_DIR   directory of pack reference images
  FAULTBOT_HTTP_ADDR   ops HTTP listen address`,
	RunE: runServe,
}

var (
	servePackDir  string
	serveMediaDir string
	serveHTTPAddr string
)

func init() {
	serveCmd.Flags().StringVar(&servePackDir, "packs", envOr("FAULTBOT_PACK_DIR", "packs"), "pack directory")
	serveCmd.Flags().StringVar(&serveMediaDir, "media", envOr("FAULTBOT_MEDIA_DIR", ""), "media directory")
	serveCmd.Flags().StringVar(&serveHTTPAddr, "http", envOr("FAULTBOT_HTTP_ADDR", ":8080"), "ops HTTP listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	token := os.Getenv("FAULTBOT_TOKEN")
	if token == "" {
		return fmt.Errorf("FAULTBOT_TOKEN is not set (flags: see faultbot serve --help)")
	}

	repo := packs.NewRepository(servePackDir, logger)
	if counts := repo.Counts(); len(counts) == 0 {
		logger.Warn("no packs loaded", zap.String("dir", servePackDir))
	} else {
		for m, n := range counts {
			logger.Info("pack loaded", zap.String("manufacturer", string(m)), zap.Int("faults", n))
		}
	}

	registry := prometheus.NewRegistry()
	rec := metrics.NewRecorder(registry)
	sessions := session.NewMemory()
	bound := session.NewBoundCache(0)
	media := engine.NewMediaResolver(serveMediaDir)
	menus := bot.NewMenus(repo).WithMedia(media)

	eng := engine.New(engine.Config{
		Source:   repo,
		Sessions: sessions,
		Bound:    bound,
		Menus:    menus,
		Media:    media,
		Metrics:  rec,
		Log:      logger,
	})

	tg, err := bot.NewTelegram(token, logger)
	if err != nil {
		return err
	}
	b := bot.New(bot.Config{
		Transport: tg,
		Engine:    eng,
		Source:    repo,
		Metrics:   rec,
		Log:       logger,
	})

	srv := web.New(web.Config{
		Addr:     serveHTTPAddr,
		Repo:     repo,
		Sessions: sessions,
		Bound:    bound,
		Registry: registry,
		MediaDir: serveMediaDir,
		Log:      logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 2)
	go func() { errc <- srv.ListenAndServe() }()
	go func() { errc <- tg.Run(ctx, b) }()

	// Periodic sweep of idle sessions. Message-bound states age out of their
	// LRU on their own.
	go func() {
		t := time.NewTicker(time.Hour)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := sessions.Sweep(sessionMaxIdle); n > 0 {
					logger.Info("swept idle sessions", zap.Int("removed", n))
				}
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errc:
		if err != nil && err != context.Canceled {
			logger.Error("component failed", zap.Error(err))
		}
	}
	stop()
	return srv.Shutdown(5 * time.Second)
}
