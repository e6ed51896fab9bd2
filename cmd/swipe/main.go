// Package main is the entry point for the swipe CLI.
//
// The CLI plays the presentation layer: it owns the buffer manager, prints
// the front card and feeds LEFT/RIGHT/reload commands read from stdin. The
// fetch pipeline runs in-process, or remotely against a paper swipe server
// with --server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/helixir/paper-swipe-service/internal/app"
	"github.com/helixir/paper-swipe-service/internal/config"
	"github.com/helixir/paper-swipe-service/internal/domain"
	"github.com/helixir/paper-swipe-service/internal/feed"
	"github.com/helixir/paper-swipe-service/internal/observability"
	"github.com/helixir/paper-swipe-service/internal/papersources"
)

// options holds the persistent flags.
type options struct {
	configFile string
	serverURL  string
	focus      string
	watermark  int
	logLevel   string
}

var opts options

// rootCmd runs an interactive swipe session.
var rootCmd = &cobra.Command{
	Use:   "swipe",
	Short: "Swipe through AI agent papers from arXiv",
	Long: `swipe shows one paper card at a time. Type r (right) to like a paper,
l (left) to skip it, reload to fetch again after the stack ran dry, liked
to list liked papers and q to quit.

The stack refills in the background when it runs low. With --server the
fetch pipeline runs on a paper swipe server; otherwise it runs in-process
using the usual configuration file and PAPERSWIPE_ environment variables.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger := newLogger(opts.logLevel)
		sessionID := uuid.NewString()
		logger = observability.WithSessionContext(logger, sessionID)

		source, watermark, focus, err := buildSource(logger)
		if err != nil {
			return err
		}

		manager := feed.NewManager(source, feed.ManagerConfig{
			Watermark: watermark,
			Focus:     focus,
		}, logger, nil)

		s := newSession(manager, cmd.InOrStdin(), cmd.OutOrStdout())
		return s.Run(ctx)
	},
}

// fetchCmd prints a single batch as JSON.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch one batch and print it as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(opts.logLevel)
		source, _, focus, err := buildSource(logger)
		if err != nil {
			return err
		}

		cursor, _ := cmd.Flags().GetInt("cursor")
		liked, _ := cmd.Flags().GetStringSlice("liked")
		if cursor < 0 {
			return fmt.Errorf("cursor must be >= 0")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		batch := source.NextBatch(ctx, domain.RecommendationContext{LikedTitles: liked, Focus: focus}, cursor)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(feed.NextBatchResponse{
			Papers:     batch.Papers,
			RawCount:   batch.RawCount,
			NextCursor: cursor + batch.RawCount,
			Strategy:   batch.Strategy,
		})
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default: ./config.yaml or ./config/config.yaml)")
	flags.StringVar(&opts.serverURL, "server", "", "paper swipe server base URL; empty runs the pipeline in-process")
	flags.StringVar(&opts.focus, "focus", "", "topic label sent with every fetch (default from config)")
	flags.IntVar(&opts.watermark, "watermark", 0, "refill the stack when fewer cards remain (default from config)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")

	fetchCmd.Flags().Int("cursor", 0, "upstream offset")
	fetchCmd.Flags().StringSlice("liked", nil, "liked titles, oldest first")
	rootCmd.AddCommand(fetchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) zerolog.Logger {
	return observability.NewLogger(observability.LoggingConfig{
		Level:  level,
		Format: "console",
		Output: "stderr",
	}).With().Str("component", "swipe").Logger()
}

// buildSource returns the batch source plus the effective watermark and
// focus. Remote mode needs no configuration file and no API keys.
func buildSource(logger zerolog.Logger) (feed.BatchSource, int, string, error) {
	if opts.serverURL != "" {
		client := papersources.NewHTTPClient(papersources.HTTPClientConfig{
			Timeout:   2 * time.Minute,
			RateLimit: 5,
			BurstSize: 2,
		})
		focus := opts.focus
		if focus == "" {
			focus = config.DefaultFocus
		}
		return feed.NewRemoteSource(opts.serverURL, client, logger), opts.watermark, focus, nil
	}

	cfg, err := config.LoadFile(opts.configFile)
	if err != nil {
		return nil, 0, "", fmt.Errorf("load config: %w", err)
	}
	if opts.focus != "" {
		cfg.Feed.Focus = opts.focus
	}
	watermark := cfg.Feed.Watermark
	if opts.watermark > 0 {
		watermark = opts.watermark
	}

	pipeline, err := app.NewPipeline(cfg, logger, nil)
	if err != nil {
		return nil, 0, "", fmt.Errorf("build pipeline: %w", err)
	}
	return pipeline, watermark, cfg.Feed.Focus, nil
}
