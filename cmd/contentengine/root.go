package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ContentEngine/internal/app"
	"ContentEngine/internal/config"
	"ContentEngine/internal/logging"
)

type rootOptions struct {
	configPath string
}

// NewRootCommand assembles the CLI.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "contentengine",
		Short:        "Turns industry news into reviewed social posts and blog drafts",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to YAML config (defaults to $CONTENT_ENGINE_CONFIG)")

	root.AddCommand(
		newRunCommand(opts),
		newPostCommand(opts),
		newEngagementCommand(opts),
		newReviewCommand(opts),
		newScheduleCommand(opts),
	)
	return root
}

func (o *rootOptions) load() (config.Config, error) {
	if o.configPath == "" {
		return config.Load()
	}
	return config.LoadFile(o.configPath)
}

// withApp loads config, builds the application and runs fn with a signal-aware context.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app.Application, logger *slog.Logger) error) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	logger := logging.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}()

	return fn(ctx, application, logger)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
