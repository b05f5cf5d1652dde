package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"ContentEngine/internal/app"
)

func newRunCommand(opts *rootOptions) *cobra.Command {
	var resubmit []string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one content cycle and print the run summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.Application, logger *slog.Logger) error {
				summary, err := a.Run(ctx, resubmit)
				if perr := printJSON(cmd.OutOrStdout(), summary); perr != nil {
					return perr
				}
				return err
			})
		},
	}
	cmd.Flags().StringArrayVar(&resubmit, "resubmit", nil, "article hash to send back through the gates (repeatable)")
	return cmd
}

func newPostCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "post",
		Short: "Publish one approved or queued item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.Application, logger *slog.Logger) error {
				item, err := a.Post(ctx)
				if item == nil {
					if err == nil {
						logger.Info("no approved or queued items")
					}
					return err
				}
				out := map[string]any{
					"item_id": item.ID,
					"hash":    item.Article.Hash,
					"title":   item.Article.Title,
					"status":  item.Status,
					"urls":    item.Publish.URLs,
				}
				if perr := printJSON(cmd.OutOrStdout(), out); perr != nil {
					return perr
				}
				return err
			})
		},
	}
}

func newEngagementCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "engagement",
		Short: "Refresh engagement counters for posted items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.Application, _ *slog.Logger) error {
				report, err := a.RefreshEngagement(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}
}

func newReviewCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "List items held for review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.Application, _ *slog.Logger) error {
				rows, err := a.Review(ctx)
				if err != nil {
					return err
				}
				type heldItem struct {
					Hash      string `json:"hash"`
					Title     string `json:"title"`
					URL       string `json:"url"`
					Relevance *int   `json:"relevance_score"`
					Virality  *int   `json:"virality_score"`
					Risk      string `json:"risk_flags"`
					Reason    string `json:"reason"`
				}
				out := make([]heldItem, 0, len(rows))
				for _, r := range rows {
					out = append(out, heldItem{
						Hash:      r.Hash,
						Title:     r.Title,
						URL:       r.URL,
						Relevance: r.Relevance,
						Virality:  r.Virality,
						Risk:      r.Risk,
						Reason:    r.Reason,
					})
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
}

func newScheduleCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run cycles and posting slots on the configured schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.Application, _ *slog.Logger) error {
				return a.Schedule(ctx)
			})
		},
	}
}
