package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"queuewatch/internal/capture"
	"queuewatch/internal/logging"
	"queuewatch/internal/presentation"
	"queuewatch/internal/queue"
)

func newReplayCommand(ctx *commandContext) *cobra.Command {
	var output string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "replay <file.har>",
		Short: "Replay a recorded HAR capture through the detection path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(output)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			archive, err := capture.Load(args[0])
			if err != nil {
				return err
			}

			logger := logging.NewNop()
			if verbose {
				logger, err = logging.New(logging.Options{
					Level:       "debug",
					Format:      cfg.Logging.Format,
					OutputPaths: []string{"stderr"},
				})
				if err != nil {
					return fmt.Errorf("init logger: %w", err)
				}
			}

			store := queue.NewStore()
			result, err := capture.Replay(cmd.Context(), archive, store, interceptOptions(cfg, logger))
			if err != nil {
				return err
			}

			now := time.Now()
			views := presentation.DeriveAll(store.Snapshot(), now, presentation.Options{NameMaxRunes: cfg.Dashboard.NameMaxRunes})
			out := cmd.OutOrStdout()
			switch format {
			case outputJSON:
				return writeJSON(out, buildDashboardOutput(nil, views, now))
			case outputYAML:
				return writeYAML(out, buildDashboardOutput(nil, views, now))
			}

			colorize := shouldColorize(out)
			kind := statusOK
			if result.Failed > 0 {
				kind = statusWarn
			}
			writeLines(out,
				renderStatusLine("Entries", kind, fmt.Sprintf("%d replayed, %d failed", result.Entries, result.Failed), colorize),
				renderStatusLine("Updates", statusInfo, fmt.Sprintf("%d updates, %d skipped", result.Stats.Updates, result.Stats.Skipped), colorize),
				"",
				renderDashboard(views, colorize),
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table, json, or yaml")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every inspected exchange to stderr")
	return cmd
}
