package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"queuewatch/internal/api"
	"queuewatch/internal/presentation"
	"queuewatch/internal/queue"
)

// watchFetchInterval bounds how often --watch refetches records; countdowns
// are recomputed locally on every refresh tick in between.
const watchFetchInterval = 5 * time.Second

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var watch bool
	var output string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and observed queue tickets",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(output)
			if err != nil {
				return err
			}
			if watch && format != outputTable {
				return errors.New("--watch only supports table output")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			opts := presentation.Options{NameMaxRunes: cfg.Dashboard.NameMaxRunes}

			if watch {
				return watchDashboard(cmd.Context(), client, cmd.OutOrStdout(), cfg.RefreshInterval(), opts)
			}

			snap, err := fetchDashboard(cmd.Context(), client)
			if err != nil {
				return err
			}
			now := time.Now()
			views := presentation.DeriveAll(snap.records, now, opts)
			out := cmd.OutOrStdout()
			switch format {
			case outputJSON:
				return writeJSON(out, buildDashboardOutput(&snap.status, views, now))
			case outputYAML:
				return writeYAML(out, buildDashboardOutput(&snap.status, views, now))
			default:
				writeDashboard(out, snap.status, views, shouldColorize(out))
				return nil
			}
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep refreshing the dashboard")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table, json, or yaml")
	return cmd
}

type dashboardSnapshot struct {
	status  api.StatusResponse
	records []queue.Record
}

func fetchDashboard(ctx context.Context, client *apiClient) (dashboardSnapshot, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	status, err := client.Status(ctx)
	if err != nil {
		return dashboardSnapshot{}, err
	}
	records, err := client.Records(ctx)
	if err != nil {
		return dashboardSnapshot{}, err
	}
	return dashboardSnapshot{status: status, records: api.ToRecords(records)}, nil
}

func writeDashboard(w io.Writer, status api.StatusResponse, views []presentation.ViewState, colorize bool) {
	lines := daemonLines(status, colorize)
	lines = append(lines, "", renderDashboard(views, colorize))
	writeLines(w, lines...)
}

func watchDashboard(ctx context.Context, client *apiClient, w io.Writer, interval time.Duration, opts presentation.Options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if interval <= 0 {
		interval = time.Second
	}
	colorize := shouldColorize(w)

	snap, err := fetchDashboard(ctx, client)
	if err != nil {
		return err
	}
	fetchedAt := time.Now()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		now := time.Now()
		if now.Sub(fetchedAt) >= watchFetchInterval {
			// keep the last snapshot on a failed refetch; the countdown stays live
			if next, err := fetchDashboard(ctx, client); err == nil {
				snap = next
				fetchedAt = now
			}
		}
		if colorize {
			fmt.Fprint(w, clearScreen)
		}
		writeDashboard(w, snap.status, presentation.DeriveAll(snap.records, now, opts), colorize)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
