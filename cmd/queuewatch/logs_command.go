package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"queuewatch/internal/config"
	"queuewatch/internal/logs"
)

const defaultLogPage = 200

var errFiltersRequireAPI = errors.New("log filters require the daemon API")

type logFilters struct {
	itemID        string
	component     string
	correlationID string
}

func (f logFilters) empty() bool {
	return strings.TrimSpace(f.itemID) == "" &&
		strings.TrimSpace(f.component) == "" &&
		strings.TrimSpace(f.correlationID) == ""
}

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int
	var filters logFilters

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display daemon logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			addr, err := ctx.apiAddress()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			printed, err := streamLogsFromAPI(cmd.Context(), out, addr, cfg.Paths.APIToken, lines, follow, filters)
			if err == nil || errors.Is(err, context.Canceled) {
				if !printed && !follow {
					fmt.Fprintln(out, "No log entries available")
				}
				return nil
			}
			if !logs.IsAPIUnavailable(err) {
				return err
			}
			if !filters.empty() {
				return fmt.Errorf("%w: %w", errFiltersRequireAPI, logs.ErrAPIUnavailable)
			}
			return tailLogFile(cmd.Context(), out, cfg, lines, follow)
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 10, "Number of lines to show")
	cmd.Flags().StringVar(&filters.itemID, "item", "", "Only show events for this item id")
	cmd.Flags().StringVar(&filters.component, "component", "", "Only show events from this component")
	cmd.Flags().StringVar(&filters.correlationID, "correlation-id", "", "Only show events for one exchange or API request")
	return cmd
}

func streamLogsFromAPI(ctx context.Context, out io.Writer, addr, token string, lines int, follow bool, filters logFilters) (bool, error) {
	client, err := logs.NewStreamClient(addr, token)
	if err != nil {
		return false, err
	}
	query := logs.StreamQuery{
		Limit:         lines,
		Tail:          true,
		Component:     filters.component,
		ItemID:        filters.itemID,
		CorrelationID: filters.correlationID,
	}
	if query.Limit <= 0 {
		query.Limit = defaultLogPage
	}

	printed := false
	for {
		resp, err := client.Fetch(ctx, query)
		if err != nil {
			return printed, err
		}
		for _, evt := range resp.Events {
			fmt.Fprintln(out, logs.FormatEvent(evt))
			printed = true
		}
		if !follow {
			return printed, nil
		}
		query.Since = resp.Next
		query.Limit = defaultLogPage
		query.Tail = false
		query.Follow = true
	}
}

func tailLogFile(ctx context.Context, out io.Writer, cfg *config.Config, lines int, follow bool) error {
	path := cfg.LogFilePath()
	tail, offset, err := logs.Tail(path, lines)
	if err != nil {
		return err
	}
	for _, line := range tail {
		fmt.Fprintln(out, logs.FormatFileLine(line))
	}
	if !follow {
		if len(tail) == 0 {
			fmt.Fprintln(out, "No log entries available")
		}
		return nil
	}
	err = logs.Follow(ctx, path, offset, func(line string) {
		fmt.Fprintln(out, logs.FormatFileLine(line))
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
