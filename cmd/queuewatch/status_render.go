package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"queuewatch/internal/api"
	"queuewatch/internal/presentation"
	"queuewatch/internal/queue"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"

	clearScreen = "\x1b[H\x1b[2J"
)

const (
	statusLabelWidth = 14
	statusIndent     = "  "
)

const emptyDashboard = "No queue tickets observed yet."

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

// daemonLines summarizes the daemon status above the dashboard.
func daemonLines(status api.StatusResponse, colorize bool) []string {
	lines := make([]string, 0, 4)
	if status.Running {
		lines = append(lines, renderStatusLine("Daemon", statusOK, fmt.Sprintf("running (pid %d)", status.PID), colorize))
	} else {
		lines = append(lines, renderStatusLine("Daemon", statusError, "not running", colorize))
	}
	if status.Upstream == "" {
		lines = append(lines, renderStatusLine("Upstream", statusWarn, "not configured", colorize))
	} else {
		lines = append(lines, renderStatusLine("Upstream", statusInfo, fmt.Sprintf("%s via %s", status.Upstream, status.AttachListen), colorize))
	}
	stats := status.Interception
	kind := statusInfo
	if stats.InterceptionFailures > 0 || stats.ParseFailures > 0 {
		kind = statusWarn
	}
	lines = append(lines, renderStatusLine("Interception", kind, fmt.Sprintf(
		"%d updates, %d records, %d skipped, %d mismatched, %d failed",
		stats.Updates, stats.RecordsAccepted, stats.Skipped,
		stats.ShapeMismatches, stats.ParseFailures+stats.InterceptionFailures,
	), colorize))
	return lines
}

var dashboardHeaders = []string{"Item", "Price", "Ticket", "State", "Likelihood", "Countdown"}

var dashboardAligns = []columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignRight}

// dashboardRows renders one row per view in snapshot order.
func dashboardRows(views []presentation.ViewState, colorize bool) [][]string {
	rows := make([][]string, 0, len(views))
	for _, view := range views {
		state := presentation.Label(view.State)
		likelihood := presentation.Label(string(view.Likelihood))
		countdown := view.Countdown
		if colorize {
			if view.Validity == queue.TicketExpired {
				state = text.FgYellow.Sprint(state)
			}
			if view.Likelihood == queue.LikelihoodLikely {
				likelihood = text.FgGreen.Sprint(likelihood)
			}
			if view.Urgent {
				countdown = text.Colors{text.FgRed, text.Bold}.Sprint(countdown)
			}
		}
		rows = append(rows, []string{view.Name, view.Price, view.Ticket, state, likelihood, countdown})
	}
	return rows
}

func renderDashboard(views []presentation.ViewState, colorize bool) string {
	if len(views) == 0 {
		return emptyDashboard
	}
	return renderTable(dashboardHeaders, dashboardRows(views, colorize), dashboardAligns, presentation.Summary(len(views)))
}

func writeLines(w io.Writer, lines ...string) {
	fmt.Fprintln(w, strings.Join(lines, "\n"))
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
