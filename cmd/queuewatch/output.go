package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"queuewatch/internal/api"
	"queuewatch/internal/presentation"
)

type outputFormat string

const (
	outputTable outputFormat = "table"
	outputJSON  outputFormat = "json"
	outputYAML  outputFormat = "yaml"
)

func parseOutputFormat(value string) (outputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(outputTable):
		return outputTable, nil
	case string(outputJSON):
		return outputJSON, nil
	case string(outputYAML), "yml":
		return outputYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json, or yaml)", value)
	}
}

// dashboardOutput is the machine-readable dashboard.
type dashboardOutput struct {
	Daemon      *daemonOutput `json:"daemon,omitempty" yaml:"daemon,omitempty"`
	Summary     string        `json:"summary" yaml:"summary"`
	GeneratedAt string        `json:"generated_at" yaml:"generated_at"`
	Items       []itemOutput  `json:"items" yaml:"items"`
}

type daemonOutput struct {
	Running      bool   `json:"running" yaml:"running"`
	PID          int    `json:"pid" yaml:"pid"`
	Upstream     string `json:"upstream,omitempty" yaml:"upstream,omitempty"`
	AttachListen string `json:"attach_listen,omitempty" yaml:"attach_listen,omitempty"`
	Updates      int64  `json:"updates" yaml:"updates"`
}

type itemOutput struct {
	ItemID           string `json:"item_id" yaml:"item_id"`
	Name             string `json:"name" yaml:"name"`
	Price            string `json:"price" yaml:"price"`
	Ticket           string `json:"ticket" yaml:"ticket"`
	State            string `json:"state" yaml:"state"`
	Likelihood       string `json:"likelihood" yaml:"likelihood"`
	Countdown        string `json:"countdown" yaml:"countdown"`
	Phase            string `json:"phase" yaml:"phase"`
	Urgent           bool   `json:"urgent" yaml:"urgent"`
	RemainingSeconds int64  `json:"remaining_seconds,omitempty" yaml:"remaining_seconds,omitempty"`
}

func buildDashboardOutput(status *api.StatusResponse, views []presentation.ViewState, now time.Time) dashboardOutput {
	out := dashboardOutput{
		Summary:     presentation.Summary(len(views)),
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Items:       make([]itemOutput, 0, len(views)),
	}
	if status != nil {
		out.Daemon = &daemonOutput{
			Running:      status.Running,
			PID:          status.PID,
			Upstream:     status.Upstream,
			AttachListen: status.AttachListen,
			Updates:      status.Interception.Updates,
		}
	}
	for _, view := range views {
		item := itemOutput{
			ItemID:     view.ItemID,
			Name:       view.Name,
			Price:      view.Price,
			Ticket:     view.Ticket,
			State:      view.State,
			Likelihood: string(view.Likelihood),
			Countdown:  view.Countdown,
			Phase:      string(view.Phase),
			Urgent:     view.Urgent,
		}
		if view.HasETA {
			item.RemainingSeconds = int64(view.Remaining / time.Second)
		}
		out.Items = append(out.Items, item)
	}
	return out
}

// writeJSON encodes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
