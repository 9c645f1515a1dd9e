package logs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"queuewatch/internal/logging"
)

// FormatEvent renders a stream event as one console line.
func FormatEvent(evt logging.LogEvent) string {
	var b strings.Builder
	b.WriteString(evt.Timestamp.Local().Format("15:04:05"))
	b.WriteByte(' ')
	fmt.Fprintf(&b, "%-5s", strings.ToUpper(evt.Level))
	if evt.Component != "" {
		b.WriteString(" [" + evt.Component + "]")
	}
	b.WriteByte(' ')
	b.WriteString(evt.Message)

	if evt.ItemID != "" {
		b.WriteString(" item=" + evt.ItemID)
	}
	keys := make([]string, 0, len(evt.Fields))
	for key := range evt.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%s", key, evt.Fields[key])
	}
	if evt.CorrelationID != "" {
		b.WriteString(" cid=" + evt.CorrelationID)
	}
	return b.String()
}

// FormatFileLine renders a JSON line from the log file like FormatEvent.
// Lines that are not JSON objects are returned unchanged.
func FormatFileLine(line string) string {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return line
	}
	evt := logging.LogEvent{Fields: map[string]string{}}
	for key, value := range raw {
		text := fmt.Sprint(value)
		switch key {
		case "ts", "time":
			if ts, err := time.Parse(time.RFC3339Nano, text); err == nil {
				evt.Timestamp = ts
			}
		case "level":
			evt.Level = text
		case "msg":
			evt.Message = text
		case logging.FieldComponent:
			evt.Component = text
		case logging.FieldItemID:
			evt.ItemID = text
		case logging.FieldCorrelationID:
			evt.CorrelationID = text
		default:
			evt.Fields[key] = text
		}
	}
	return FormatEvent(evt)
}
