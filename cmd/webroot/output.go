package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/sagarc03/webroot"
)

// Formatter formats command results for output.
type Formatter interface {
	FormatAccess(w io.Writer, result webroot.AccessListResult) error
	FormatPrune(w io.Writer, deleted int64) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, noColor bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{NoColor: noColor}
}

// HumanFormatter outputs aligned text with colored status codes.
type HumanFormatter struct {
	NoColor bool
}

const maxResourceWidth = 60

func (f *HumanFormatter) FormatAccess(w io.Writer, result webroot.AccessListResult) error {
	if len(result.Items) == 0 {
		_, _ = fmt.Fprintln(w, "No exchanges recorded")
		return nil
	}

	width := len("RESOURCE")
	for i := range result.Items {
		width = max(width, len(result.Items[i].Resource))
	}
	width = min(width, maxResourceWidth)

	header := f.colorize(color.New(color.Bold))

	_, _ = header.Fprintf(w, "%-23s  %-6s  %-*s  %10s  %10s  %s\n", "TIME", "STATUS", width, "RESOURCE", "SIZE", "DURATION", "REMOTE")
	_, _ = fmt.Fprintf(w, "%s  %s  %s  %s  %s  %s\n",
		strings.Repeat("-", 23), strings.Repeat("-", 6), strings.Repeat("-", width),
		strings.Repeat("-", 10), strings.Repeat("-", 10), strings.Repeat("-", 15))

	var total int64
	for i := range result.Items {
		e := &result.Items[i]
		total += e.BytesSent

		resource := e.Resource
		if len(resource) > width {
			resource = resource[:width-3] + "..."
		}

		// pad before coloring so escape codes don't break alignment
		status := f.status(e.Status).Sprint(fmt.Sprintf("%-6d", int(e.Status)))

		_, _ = fmt.Fprintf(w, "%-23s  %s  %-*s  %10s  %10s  %s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05.000"),
			status,
			width, resource,
			formatSize(e.BytesSent),
			e.Duration.Round(time.Microsecond).String(),
			e.RemoteAddr,
		)
	}

	_, _ = fmt.Fprintf(w, "\n%d exchange(s) (%s sent)\n", len(result.Items), formatSize(total))

	if result.NextCursor != "" {
		_, _ = fmt.Fprintf(w, "Next page: use --cursor %q\n", result.NextCursor)
	}

	return nil
}

func (f *HumanFormatter) FormatPrune(w io.Writer, deleted int64) error {
	_, _ = fmt.Fprintf(w, "Pruned %d exchange(s)\n", deleted)
	return nil
}

func (f *HumanFormatter) status(code webroot.StatusCode) *color.Color {
	var c *color.Color
	switch {
	case code >= 500:
		c = color.New(color.FgRed, color.Bold)
	case code >= 400:
		c = color.New(color.FgYellow)
	case code >= 300:
		c = color.New(color.FgCyan)
	default:
		c = color.New(color.FgGreen)
	}
	return f.colorize(c)
}

func (f *HumanFormatter) colorize(c *color.Color) *color.Color {
	if f.NoColor {
		c.DisableColor()
	} else {
		c.EnableColor()
	}
	return c
}

// JSONFormatter outputs indented JSON.
type JSONFormatter struct{}

func (f *JSONFormatter) FormatAccess(w io.Writer, result webroot.AccessListResult) error {
	if result.Items == nil {
		result.Items = []webroot.Exchange{}
	}
	return writeJSON(w, result)
}

func (f *JSONFormatter) FormatPrune(w io.Writer, deleted int64) error {
	return writeJSON(w, struct {
		Deleted int64 `json:"deleted"`
	}{Deleted: deleted})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
