package tui

import (
	"fmt"
	"strings"
)

// HelpItem is a single keyboard shortcut and its description.
type HelpItem struct {
	Key         string
	Description string
}

func helpContent() string {
	items := []HelpItem{
		{"1-4", "Switch tab (Logs / Blockchain / Analysis / Settings)"},
		{"u / p", "Edit target URL / max pages"},
		{"s", "Start scraping"},
		{"x", "Stop scraping"},
		{"r", "Refresh blockchain view"},
		{"g", "Generate analysis report"},
		{"a", "Detect anomalies"},
		{"e", "Export displayed data"},
		{"w", "Save logs to file"},
		{"c", "Clear log view"},
		{"t", "Toggle auto-scroll"},
		{"/", "Search blockchain records"},
		{"Esc", "Dismiss notice / cancel input"},
		{"?", "Toggle this help"},
		{"q / Ctrl+C", "Quit"},
	}
	return renderHelpItems(items)
}

func renderHelpItems(items []HelpItem) string {
	var b strings.Builder
	for _, item := range items {
		keyStyle := boldStyle.Foreground(colorPrimary)
		b.WriteString(fmt.Sprintf("  %-14s %s\n",
			keyStyle.Render(item.Key),
			item.Description))
	}
	return b.String()
}

func (m *Model) renderHelpOverlay() string {
	var b strings.Builder
	b.WriteString(renderTitle("Keyboard Shortcuts"))
	b.WriteString("\n\n")
	b.WriteString(helpContent())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("Press '?' or Esc to close"))
	return b.String()
}
