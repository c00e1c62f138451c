package tui

import (
	"fmt"
	"strings"
)

// refreshLogView rebuilds the log viewport content from the controller's
// buffer. With auto-scroll on, the view follows the newest line.
func (m *Model) refreshLogView() {
	lines := m.ctrl.Logs().Snapshot()

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(mutedStyle.Render(line.Timestamp.Format("15:04:05")))
		b.WriteString("  ")
		b.WriteString(line.Text)
		b.WriteString("\n")
	}

	m.logView.SetContent(b.String())
	if m.autoScroll {
		m.logView.GotoBottom()
	}
}

func (m *Model) renderLogsTab() string {
	var b strings.Builder
	b.WriteString(m.logView.View())
	b.WriteString("\n")

	autoScroll := "off"
	if m.autoScroll {
		autoScroll = "on"
	}
	b.WriteString(helpStyle.Render(fmt.Sprintf(
		"%d lines • auto-scroll %s • c clear • w save • t toggle auto-scroll",
		m.ctrl.Logs().Len(), autoScroll)))
	return b.String()
}
