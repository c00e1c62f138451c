package tui

import (
	"fmt"
	"strings"

	"chainscrape-go/pkg/shell"
)

// controlPanelHeight is the rough number of rows the header and control
// panel occupy; used when sizing the tab content area.
const controlPanelHeight = 8

func (m *Model) View() string {
	if m.showHelp {
		return m.renderHelpOverlay()
	}

	var b strings.Builder

	b.WriteString(renderTitle("Chainscrape Console"))
	b.WriteString("  ")
	b.WriteString(m.renderStateBadge())
	b.WriteString("\n")

	b.WriteString(m.renderControlPanel())
	b.WriteString("\n")

	b.WriteString(m.renderTabBar())
	b.WriteString("\n\n")

	switch m.activeTab {
	case tabLogs:
		b.WriteString(m.renderLogsTab())
	case tabBlockchain:
		b.WriteString(m.renderBlockchainTab())
	case tabAnalysis:
		b.WriteString(m.renderAnalysisTab())
	case tabSettings:
		b.WriteString(m.renderSettingsTab())
	}
	b.WriteString("\n")

	if m.prompt.active() {
		b.WriteString("\n")
		b.WriteString(m.renderPrompt())
		b.WriteString("\n")
	}

	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m *Model) renderControlPanel() string {
	var b strings.Builder

	b.WriteString(fieldLabelStyle.Render("Target URL:"))
	b.WriteString(" ")
	b.WriteString(m.urlInput.View())
	b.WriteString("   ")
	b.WriteString(fieldLabelStyle.Render("Max Pages:"))
	b.WriteString(" ")
	b.WriteString(m.pagesInput.View())
	b.WriteString("\n")
	b.WriteString(m.renderCommands())

	return panelStyle.Render(b.String())
}

// renderCommands lays out the command table with each entry styled by its
// enablement predicate, so the operator can see what is currently allowed.
func (m *Model) renderCommands() string {
	keys := map[shell.Action]string{
		shell.ActionStart:      "s",
		shell.ActionStop:       "x",
		shell.ActionRefresh:    "r",
		shell.ActionReport:     "g",
		shell.ActionAnomalies:  "a",
		shell.ActionExportData: "e",
		shell.ActionSaveLogs:   "w",
		shell.ActionClearLogs:  "c",
		shell.ActionSearch:     "/",
	}

	state := m.ctrl.State()
	parts := make([]string, 0, len(keys))
	for _, cmd := range shell.CommandTable() {
		key, ok := keys[cmd.Action]
		if !ok {
			continue
		}
		label := fmt.Sprintf("%s %s", key, cmd.Label)
		if cmd.Enabled(state) {
			parts = append(parts, commandStyle.Render(label))
		} else {
			parts = append(parts, disabledCommandStyle.Render(label))
		}
	}
	return strings.Join(parts, mutedStyle.Render(" • "))
}

func (m *Model) renderTabBar() string {
	parts := make([]string, 0, len(tabNames))
	for i, name := range tabNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if tab(i) == m.activeTab {
			parts = append(parts, activeTabStyle.Render(label))
		} else {
			parts = append(parts, inactiveTabStyle.Render(label))
		}
	}
	return strings.Join(parts, "  ") + "\n" + renderDivider(max(m.width-2, 40))
}

func (m *Model) renderAnalysisTab() string {
	var b strings.Builder
	if m.ctrl.Analysis() == "" {
		b.WriteString(mutedStyle.Render("No analysis yet."))
		b.WriteString("\n\n")
	} else {
		b.WriteString(m.analysisView.View())
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("g generate report • a detect anomalies"))
	return b.String()
}

func (m *Model) renderStateBadge() string {
	state := m.ctrl.State()
	switch state {
	case shell.StateRunning:
		return stateRunningStyle.Render("● running")
	case shell.StateStopping:
		return stateStoppingStyle.Render("◐ stopping")
	default:
		return stateIdleStyle.Render("○ idle")
	}
}

func (m *Model) renderStatusBar() string {
	var b strings.Builder
	b.WriteString(renderDivider(max(m.width-2, 40)))
	b.WriteString("\n")

	if m.notice.text != "" {
		if m.notice.isError {
			b.WriteString(renderError(m.notice.text))
		} else {
			b.WriteString(renderSuccess(m.notice.text))
		}
		b.WriteString(helpStyle.Render("  (Esc to dismiss)"))
	} else {
		b.WriteString(helpStyle.Render("? help • q quit"))
	}
	return b.String()
}
