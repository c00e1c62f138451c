package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"chainscrape-go/pkg/shell"
)

type promptMode int

const (
	promptNone promptMode = iota
	promptSearch
	promptExportData
	promptSaveLogs
)

// promptModel is a one-line input the operator fills in for search queries
// and export/save destinations.
type promptModel struct {
	mode  promptMode
	input textinput.Model
}

func newPromptModel() promptModel {
	input := textinput.New()
	input.CharLimit = 256
	input.Width = 60
	return promptModel{mode: promptNone, input: input}
}

func (p *promptModel) active() bool {
	return p.mode != promptNone
}

func (p *promptModel) label() string {
	switch p.mode {
	case promptSearch:
		return "Search blockchain"
	case promptExportData:
		return "Export data to"
	case promptSaveLogs:
		return "Save logs to"
	default:
		return ""
	}
}

func (m *Model) openPrompt(mode promptMode, initial string) (tea.Model, tea.Cmd) {
	m.prompt.mode = mode
	m.prompt.input.SetValue(initial)
	m.prompt.input.CursorEnd()
	m.prompt.input.Focus()
	if mode == promptSearch {
		m.activeTab = tabBlockchain
	}
	return m, textinput.Blink
}

func (m *Model) closePrompt() {
	m.prompt.mode = promptNone
	m.prompt.input.Blur()
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePrompt()
		return m, nil

	case "enter":
		value := strings.TrimSpace(m.prompt.input.Value())
		mode := m.prompt.mode
		m.closePrompt()

		switch mode {
		case promptSearch:
			m.searchQuery = value
			m.applyLedgerRows()
			return m, nil
		case promptExportData:
			if value == "" {
				return m, nil
			}
			return m, m.exportCmd(shell.ActionExportData, value)
		case promptSaveLogs:
			if value == "" {
				return m, nil
			}
			return m, m.exportCmd(shell.ActionSaveLogs, value)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.prompt.input, cmd = m.prompt.input.Update(msg)
	return m, cmd
}

func (m *Model) renderPrompt() string {
	return fieldLabelStyle.Render(m.prompt.label()+":") + " " + m.prompt.input.View() + "\n" +
		helpStyle.Render("Enter to confirm, Esc to cancel")
}
