package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"chainscrape-go/pkg/config"
	"chainscrape-go/pkg/logger"
)

const (
	settingEngineURL = iota
	settingTimeout
	settingMaxPages
	settingDelay
	settingCount
)

var settingLabels = [settingCount]string{
	"Engine URL",
	"Request timeout (s)",
	"Default max pages",
	"Scrape delay (ms)",
}

// settingsModel edits the console configuration in place. Values are saved
// back to the config file with ctrl+s; the engine address takes effect on
// restart.
type settingsModel struct {
	inputs   [settingCount]textinput.Model
	selected int
	editing  bool
}

func newSettingsModel(cfg *config.Config) settingsModel {
	var s settingsModel
	values := [settingCount]string{
		cfg.Engine.BaseURL,
		strconv.Itoa(cfg.Engine.RequestTimeout),
		strconv.Itoa(cfg.Scrape.MaxPages),
		strconv.Itoa(cfg.Scrape.DelayMS),
	}

	for i := range s.inputs {
		input := textinput.New()
		input.SetValue(values[i])
		input.CharLimit = 256
		input.Width = 40
		s.inputs[i] = input
	}
	return s
}

func (s *settingsModel) focused() bool {
	return s.editing
}

func (m *Model) handleSettingsKey(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	s := &m.settings

	if s.editing {
		switch keyMsg.String() {
		case "esc", "enter":
			s.inputs[s.selected].Blur()
			s.editing = false
			return m, nil
		}
		var cmd tea.Cmd
		s.inputs[s.selected], cmd = s.inputs[s.selected].Update(msg)
		return m, cmd
	}

	switch keyMsg.String() {
	case "up", "k":
		if s.selected > 0 {
			s.selected--
		}
		return m, nil
	case "down", "j":
		if s.selected < settingCount-1 {
			s.selected++
		}
		return m, nil
	case "enter":
		s.editing = true
		s.inputs[s.selected].Focus()
		return m, textinput.Blink
	case "ctrl+s":
		m.saveSettings()
		return m, nil
	}

	return m, nil
}

// saveSettings parses the edited values back into the config and persists
// it. Bad numeric input keeps the previous value and tells the operator.
func (m *Model) saveSettings() {
	s := &m.settings

	m.cfg.Engine.BaseURL = strings.TrimSpace(s.inputs[settingEngineURL].Value())

	numeric := []struct {
		idx  int
		dst  *int
		name string
	}{
		{settingTimeout, &m.cfg.Engine.RequestTimeout, "request timeout"},
		{settingMaxPages, &m.cfg.Scrape.MaxPages, "max pages"},
		{settingDelay, &m.cfg.Scrape.DelayMS, "scrape delay"},
	}
	for _, field := range numeric {
		n, err := strconv.Atoi(strings.TrimSpace(s.inputs[field.idx].Value()))
		if err != nil || n < 0 {
			m.setNotice(fmt.Sprintf("Invalid %s: must be a non-negative integer.", field.name), true)
			return
		}
		*field.dst = n
	}

	m.cfg.Console.AutoScroll = m.autoScroll

	if err := config.Save(m.cfg); err != nil {
		logger.LogError(err, "failed to save config")
		m.setNotice("Could not save settings: "+err.Error(), true)
		return
	}
	m.setNotice("Settings saved. Engine URL changes apply on restart.", false)
}

func (m *Model) renderSettingsTab() string {
	var b strings.Builder
	s := &m.settings

	for i := 0; i < settingCount; i++ {
		marker := "  "
		if i == s.selected {
			marker = boldStyle.Foreground(colorPrimary).Render("→ ")
		}
		b.WriteString(marker)
		b.WriteString(fieldLabelStyle.Render(settingLabels[i] + ":"))
		b.WriteString(" ")
		b.WriteString(s.inputs[i].View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ select • Enter edit • Ctrl+S save"))
	return b.String()
}
