package tui

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"chainscrape-go/pkg/config"
	"chainscrape-go/pkg/engine"
	"chainscrape-go/pkg/logger"
	"chainscrape-go/pkg/shell"
)

type tab int

const (
	tabLogs tab = iota
	tabBlockchain
	tabAnalysis
	tabSettings
)

var tabNames = []string{"Logs", "Blockchain", "Analysis", "Settings"}

type focusTarget int

const (
	focusNone focusTarget = iota
	focusURL
	focusPages
)

// Model is the root Bubble Tea model: control panel, tab bar, and the four
// tab views. All view state is mutated here, on the update loop; engine
// events cross over via the controller's channel and the re-arming pump
// command, never by direct mutation from another goroutine.
type Model struct {
	ctrl *shell.Controller
	cfg  *config.Config

	// Control panel
	urlInput   textinput.Model
	pagesInput textinput.Model
	focus      focusTarget

	// Tabs
	activeTab    tab
	logView      viewport.Model
	ledgerTable  table.Model
	analysisView viewport.Model
	settings     settingsModel

	prompt promptModel

	autoScroll  bool
	engineUp    bool
	searchQuery string
	notice      notice
	showHelp    bool

	width  int
	height int
	ready  bool

	requestTimeout time.Duration
}

type notice struct {
	text    string
	isError bool
}

// NewModel constructs the root model from config defaults.
func NewModel(ctrl *shell.Controller, cfg *config.Config) *Model {
	urlInput := textinput.New()
	urlInput.Placeholder = "https://example.com"
	urlInput.SetValue(cfg.Scrape.DefaultURL)
	urlInput.CharLimit = 512
	urlInput.Width = 50

	pagesInput := textinput.New()
	pagesInput.Placeholder = "10"
	pagesInput.SetValue(strconv.Itoa(cfg.Scrape.MaxPages))
	pagesInput.CharLimit = 6
	pagesInput.Width = 8

	timeout := time.Duration(cfg.Engine.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Model{
		ctrl:           ctrl,
		cfg:            cfg,
		urlInput:       urlInput,
		pagesInput:     pagesInput,
		activeTab:      tabLogs,
		logView:        viewport.New(80, 16),
		ledgerTable:    newLedgerTable(),
		analysisView:   viewport.New(80, 16),
		settings:       newSettingsModel(cfg),
		prompt:         newPromptModel(),
		autoScroll:     cfg.Console.AutoScroll,
		requestTimeout: timeout,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.waitForEvent(),
		m.probeEngine(),
	)
}

// waitForEvent blocks on the controller's event channel and re-arms itself
// after every delivery. This is the marshal-to-event-loop rule: the view
// only ever changes inside Update.
func (m *Model) waitForEvent() tea.Cmd {
	events := m.ctrl.Events()
	return func() tea.Msg {
		return engineEventMsg{Event: <-events}
	}
}

func (m *Model) probeEngine() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.requestTimeout)
		defer cancel()
		return engineReadyMsg{Err: m.ctrl.ProbeEngine(ctx)}
	}
}

func (m *Model) refreshLedgerCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.requestTimeout)
		defer cancel()
		m.ctrl.RefreshLedger(ctx)
		return ledgerRefreshedMsg{}
	}
}

func (m *Model) analysisCmd(action shell.Action) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.requestTimeout)
		defer cancel()

		var err error
		label := "Report"
		if action == shell.ActionAnomalies {
			label = "Anomaly scan"
			err = m.ctrl.DetectAnomalies(ctx)
		} else {
			err = m.ctrl.GenerateReport(ctx)
		}
		return analysisLoadedMsg{Label: label, Err: err}
	}
}

func (m *Model) exportCmd(action shell.Action, path string) tea.Cmd {
	return func() tea.Msg {
		var err error
		if action == shell.ActionSaveLogs {
			err = m.ctrl.SaveLogs(path)
		} else {
			err = m.ctrl.ExportData(path)
		}
		return exportDoneMsg{Path: path, Err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		return m, nil

	case engineEventMsg:
		return m.handleEngineEvent(msg.Event)

	case engineReadyMsg:
		if msg.Err != nil {
			logger.LogError(msg.Err, "engine health probe failed")
			m.setNotice("Engine unreachable. Start it and press 'r' to retry.", true)
			return m, nil
		}
		m.engineUp = true
		if m.notice.isError {
			m.notice = notice{}
		}
		m.ctrl.Logs().Appendf("engine connected")
		m.refreshLogView()
		return m, m.refreshLedgerCmd()

	case ledgerRefreshedMsg:
		m.applyLedgerRows()
		return m, nil

	case analysisLoadedMsg:
		if msg.Err != nil {
			m.setNotice(userMessage(msg.Err), true)
			return m, nil
		}
		m.analysisView.SetContent(m.ctrl.Analysis())
		m.analysisView.GotoTop()
		m.activeTab = tabAnalysis
		m.setNotice(msg.Label+" ready.", false)
		return m, nil

	case exportDoneMsg:
		if msg.Err != nil {
			m.setNotice(userMessage(msg.Err), true)
			return m, nil
		}
		m.setNotice("Wrote "+msg.Path, false)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// handleEngineEvent applies one event and re-arms the pump.
func (m *Model) handleEngineEvent(ev engine.Event) (tea.Model, tea.Cmd) {
	err := m.ctrl.HandleEvent(ev)
	m.refreshLogView()

	cmds := []tea.Cmd{m.waitForEvent()}

	if fin, ok := ev.(engine.FinishedEvent); ok {
		if err != nil {
			m.setNotice(userMessage(err), true)
		} else if fin.Summary != nil {
			m.setNotice("Scraping finished.", false)
			// New blocks were written; pick them up.
			cmds = append(cmds, m.refreshLedgerCmd())
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.showHelp {
		switch key {
		case "?", "esc", "q":
			m.showHelp = false
		}
		return m, nil
	}

	if m.prompt.active() {
		return m.handlePromptKey(msg)
	}

	if m.focus != focusNone {
		return m.handleInputKey(msg)
	}

	if m.activeTab == tabSettings && m.settings.focused() {
		return m.handleSettingsKey(msg)
	}

	switch key {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "esc":
		m.notice = notice{}
		return m, nil

	case "?":
		m.showHelp = true
		return m, nil

	case "1", "2", "3", "4":
		n, _ := strconv.Atoi(key)
		m.activeTab = tab(n - 1)
		return m, nil

	case "u":
		m.focus = focusURL
		m.urlInput.Focus()
		return m, textinput.Blink

	case "p":
		m.focus = focusPages
		m.pagesInput.Focus()
		return m, textinput.Blink

	case "s":
		return m.startScraping()

	case "x":
		if m.ctrl.CanRun(shell.ActionStop) {
			m.ctrl.StopScraping()
			m.refreshLogView()
		}
		return m, nil

	case "r":
		// Until the first successful probe, 'r' retries the connection
		// itself; the ledger refresh follows once the engine answers.
		if !m.engineUp {
			return m, m.probeEngine()
		}
		return m, m.refreshLedgerCmd()

	case "g":
		return m, m.analysisCmd(shell.ActionReport)

	case "a":
		return m, m.analysisCmd(shell.ActionAnomalies)

	case "e":
		return m.openPrompt(promptExportData, shell.DefaultExportPath(m.cfg.Console.ExportDir, "chainscrape-export", "json"))

	case "w":
		return m.openPrompt(promptSaveLogs, shell.DefaultExportPath(m.cfg.Console.ExportDir, "chainscrape-logs", "txt"))

	case "c":
		m.ctrl.ClearLogs()
		m.refreshLogView()
		return m, nil

	case "t":
		m.autoScroll = !m.autoScroll
		if m.autoScroll {
			m.logView.GotoBottom()
		}
		return m, nil

	case "/":
		return m.openPrompt(promptSearch, m.searchQuery)
	}

	// Remaining keys scroll or navigate the active tab's widget.
	return m.updateActiveTab(msg)
}

// startScraping reads the control panel inputs and dispatches through the
// command table. Parse failures are folded into the shell's validation so
// the operator sees one consistent notice.
func (m *Model) startScraping() (tea.Model, tea.Cmd) {
	if !m.ctrl.CanRun(shell.ActionStart) {
		return m, nil
	}

	url := strings.TrimSpace(m.urlInput.Value())
	maxPages, err := strconv.Atoi(strings.TrimSpace(m.pagesInput.Value()))
	if err != nil {
		maxPages = 0
	}

	if err := m.ctrl.StartScraping(url, maxPages); err != nil {
		m.setNotice(userMessage(err), true)
		return m, nil
	}

	m.notice = notice{}
	m.activeTab = tabLogs
	m.refreshLogView()
	return m, nil
}

func (m *Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.blurInputs()
		return m, nil
	case "tab":
		if m.focus == focusURL {
			m.blurInputs()
			m.focus = focusPages
			m.pagesInput.Focus()
		} else {
			m.blurInputs()
			m.focus = focusURL
			m.urlInput.Focus()
		}
		return m, textinput.Blink
	case "enter":
		m.blurInputs()
		return m.startScraping()
	}

	var cmd tea.Cmd
	if m.focus == focusURL {
		m.urlInput, cmd = m.urlInput.Update(msg)
	} else {
		m.pagesInput, cmd = m.pagesInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) blurInputs() {
	m.urlInput.Blur()
	m.pagesInput.Blur()
	m.focus = focusNone
}

func (m *Model) updateActiveTab(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.activeTab {
	case tabLogs:
		m.logView, cmd = m.logView.Update(msg)
	case tabBlockchain:
		m.ledgerTable, cmd = m.ledgerTable.Update(msg)
	case tabAnalysis:
		m.analysisView, cmd = m.analysisView.Update(msg)
	case tabSettings:
		return m.handleSettingsKey(msg)
	}
	return m, cmd
}

func (m *Model) setNotice(text string, isError bool) {
	m.notice = notice{text: text, isError: isError}
	if isError {
		logger.Log("notice (error): %s", text)
	}
}

func (m *Model) resize() {
	contentWidth := m.width - 4
	if contentWidth < 40 {
		contentWidth = 40
	}
	contentHeight := m.height - controlPanelHeight - 6
	if contentHeight < 5 {
		contentHeight = 5
	}

	m.logView.Width = contentWidth
	m.logView.Height = contentHeight
	m.analysisView.Width = contentWidth
	m.analysisView.Height = contentHeight
	m.ledgerTable.SetHeight(contentHeight)
	m.refreshLogView()
}

// userMessage prefers an error's operator-facing message when it has one.
func userMessage(err error) string {
	var vErr *shell.ValidationError
	if errors.As(err, &vErr) {
		return vErr.UserMessage()
	}
	var ioErr *shell.IOError
	if errors.As(err, &ioErr) {
		return ioErr.UserMessage()
	}
	var engErr *engine.EngineError
	if errors.As(err, &engErr) {
		return engErr.UserMessage()
	}
	return err.Error()
}
