package tui

import "chainscrape-go/pkg/engine"

// engineEventMsg carries one engine event pumped off the controller's
// channel into the update loop.
type engineEventMsg struct {
	Event engine.Event
}

// engineReadyMsg reports the outcome of the startup health probe.
type engineReadyMsg struct {
	Err error
}

// ledgerRefreshedMsg is emitted after a ledger snapshot attempt; the rows
// live in the controller, so the message only signals "re-render".
type ledgerRefreshedMsg struct{}

// analysisLoadedMsg is emitted when a report or anomaly fetch finishes.
type analysisLoadedMsg struct {
	Label string
	Err   error
}

// exportDoneMsg is emitted when an export or save-logs write finishes.
type exportDoneMsg struct {
	Path string
	Err  error
}
