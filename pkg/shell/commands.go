package shell

// Action identifies one operator-facing command.
type Action string

const (
	ActionStart      Action = "start"
	ActionStop       Action = "stop"
	ActionRefresh    Action = "refresh"
	ActionReport     Action = "report"
	ActionAnomalies  Action = "anomalies"
	ActionExportData Action = "export"
	ActionSaveLogs   Action = "save-logs"
	ActionClearLogs  Action = "clear-logs"
	ActionSearch     Action = "search"
)

// Command binds an action to its label and the session states in which the
// operator may invoke it. The table is the single source of truth for
// button/key enablement.
type Command struct {
	Action  Action
	Label   string
	Enabled func(SessionState) bool
}

func always(SessionState) bool { return true }

// CommandTable returns the operator command set. Start is available only
// when idle and Stop only while running; everything else is always on.
func CommandTable() []Command {
	return []Command{
		{Action: ActionStart, Label: "Start Scraping", Enabled: SessionState.CanStart},
		{Action: ActionStop, Label: "Stop Scraping", Enabled: SessionState.CanStop},
		{Action: ActionRefresh, Label: "Refresh Blockchain", Enabled: always},
		{Action: ActionReport, Label: "Generate Report", Enabled: always},
		{Action: ActionAnomalies, Label: "Detect Anomalies", Enabled: always},
		{Action: ActionExportData, Label: "Export Data", Enabled: always},
		{Action: ActionSaveLogs, Label: "Save Logs", Enabled: always},
		{Action: ActionClearLogs, Label: "Clear Logs", Enabled: always},
		{Action: ActionSearch, Label: "Search", Enabled: always},
	}
}

// CanRun reports whether the action is enabled in the current session state.
func (c *Controller) CanRun(a Action) bool {
	state := c.State()
	for _, cmd := range CommandTable() {
		if cmd.Action == a {
			return cmd.Enabled(state)
		}
	}
	return false
}
