package shell

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"chainscrape-go/pkg/engine"
	"chainscrape-go/pkg/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Controller is the framework-independent core of the console. It owns the
// session state machine and the view models (log buffer, ledger rows,
// analysis text) and talks to the engine through its narrow interface.
//
// Mutating methods are safe to call from any goroutine; the TUI drives them
// from its update loop and pumps Events() back into that loop, so no view
// ever renders state mid-mutation.
type Controller struct {
	eng  engine.Engine
	logs *LogBuffer

	mu       sync.Mutex
	state    SessionState
	records  []models.BlockRecord
	ledgerOK bool
	analysis string

	events  chan engine.Event
	delayMS int
}

// Option configures a Controller.
type Option func(*Controller)

// WithScrapeDelay sets the per-page delay forwarded to the engine.
func WithScrapeDelay(ms int) Option {
	return func(c *Controller) { c.delayMS = ms }
}

func NewController(eng engine.Engine, opts ...Option) *Controller {
	c := &Controller{
		eng:    eng,
		logs:   NewLogBuffer(),
		state:  StateIdle,
		events: make(chan engine.Event, 64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Events is the stream the view loop pumps: every session's log and
// completion events are forwarded here by the dispatch goroutine.
func (c *Controller) Events() <-chan engine.Event {
	return c.events
}

// Logs returns the append-only log view model.
func (c *Controller) Logs() *LogBuffer {
	return c.logs
}

// State returns the current session state.
func (c *Controller) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Ledger returns the displayed block records and whether the last snapshot
// succeeded. ok == false renders as the "unavailable" state.
func (c *Controller) Ledger() (records []models.BlockRecord, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.records, c.ledgerOK
}

// Analysis returns the last report or anomaly text, verbatim.
func (c *Controller) Analysis() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.analysis
}

// probeRetries bounds the startup health probe so a slow-starting engine
// still connects without operator intervention.
const probeRetries = 4

// ProbeEngine waits for the engine to answer its health check, retrying
// with backoff until the budget runs out or ctx expires.
func (c *Controller) ProbeEngine(ctx context.Context) error {
	return c.eng.WaitReady(ctx, probeRetries)
}

// StartScraping validates the request and, when the shell is idle,
// transitions to Running and dispatches the session on a background
// goroutine. Validation failures return *ValidationError and leave the
// session state untouched. Calling while a session is active is a no-op.
func (c *Controller) StartScraping(rawURL string, maxPages int) error {
	req := engine.ScrapeRequest{URL: rawURL, MaxPages: maxPages, DelayMS: c.delayMS}
	if err := validateRequest(req); err != nil {
		return err
	}

	c.mu.Lock()
	if !c.state.CanStart() {
		c.mu.Unlock()
		return nil
	}
	c.state = StateRunning
	c.mu.Unlock()

	c.logs.Appendf("session started: %s (max %d pages)", req.URL, req.MaxPages)

	go c.dispatch(req)
	return nil
}

// dispatch runs off the update loop: it submits the session and forwards
// its event stream onto the controller's channel. A submission failure is
// surfaced as the session's terminal event.
func (c *Controller) dispatch(req engine.ScrapeRequest) {
	stream, err := c.eng.Start(context.Background(), req)
	if err != nil {
		c.events <- engine.FinishedEvent{Err: err}
		return
	}
	for ev := range stream {
		c.events <- ev
	}
}

// StopScraping requests cooperative cancellation. Valid only while Running;
// otherwise a silent no-op. The state returns to Idle when the engine
// delivers its terminal event, not here.
func (c *Controller) StopScraping() {
	c.mu.Lock()
	if !c.state.CanStop() {
		c.mu.Unlock()
		return
	}
	c.state = StateStopping
	c.mu.Unlock()

	c.logs.Appendf("stop requested, waiting for engine to wind down")

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.eng.Stop(ctx); err != nil {
			c.logs.Appendf("stop request failed: %v", err)
		}
	}()
}

// HandleEvent applies one engine event to the view models. Log events
// append in arrival order; the terminal event returns the session to Idle
// regardless of outcome. A non-nil return is the session's error, to be
// surfaced as a notice.
func (c *Controller) HandleEvent(ev engine.Event) error {
	switch ev := ev.(type) {
	case engine.LogEvent:
		c.logs.Append(ev.Line)
		return nil

	case engine.FinishedEvent:
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()

		if ev.Err != nil {
			c.logs.Appendf("session failed: %v", ev.Err)
			return ev.Err
		}
		if ev.Summary != nil {
			c.logs.Appendf("session finished: %d pages scraped, %d blocks added in %s",
				ev.Summary.PagesScraped, ev.Summary.BlocksAdded,
				(time.Duration(ev.Summary.DurationMS) * time.Millisecond).Round(time.Millisecond))
		} else {
			c.logs.Appendf("session finished")
		}
		return nil
	}
	return nil
}

// RefreshLedger replaces the displayed block records wholesale. A failed or
// missing snapshot flips the view into its unavailable state without
// surfacing an error; the operator just sees "ledger unavailable".
func (c *Controller) RefreshLedger(ctx context.Context) {
	records, err := c.eng.LedgerSnapshot(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.records = nil
		c.ledgerOK = false
		return
	}
	c.records = records
	c.ledgerOK = true
}

// GenerateReport fetches the engine's analysis report and stores it
// verbatim for the analysis view.
func (c *Controller) GenerateReport(ctx context.Context) error {
	text, err := c.eng.GenerateReport(ctx)
	if err != nil {
		return err
	}
	c.setAnalysis(text)
	return nil
}

// DetectAnomalies fetches the engine's anomaly report and stores it
// verbatim for the analysis view.
func (c *Controller) DetectAnomalies(ctx context.Context) error {
	text, err := c.eng.DetectAnomalies(ctx)
	if err != nil {
		return err
	}
	c.setAnalysis(text)
	return nil
}

func (c *Controller) setAnalysis(text string) {
	c.mu.Lock()
	c.analysis = text
	c.mu.Unlock()
}

// ClearLogs empties the log view. Engine-side history is unaffected.
func (c *Controller) ClearLogs() {
	c.logs.Clear()
}

// ExportData writes the currently displayed ledger rows and analysis text
// as JSON. Failures are *IOError and never touch session state.
func (c *Controller) ExportData(path string) error {
	c.mu.Lock()
	payload := struct {
		ExportedAt time.Time            `json:"exported_at"`
		Blocks     []models.BlockRecord `json:"blocks"`
		Analysis   string               `json:"analysis,omitempty"`
	}{
		ExportedAt: time.Now(),
		Blocks:     c.records,
		Analysis:   c.analysis,
	}
	c.mu.Unlock()

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return &IOError{Path: path, Cause: err}
	}
	return writeFile(path, data)
}

// SaveLogs writes the current log view verbatim to path.
func (c *Controller) SaveLogs(path string) error {
	f, err := createFile(path)
	if err != nil {
		return &IOError{Path: path, Cause: err}
	}
	defer f.Close()

	if _, err := c.logs.WriteTo(f); err != nil {
		return &IOError{Path: path, Cause: err}
	}
	return nil
}

func writeFile(path string, data []byte) error {
	f, err := createFile(path)
	if err != nil {
		return &IOError{Path: path, Cause: err}
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return &IOError{Path: path, Cause: err}
	}
	return nil
}

func createFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}

// DefaultExportPath builds a timestamped file name under dir.
func DefaultExportPath(dir, prefix, ext string) string {
	name := fmt.Sprintf("%s-%s.%s", prefix, time.Now().Format("20060102-150405"), ext)
	return filepath.Join(dir, name)
}

// validateRequest maps validator failures onto operator-readable
// ValidationErrors.
func validateRequest(req engine.ScrapeRequest) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Field: "request", Message: err.Error()}
	}

	fe := fieldErrs[0]
	switch fe.StructField() {
	case "URL":
		if fe.Tag() == "required" {
			return &ValidationError{Field: "target URL", Message: "must not be empty"}
		}
		return &ValidationError{Field: "target URL", Message: "must be a valid URL"}
	case "MaxPages":
		return &ValidationError{Field: "max pages", Message: "must be a positive integer"}
	default:
		return &ValidationError{Field: fe.StructField(), Message: fe.Tag()}
	}
}
