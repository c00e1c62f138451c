package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainscrape-go/pkg/engine"
	"chainscrape-go/pkg/models"
)

// fakeEngine is a scripted engine for controller tests. Start hands back a
// channel the test feeds directly.
type fakeEngine struct {
	mu         sync.Mutex
	stream     chan engine.Event
	startErr   error
	stopCalled bool

	healthErr  error
	waitCalls  int
	waitBudget uint64

	ledger    []models.BlockRecord
	ledgerErr error
	report    string
	reportErr error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{stream: make(chan engine.Event, 16)}
}

func (f *fakeEngine) CheckHealth(context.Context) error { return f.healthErr }

func (f *fakeEngine) WaitReady(ctx context.Context, maxRetries uint64) error {
	f.mu.Lock()
	f.waitCalls++
	f.waitBudget = maxRetries
	f.mu.Unlock()
	return f.CheckHealth(ctx)
}

func (f *fakeEngine) Start(context.Context, engine.ScrapeRequest) (<-chan engine.Event, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	return f.stream, nil
}

func (f *fakeEngine) Stop(context.Context) error {
	f.mu.Lock()
	f.stopCalled = true
	f.mu.Unlock()
	return nil
}

func (f *fakeEngine) LedgerSnapshot(context.Context) ([]models.BlockRecord, error) {
	return f.ledger, f.ledgerErr
}

func (f *fakeEngine) GenerateReport(context.Context) (string, error) {
	return f.report, f.reportErr
}

func (f *fakeEngine) DetectAnomalies(context.Context) (string, error) {
	return f.report, f.reportErr
}

func (f *fakeEngine) stopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopCalled
}

// drainOne reads the next forwarded event off the controller's channel.
func drainOne(t *testing.T, c *Controller) engine.Event {
	t.Helper()
	select {
	case ev := <-c.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for controller event")
		return nil
	}
}

func TestProbeEngineUsesRetryingHealthCheck(t *testing.T) {
	eng := newFakeEngine()
	c := NewController(eng)

	require.NoError(t, c.ProbeEngine(context.Background()))
	assert.Equal(t, 1, eng.waitCalls)
	assert.NotZero(t, eng.waitBudget, "startup probe must carry a retry budget")

	eng.healthErr = errors.New("connection refused")
	require.Error(t, c.ProbeEngine(context.Background()))
}

func TestStartScrapingTransitionsToRunning(t *testing.T) {
	c := NewController(newFakeEngine())

	require.NoError(t, c.StartScraping("https://example.com", 10))

	assert.Equal(t, StateRunning, c.State())
	assert.False(t, c.CanRun(ActionStart))
	assert.True(t, c.CanRun(ActionStop))
	assert.Equal(t, 1, c.Logs().Len(), "start should append a session-started line")
}

func TestStartScrapingValidation(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		maxPages int
	}{
		{"empty url", "", 10},
		{"not a url", "not a url", 10},
		{"zero pages", "https://example.com", 0},
		{"negative pages", "https://example.com", -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewController(newFakeEngine())

			err := c.StartScraping(tt.url, tt.maxPages)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.NotEmpty(t, vErr.UserMessage())
			assert.Equal(t, StateIdle, c.State(), "validation failure must not change state")
			assert.Equal(t, 0, c.Logs().Len())
		})
	}
}

func TestStartScrapingWhileActiveIsNoOp(t *testing.T) {
	c := NewController(newFakeEngine())
	require.NoError(t, c.StartScraping("https://example.com", 5))

	require.NoError(t, c.StartScraping("https://example.com", 5))

	assert.Equal(t, StateRunning, c.State())
	assert.Equal(t, 1, c.Logs().Len(), "second start must not dispatch again")
}

func TestStopScrapingIdleIsNoOp(t *testing.T) {
	eng := newFakeEngine()
	c := NewController(eng)

	c.StopScraping()

	assert.Equal(t, StateIdle, c.State())
	assert.False(t, eng.stopped())
	assert.Equal(t, 0, c.Logs().Len())
}

func TestStopScrapingSignalsEngine(t *testing.T) {
	eng := newFakeEngine()
	c := NewController(eng)
	require.NoError(t, c.StartScraping("https://example.com", 5))

	c.StopScraping()

	assert.Equal(t, StateStopping, c.State())
	assert.Eventually(t, eng.stopped, time.Second, 10*time.Millisecond)

	// Late log lines after a stop request still append.
	require.NoError(t, c.HandleEvent(engine.LogEvent{Line: models.LogLine{Text: "late"}}))
	assert.Equal(t, StateStopping, c.State())
}

func TestFinishedEventAlwaysReturnsToIdle(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		c := NewController(newFakeEngine())
		require.NoError(t, c.StartScraping("https://example.com", 5))

		err := c.HandleEvent(engine.FinishedEvent{Summary: &models.ScrapeSummary{PagesScraped: 5, BlocksAdded: 5}})

		require.NoError(t, err)
		assert.Equal(t, StateIdle, c.State())
		assert.True(t, c.CanRun(ActionStart))
		assert.False(t, c.CanRun(ActionStop))
	})

	t.Run("error", func(t *testing.T) {
		c := NewController(newFakeEngine())
		require.NoError(t, c.StartScraping("https://example.com", 5))

		err := c.HandleEvent(engine.FinishedEvent{Err: errors.New("crawler blew up")})

		require.Error(t, err)
		assert.Equal(t, StateIdle, c.State())
	})
}

func TestStartFailureSurfacesAsTerminalEvent(t *testing.T) {
	eng := newFakeEngine()
	eng.startErr = errors.New("engine down")
	c := NewController(eng)

	require.NoError(t, c.StartScraping("https://example.com", 5))
	assert.Equal(t, StateRunning, c.State())

	ev := drainOne(t, c)
	fin, ok := ev.(engine.FinishedEvent)
	require.True(t, ok)
	require.Error(t, fin.Err)

	require.Error(t, c.HandleEvent(fin))
	assert.Equal(t, StateIdle, c.State())
}

func TestSessionScenario(t *testing.T) {
	eng := newFakeEngine()
	c := NewController(eng)

	require.NoError(t, c.StartScraping("https://example.com", 10))
	assert.Equal(t, StateRunning, c.State())

	for i := 0; i < 5; i++ {
		eng.stream <- engine.LogEvent{Line: models.LogLine{Timestamp: time.Now(), Text: fmt.Sprintf("page %d", i)}}
	}
	eng.stream <- engine.FinishedEvent{Summary: &models.ScrapeSummary{PagesScraped: 5}}
	close(eng.stream)

	for i := 0; i < 6; i++ {
		require.NoError(t, c.HandleEvent(drainOne(t, c)))
	}

	lines := c.Logs().Snapshot()
	require.Len(t, lines, 7, "start line + 5 log events + finished line")
	for i := 0; i < 5; i++ {
		assert.Equal(t, fmt.Sprintf("page %d", i), lines[i+1].Text)
	}
	assert.Equal(t, StateIdle, c.State())
	assert.True(t, c.CanRun(ActionStart))
	assert.False(t, c.CanRun(ActionStop))
}

func TestRefreshLedger(t *testing.T) {
	eng := newFakeEngine()
	eng.ledger = []models.BlockRecord{
		{Index: 0, Hash: "h0", PreviousHash: "0"},
		{Index: 1, Hash: "h1", PreviousHash: "h0"},
		{Index: 2, Hash: "h2", PreviousHash: "h1"},
	}
	c := NewController(eng)

	c.RefreshLedger(context.Background())

	records, ok := c.Ledger()
	require.True(t, ok)
	require.Len(t, records, 3)
	for i, rec := range records {
		assert.Equal(t, i, rec.Index)
	}
}

func TestRefreshLedgerUnavailable(t *testing.T) {
	eng := newFakeEngine()
	eng.ledgerErr = errors.New("no ledger yet")
	c := NewController(eng)

	c.RefreshLedger(context.Background())

	records, ok := c.Ledger()
	assert.False(t, ok)
	assert.Empty(t, records)
	assert.Equal(t, StateIdle, c.State(), "a failed refresh never touches session state")
}

func TestReportsStoredVerbatim(t *testing.T) {
	eng := newFakeEngine()
	eng.report = "=== Analysis Report ===\n  42 pages\n"
	c := NewController(eng)

	require.NoError(t, c.GenerateReport(context.Background()))
	assert.Equal(t, eng.report, c.Analysis())

	require.NoError(t, c.DetectAnomalies(context.Background()))
	assert.Equal(t, eng.report, c.Analysis())
}

func TestReportErrorDoesNotClobberAnalysis(t *testing.T) {
	eng := newFakeEngine()
	eng.report = "first"
	c := NewController(eng)
	require.NoError(t, c.GenerateReport(context.Background()))

	eng.reportErr = errors.New("engine busy")
	require.Error(t, c.GenerateReport(context.Background()))
	assert.Equal(t, "first", c.Analysis())
}

func TestExportDataAndSaveLogs(t *testing.T) {
	eng := newFakeEngine()
	eng.ledger = []models.BlockRecord{{Index: 0, Hash: "h0", PreviousHash: "0", DataType: "scraped_page"}}
	c := NewController(eng)
	c.RefreshLedger(context.Background())
	c.Logs().Appendf("hello")

	dir := t.TempDir()

	exportPath := filepath.Join(dir, "export.json")
	require.NoError(t, c.ExportData(exportPath))
	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"h0"`)

	logPath := filepath.Join(dir, "logs", "console.log")
	require.NoError(t, c.SaveLogs(logPath))
	data, err = os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestExportToUnwritablePathIsIOError(t *testing.T) {
	c := NewController(newFakeEngine())
	require.NoError(t, c.StartScraping("https://example.com", 2))

	// A directory path is not writable as a file.
	err := c.ExportData(t.TempDir())

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.NotEmpty(t, ioErr.UserMessage())
	assert.Equal(t, StateRunning, c.State(), "IO failures never touch session state")
}

func TestClearLogs(t *testing.T) {
	c := NewController(newFakeEngine())
	c.Logs().Appendf("one")
	c.Logs().Appendf("two")

	c.ClearLogs()

	assert.Equal(t, 0, c.Logs().Len())
}
