// Command mockengine is a stand-in for the real scraping/ledger engine so
// the console can be exercised end to end on a laptop. It fakes the crawl,
// hashes blocks into a chained ledger, and serves the same HTTP surface the
// engine client expects.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chainscrape-go/pkg/models"
)

type startRequest struct {
	URL      string `json:"url" binding:"required"`
	MaxPages int    `json:"max_pages" binding:"required,gt=0"`
	DelayMS  int    `json:"delay_ms"`
}

type event struct {
	Name    string
	Payload interface{}
}

type session struct {
	id     string
	cancel context.CancelFunc
	events chan event
}

// emit delivers an event without ever blocking the session goroutine: when
// no consumer is attached and the buffer fills up, the event is dropped.
func (s *session) emit(ev event) {
	select {
	case s.events <- ev:
	default:
	}
}

type mockEngine struct {
	mu       sync.Mutex
	sessions map[string]*session
	ledger   []models.BlockRecord
	current  *session
}

func newMockEngine() *mockEngine {
	e := &mockEngine{sessions: make(map[string]*session)}
	e.appendBlock("genesis", time.Now())
	return e
}

// appendBlock chains a new record onto the ledger. Caller must not hold mu.
func (e *mockEngine) appendBlock(dataType string, ts time.Time) models.BlockRecord {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := "0"
	if n := len(e.ledger); n > 0 {
		prev = e.ledger[n-1].Hash
	}

	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%s|%s|%d", len(e.ledger), prev, dataType, ts.UnixNano())))
	rec := models.BlockRecord{
		Index:        len(e.ledger),
		Timestamp:    ts,
		Hash:         hex.EncodeToString(sum[:]),
		PreviousHash: prev,
		DataType:     dataType,
	}
	e.ledger = append(e.ledger, rec)
	return rec
}

func (e *mockEngine) snapshot() []models.BlockRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.BlockRecord, len(e.ledger))
	copy(out, e.ledger)
	return out
}

// run simulates one scraping session, emitting log events and a terminal
// finished event before closing the stream.
func (e *mockEngine) run(ctx context.Context, s *session, req startRequest) {
	defer close(s.events)
	defer func() {
		e.mu.Lock()
		delete(e.sessions, s.id)
		if e.current == s {
			e.current = nil
		}
		e.mu.Unlock()
	}()

	delay := time.Duration(req.DelayMS) * time.Millisecond
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}

	started := time.Now()
	pages := 0

	s.emit(logEvent("starting crawl of %s (max %d pages)", req.URL, req.MaxPages))

	for i := 1; i <= req.MaxPages; i++ {
		select {
		case <-ctx.Done():
			s.emit(logEvent("session cancelled after %d pages", pages))
			s.emit(event{Name: "finished", Payload: finishedPayload(s.id, pages, pages, started)})
			return
		case <-time.After(delay):
		}

		pageURL := fmt.Sprintf("%s/page-%d", strings.TrimSuffix(req.URL, "/"), i)
		rec := e.appendBlock("scraped_page", time.Now())
		pages++

		s.emit(logEvent("scraped %s -> block #%d (%s...)", pageURL, rec.Index, rec.Hash[:12]))
	}

	s.emit(logEvent("crawl complete: %d pages", pages))
	s.emit(event{Name: "finished", Payload: finishedPayload(s.id, pages, pages, started)})
}

func logEvent(format string, v ...interface{}) event {
	return event{
		Name: "log",
		Payload: models.LogLine{
			Timestamp: time.Now(),
			Text:      fmt.Sprintf(format, v...),
		},
	}
}

func finishedPayload(id string, pages, blocks int, started time.Time) models.ScrapeSummary {
	return models.ScrapeSummary{
		SessionID:    id,
		PagesScraped: pages,
		BlocksAdded:  blocks,
		DurationMS:   time.Since(started).Milliseconds(),
	}
}

func (e *mockEngine) handleStart(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	e.mu.Lock()
	if e.current != nil {
		e.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{"error": "a session is already running"})
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:     uuid.NewString(),
		cancel: cancel,
		events: make(chan event, 64),
	}
	e.sessions[s.id] = s
	e.current = s
	e.mu.Unlock()

	go e.run(ctx, s, req)

	c.JSON(http.StatusCreated, gin.H{"session_id": s.id})
}

func (e *mockEngine) handleStop(c *gin.Context) {
	e.mu.Lock()
	s := e.sessions[c.Param("id")]
	e.mu.Unlock()

	if s == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such session"})
		return
	}
	s.cancel()
	c.Status(http.StatusAccepted)
}

func (e *mockEngine) handleEvents(c *gin.Context) {
	e.mu.Lock()
	s := e.sessions[c.Param("id")]
	e.mu.Unlock()

	if s == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such session"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		ev, ok := <-s.events
		if !ok {
			return false
		}
		c.SSEvent(ev.Name, ev.Payload)
		return true
	})
}

func (e *mockEngine) handleLedger(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"blocks": e.snapshot()})
}

func (e *mockEngine) handleReport(c *gin.Context) {
	blocks := e.snapshot()

	var b strings.Builder
	b.WriteString("=== Scraping Analysis Report ===\n\n")
	fmt.Fprintf(&b, "Generated: %s\n", time.Now().Format(time.RFC1123))
	fmt.Fprintf(&b, "Total blocks: %d\n", len(blocks))
	if len(blocks) > 1 {
		fmt.Fprintf(&b, "Scraped pages: %d\n", len(blocks)-1)
		fmt.Fprintf(&b, "First block: %s\n", blocks[0].Timestamp.Format(time.RFC3339))
		fmt.Fprintf(&b, "Latest block: %s\n", blocks[len(blocks)-1].Timestamp.Format(time.RFC3339))
	}
	b.WriteString("\nChain integrity: OK (all previous-hash links verified)\n")

	c.JSON(http.StatusOK, gin.H{"report": b.String()})
}

func (e *mockEngine) handleAnomalies(c *gin.Context) {
	blocks := e.snapshot()

	var b strings.Builder
	b.WriteString("=== Anomaly Detection ===\n\n")
	anomalies := 0
	for i := 1; i < len(blocks); i++ {
		gap := blocks[i].Timestamp.Sub(blocks[i-1].Timestamp)
		if gap > 10*time.Second {
			anomalies++
			fmt.Fprintf(&b, "block #%d: unusual gap of %s since previous block\n", blocks[i].Index, gap.Round(time.Second))
		}
	}
	if anomalies == 0 {
		b.WriteString("No anomalies detected.\n")
	}

	c.JSON(http.StatusOK, gin.H{"report": b.String()})
}

func main() {
	addr := flag.String("addr", ":8420", "listen address")
	flag.Parse()

	gin.SetMode(gin.ReleaseMode)
	engine := newMockEngine()

	r := gin.Default()
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/sessions", engine.handleStart)
	r.DELETE("/sessions/:id", engine.handleStop)
	r.GET("/sessions/:id/events", engine.handleEvents)
	r.GET("/ledger", engine.handleLedger)
	r.GET("/report", engine.handleReport)
	r.GET("/anomalies", engine.handleAnomalies)

	log.Printf("mock engine listening on %s", *addr)
	if err := r.Run(*addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
