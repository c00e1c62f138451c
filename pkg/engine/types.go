package engine

import (
	"context"

	"chainscrape-go/pkg/models"
)

// ScrapeRequest describes one scraping session. It is validated before
// dispatch and immutable once submitted.
type ScrapeRequest struct {
	URL      string `json:"url" validate:"required,url"`
	MaxPages int    `json:"max_pages" validate:"required,gt=0"`
	DelayMS  int    `json:"delay_ms,omitempty"`
}

// Event is a message delivered on a session's event stream.
type Event interface {
	isEvent()
}

// LogEvent carries one log line emitted by the engine while a session runs.
type LogEvent struct {
	Line models.LogLine
}

// FinishedEvent is the terminal event of a session: exactly one arrives per
// started session, carrying either a summary or an error.
type FinishedEvent struct {
	Summary *models.ScrapeSummary
	Err     error
}

func (LogEvent) isEvent()      {}
func (FinishedEvent) isEvent() {}

// Engine is the narrow boundary to the scraping/ledger backend. Start is
// asynchronous: it returns a stream that yields zero or more LogEvents
// followed by exactly one FinishedEvent, after which the stream is closed.
type Engine interface {
	CheckHealth(ctx context.Context) error
	WaitReady(ctx context.Context, maxRetries uint64) error
	Start(ctx context.Context, req ScrapeRequest) (<-chan Event, error)
	Stop(ctx context.Context) error
	LedgerSnapshot(ctx context.Context) ([]models.BlockRecord, error)
	GenerateReport(ctx context.Context) (string, error)
	DetectAnomalies(ctx context.Context) (string, error)
}
