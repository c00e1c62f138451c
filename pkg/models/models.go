package models

import "time"

// LogLine is a single entry in the console log view. Lines are append-only
// and rendered in arrival order.
type LogLine struct {
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}

// BlockRecord is a read-only projection of one ledger block as reported by
// the engine. The console only renders these rows; hashing and chain
// verification happen engine-side.
type BlockRecord struct {
	Index        int       `json:"index"`
	Timestamp    time.Time `json:"timestamp"`
	Hash         string    `json:"hash"`
	PreviousHash string    `json:"previous_hash"`
	DataType     string    `json:"data_type"`
}

// ScrapeSummary is the terminal payload of a successful scraping session.
type ScrapeSummary struct {
	SessionID    string `json:"session_id"`
	PagesScraped int    `json:"pages_scraped"`
	BlocksAdded  int    `json:"blocks_added"`
	DurationMS   int64  `json:"duration_ms"`
}
