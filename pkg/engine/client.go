package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"chainscrape-go/pkg/models"
)

// Client talks to the scraping/ledger engine over HTTP. Session log and
// completion events are streamed back as server-sent events and delivered
// on the channel returned by Start.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	mu        sync.Mutex
	sessionID string
}

var _ Engine = (*Client)(nil)

// NewClient creates an engine client. timeout bounds individual request
// round-trips; the event stream itself is not subject to it.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) buildRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	url := fmt.Sprintf("%s%s", c.baseURL, path)

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}

	return req, nil
}

// doRequest performs a request, maps transport failures onto the EngineError
// taxonomy, and decodes a JSON body into result when provided.
func (c *Client) doRequest(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return mapTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return newInvalidResponseError("failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errorResp struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &errorResp); err == nil && errorResp.Error != "" {
			return newRemoteError(errorResp.Error)
		}
		msg := string(body)
		if msg == "" {
			msg = resp.Status
		}
		return newRemoteError(fmt.Sprintf("status %d: %s", resp.StatusCode, msg))
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return newInvalidResponseError("failed to decode response", err)
		}
	}

	return nil
}

func mapTransportError(err error) *EngineError {
	switch {
	case errors.Is(err, context.Canceled):
		return newCancelledError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return newTimeoutError(err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newTimeoutError(err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return newUnavailableError(err)
	}

	return &EngineError{Type: ErrorTypeNetwork, Message: "request failed", Cause: err}
}

// CheckHealth verifies the engine is reachable and healthy.
func (c *Client) CheckHealth(ctx context.Context) error {
	req, err := c.buildRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	return c.doRequest(req, nil)
}

// WaitReady polls the health endpoint with exponential backoff until the
// engine answers or the context expires.
func (c *Client) WaitReady(ctx context.Context, maxRetries uint64) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	return backoff.Retry(func() error {
		return c.CheckHealth(ctx)
	}, policy)
}

// Start submits a scrape session and opens its event stream. The returned
// channel yields log events in arrival order and is closed after the
// terminal finished event.
func (c *Client) Start(ctx context.Context, req ScrapeRequest) (<-chan Event, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := c.buildRequest(ctx, http.MethodPost, "/sessions", bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}

	var created struct {
		SessionID string `json:"session_id"`
	}
	if err := c.doRequest(httpReq, &created); err != nil {
		return nil, err
	}
	if created.SessionID == "" {
		return nil, newInvalidResponseError("engine returned no session id", nil)
	}

	c.mu.Lock()
	c.sessionID = created.SessionID
	c.mu.Unlock()

	return c.openEventStream(ctx, created.SessionID)
}

// Stop asks the engine to cancel the current session. Best-effort: the
// session still terminates through its finished event.
func (c *Client) Stop(ctx context.Context) error {
	c.mu.Lock()
	id := c.sessionID
	c.mu.Unlock()

	if id == "" {
		return nil
	}

	req, err := c.buildRequest(ctx, http.MethodDelete, "/sessions/"+id, nil)
	if err != nil {
		return err
	}
	return c.doRequest(req, nil)
}

// LedgerSnapshot fetches the engine's current block records wholesale.
func (c *Client) LedgerSnapshot(ctx context.Context) ([]models.BlockRecord, error) {
	req, err := c.buildRequest(ctx, http.MethodGet, "/ledger", nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Blocks []models.BlockRecord `json:"blocks"`
	}
	if err := c.doRequest(req, &resp); err != nil {
		return nil, err
	}
	return resp.Blocks, nil
}

// GenerateReport returns the engine's analysis report verbatim.
func (c *Client) GenerateReport(ctx context.Context) (string, error) {
	return c.fetchText(ctx, "/report")
}

// DetectAnomalies returns the engine's anomaly report verbatim.
func (c *Client) DetectAnomalies(ctx context.Context) (string, error) {
	return c.fetchText(ctx, "/anomalies")
}

func (c *Client) fetchText(ctx context.Context, path string) (string, error) {
	req, err := c.buildRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}

	var resp struct {
		Report string `json:"report"`
	}
	if err := c.doRequest(req, &resp); err != nil {
		return "", err
	}
	return resp.Report, nil
}

// openEventStream connects to the session's SSE endpoint and spawns the
// reader goroutine. The request deliberately bypasses the client timeout:
// the stream stays open for the whole session.
func (c *Client) openEventStream(ctx context.Context, sessionID string) (<-chan Event, error) {
	req, err := c.buildRequest(ctx, http.MethodGet, "/sessions/"+sessionID+"/events", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	streamClient := &http.Client{Transport: c.httpClient.Transport}
	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, mapTransportError(err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, newRemoteError(fmt.Sprintf("event stream returned status %d", resp.StatusCode))
	}

	events := make(chan Event, 64)
	go c.readEvents(ctx, resp.Body, events)
	return events, nil
}

// readEvents decodes the SSE stream into Events. It guarantees exactly one
// FinishedEvent before closing the channel, synthesizing one if the stream
// drops early.
func (c *Client) readEvents(ctx context.Context, body io.ReadCloser, events chan<- Event) {
	defer body.Close()
	defer close(events)

	finished := false
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var eventName, data string
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "":
			if eventName != "" {
				if ev, ok := decodeEvent(eventName, data); ok {
					events <- ev
					if _, done := ev.(FinishedEvent); done {
						finished = true
					}
				}
			}
			eventName, data = "", ""
			if finished {
				return
			}
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}

	if !finished {
		var err error = newInvalidResponseError("event stream ended before completion", scanner.Err())
		if ctx.Err() != nil {
			err = newCancelledError(ctx.Err())
		}
		events <- FinishedEvent{Err: err}
	}
}

func decodeEvent(name, data string) (Event, bool) {
	switch name {
	case "log":
		var line models.LogLine
		if err := json.Unmarshal([]byte(data), &line); err != nil {
			return nil, false
		}
		return LogEvent{Line: line}, true

	case "finished":
		var payload struct {
			models.ScrapeSummary
			Error string `json:"error,omitempty"`
		}
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			return FinishedEvent{Err: newInvalidResponseError("bad finished payload", err)}, true
		}
		if payload.Error != "" {
			return FinishedEvent{Err: newRemoteError(payload.Error)}, true
		}
		summary := payload.ScrapeSummary
		return FinishedEvent{Summary: &summary}, true
	}

	return nil, false
}
