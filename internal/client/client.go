// Package client consumes the medical assistant's HTTP API: the health
// probe, the clear action, and — the core of it — the incremental reply
// stream. The stream consumer is deliberately lenient: unrecognized lines are
// skipped, an unterminated close counts as completion, and transport
// failures are absorbed into a visible terminal state instead of being
// returned to the caller.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/medgrove/med-web-ui/internal/models"
)

// eventPrefix marks the wire lines carrying stream events.
const eventPrefix = "data: "

// ConnectivityMessage is shown when a stream fails before any content
// arrived.
const ConnectivityMessage = "Unable to reach the assistant. Please check your connection and try again."

// View receives render updates from a stream. Exactly one of Complete or
// Fail is invoked per stream, always after the last AppendToken. Views own
// all presentation concerns: interim escaping, the cursor marker, the final
// markdown pass, timestamps and actions, scrolling.
type View interface {
	// AppendToken delivers the next incremental piece of the reply.
	AppendToken(token string)
	// Complete delivers the full accumulated reply for final rendering.
	Complete(full string)
	// Fail delivers an error message to render in place of content.
	Fail(message string)
}

// Outcome reports which terminal path a stream took. Every stream reaches
// exactly one.
type Outcome int

const (
	// OutcomeCompleted means the server sent an explicit done event.
	OutcomeCompleted Outcome = iota
	// OutcomeImplicit means the stream closed without a terminal event and the
	// accumulated text was rendered as final (fallback completion).
	OutcomeImplicit
	// OutcomeErrorEvent means the server signaled an error event.
	OutcomeErrorEvent
	// OutcomeRecovered means transport failed mid-stream but partial text was
	// rendered as final (best-effort recovery).
	OutcomeRecovered
	// OutcomeFailed means transport failed with nothing to show; the fixed
	// connectivity message was rendered.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeImplicit:
		return "implicit-completion"
	case OutcomeErrorEvent:
		return "error-event"
	case OutcomeRecovered:
		return "recovered"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Health is the backend readiness report.
type Health struct {
	Status    string `json:"status"`
	LLM       string `json:"llm"`
	Knowledge string `json:"knowledge"`
}

// Ready reports whether the backend should be treated as operational: both
// the status and llm fields must carry the ready sentinel.
func (h Health) Ready() bool {
	return h.Status == "ready" && h.LLM == "ready"
}

// Client talks to one assistant backend.
type Client struct {
	baseURL    string
	httpClient *http.Client

	logger *slog.Logger
}

// New creates a client for the backend at baseURL. The underlying HTTP
// client carries no timeout: replies stream for as long as the model talks,
// and cancellation flows through the request context.
func New(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     logger.With(slog.String("module", "client")),
	}
}

// Health probes the backend. A transport failure is reported as an error;
// callers render it as a degraded indicator without blocking input.
func (c *Client) Health(ctx context.Context) (Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return Health{}, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Health{}, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	var h Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return Health{}, fmt.Errorf("error decoding response: %w", err)
	}
	return h, nil
}

// Clear asks the backend to drop the session's conversation history.
func (c *Client) Clear(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/clear", nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}

// Stream sends a user message and drives view through the reply stream until
// a terminal state. Failures are never returned: every path ends in exactly
// one Complete or Fail on the view, and the Outcome says which.
func (c *Client) Stream(ctx context.Context, message string, view View) Outcome {
	body, err := json.Marshal(struct {
		Message string `json:"message"`
	}{Message: message})
	if err != nil {
		view.Fail(ConnectivityMessage)
		return OutcomeFailed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/stream", bytes.NewReader(body))
	if err != nil {
		view.Fail(ConnectivityMessage)
		return OutcomeFailed
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Stream request failed", slog.String("err", err.Error()))
		view.Fail(ConnectivityMessage)
		return OutcomeFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("Stream request rejected", slog.Int("status", resp.StatusCode))
		view.Fail(ConnectivityMessage)
		return OutcomeFailed
	}

	return c.consume(resp.Body, view)
}

// consume runs the read loop: buffer bytes, split on newlines, parse the
// complete lines, dispatch events. The last (possibly incomplete) fragment
// stays in the buffer and is never parsed; an unterminated close falls back
// to implicit completion.
func (c *Client) consume(r io.Reader, view View) Outcome {
	var (
		pending []byte
		full    strings.Builder
		chunk   = make([]byte, 4096)
	)

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			pending = append(pending, chunk[:n]...)
			for {
				idx := bytes.IndexByte(pending, '\n')
				if idx < 0 {
					break
				}
				line := pending[:idx]
				pending = pending[idx+1:]

				event, ok := parseLine(line)
				if !ok {
					continue
				}
				switch event.Kind() {
				case models.EventToken:
					full.WriteString(event.Token)
					view.AppendToken(event.Token)
				case models.EventDone:
					view.Complete(full.String())
					return OutcomeCompleted
				case models.EventError:
					view.Fail(event.Error)
					return OutcomeErrorEvent
				case models.EventUnknown:
					// Recognized envelope, no recognized variant: skip.
				}
			}
		}

		if err != nil {
			if err == io.EOF {
				// Upstream closed without a terminal event.
				view.Complete(full.String())
				return OutcomeImplicit
			}
			c.logger.Error("Stream read failed", slog.String("err", err.Error()))
			if full.Len() > 0 {
				view.Complete(full.String())
				return OutcomeRecovered
			}
			view.Fail(ConnectivityMessage)
			return OutcomeFailed
		}
	}
}

// parseLine extracts a StreamEvent from one wire line. Lines without the
// event prefix, blank payloads, and malformed JSON all report ok=false and
// are skipped by the caller.
func parseLine(line []byte) (models.StreamEvent, bool) {
	line = bytes.TrimSuffix(line, []byte("\r"))
	if !bytes.HasPrefix(line, []byte(eventPrefix)) {
		return models.StreamEvent{}, false
	}

	payload := bytes.TrimSpace(line[len(eventPrefix):])
	if len(payload) == 0 {
		return models.StreamEvent{}, false
	}

	var event models.StreamEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return models.StreamEvent{}, false
	}
	return event, true
}
