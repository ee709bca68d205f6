package consumer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/fieldwise/bridge/pkg/events"
	"github.com/fieldwise/bridge/pkg/facade"
	"github.com/fieldwise/bridge/pkg/logger"
)

// Delivery is one item from a live connection: either an event or a
// transport-level failure. Application error events arrive as events, not
// as Err.
type Delivery struct {
	Event events.StreamEvent
	Err   error
}

// Connector opens a live connection for one turn. The returned channel
// closes after the terminal event, a transport failure, or ctx
// cancellation, whichever happens first.
type Connector interface {
	Connect(ctx context.Context, content, threadID string) (<-chan Delivery, error)
}

// RelayConnector consumes the streaming facade's dual-format line
// protocol over HTTP.
type RelayConnector struct {
	baseURL    string
	httpClient *http.Client
}

func NewRelayConnector(baseURL string) *RelayConnector {
	return &RelayConnector{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

// Connect POSTs the message and starts decoding the response stream.
func (rc *RelayConnector) Connect(ctx context.Context, content, threadID string) (<-chan Delivery, error) {
	reqBody, err := json.Marshal(map[string]string{
		"message":  content,
		"threadId": threadID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/chat/stream", rc.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := rc.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	deliveries := make(chan Delivery, 16)
	go func() {
		defer close(deliveries)
		defer resp.Body.Close()

		sawTerminal := false
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if ctx.Err() != nil {
				return
			}
			ev, ok := DecodeLine(scanner.Text())
			if !ok {
				continue
			}
			if ev.IsTerminal() {
				sawTerminal = true
			}
			select {
			case deliveries <- Delivery{Event: ev}:
			case <-ctx.Done():
				return
			}
			if sawTerminal {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			deliveries <- Delivery{Err: fmt.Errorf("stream reading error: %w", err)}
			return
		}
		if !sawTerminal {
			// Clean end of stream without an explicit done: the relay
			// consumed the terminal upstream, so synthesize it here.
			deliveries <- Delivery{Event: events.Done()}
		}
	}()

	return deliveries, nil
}

// DecodeLine translates one wire line back into a canonical event.
// Text-delta lines become incomplete message events; structured lines are
// parsed whole. Anything else is skipped.
func DecodeLine(line string) (events.StreamEvent, bool) {
	switch {
	case strings.HasPrefix(line, facade.TextLinePrefix):
		var delta string
		if err := json.Unmarshal([]byte(line[len(facade.TextLinePrefix):]), &delta); err != nil {
			logger.Debug("consumer: skipping malformed text line: %v", err)
			return events.StreamEvent{}, false
		}
		return events.StreamEvent{Type: events.TypeMessage, Delta: delta}, true
	case strings.HasPrefix(line, facade.DataLinePrefix):
		ev, err := events.Parse([]byte(line[len(facade.DataLinePrefix):]))
		if err != nil {
			logger.Debug("consumer: skipping malformed data line: %v", err)
			return events.StreamEvent{}, false
		}
		return ev, true
	case strings.TrimSpace(line) == "":
		return events.StreamEvent{}, false
	default:
		logger.Debug("consumer: skipping unrecognized line prefix")
		return events.StreamEvent{}, false
	}
}
