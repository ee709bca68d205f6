package facade

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fieldwise/bridge/pkg/events"
	"github.com/fieldwise/bridge/pkg/logger"
	"github.com/fieldwise/bridge/pkg/sse"
	"github.com/fieldwise/bridge/pkg/upstream"
)

// Result is the single JSON document the aggregating facade returns to
// callers that cannot consume a live stream. Model and SessionID are null
// when neither a meta event nor a transport header supplied them.
type Result struct {
	Response  string  `json:"response"`
	Model     *string `json:"model"`
	SessionID *string `json:"sessionId"`
}

// AgentError is an application-level error event emitted by the agent
// backend itself. The aggregator fails fast on it: a partial answer
// without the error context is worse than no answer.
type AgentError struct {
	Message string
}

func (e *AgentError) Error() string {
	if e.Message == "" {
		return "agent reported an error"
	}
	return fmt.Sprintf("agent reported an error: %s", e.Message)
}

// Aggregator presents one in-memory agent turn as a single JSON result.
// It is stateless between invocations; all per-turn state is local to one
// call.
type Aggregator struct {
	client *upstream.Client
}

func NewAggregator(client *upstream.Client) *Aggregator {
	return &Aggregator{client: client}
}

// Chat runs a full turn against the agent backend and aggregates it.
func (a *Aggregator) Chat(ctx context.Context, req upstream.ChatRequest) (Result, error) {
	stream, err := a.client.Stream(ctx, req)
	if err != nil {
		return Result{}, err
	}
	defer stream.Body.Close()

	return Aggregate(ctx, stream.Body, stream.Model, stream.SessionID)
}

// Aggregate drives the event pipeline to completion over r. Text deltas
// append strictly in arrival order; meta events overwrite the model and
// session identifiers; the fallback values apply only when no meta event
// supplied them. An error event aborts the whole request with AgentError.
func Aggregate(ctx context.Context, r io.Reader, fallbackModel, fallbackSession string) (Result, error) {
	var (
		text    strings.Builder
		model   = fallbackModel
		session = fallbackSession
	)

	scanner := sse.NewScanner(r)
	for {
		ev, err := scanner.Next(ctx)
		if errors.Is(err, sse.ErrStreamClosed) {
			break
		}
		if err != nil {
			return Result{}, err
		}

		switch {
		case ev.Type == events.TypeMeta:
			if ev.Model != "" {
				model = ev.Model
			}
			if ev.SessionID != "" {
				session = ev.SessionID
			}
		case ev.IsTextDelta():
			text.WriteString(ev.Content)
		case ev.Type == events.TypeError:
			return Result{}, &AgentError{Message: ev.Message}
		case ev.IsTerminal():
			// Scanner stops on its own; nothing to record.
		default:
			logger.Debug("facade: ignoring event type %q", ev.Type)
		}
	}

	return Result{
		Response:  strings.TrimSpace(text.String()),
		Model:     nullable(model),
		SessionID: nullable(session),
	}, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
