package facade

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fieldwise/bridge/pkg/events"
	"github.com/fieldwise/bridge/pkg/logger"
	"github.com/fieldwise/bridge/pkg/sse"
)

// Wire prefixes for the dual-format line protocol. Text deltas go to the
// embedded widget's plain-text rendering path; everything structured is
// tagged so the UI can branch on its type.
const (
	TextLinePrefix = "0:"
	DataLinePrefix = "2:"
)

// Encode re-encodes the upstream event feed from r onto w in the
// dual-format wire protocol, preserving arrival order. If w implements
// http.Flusher each line is flushed as written; a downstream write
// failure (consumer disconnect) stops the upstream read promptly, and
// ctx cancellation does the same. Application error events are forwarded
// as visible structured lines, not raised: the streaming consumer keeps
// its partial progress.
func Encode(ctx context.Context, r io.Reader, w io.Writer) error {
	flusher, _ := w.(interface{ Flush() })

	scanner := sse.NewScanner(r)
	for {
		ev, err := scanner.Next(ctx)
		if errors.Is(err, sse.ErrStreamClosed) {
			return nil
		}
		if err != nil {
			return err
		}

		line, ok := encodeEvent(ev)
		if !ok {
			continue
		}
		if _, err := w.Write(line); err != nil {
			return fmt.Errorf("downstream write failed: %w", err)
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// encodeEvent maps one canonical event to its wire line. Unknown types
// are dropped silently so future event kinds do not break older consumers.
func encodeEvent(ev events.StreamEvent) ([]byte, bool) {
	switch {
	case ev.IsTextDelta():
		quoted, err := json.Marshal(ev.Content)
		if err != nil {
			return nil, false
		}
		return appendLine(TextLinePrefix, quoted), true
	case ev.IsOutOfBand(),
		ev.Type == events.TypeAgentHandoff,
		ev.Type == events.TypeThinking:
		payload := ev.Raw
		if payload == nil {
			var err error
			if payload, err = json.Marshal(ev); err != nil {
				return nil, false
			}
		}
		return appendLine(DataLinePrefix, payload), true
	case ev.Type == events.TypeMeta, ev.IsTerminal():
		// Consumed by the bridge itself, nothing to relay.
		return nil, false
	default:
		logger.Debug("facade: dropping unrecognized event type %q", ev.Type)
		return nil, false
	}
}

func appendLine(prefix string, payload []byte) []byte {
	line := make([]byte, 0, len(prefix)+len(payload)+1)
	line = append(line, prefix...)
	line = append(line, payload...)
	line = append(line, '\n')
	return line
}
