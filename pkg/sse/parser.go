package sse

import (
	"strings"

	"github.com/fieldwise/bridge/pkg/events"
	"github.com/fieldwise/bridge/pkg/logger"
)

// dataPrefix marks payload lines inside a record.
const dataPrefix = "data:"

// doneSentinel is the literal terminator some backends send instead of a
// structured done event. It is not valid JSON and is matched before parsing.
const doneSentinel = "[DONE]"

// ParseRecord extracts one event from a raw record.
//
// Every "data:" line in the record contributes to the payload; multi-line
// payloads are concatenated before parsing, since taking only the first
// line silently corrupts wrapped payloads. A record whose payload fails to
// parse is dropped and reported as absent; one corrupt event must never
// sink the turn. Returns (event, true) on success, (zero, false) otherwise.
func ParseRecord(record string) (events.StreamEvent, bool) {
	payload := extractPayload(record)
	if payload == "" {
		return events.StreamEvent{}, false
	}
	if payload == doneSentinel {
		return events.Done(), true
	}

	ev, err := events.Parse([]byte(payload))
	if err != nil {
		logger.Debug("sse: dropping malformed record: %v", err)
		return events.StreamEvent{}, false
	}
	if ev.Type == "" {
		return events.StreamEvent{}, false
	}
	return ev, true
}

// extractPayload joins the content of all marker lines in the record.
func extractPayload(record string) string {
	var parts []string
	for _, line := range strings.Split(record, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		parts = append(parts, strings.TrimSpace(line[len(dataPrefix):]))
	}
	return strings.Join(parts, "")
}
