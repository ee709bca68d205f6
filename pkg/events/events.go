package events

import "encoding/json"

// Event type tags shared by every component of the bridge. Taxonomy
// translation happens only at the system boundaries (upstream ingestion,
// downstream wire encoding); everything in between speaks these types.
const (
	TypeMeta               = "meta"
	TypeChunk              = "chunk"
	TypeContent            = "content"
	TypeToolCallDelta      = "tool_call_delta"
	TypeToolCallResult     = "tool_call_result"
	TypeCitation           = "citation"
	TypeCustomUI           = "custom_ui"
	TypeActionConfirmation = "action_confirmation"
	TypeReasoningTrace     = "reasoning_trace"
	TypeError              = "error"
	TypeDone               = "done"
	TypeAgentHandoff       = "agent_handoff"
	TypeThinking           = "thinking"
	TypeMessage            = "message"
)

// StreamEvent is the canonical tagged union for one event in a turn.
// Typed fields cover the variants the bridge inspects; Raw always holds
// the original payload so out-of-band events can be forwarded verbatim.
type StreamEvent struct {
	Type string `json:"type"`

	// meta
	Model     string `json:"model,omitempty"`
	SessionID string `json:"sessionId,omitempty"`

	// chunk / content
	Content string `json:"content,omitempty"`

	// error
	Message string `json:"message,omitempty"`

	// agent_handoff
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Reason string `json:"reason,omitempty"`

	// thinking
	Agent    string `json:"agent,omitempty"`
	Progress *int   `json:"progress,omitempty"`

	// message
	Delta      string `json:"delta,omitempty"`
	IsComplete bool   `json:"isComplete,omitempty"`

	// Raw is the event exactly as it arrived on the wire.
	Raw json.RawMessage `json:"-"`
}

// Parse decodes a single upstream payload into a StreamEvent, retaining
// the raw bytes for verbatim forwarding.
func Parse(data []byte) (StreamEvent, error) {
	var ev StreamEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return StreamEvent{}, err
	}
	ev.Raw = append(json.RawMessage(nil), data...)
	return ev, nil
}

// UnmarshalJSON accepts both delta spellings seen on the wire: a plain
// string ("delta": "text") and the nested object form ("delta":
// {"content": "text"}) used by content-type upstream events.
func (e *StreamEvent) UnmarshalJSON(data []byte) error {
	type alias StreamEvent
	var a struct {
		alias
		Delta json.RawMessage `json:"delta,omitempty"`
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*e = StreamEvent(a.alias)
	e.Delta = decodeDelta(a.Delta)
	if e.IsTextDelta() && e.Content == "" {
		e.Content = e.Delta
	}
	return nil
}

func decodeDelta(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var nested struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil {
		return nested.Content
	}
	return ""
}

// IsTextDelta reports whether the event carries an incremental fragment
// of the assistant's answer. Upstream feeds disagree on the tag; both
// spellings are accepted.
func (e StreamEvent) IsTextDelta() bool {
	return e.Type == TypeChunk || e.Type == TypeContent
}

// IsTerminal reports whether no further events belong to the current turn.
func (e StreamEvent) IsTerminal() bool {
	return e.Type == TypeDone
}

// IsOutOfBand reports whether the event is structured UI data rather than
// assistant prose. Out-of-band events are relayed with their full payload.
func (e StreamEvent) IsOutOfBand() bool {
	switch e.Type {
	case TypeToolCallDelta, TypeToolCallResult, TypeCitation, TypeCustomUI,
		TypeActionConfirmation, TypeReasoningTrace, TypeError:
		return true
	}
	return false
}

// TextDelta returns the event with the canonical chunk tag and the given
// content. Used when synthesizing events in tests and fakes.
func TextDelta(content string) StreamEvent {
	return StreamEvent{Type: TypeChunk, Content: content}
}

// Done returns a terminal event.
func Done() StreamEvent {
	return StreamEvent{Type: TypeDone}
}
