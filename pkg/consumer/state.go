package consumer

import "github.com/fieldwise/bridge/pkg/events"

// State is where the consumer sits in its turn lifecycle.
type State int

const (
	StateIdle State = iota
	StateSending
	StateStreaming
	StateCompleted
	StateErrored
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// LoadingState is what the UI shows while a turn is in flight.
type LoadingState struct {
	IsLoading bool             `json:"isLoading"`
	Message   string           `json:"message,omitempty"`
	Agent     events.AgentType `json:"agent,omitempty"`
	Progress  *int             `json:"progress,omitempty"`
}

// Callbacks notify the subscriber as the conversation evolves. Any field
// may be nil.
type Callbacks struct {
	OnDelta        func(string)
	OnStateChange  func(State)
	OnMessage      func(events.ChatMessage)
	OnError        func(error)
	OnStatusChange func(events.AgentStatus)
	OnCitation     func(events.Citation)
}

func (c Callbacks) delta(text string) {
	if c.OnDelta != nil {
		c.OnDelta(text)
	}
}

func (c Callbacks) stateChange(s State) {
	if c.OnStateChange != nil {
		c.OnStateChange(s)
	}
}

func (c Callbacks) message(m events.ChatMessage) {
	if c.OnMessage != nil {
		c.OnMessage(m)
	}
}

func (c Callbacks) fail(err error) {
	if c.OnError != nil {
		c.OnError(err)
	}
}

func (c Callbacks) status(s events.AgentStatus) {
	if c.OnStatusChange != nil {
		c.OnStatusChange(s)
	}
}

func (c Callbacks) citation(ct events.Citation) {
	if c.OnCitation != nil {
		c.OnCitation(ct)
	}
}
