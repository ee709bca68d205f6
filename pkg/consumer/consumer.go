package consumer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldwise/bridge/pkg/events"
	"github.com/fieldwise/bridge/pkg/logger"
)

// ErrNothingToRetry is returned by RetryLastMessage before any send.
var ErrNothingToRetry = errors.New("no previous message to retry")

// Consumer reconstructs a coherent conversation from a live event stream:
// messages, agent identity, citations, loading state. It enforces at most
// one active connection; a new SendMessage first cancels the previous
// turn so two turns can never write into the same accumulator.
type Consumer struct {
	connector Connector
	callbacks Callbacks
	threadID  string

	mu          sync.Mutex
	state       State
	messages    []events.ChatMessage
	agentStatus *events.AgentStatus
	citations   []events.Citation
	loading     LoadingState
	err         error

	// Per-turn accumulator state. Single-writer: only the run loop bound
	// to turnID may touch it.
	partial      strings.Builder
	turnID       string
	materialized bool
	lastContent  string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a consumer over the given connector.
func New(connector Connector, callbacks Callbacks) *Consumer {
	return &Consumer{
		connector: connector,
		callbacks: callbacks,
		state:     StateIdle,
	}
}

// SetThreadID pins the conversation to a backend thread.
func (c *Consumer) SetThreadID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.threadID = id
}

// SendMessage appends a user message and opens a new live connection for
// the turn, closing and discarding any prior one first.
func (c *Consumer) SendMessage(ctx context.Context, content string) error {
	c.mu.Lock()
	c.messages = append(c.messages, events.NewUserMessage(content))
	c.lastContent = content
	c.mu.Unlock()

	return c.startTurn(ctx, content)
}

// RetryLastMessage re-runs the previous turn's content. The user message
// is already in the transcript, so it is not appended again.
func (c *Consumer) RetryLastMessage(ctx context.Context) error {
	c.mu.Lock()
	content := c.lastContent
	c.mu.Unlock()

	if content == "" {
		return ErrNothingToRetry
	}
	return c.startTurn(ctx, content)
}

func (c *Consumer) startTurn(ctx context.Context, content string) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	turnID := uuid.NewString()
	c.turnID = turnID
	c.materialized = false
	c.partial.Reset()
	c.citations = nil
	c.err = nil
	c.state = StateSending
	c.loading = LoadingState{IsLoading: true}
	threadID := c.threadID
	c.mu.Unlock()
	c.callbacks.stateChange(StateSending)

	turnCtx, cancel := context.WithCancel(ctx)

	deliveries, err := c.connector.Connect(turnCtx, content, threadID)
	if err != nil {
		cancel()
		c.failTurn(turnID, fmt.Errorf("failed to open stream: %w", err))
		return err
	}

	c.mu.Lock()
	c.cancel = cancel
	c.state = StateStreaming
	c.mu.Unlock()
	c.callbacks.stateChange(StateStreaming)

	c.wg.Add(1)
	go c.run(turnID, deliveries)
	return nil
}

// run consumes one turn's deliveries. Events are processed strictly in
// arrival order; the turnID guard makes a superseded turn's stragglers
// harmless.
func (c *Consumer) run(turnID string, deliveries <-chan Delivery) {
	defer c.wg.Done()

	for d := range deliveries {
		if d.Err != nil {
			c.failTurn(turnID, d.Err)
			return
		}
		c.handleEvent(turnID, d.Event)
	}
}

func (c *Consumer) handleEvent(turnID string, ev events.StreamEvent) {
	c.mu.Lock()
	if c.turnID != turnID {
		c.mu.Unlock()
		return
	}

	switch ev.Type {
	case events.TypeAgentHandoff:
		status := events.AgentStatus{
			Current:   events.AgentType(ev.To),
			Thinking:  ev.Reason,
			Timestamp: time.Now(),
		}
		c.agentStatus = &status
		c.mu.Unlock()
		c.callbacks.status(status)
		return

	case events.TypeThinking:
		status := events.AgentStatus{
			Current:   events.AgentType(ev.Agent),
			Thinking:  ev.Message,
			Progress:  ev.Progress,
			Timestamp: time.Now(),
		}
		if ev.Agent == "" && c.agentStatus != nil {
			status.Current = c.agentStatus.Current
		}
		c.agentStatus = &status
		c.loading = LoadingState{
			IsLoading: true,
			Message:   ev.Message,
			Agent:     status.Current,
			Progress:  ev.Progress,
		}
		c.mu.Unlock()
		c.callbacks.status(status)
		return

	case events.TypeCitation:
		ct, err := ev.AsCitation()
		if err != nil {
			logger.Debug("consumer: skipping undecodable citation: %v", err)
			c.mu.Unlock()
			return
		}
		c.citations = append(c.citations, ct)
		c.mu.Unlock()
		c.callbacks.citation(ct)
		return

	case events.TypeMessage:
		if !ev.IsComplete {
			c.partial.WriteString(ev.Delta)
			c.mu.Unlock()
			c.callbacks.delta(ev.Delta)
			return
		}
		msg, ok := c.materializeLocked(ev.Content)
		c.mu.Unlock()
		if ok {
			c.callbacks.message(msg)
		}
		return

	case events.TypeError:
		c.mu.Unlock()
		c.failTurn(turnID, &StreamError{Message: ev.Message})
		return

	case events.TypeDone:
		// A turn that streamed deltas without a terminal-complete message
		// still produced an answer; materialize it before completing.
		msg, ok := c.materializeLocked("")
		c.state = StateCompleted
		c.loading = LoadingState{}
		c.mu.Unlock()
		if ok {
			c.callbacks.message(msg)
		}
		c.callbacks.stateChange(StateCompleted)
		return

	default:
		logger.Debug("consumer: ignoring event type %q", ev.Type)
		c.mu.Unlock()
	}
}

// materializeLocked turns the accumulated text (or the provided final
// content) into exactly one assistant ChatMessage per turn. Duplicate
// terminal-complete events in the same turn are ignored.
func (c *Consumer) materializeLocked(finalContent string) (events.ChatMessage, bool) {
	if c.materialized {
		return events.ChatMessage{}, false
	}

	content := c.partial.String()
	if content == "" {
		content = finalContent
	}
	if content == "" {
		return events.ChatMessage{}, false
	}

	msg := events.NewAssistantMessage(content)
	msg.Citations = c.citations
	if c.agentStatus != nil {
		msg.AgentType = c.agentStatus.Current
	}

	c.messages = append(c.messages, msg)
	c.citations = nil
	c.partial.Reset()
	c.materialized = true
	return msg, true
}

// StreamError is an application-level error event surfaced by the stream.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	if e.Message == "" {
		return "stream error"
	}
	return e.Message
}

// failTurn records an error for the turn: loading state cleared, error
// set, state errored. Messages already materialized stay put.
func (c *Consumer) failTurn(turnID string, err error) {
	c.mu.Lock()
	if c.turnID != turnID {
		c.mu.Unlock()
		return
	}
	c.err = err
	c.loading = LoadingState{}
	c.state = StateErrored
	c.mu.Unlock()
	c.callbacks.fail(err)
	c.callbacks.stateChange(StateErrored)
}

// ClearMessages resets all conversation state to empty and idle. It does
// not close an in-flight connection; teardown is the caller's job via
// Close.
func (c *Consumer) ClearMessages() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
	c.agentStatus = nil
	c.citations = nil
	c.loading = LoadingState{}
	c.err = nil
	c.partial.Reset()
	c.turnID = ""
	c.materialized = false
	c.state = StateIdle
}

// Close cancels any live connection and waits for the run loop to stop.
// Call when the owning UI unmounts.
func (c *Consumer) Close() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()
	c.wg.Wait()
}

// Accessors return snapshots; slices are copied so callers can't race the
// run loop.

func (c *Consumer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Consumer) Messages() []events.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]events.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Consumer) AgentStatus() *events.AgentStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.agentStatus == nil {
		return nil
	}
	status := *c.agentStatus
	return &status
}

func (c *Consumer) Citations() []events.Citation {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]events.Citation, len(c.citations))
	copy(out, c.citations)
	return out
}

func (c *Consumer) IsStreaming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateStreaming
}

func (c *Consumer) LoadingState() LoadingState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *Consumer) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}
