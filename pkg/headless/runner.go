package headless

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/fieldwise/bridge/pkg/consumer"
	"github.com/fieldwise/bridge/pkg/logger"
)

// Runner drives one chat turn against the bridge from the command line,
// printing the answer as it streams.
type Runner struct {
	consumer *consumer.Consumer
	output   *Output
	done     chan struct{}
	once     sync.Once
}

// NewRunner creates a runner talking to the bridge at bridgeURL.
func NewRunner(bridgeURL, threadID string) *Runner {
	r := &Runner{
		output: NewOutput(os.Stdout),
		done:   make(chan struct{}),
	}

	r.consumer = consumer.New(consumer.NewRelayConnector(bridgeURL), consumer.Callbacks{
		OnDelta:        r.output.Delta,
		OnMessage:      r.output.Message,
		OnError:        r.output.Error,
		OnStatusChange: r.output.Status,
		OnCitation:     r.output.Citation,
		OnStateChange: func(s consumer.State) {
			if s == consumer.StateCompleted || s == consumer.StateErrored {
				r.once.Do(func() { close(r.done) })
			}
		},
	})
	if threadID != "" {
		r.consumer.SetThreadID(threadID)
	}
	return r
}

// Run sends a single prompt and blocks until the turn finishes.
func (r *Runner) Run(ctx context.Context, prompt string) error {
	if prompt == "" {
		return fmt.Errorf("prompt cannot be empty in headless mode")
	}

	logger.Debug("headless: sending prompt (%d bytes)", len(prompt))
	if err := r.consumer.SendMessage(ctx, prompt); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer r.consumer.Close()

	select {
	case <-r.done:
		return r.consumer.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
