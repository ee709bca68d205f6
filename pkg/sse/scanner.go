package sse

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fieldwise/bridge/pkg/events"
)

// ErrStreamClosed is returned by Next after the scanner has delivered a
// terminal event or reached end of stream.
var ErrStreamClosed = errors.New("stream closed")

const readBufferSize = 4 * 1024

// Scanner drives the decode → split → parse pipeline over a byte stream,
// yielding one canonical event per call. It stops at the first terminal
// event; anything the upstream sends after that is ignored.
type Scanner struct {
	r        io.Reader
	decoder  *Decoder
	splitter *Splitter
	queue    []events.StreamEvent
	buf      []byte
	done     bool
}

// NewScanner creates a scanner reading raw bytes from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{
		r:        r,
		decoder:  NewDecoder(),
		splitter: NewSplitter(),
		buf:      make([]byte, readBufferSize),
	}
}

// Next returns the next event in arrival order. It blocks on the
// underlying read and honors ctx cancellation between reads. After a
// terminal event (or a clean end of stream) it returns ErrStreamClosed.
func (s *Scanner) Next(ctx context.Context) (events.StreamEvent, error) {
	for {
		if ev, ok := s.dequeue(); ok {
			return ev, nil
		}
		if s.done {
			return events.StreamEvent{}, ErrStreamClosed
		}
		if err := ctx.Err(); err != nil {
			return events.StreamEvent{}, err
		}

		n, err := s.r.Read(s.buf)
		if n > 0 {
			text := s.decoder.Decode(s.buf[:n])
			for _, record := range s.splitter.Feed(text) {
				if ev, ok := ParseRecord(record); ok {
					s.queue = append(s.queue, ev)
				}
			}
		}
		if err != nil {
			s.done = true
			if err != io.EOF {
				return events.StreamEvent{}, fmt.Errorf("stream read failed: %w", err)
			}
			// A trailing unterminated record still counts; its bytes were
			// never discarded, only waiting for a boundary.
			s.flushRemainder()
		}
	}
}

func (s *Scanner) dequeue() (events.StreamEvent, bool) {
	if len(s.queue) == 0 {
		return events.StreamEvent{}, false
	}
	ev := s.queue[0]
	s.queue = s.queue[1:]
	if ev.IsTerminal() {
		s.queue = nil
		s.done = true
	}
	return ev, true
}

func (s *Scanner) flushRemainder() {
	tail := s.decoder.Flush()
	if tail != "" {
		s.splitter.Feed(tail)
	}
	if record, ok := s.splitter.Flush(); ok {
		if ev, ok := ParseRecord(record); ok {
			s.queue = append(s.queue, ev)
		}
	}
}
