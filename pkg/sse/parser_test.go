package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldwise/bridge/pkg/events"
)

func TestParseRecord(t *testing.T) {
	t.Run("should parse a single data line", func(t *testing.T) {
		ev, ok := ParseRecord(`data: {"type":"chunk","content":"Hello"}`)
		require.True(t, ok)
		assert.Equal(t, events.TypeChunk, ev.Type)
		assert.Equal(t, "Hello", ev.Content)
	})

	t.Run("should concatenate all data lines before parsing", func(t *testing.T) {
		// A payload wrapped across marker lines must survive intact;
		// first-line-only extraction silently corrupts it.
		record := "data: {\"type\":\"chunk\",\ndata: \"content\":\"split payload\"}"
		ev, ok := ParseRecord(record)
		require.True(t, ok)
		assert.Equal(t, events.TypeChunk, ev.Type)
		assert.Equal(t, "split payload", ev.Content)
	})

	t.Run("should recognize the done sentinel", func(t *testing.T) {
		ev, ok := ParseRecord("data: [DONE]")
		require.True(t, ok)
		assert.True(t, ev.IsTerminal())
	})

	t.Run("should drop malformed payloads without error", func(t *testing.T) {
		_, ok := ParseRecord("data: {not json at all")
		assert.False(t, ok)
	})

	t.Run("should ignore records with no data lines", func(t *testing.T) {
		_, ok := ParseRecord(": keep-alive comment")
		assert.False(t, ok)

		_, ok = ParseRecord("event: something")
		assert.False(t, ok)
	})

	t.Run("should ignore payloads without a type tag", func(t *testing.T) {
		_, ok := ParseRecord(`data: {"content":"untagged"}`)
		assert.False(t, ok)
	})

	t.Run("should strip crlf line endings", func(t *testing.T) {
		ev, ok := ParseRecord("data: {\"type\":\"done\"}\r")
		require.True(t, ok)
		assert.True(t, ev.IsTerminal())
	})

	t.Run("should retain raw payload for forwarding", func(t *testing.T) {
		ev, ok := ParseRecord(`data: {"type":"citation","citation":{"source":"JMA"}}`)
		require.True(t, ok)
		assert.JSONEq(t, `{"type":"citation","citation":{"source":"JMA"}}`, string(ev.Raw))
	})
}
