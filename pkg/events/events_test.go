package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("should parse a chunk event", func(t *testing.T) {
		ev, err := Parse([]byte(`{"type":"chunk","content":"Hello"}`))
		require.NoError(t, err)
		assert.Equal(t, TypeChunk, ev.Type)
		assert.Equal(t, "Hello", ev.Content)
		assert.True(t, ev.IsTextDelta())
	})

	t.Run("should parse a content event with nested delta", func(t *testing.T) {
		ev, err := Parse([]byte(`{"type":"content","delta":{"content":" world"}}`))
		require.NoError(t, err)
		assert.True(t, ev.IsTextDelta())
		assert.Equal(t, " world", ev.Content)
	})

	t.Run("should parse a message event with string delta", func(t *testing.T) {
		ev, err := Parse([]byte(`{"type":"message","delta":"partial","isComplete":false}`))
		require.NoError(t, err)
		assert.Equal(t, TypeMessage, ev.Type)
		assert.Equal(t, "partial", ev.Delta)
		assert.False(t, ev.IsComplete)
	})

	t.Run("should parse a complete message event", func(t *testing.T) {
		ev, err := Parse([]byte(`{"type":"message","content":"full answer","isComplete":true}`))
		require.NoError(t, err)
		assert.True(t, ev.IsComplete)
		assert.Equal(t, "full answer", ev.Content)
	})

	t.Run("should parse meta events", func(t *testing.T) {
		ev, err := Parse([]byte(`{"type":"meta","model":"harvest-1","sessionId":"s-42"}`))
		require.NoError(t, err)
		assert.Equal(t, "harvest-1", ev.Model)
		assert.Equal(t, "s-42", ev.SessionID)
	})

	t.Run("should parse agent handoff events", func(t *testing.T) {
		ev, err := Parse([]byte(`{"type":"agent_handoff","from":"orchestrator","to":"weather","reason":"forecast lookup"}`))
		require.NoError(t, err)
		assert.Equal(t, "weather", ev.To)
		assert.Equal(t, "forecast lookup", ev.Reason)
	})

	t.Run("should parse thinking events with progress", func(t *testing.T) {
		ev, err := Parse([]byte(`{"type":"thinking","agent":"field_data","message":"querying sensors","progress":40}`))
		require.NoError(t, err)
		require.NotNil(t, ev.Progress)
		assert.Equal(t, 40, *ev.Progress)
	})

	t.Run("should retain raw bytes", func(t *testing.T) {
		raw := `{"type":"custom_ui","widget":"calendar"}`
		ev, err := Parse([]byte(raw))
		require.NoError(t, err)
		assert.JSONEq(t, raw, string(ev.Raw))
	})

	t.Run("should fail on invalid json", func(t *testing.T) {
		_, err := Parse([]byte("nope"))
		assert.Error(t, err)
	})
}

func TestPredicates(t *testing.T) {
	t.Run("should classify out of band events", func(t *testing.T) {
		for _, typ := range []string{
			TypeToolCallDelta, TypeToolCallResult, TypeCitation,
			TypeCustomUI, TypeActionConfirmation, TypeReasoningTrace, TypeError,
		} {
			assert.True(t, StreamEvent{Type: typ}.IsOutOfBand(), typ)
		}
	})

	t.Run("should not classify prose or control events as out of band", func(t *testing.T) {
		for _, typ := range []string{TypeChunk, TypeContent, TypeMeta, TypeDone, TypeMessage} {
			assert.False(t, StreamEvent{Type: typ}.IsOutOfBand(), typ)
		}
	})

	t.Run("should mark only done as terminal", func(t *testing.T) {
		assert.True(t, Done().IsTerminal())
		assert.False(t, TextDelta("x").IsTerminal())
	})
}
