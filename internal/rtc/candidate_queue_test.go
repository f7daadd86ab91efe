package rtc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidateQueueBuffersUntilRemoteDescription(t *testing.T) {
	queue := NewCandidateQueue()

	first := json.RawMessage(`{"candidate":"a"}`)
	second := json.RawMessage(`{"candidate":"b"}`)
	third := json.RawMessage(`{"candidate":"c"}`)

	assert.True(t, queue.Add(first))
	assert.True(t, queue.Add(second))
	assert.True(t, queue.Add(third))
	assert.Equal(t, 3, queue.Len())

	drained := queue.RemoteDescriptionSet()
	require.Equal(t, []json.RawMessage{first, second, third}, drained)
	assert.Zero(t, queue.Len())
}

func TestCandidateQueueDrainsExactlyOnce(t *testing.T) {
	queue := NewCandidateQueue()
	queue.Add(json.RawMessage(`{"candidate":"a"}`))

	require.Len(t, queue.RemoteDescriptionSet(), 1)
	assert.Empty(t, queue.RemoteDescriptionSet())
}

func TestCandidateQueueBypassAfterRemoteDescription(t *testing.T) {
	queue := NewCandidateQueue()
	queue.RemoteDescriptionSet()

	// Late candidates are applied directly, never queued.
	assert.False(t, queue.Add(json.RawMessage(`{"candidate":"late"}`)))
	assert.Zero(t, queue.Len())
}

func TestCandidateQueueReset(t *testing.T) {
	queue := NewCandidateQueue()
	queue.Add(json.RawMessage(`{"candidate":"a"}`))
	queue.RemoteDescriptionSet()

	queue.Reset()

	assert.True(t, queue.Add(json.RawMessage(`{"candidate":"b"}`)))
	assert.Equal(t, 1, queue.Len())
}
