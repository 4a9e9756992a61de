package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingBufferPushAndDrain(t *testing.T) {
	rb := newRingBuffer(8)

	msgs, dropped := rb.drainAll()
	assert.Nil(t, msgs)
	assert.False(t, dropped)

	for i := 0; i < 5; i++ {
		rb.push(bufferedMsg{topic: TopicRelay, payload: []byte{byte(i)}, qos: 1})
	}
	assert.Equal(t, 5, rb.len())

	msgs, dropped = rb.drainAll()
	require.Len(t, msgs, 5)
	assert.False(t, dropped)
	for i, m := range msgs {
		assert.Equal(t, byte(i), m.payload[0], "oldest first")
		assert.Equal(t, byte(1), m.qos)
	}

	msgs, _ = rb.drainAll()
	assert.Nil(t, msgs, "second drain is empty")
	assert.Zero(t, rb.len())
}

func TestRingBufferOverflowKeepsNewest(t *testing.T) {
	rb := newRingBuffer(5)

	for i := 0; i < 8; i++ {
		rb.push(bufferedMsg{topic: TopicSystem, payload: []byte{byte(i)}})
	}

	msgs, dropped := rb.drainAll()
	require.Len(t, msgs, 5)
	assert.True(t, dropped)
	for i, m := range msgs {
		assert.Equal(t, byte(i+3), m.payload[0], "the oldest three were dropped")
	}

	// Overflow flag resets with the drain.
	rb.push(bufferedMsg{payload: []byte{9}})
	msgs, dropped = rb.drainAll()
	require.Len(t, msgs, 1)
	assert.False(t, dropped)
}

func TestRingBufferSurvivesManyCycles(t *testing.T) {
	rb := newRingBuffer(4)

	for cycle := 0; cycle < 10; cycle++ {
		rb.push(bufferedMsg{payload: []byte{byte(cycle)}})
		rb.push(bufferedMsg{payload: []byte{byte(cycle + 100)}})

		msgs, dropped := rb.drainAll()
		require.Len(t, msgs, 2, "cycle %d", cycle)
		assert.False(t, dropped)
		assert.Equal(t, byte(cycle), msgs[0].payload[0])
		assert.Equal(t, byte(cycle+100), msgs[1].payload[0])
	}
}
