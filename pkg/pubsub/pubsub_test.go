package pubsub

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPublisher struct{ calls int }

func (p *failingPublisher) Publish(context.Context, string, *Event) error {
	p.calls++
	return errors.New("bus down")
}

func (p *failingPublisher) Close() error { return nil }

func TestNewPublisher(t *testing.T) {
	for _, driver := range []string{"", "none"} {
		pub, err := NewPublisher(Config{Driver: driver})
		require.NoError(t, err)
		assert.IsType(t, NopPublisher{}, pub)
	}

	_, err := NewPublisher(Config{Driver: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestChannelToTopic(t *testing.T) {
	assert.Equal(t, "chat-room-events", channelToTopic(ChannelChatEvents))
	assert.Equal(t, "plain", channelToTopic("plain"))
}

func TestEventPayloadRoundTrip(t *testing.T) {
	type participant struct {
		Name string `json:"name"`
	}

	event, err := NewEvent(EventParticipantJoined, "alice", participant{Name: "alice"})
	require.NoError(t, err)
	assert.Equal(t, EventParticipantJoined, event.Type)
	assert.Equal(t, "alice", event.Key)
	assert.False(t, event.OccurredAt.IsZero())
	assert.NotEmpty(t, event.ID)

	var got participant
	require.NoError(t, event.UnmarshalPayload(&got))
	assert.Equal(t, "alice", got.Name)

	_, err = NewEvent(EventMessageCreated, "x", make(chan int))
	assert.Error(t, err)
}

func TestEmit(t *testing.T) {
	ctx := context.Background()

	t.Run("publish failure is swallowed", func(t *testing.T) {
		pub := &failingPublisher{}
		assert.NotPanics(t, func() {
			Emit(ctx, pub, ChannelChatEvents, EventMessageDeleted, "id", map[string]string{"a": "b"})
		})
		assert.Equal(t, 1, pub.calls)
	})

	t.Run("unencodable payload is never published", func(t *testing.T) {
		pub := &failingPublisher{}
		Emit(ctx, pub, ChannelChatEvents, EventMessageDeleted, "id", make(chan int))
		assert.Zero(t, pub.calls)
	})

	t.Run("nil publisher", func(t *testing.T) {
		assert.NotPanics(t, func() {
			Emit(ctx, nil, ChannelChatEvents, EventMessageDeleted, "id", nil)
		})
	})
}
