package pubsub

import "strings"

// Channel naming conventions for chat events.
const (
	// ChannelChatEvents carries every chat room event.
	ChannelChatEvents = "chat:room:events"
)

// Event types published by the chat service.
const (
	EventParticipantJoined = "participant.joined"
	EventParticipantLeft   = "participant.left"
	EventMessageCreated    = "message.created"
	EventMessageUpdated    = "message.updated"
	EventMessageDeleted    = "message.deleted"
)

// channelToTopic converts a Redis-style channel to a Kafka topic.
//
//	"chat:room:events" → "chat-room-events"
func channelToTopic(channel string) string {
	return strings.ReplaceAll(channel, ":", "-")
}
