package domain

import (
	"fmt"
	"time"
)

// MessageType is the closed set of message kinds.
type MessageType string

const (
	// MessageTypeStatus is emitted by the system on join and leave.
	MessageTypeStatus MessageType = "status"
	// MessageTypeBroadcast is a user message, usually addressed to everyone.
	MessageTypeBroadcast MessageType = "message"
	// MessageTypeDirect is a user message only sender and recipient may read.
	MessageTypeDirect MessageType = "private_message"
)

const (
	// BroadcastTarget is the recipient meaning "everyone in the room".
	BroadcastTarget = "Todos"

	JoinText  = "entra na sala..."
	LeaveText = "sai da sala..."

	clockLayout = "15:04:05"
)

// ParseMessageType parses s into a MessageType.
func ParseMessageType(s string) (MessageType, error) {
	switch t := MessageType(s); t {
	case MessageTypeStatus, MessageTypeBroadcast, MessageTypeDirect:
		return t, nil
	default:
		return "", fmt.Errorf("unknown message type %q", s)
	}
}

// UserAuthored reports whether participants may post messages of this type.
func (t MessageType) UserAuthored() bool {
	return t == MessageTypeBroadcast || t == MessageTypeDirect
}

// Message is a chat event.
type Message struct {
	ID   string      `json:"_id"`
	From string      `json:"from"`
	To   string      `json:"to"`
	Text string      `json:"text"`
	Type MessageType `json:"type"`
	Time string      `json:"time"`
}

// MessageRequest is the body of POST /messages and PUT /messages/:id.
type MessageRequest struct {
	To   string `json:"to" binding:"required"`
	Text string `json:"text" binding:"required"`
	Type string `json:"type" binding:"required"`
}

// NewStatusMessage builds a system message announcing that name joined or left.
func NewStatusMessage(name, text string, at time.Time) *Message {
	return &Message{
		From: name,
		To:   BroadcastTarget,
		Text: text,
		Type: MessageTypeStatus,
		Time: Clock(at),
	}
}

// Clock formats t as the wall-clock time shown next to a message.
func Clock(t time.Time) string {
	return t.Format(clockLayout)
}

// VisibleTo reports whether requester may read m. Status messages and
// anything addressed to the room are public; everything else is only
// visible to its sender and recipient.
func (m *Message) VisibleTo(requester string) bool {
	switch m.Type {
	case MessageTypeStatus:
		return true
	case MessageTypeBroadcast, MessageTypeDirect:
		return m.To == BroadcastTarget || m.To == requester || m.From == requester
	default:
		return false
	}
}

// FilterVisible returns the messages requester may read, keeping order.
func FilterVisible(messages []Message, requester string) []Message {
	visible := make([]Message, 0, len(messages))
	for i := range messages {
		if messages[i].VisibleTo(requester) {
			visible = append(visible, messages[i])
		}
	}
	return visible
}
