package domain

import "time"

// ParticipantModel is the GORM model for participants table.
// The unique index on name is what keeps registrations unique.
type ParticipantModel struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	Name       string `gorm:"type:varchar(100);uniqueIndex;not null"`
	LastStatus int64  `gorm:"not null;index"`
}

// TableName specifies the table name for ParticipantModel.
func (ParticipantModel) TableName() string {
	return "participants"
}

// ToDomain converts ParticipantModel to domain Participant.
func (m *ParticipantModel) ToDomain() *Participant {
	return &Participant{
		Name:       m.Name,
		LastStatus: m.LastStatus,
	}
}

// ParticipantToModel converts domain Participant to ParticipantModel.
func ParticipantToModel(p *Participant) *ParticipantModel {
	return &ParticipantModel{
		Name:       p.Name,
		LastStatus: p.LastStatus,
	}
}

// MessageModel is the GORM model for messages table.
// Seq records global insertion order; ID is the public identifier.
type MessageModel struct {
	Seq       uint64    `gorm:"primaryKey;autoIncrement"`
	ID        string    `gorm:"type:varchar(36);uniqueIndex;not null"`
	Sender    string    `gorm:"type:varchar(100);index;not null"`
	Recipient string    `gorm:"type:varchar(100);not null"`
	Text      string    `gorm:"type:text;not null"`
	Type      string    `gorm:"type:varchar(20);not null"`
	Time      string    `gorm:"type:varchar(8);not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for MessageModel.
func (MessageModel) TableName() string {
	return "messages"
}

// ToDomain converts MessageModel to domain Message.
func (m *MessageModel) ToDomain() *Message {
	return &Message{
		ID:   m.ID,
		From: m.Sender,
		To:   m.Recipient,
		Text: m.Text,
		Type: MessageType(m.Type),
		Time: m.Time,
	}
}

// MessageToModel converts domain Message to MessageModel.
func MessageToModel(msg *Message) *MessageModel {
	return &MessageModel{
		ID:        msg.ID,
		Sender:    msg.From,
		Recipient: msg.To,
		Text:      msg.Text,
		Type:      string(msg.Type),
		Time:      msg.Time,
	}
}
