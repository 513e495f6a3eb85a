package repository

import (
	"context"
	"errors"

	"github.com/weiawesome/wes-io-live/chatroom-service/internal/domain"
)

var (
	ErrParticipantNotFound = errors.New("participant not found")
	ErrParticipantExists   = errors.New("participant already exists")
	ErrMessageNotFound     = errors.New("message not found")
	ErrNotMessageOwner     = errors.New("message belongs to another participant")
)

// ParticipantRepository defines the interface for participant persistence.
type ParticipantRepository interface {
	// Create inserts p, failing with ErrParticipantExists if the name is taken.
	Create(ctx context.Context, p *domain.Participant, joined *domain.Message) error
	Exists(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]domain.Participant, error)
	// Touch sets lastStatus, failing with ErrParticipantNotFound for unknown names.
	Touch(ctx context.Context, name string, lastStatus int64) error
	// EvictStale removes name only while its lastStatus is still below cutoff
	// and records farewell in the same transaction. It reports whether the
	// participant was removed.
	EvictStale(ctx context.Context, name string, cutoff int64, farewell *domain.Message) (bool, error)
}

// MessageRepository defines the interface for message persistence.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id string) (*domain.Message, error)
	// ListRecent returns the last limit messages in insertion order, or the
	// whole history when limit is zero.
	ListRecent(ctx context.Context, limit int) ([]domain.Message, error)
	// UpdateOwned rewrites To, Text, Type and Time of msg.ID if msg.From owns
	// it. Status messages are owned by no one and fail with ErrNotMessageOwner.
	UpdateOwned(ctx context.Context, msg *domain.Message) error
	// DeleteOwned removes id if from owns it and returns the removed message.
	// Status messages cannot be deleted.
	DeleteOwned(ctx context.Context, id, from string) (*domain.Message, error)
}
