package service

import (
	"context"

	"github.com/weiawesome/wes-io-live/chatroom-service/internal/domain"
)

// ChatService defines the interface for chat room business logic.
type ChatService interface {
	Register(ctx context.Context, name string) (*domain.Participant, error)
	Heartbeat(ctx context.Context, name string) (*domain.Participant, error)
	ListParticipants(ctx context.Context) ([]domain.Participant, error)
	PostMessage(ctx context.Context, from string, req *domain.MessageRequest) (*domain.Message, error)
	ListMessages(ctx context.Context, requester string, limit int) ([]domain.Message, error)
	EditMessage(ctx context.Context, requester, id string, req *domain.MessageRequest) (*domain.Message, error)
	DeleteMessage(ctx context.Context, requester, id string) (*domain.Message, error)
}
