package cache

import (
	"context"
	"errors"
	"time"

	"github.com/weiawesome/wes-io-live/chatroom-service/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// ParticipantCache caches the GET /participants listing. Entries are dropped
// whenever membership changes; heartbeats only age out with the TTL.
type ParticipantCache interface {
	GetParticipants(ctx context.Context) ([]domain.Participant, error)
	SetParticipants(ctx context.Context, participants []domain.Participant, ttl time.Duration) error
	Invalidate(ctx context.Context) error
	Close() error
}

// NopParticipantCache always misses. Used when Redis is not configured.
type NopParticipantCache struct{}

func (NopParticipantCache) GetParticipants(context.Context) ([]domain.Participant, error) {
	return nil, ErrCacheMiss
}

func (NopParticipantCache) SetParticipants(context.Context, []domain.Participant, time.Duration) error {
	return nil
}

func (NopParticipantCache) Invalidate(context.Context) error { return nil }

func (NopParticipantCache) Close() error { return nil }
