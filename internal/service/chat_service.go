package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/weiawesome/wes-io-live/chatroom-service/internal/audit"
	"github.com/weiawesome/wes-io-live/chatroom-service/internal/cache"
	"github.com/weiawesome/wes-io-live/chatroom-service/internal/domain"
	"github.com/weiawesome/wes-io-live/chatroom-service/internal/metrics"
	"github.com/weiawesome/wes-io-live/chatroom-service/internal/repository"
	"github.com/weiawesome/wes-io-live/chatroom-service/internal/validation"
	"github.com/weiawesome/wes-io-live/chatroom-service/pkg/log"
	"github.com/weiawesome/wes-io-live/chatroom-service/pkg/pubsub"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrParticipantExists   = errors.New("participant already exists")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrMessageNotFound     = errors.New("message not found")
	ErrNotMessageOwner     = errors.New("you are not the author of this message")
)

// Operation names used for metrics.
const (
	opRegister  = "register"
	opHeartbeat = "heartbeat"
	opPost      = "post_message"
	opEdit      = "edit_message"
	opDelete    = "delete_message"
)

// Config holds chat service configuration.
type Config struct {
	Channel  string        // event bus channel
	CacheTTL time.Duration // lifetime of the cached participant list
}

// chatServiceImpl implements ChatService interface.
type chatServiceImpl struct {
	participants repository.ParticipantRepository
	messages     repository.MessageRepository
	validator    *validation.Validator
	cache        cache.ParticipantCache
	publisher    pubsub.Publisher
	metrics      *metrics.Metrics
	config       Config

	now func() time.Time
}

// NewChatService creates a new chat service.
func NewChatService(
	participants repository.ParticipantRepository,
	messages repository.MessageRepository,
	v *validation.Validator,
	c cache.ParticipantCache,
	pub pubsub.Publisher,
	m *metrics.Metrics,
	cfg Config,
) ChatService {
	if c == nil {
		c = cache.NopParticipantCache{}
	}
	if pub == nil {
		pub = pubsub.NopPublisher{}
	}
	if cfg.Channel == "" {
		cfg.Channel = pubsub.ChannelChatEvents
	}
	return &chatServiceImpl{
		participants: participants,
		messages:     messages,
		validator:    v,
		cache:        c,
		publisher:    pub,
		metrics:      m,
		config:       cfg,
		now:          time.Now,
	}
}

// Register adds a participant and announces the arrival.
func (s *chatServiceImpl) Register(ctx context.Context, name string) (*domain.Participant, error) {
	clean, err := s.validator.Name(name)
	if err != nil {
		s.metrics.RecordOperation(opRegister, "invalid")
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := s.now()
	participant := &domain.Participant{
		Name:       clean,
		LastStatus: now.UnixMilli(),
	}
	joined := domain.NewStatusMessage(clean, domain.JoinText, now)

	if err := s.participants.Create(ctx, participant, joined); err != nil {
		if errors.Is(err, repository.ErrParticipantExists) {
			s.metrics.RecordOperation(opRegister, "conflict")
			return nil, ErrParticipantExists
		}
		s.metrics.RecordOperation(opRegister, metrics.ResultError)
		return nil, err
	}
	s.metrics.RecordOperation(opRegister, metrics.ResultOK)

	s.invalidateParticipants(ctx)
	audit.Log(ctx, audit.ActionRegister, clean, "participant registered")
	pubsub.Emit(ctx, s.publisher, s.config.Channel, pubsub.EventParticipantJoined, clean, participant)
	pubsub.Emit(ctx, s.publisher, s.config.Channel, pubsub.EventMessageCreated, joined.ID, joined)

	return participant, nil
}

// Heartbeat refreshes the participant's presence.
func (s *chatServiceImpl) Heartbeat(ctx context.Context, name string) (*domain.Participant, error) {
	lastStatus := s.now().UnixMilli()

	if err := s.participants.Touch(ctx, name, lastStatus); err != nil {
		if errors.Is(err, repository.ErrParticipantNotFound) {
			s.metrics.RecordOperation(opHeartbeat, "not_found")
			return nil, ErrParticipantNotFound
		}
		s.metrics.RecordOperation(opHeartbeat, metrics.ResultError)
		return nil, err
	}
	s.metrics.RecordOperation(opHeartbeat, metrics.ResultOK)

	return &domain.Participant{Name: name, LastStatus: lastStatus}, nil
}

// ListParticipants returns every participant, served from cache when possible.
// The cache is aside and unsynchronised: a reader racing an invalidation can
// put back the list it read, and heartbeats do not invalidate. Either way the
// listing is at most CacheTTL old, which config keeps below the staleness
// window.
func (s *chatServiceImpl) ListParticipants(ctx context.Context) ([]domain.Participant, error) {
	l := log.Ctx(ctx)

	cached, err := s.cache.GetParticipants(ctx)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		l.Warn().Err(err).Msg("participant cache read failed")
	}

	participants, err := s.participants.List(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetParticipants(ctx, participants, s.config.CacheTTL); err != nil {
		l.Warn().Err(err).Msg("participant cache write failed")
	}

	return participants, nil
}

// PostMessage stores a message authored by from.
func (s *chatServiceImpl) PostMessage(ctx context.Context, from string, req *domain.MessageRequest) (*domain.Message, error) {
	msg, err := s.validator.Message(from, req)
	if err != nil {
		s.metrics.RecordOperation(opPost, "invalid")
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	exists, err := s.participants.Exists(ctx, from)
	if err != nil {
		s.metrics.RecordOperation(opPost, metrics.ResultError)
		return nil, err
	}
	if !exists {
		s.metrics.RecordOperation(opPost, "invalid")
		return nil, fmt.Errorf("%w: %s is not in the room", ErrInvalidInput, from)
	}

	msg.Time = domain.Clock(s.now())
	if err := s.messages.Create(ctx, msg); err != nil {
		s.metrics.RecordOperation(opPost, metrics.ResultError)
		return nil, err
	}
	s.metrics.RecordOperation(opPost, metrics.ResultOK)

	audit.LogWithDetail(ctx, audit.ActionPostMessage, from, msg.ID, "message posted")
	pubsub.Emit(ctx, s.publisher, s.config.Channel, pubsub.EventMessageCreated, msg.ID, msg)

	return msg, nil
}

// ListMessages returns the messages requester may read. A positive limit
// first cuts the global history to its last limit entries and only then
// applies visibility, so fewer than limit messages may come back.
func (s *chatServiceImpl) ListMessages(ctx context.Context, requester string, limit int) ([]domain.Message, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidInput)
	}

	recent, err := s.messages.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	return domain.FilterVisible(recent, requester), nil
}

// EditMessage rewrites a message; only its author may do so.
func (s *chatServiceImpl) EditMessage(ctx context.Context, requester, id string, req *domain.MessageRequest) (*domain.Message, error) {
	msg, err := s.validator.Message(requester, req)
	if err != nil {
		s.metrics.RecordOperation(opEdit, "invalid")
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	msg.ID = id
	msg.Time = domain.Clock(s.now())

	if err := s.messages.UpdateOwned(ctx, msg); err != nil {
		err = s.translateOwnership(err)
		s.metrics.RecordOperation(opEdit, resultOf(err))
		return nil, err
	}
	s.metrics.RecordOperation(opEdit, metrics.ResultOK)

	audit.LogWithDetail(ctx, audit.ActionEditMessage, requester, id, "message edited")
	pubsub.Emit(ctx, s.publisher, s.config.Channel, pubsub.EventMessageUpdated, id, msg)

	return msg, nil
}

// DeleteMessage removes a message; only its author may do so.
func (s *chatServiceImpl) DeleteMessage(ctx context.Context, requester, id string) (*domain.Message, error) {
	deleted, err := s.messages.DeleteOwned(ctx, id, requester)
	if err != nil {
		err = s.translateOwnership(err)
		s.metrics.RecordOperation(opDelete, resultOf(err))
		return nil, err
	}
	s.metrics.RecordOperation(opDelete, metrics.ResultOK)

	audit.LogWithDetail(ctx, audit.ActionDeleteMessage, requester, id, "message deleted")
	pubsub.Emit(ctx, s.publisher, s.config.Channel, pubsub.EventMessageDeleted, id, deleted)

	return deleted, nil
}

func (s *chatServiceImpl) translateOwnership(err error) error {
	switch {
	case errors.Is(err, repository.ErrMessageNotFound):
		return ErrMessageNotFound
	case errors.Is(err, repository.ErrNotMessageOwner):
		return ErrNotMessageOwner
	default:
		return err
	}
}

func (s *chatServiceImpl) invalidateParticipants(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("participant cache invalidation failed")
	}
}

func resultOf(err error) string {
	switch {
	case errors.Is(err, ErrMessageNotFound):
		return "not_found"
	case errors.Is(err, ErrNotMessageOwner):
		return "forbidden"
	default:
		return metrics.ResultError
	}
}
