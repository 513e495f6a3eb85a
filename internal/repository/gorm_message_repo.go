package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/weiawesome/wes-io-live/chatroom-service/internal/domain"
	"github.com/weiawesome/wes-io-live/chatroom-service/pkg/log"
)

// GormMessageRepository implements MessageRepository using GORM.
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GORM-based message repository.
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Create stores a new message and assigns its ID.
func (r *GormMessageRepository) Create(ctx context.Context, msg *domain.Message) error {
	l := log.Ctx(ctx)

	msg.ID = uuid.New().String()
	if err := r.db.WithContext(ctx).Create(domain.MessageToModel(msg)).Error; err != nil {
		l.Error().Err(err).Msg("failed to create message in db")
		return err
	}

	l.Debug().Str(log.FieldMessageID, msg.ID).Msg("message created in db")
	return nil
}

// GetByID retrieves a message by ID.
func (r *GormMessageRepository) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	l := log.Ctx(ctx)

	var model domain.MessageModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		l.Error().Err(result.Error).Str(log.FieldMessageID, id).Msg("failed to get message by id")
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// ListRecent returns the trailing window of the history in insertion order.
func (r *GormMessageRepository) ListRecent(ctx context.Context, limit int) ([]domain.Message, error) {
	l := log.Ctx(ctx)

	query := r.db.WithContext(ctx).Model(&domain.MessageModel{})
	if limit > 0 {
		query = query.Order("seq DESC").Limit(limit)
	} else {
		query = query.Order("seq ASC")
	}

	var models []domain.MessageModel
	if err := query.Find(&models).Error; err != nil {
		l.Error().Err(err).Int("limit", limit).Msg("failed to list messages from db")
		return nil, err
	}

	messages := make([]domain.Message, len(models))
	for i, model := range models {
		messages[i] = *model.ToDomain()
	}
	if limit > 0 {
		reverse(messages)
	}
	return messages, nil
}

// UpdateOwned applies the edit only where both id and sender match, so the
// ownership check and the write are a single statement.
func (r *GormMessageRepository) UpdateOwned(ctx context.Context, msg *domain.Message) error {
	l := log.Ctx(ctx)

	result := r.db.WithContext(ctx).Model(&domain.MessageModel{}).
		Where("id = ? AND sender = ? AND type <> ?", msg.ID, msg.From, string(domain.MessageTypeStatus)).
		Updates(map[string]interface{}{
			"recipient": msg.To,
			"text":      msg.Text,
			"type":      string(msg.Type),
			"time":      msg.Time,
		})
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldMessageID, msg.ID).Msg("failed to update message in db")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.checkOwner(ctx, msg.ID, msg.From)
	}

	l.Debug().Str(log.FieldMessageID, msg.ID).Msg("message updated in db")
	return nil
}

// DeleteOwned removes the message if from is its sender.
func (r *GormMessageRepository) DeleteOwned(ctx context.Context, id, from string) (*domain.Message, error) {
	l := log.Ctx(ctx)

	var deleted *domain.Message
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model domain.MessageModel
		if err := tx.First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMessageNotFound
			}
			return err
		}
		if !ownedBy(model.ToDomain(), from) {
			return ErrNotMessageOwner
		}

		result := tx.Where("id = ? AND sender = ? AND type <> ?", id, from, string(domain.MessageTypeStatus)).
			Delete(&domain.MessageModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Deleted concurrently.
			return ErrMessageNotFound
		}
		deleted = model.ToDomain()
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrMessageNotFound) && !errors.Is(err, ErrNotMessageOwner) {
			l.Error().Err(err).Str(log.FieldMessageID, id).Msg("failed to delete message from db")
		}
		return nil, err
	}

	l.Debug().Str(log.FieldMessageID, id).Msg("message deleted from db")
	return deleted, nil
}

// checkOwner explains why a guarded write matched no rows: the message is
// missing, is a system status, belongs to someone else, or (MySQL) the
// write changed nothing.
func (r *GormMessageRepository) checkOwner(ctx context.Context, id, from string) error {
	msg, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !ownedBy(msg, from) {
		return ErrNotMessageOwner
	}
	return nil
}

// ownedBy reports whether from may mutate msg. Status announcements are
// written by the system on the participant's behalf and belong to no one.
func ownedBy(msg *domain.Message, from string) bool {
	return msg.Type.UserAuthored() && msg.From == from
}

func reverse(messages []domain.Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}
