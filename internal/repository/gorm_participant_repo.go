package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/weiawesome/wes-io-live/chatroom-service/internal/domain"
	"github.com/weiawesome/wes-io-live/chatroom-service/pkg/log"
)

// GormParticipantRepository implements ParticipantRepository using GORM.
type GormParticipantRepository struct {
	db *gorm.DB
}

// NewGormParticipantRepository creates a new GORM-based participant repository.
func NewGormParticipantRepository(db *gorm.DB) *GormParticipantRepository {
	return &GormParticipantRepository{db: db}
}

// Create inserts the participant and, when joined is non-nil, its join
// announcement. Both land or neither does.
func (r *GormParticipantRepository) Create(ctx context.Context, p *domain.Participant, joined *domain.Message) error {
	l := log.Ctx(ctx)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(domain.ParticipantToModel(p)).Error; err != nil {
			return err
		}
		if joined == nil {
			return nil
		}
		joined.ID = uuid.New().String()
		return tx.Create(domain.MessageToModel(joined)).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrParticipantExists
		}
		l.Error().Err(err).Str(log.FieldParticipant, p.Name).Msg("failed to create participant in db")
		return err
	}

	l.Debug().Str(log.FieldParticipant, p.Name).Msg("participant created in db")
	return nil
}

// Exists reports whether a participant with that name is present.
func (r *GormParticipantRepository) Exists(ctx context.Context, name string) (bool, error) {
	l := log.Ctx(ctx)

	var count int64
	result := r.db.WithContext(ctx).Model(&domain.ParticipantModel{}).
		Where("name = ?", name).
		Count(&count)
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldParticipant, name).Msg("failed to look up participant")
		return false, result.Error
	}
	return count > 0, nil
}

// List retrieves every participant ordered by name.
func (r *GormParticipantRepository) List(ctx context.Context) ([]domain.Participant, error) {
	l := log.Ctx(ctx)

	var models []domain.ParticipantModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&models).Error; err != nil {
		l.Error().Err(err).Msg("failed to list participants from db")
		return nil, err
	}

	participants := make([]domain.Participant, len(models))
	for i, model := range models {
		participants[i] = *model.ToDomain()
	}
	return participants, nil
}

// Touch refreshes the participant's lastStatus.
func (r *GormParticipantRepository) Touch(ctx context.Context, name string, lastStatus int64) error {
	l := log.Ctx(ctx)

	result := r.db.WithContext(ctx).Model(&domain.ParticipantModel{}).
		Where("name = ?", name).
		Update("last_status", lastStatus)
	if result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldParticipant, name).Msg("failed to refresh participant status")
		return result.Error
	}
	if result.RowsAffected == 0 {
		// MySQL reports zero rows when the value did not change.
		exists, err := r.Exists(ctx, name)
		if err != nil {
			return err
		}
		if !exists {
			return ErrParticipantNotFound
		}
	}
	return nil
}

// EvictStale deletes the participant if it is still stale and stores the
// farewell message in the same transaction.
func (r *GormParticipantRepository) EvictStale(ctx context.Context, name string, cutoff int64, farewell *domain.Message) (bool, error) {
	l := log.Ctx(ctx)

	evicted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("name = ? AND last_status < ?", name, cutoff).
			Delete(&domain.ParticipantModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Refreshed since the scan.
			return nil
		}
		evicted = true

		if farewell == nil {
			return nil
		}
		farewell.ID = uuid.New().String()
		return tx.Create(domain.MessageToModel(farewell)).Error
	})
	if err != nil {
		l.Error().Err(err).Str(log.FieldParticipant, name).Msg("failed to evict participant")
		return false, err
	}
	return evicted, nil
}
