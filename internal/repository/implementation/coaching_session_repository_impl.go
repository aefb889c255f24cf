package implementation

import (
	"context"
	"errors"

	"identity-coach-be/internal/entity"
	"identity-coach-be/internal/mapper"
	"identity-coach-be/internal/model"
	"identity-coach-be/internal/repository/contract"
	"identity-coach-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CoachingSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CoachingMapper
}

func NewCoachingSessionRepository(db *gorm.DB) contract.CoachingSessionRepository {
	return &CoachingSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewCoachingMapper(),
	}
}

func (r *CoachingSessionRepositoryImpl) Create(ctx context.Context, session *entity.CoachingSession) error {
	if session.Id == uuid.Nil {
		session.Id = uuid.New()
	}
	m := r.mapper.SessionToModel(session)
	// A unique violation would abort the surrounding transaction, so a losing racer inserts nothing.
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(m)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return contract.ErrSessionExists
	}
	*session = *r.mapper.SessionToEntity(m)
	return nil
}

func (r *CoachingSessionRepositoryImpl) Update(ctx context.Context, session *entity.CoachingSession) error {
	m := r.mapper.SessionToModel(session)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.SessionToEntity(m)
	return nil
}

func (r *CoachingSessionRepositoryImpl) FindByUserId(ctx context.Context, userId uuid.UUID) (*entity.CoachingSession, error) {
	var m model.CoachingSession
	query := specification.UserOwnedBy{UserID: userId}.Apply(r.db.WithContext(ctx))
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SessionToEntity(&m), nil
}

func (r *CoachingSessionRepositoryImpl) DeleteByUserId(ctx context.Context, userId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userId).Delete(&model.CoachingSession{}).Error
}
