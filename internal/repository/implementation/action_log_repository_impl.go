package implementation

import (
	"context"

	"identity-coach-be/internal/entity"
	"identity-coach-be/internal/mapper"
	"identity-coach-be/internal/model"
	"identity-coach-be/internal/repository/contract"
	"identity-coach-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActionLogRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CoachingMapper
}

func NewActionLogRepository(db *gorm.DB) contract.ActionLogRepository {
	return &ActionLogRepositoryImpl{
		db:     db,
		mapper: mapper.NewCoachingMapper(),
	}
}

func (r *ActionLogRepositoryImpl) Create(ctx context.Context, log *entity.ActionLog) error {
	if log.Id == uuid.Nil {
		log.Id = uuid.New()
	}
	m := r.mapper.ActionLogToModel(log)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*log = *r.mapper.ActionLogToEntity(m)
	return nil
}

func (r *ActionLogRepositoryImpl) FindAllByUserId(ctx context.Context, userId uuid.UUID, limit int) ([]*entity.ActionLog, error) {
	var models []*model.ActionLog
	query := specification.UserOwnedBy{UserID: userId}.Apply(r.db.WithContext(ctx))
	query = specification.OrderBy{Field: "created_at", Desc: true}.Apply(query)
	if limit > 0 {
		query = specification.Pagination{Limit: limit}.Apply(query)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	logs := make([]*entity.ActionLog, len(models))
	for i, m := range models {
		logs[i] = r.mapper.ActionLogToEntity(m)
	}
	return logs, nil
}

func (r *ActionLogRepositoryImpl) DeleteAllByUserId(ctx context.Context, userId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userId).Delete(&model.ActionLog{}).Error
}
