package contract

import (
	"context"

	"identity-coach-be/internal/entity"

	"github.com/google/uuid"
)

type ActionLogRepository interface {
	Create(ctx context.Context, log *entity.ActionLog) error
	FindAllByUserId(ctx context.Context, userId uuid.UUID, limit int) ([]*entity.ActionLog, error)
	DeleteAllByUserId(ctx context.Context, userId uuid.UUID) error
}
