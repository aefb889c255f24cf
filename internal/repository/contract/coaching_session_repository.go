package contract

import (
	"context"
	"errors"

	"identity-coach-be/internal/entity"

	"github.com/google/uuid"
)

// ErrSessionExists is returned by Create when the user already has a session. The unit of work
// stays usable afterwards.
var ErrSessionExists = errors.New("coaching session already exists")

type CoachingSessionRepository interface {
	Create(ctx context.Context, session *entity.CoachingSession) error
	Update(ctx context.Context, session *entity.CoachingSession) error
	FindByUserId(ctx context.Context, userId uuid.UUID) (*entity.CoachingSession, error) // nil, nil when absent
	DeleteByUserId(ctx context.Context, userId uuid.UUID) error
}
