package contract

import (
	"context"

	"identity-coach-be/internal/entity"

	"github.com/google/uuid"
)

type IdentityRepository interface {
	Create(ctx context.Context, identity *entity.Identity) error
	Update(ctx context.Context, identity *entity.Identity) error
	Delete(ctx context.Context, userId, id uuid.UUID) error
	DeleteAllByUserId(ctx context.Context, userId uuid.UUID) error
	FindById(ctx context.Context, userId, id uuid.UUID) (*entity.Identity, error) // nil, nil when absent
	// FindAllByUserId returns the user's identities ordered by creation time, oldest first.
	FindAllByUserId(ctx context.Context, userId uuid.UUID) ([]*entity.Identity, error)
}
