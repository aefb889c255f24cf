package unitofwork

import (
	"context"

	"identity-coach-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	CoachingSessionRepository() contract.CoachingSessionRepository
	IdentityRepository() contract.IdentityRepository
	ActionLogRepository() contract.ActionLogRepository
}
