package entity

import (
	"time"

	"github.com/google/uuid"
)

// ActionLog is the audit trace of one executed coaching command.
type ActionLog struct {
	Id         uuid.UUID
	UserId     uuid.UUID
	ActionId   string
	Params     map[string]interface{}
	Summary    string
	TriggerRef *uuid.UUID
	CreatedAt  time.Time
}
