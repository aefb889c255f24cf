package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ActionLog struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserId     uuid.UUID      `gorm:"type:uuid;not null;index"`
	ActionId   string         `gorm:"type:varchar(64);not null;index"`
	Params     datatypes.JSON `gorm:"type:jsonb"`
	Summary    string         `gorm:"type:text"`
	TriggerRef *uuid.UUID     `gorm:"type:uuid"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
}

func (ActionLog) TableName() string {
	return "coaching_action_logs"
}
