package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type CoachingSession struct {
	Id                 uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserId             uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex"` // One session per user
	Phase              string         `gorm:"type:varchar(32);not null;default:'introduction'"`
	FocusCategory      string         `gorm:"type:varchar(32)"`
	CurrentIdentityId  *uuid.UUID     `gorm:"type:uuid"`
	ProposedIdentityId *uuid.UUID     `gorm:"type:uuid"`
	SkippedCategories  datatypes.JSON `gorm:"type:jsonb"`
	WhoIAm             datatypes.JSON `gorm:"type:jsonb"`
	WhoIWantToBe       datatypes.JSON `gorm:"type:jsonb"`
	AskedTopics        datatypes.JSON `gorm:"type:jsonb"`
	Metadata           datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt          time.Time      `gorm:"autoCreateTime"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime"`
}

func (CoachingSession) TableName() string {
	return "coaching_sessions"
}
