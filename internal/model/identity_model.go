package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Identity struct {
	Id                uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserId            uuid.UUID      `gorm:"type:uuid;not null;index"`
	Label             string         `gorm:"type:text;not null"`
	Category          string         `gorm:"type:varchar(32);not null"`
	State             string         `gorm:"type:varchar(32);not null;index"`
	Notes             datatypes.JSON `gorm:"type:jsonb"`
	Statement         string         `gorm:"type:text"`
	VisualizationText string         `gorm:"type:text"`
	CreatedAt         time.Time      `gorm:"autoCreateTime;index"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime"`
}

func (Identity) TableName() string {
	return "identities"
}
