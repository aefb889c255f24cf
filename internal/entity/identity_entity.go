package entity

import (
	"time"

	"identity-coach-be/internal/constant"

	"github.com/google/uuid"
)

// Identity is a tracked coaching record ("who I want to be" candidate) owned by one user.
type Identity struct {
	Id                uuid.UUID
	UserId            uuid.UUID
	Label             string
	Category          constant.Category
	State             constant.LifecycleState
	Notes             []string
	Statement         string
	VisualizationText string
	CreatedAt         time.Time
	UpdatedAt         *time.Time
}

func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	c.Notes = append([]string(nil), i.Notes...)
	if i.UpdatedAt != nil {
		t := *i.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}
