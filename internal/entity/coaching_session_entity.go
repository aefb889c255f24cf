package entity

import (
	"time"

	"identity-coach-be/internal/constant"

	"github.com/google/uuid"
)

type CoachingSession struct {
	Id                 uuid.UUID
	UserId             uuid.UUID
	Phase              constant.Phase
	FocusCategory      constant.Category
	CurrentIdentityId  *uuid.UUID
	ProposedIdentityId *uuid.UUID
	SkippedCategories  []constant.Category
	WhoIAm             []string
	WhoIWantToBe       []string
	AskedTopics        []constant.Topic
	Metadata           map[string]interface{}
	CreatedAt          time.Time
	UpdatedAt          *time.Time
}

// Clone returns a deep copy so callers can mutate without touching stored state.
func (s *CoachingSession) Clone() *CoachingSession {
	if s == nil {
		return nil
	}
	c := *s
	c.CurrentIdentityId = cloneUUID(s.CurrentIdentityId)
	c.ProposedIdentityId = cloneUUID(s.ProposedIdentityId)
	c.SkippedCategories = append([]constant.Category(nil), s.SkippedCategories...)
	c.WhoIAm = append([]string(nil), s.WhoIAm...)
	c.WhoIWantToBe = append([]string(nil), s.WhoIWantToBe...)
	c.AskedTopics = append([]constant.Topic(nil), s.AskedTopics...)
	c.Metadata = cloneMap(s.Metadata)
	if s.UpdatedAt != nil {
		t := *s.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	c := make(map[string]interface{}, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]interface{}); ok {
			c[k] = cloneMap(nested)
			continue
		}
		c[k] = v
	}
	return c
}
