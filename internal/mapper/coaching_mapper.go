package mapper

import (
	"encoding/json"
	"time"

	"identity-coach-be/internal/constant"
	"identity-coach-be/internal/entity"
	"identity-coach-be/internal/model"

	"gorm.io/datatypes"
)

type CoachingMapper struct{}

func NewCoachingMapper() *CoachingMapper {
	return &CoachingMapper{}
}

// Session Mappers

func (m *CoachingMapper) SessionToEntity(s *model.CoachingSession) *entity.CoachingSession {
	if s == nil {
		return nil
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	var skipped []constant.Category
	decodeJSON(s.SkippedCategories, &skipped)
	var whoIAm, whoIWantToBe []string
	decodeJSON(s.WhoIAm, &whoIAm)
	decodeJSON(s.WhoIWantToBe, &whoIWantToBe)
	var topics []constant.Topic
	decodeJSON(s.AskedTopics, &topics)
	var metadata map[string]interface{}
	decodeJSON(s.Metadata, &metadata)

	return &entity.CoachingSession{
		Id:                 s.Id,
		UserId:             s.UserId,
		Phase:              constant.Phase(s.Phase),
		FocusCategory:      constant.Category(s.FocusCategory),
		CurrentIdentityId:  s.CurrentIdentityId,
		ProposedIdentityId: s.ProposedIdentityId,
		SkippedCategories:  skipped,
		WhoIAm:             whoIAm,
		WhoIWantToBe:       whoIWantToBe,
		AskedTopics:        topics,
		Metadata:           metadata,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          updatedAt,
	}
}

func (m *CoachingMapper) SessionToModel(s *entity.CoachingSession) *model.CoachingSession {
	if s == nil {
		return nil
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.CoachingSession{
		Id:                 s.Id,
		UserId:             s.UserId,
		Phase:              string(s.Phase),
		FocusCategory:      string(s.FocusCategory),
		CurrentIdentityId:  s.CurrentIdentityId,
		ProposedIdentityId: s.ProposedIdentityId,
		SkippedCategories:  encodeJSON(s.SkippedCategories),
		WhoIAm:             encodeJSON(s.WhoIAm),
		WhoIWantToBe:       encodeJSON(s.WhoIWantToBe),
		AskedTopics:        encodeJSON(s.AskedTopics),
		Metadata:           encodeJSON(s.Metadata),
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          updatedAt,
	}
}

// Identity Mappers

func (m *CoachingMapper) IdentityToEntity(i *model.Identity) *entity.Identity {
	if i == nil {
		return nil
	}

	var updatedAt *time.Time
	if !i.UpdatedAt.IsZero() {
		t := i.UpdatedAt
		updatedAt = &t
	}

	var notes []string
	decodeJSON(i.Notes, &notes)

	return &entity.Identity{
		Id:                i.Id,
		UserId:            i.UserId,
		Label:             i.Label,
		Category:          constant.Category(i.Category),
		State:             constant.LifecycleState(i.State),
		Notes:             notes,
		Statement:         i.Statement,
		VisualizationText: i.VisualizationText,
		CreatedAt:         i.CreatedAt,
		UpdatedAt:         updatedAt,
	}
}

func (m *CoachingMapper) IdentityToModel(i *entity.Identity) *model.Identity {
	if i == nil {
		return nil
	}

	var updatedAt time.Time
	if i.UpdatedAt != nil {
		updatedAt = *i.UpdatedAt
	}

	return &model.Identity{
		Id:                i.Id,
		UserId:            i.UserId,
		Label:             i.Label,
		Category:          string(i.Category),
		State:             string(i.State),
		Notes:             encodeJSON(i.Notes),
		Statement:         i.Statement,
		VisualizationText: i.VisualizationText,
		CreatedAt:         i.CreatedAt,
		UpdatedAt:         updatedAt,
	}
}

func (m *CoachingMapper) IdentitiesToEntities(models []*model.Identity) []*entity.Identity {
	entities := make([]*entity.Identity, len(models))
	for i, mdl := range models {
		entities[i] = m.IdentityToEntity(mdl)
	}
	return entities
}

// Action Log Mappers

func (m *CoachingMapper) ActionLogToEntity(l *model.ActionLog) *entity.ActionLog {
	if l == nil {
		return nil
	}

	var params map[string]interface{}
	decodeJSON(l.Params, &params)

	return &entity.ActionLog{
		Id:         l.Id,
		UserId:     l.UserId,
		ActionId:   l.ActionId,
		Params:     params,
		Summary:    l.Summary,
		TriggerRef: l.TriggerRef,
		CreatedAt:  l.CreatedAt,
	}
}

func (m *CoachingMapper) ActionLogToModel(l *entity.ActionLog) *model.ActionLog {
	if l == nil {
		return nil
	}

	return &model.ActionLog{
		Id:         l.Id,
		UserId:     l.UserId,
		ActionId:   l.ActionId,
		Params:     encodeJSON(l.Params),
		Summary:    l.Summary,
		TriggerRef: l.TriggerRef,
		CreatedAt:  l.CreatedAt,
	}
}

// encodeJSON never fails for the list and map shapes stored here; a nil value becomes SQL NULL.
func encodeJSON(v interface{}) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return nil
	}
	return datatypes.JSON(b)
}

func decodeJSON(data datatypes.JSON, out interface{}) {
	if len(data) == 0 {
		return
	}
	_ = json.Unmarshal(data, out)
}
