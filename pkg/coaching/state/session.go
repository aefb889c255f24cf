package state

import (
	"identity-coach-be/internal/constant"
	"identity-coach-be/internal/entity"

	"github.com/google/uuid"
)

// AddAskedTopic records a topic once; re-adding is a no-op that reports false.
func AddAskedTopic(session *entity.CoachingSession, topic constant.Topic) bool {
	for _, t := range session.AskedTopics {
		if t == topic {
			return false
		}
	}
	session.AskedTopics = append(session.AskedTopics, topic)
	return true
}

// SkipCategory adds the category to the skipped set and drops it as focus.
func SkipCategory(session *entity.CoachingSession, category constant.Category) bool {
	if session.FocusCategory == category {
		session.FocusCategory = ""
	}
	for _, c := range session.SkippedCategories {
		if c == category {
			return false
		}
	}
	session.SkippedCategories = append(session.SkippedCategories, category)
	return true
}

func IsSkipped(session *entity.CoachingSession, category constant.Category) bool {
	for _, c := range session.SkippedCategories {
		if c == category {
			return true
		}
	}
	return false
}

// ClearIdentityRefs drops session pointers to a deleted identity.
func ClearIdentityRefs(session *entity.CoachingSession, id uuid.UUID) bool {
	cleared := false
	if session.CurrentIdentityId != nil && *session.CurrentIdentityId == id {
		session.CurrentIdentityId = nil
		cleared = true
	}
	if session.ProposedIdentityId != nil && *session.ProposedIdentityId == id {
		session.ProposedIdentityId = nil
		cleared = true
	}
	return cleared
}

// PointCurrent re-points the current identity reference; nil clears it.
func PointCurrent(session *entity.CoachingSession, identity *entity.Identity) {
	if identity == nil {
		session.CurrentIdentityId = nil
		return
	}
	id := identity.Id
	session.CurrentIdentityId = &id
}

func memoryNotes(session *entity.CoachingSession) map[string]interface{} {
	if session.Metadata == nil {
		session.Metadata = make(map[string]interface{})
	}
	notes, ok := session.Metadata[constant.MetadataMemoryNotes].(map[string]interface{})
	if !ok {
		notes = make(map[string]interface{})
		session.Metadata[constant.MetadataMemoryNotes] = notes
	}
	return notes
}

func SetMemoryNote(session *entity.CoachingSession, key, note string) {
	memoryNotes(session)[key] = note
}

func DeleteMemoryNote(session *entity.CoachingSession, key string) bool {
	notes := memoryNotes(session)
	if _, ok := notes[key]; !ok {
		return false
	}
	delete(notes, key)
	return true
}

func ClearMemoryNotes(session *entity.CoachingSession) int {
	notes := memoryNotes(session)
	n := len(notes)
	session.Metadata[constant.MetadataMemoryNotes] = make(map[string]interface{})
	return n
}
