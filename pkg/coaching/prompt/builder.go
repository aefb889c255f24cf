package prompt

import (
	"fmt"
	"sort"
	"strings"

	"identity-coach-be/internal/constant"
	"identity-coach-be/internal/entity"
	"identity-coach-be/pkg/coaching/state"

	"github.com/google/uuid"
)

// SessionBuilder renders the system prompt for one coaching turn.
type SessionBuilder struct {
	session     *entity.CoachingSession
	identities  []*entity.Identity
	phasePrompt string
}

func NewSessionBuilder(session *entity.CoachingSession, identities []*entity.Identity, phasePrompt string) *SessionBuilder {
	return &SessionBuilder{
		session:     session,
		identities:  identities,
		phasePrompt: phasePrompt,
	}
}

func (b *SessionBuilder) Build() string {
	var prompt strings.Builder

	b.writeSystemContext(&prompt)
	b.writePhase(&prompt)
	b.writeSessionState(&prompt)
	b.writeIdentities(&prompt)
	b.writeMemoryNotes(&prompt)

	return prompt.String()
}

func (b *SessionBuilder) writeSystemContext(prompt *strings.Builder) {
	prompt.WriteString("<system_context>\n")
	prompt.WriteString(constant.CoachingSystemContextPrompt)
	prompt.WriteString("\n</system_context>\n\n")
}

func (b *SessionBuilder) writePhase(prompt *strings.Builder) {
	prompt.WriteString("<phase>\n")
	prompt.WriteString(b.phasePrompt)
	prompt.WriteString("\n</phase>\n\n")
}

func (b *SessionBuilder) writeSessionState(prompt *strings.Builder) {
	s := b.session
	prompt.WriteString("<session_state>\n")
	if s.FocusCategory != "" {
		fmt.Fprintf(prompt, "Focus category: %s\n", s.FocusCategory)
	}
	if len(s.SkippedCategories) > 0 {
		fmt.Fprintf(prompt, "Skipped categories: %s\n", joinCategories(s.SkippedCategories))
	}
	if len(s.WhoIAm) > 0 {
		fmt.Fprintf(prompt, "Who I am: %s\n", strings.Join(s.WhoIAm, ", "))
	}
	if len(s.WhoIWantToBe) > 0 {
		fmt.Fprintf(prompt, "Who I want to be: %s\n", strings.Join(s.WhoIWantToBe, ", "))
	}
	if len(s.AskedTopics) > 0 {
		topics := make([]string, len(s.AskedTopics))
		for i, t := range s.AskedTopics {
			topics[i] = string(t)
		}
		fmt.Fprintf(prompt, "Topics already asked: %s\n", strings.Join(topics, ", "))
	}
	if current := b.find(s.CurrentIdentityId); current != nil {
		fmt.Fprintf(prompt, "Current identity: %s (%s)\n", current.Label, current.Id)
	}
	if proposed := b.find(s.ProposedIdentityId); proposed != nil {
		fmt.Fprintf(prompt, "Last proposed identity: %s (%s)\n", proposed.Label, proposed.Id)
	}
	prompt.WriteString("</session_state>\n\n")
}

func (b *SessionBuilder) writeIdentities(prompt *strings.Builder) {
	live := make([]*entity.Identity, 0, len(b.identities))
	for _, identity := range b.identities {
		if identity.State != constant.StateArchived {
			live = append(live, identity)
		}
	}
	if len(live) == 0 {
		return
	}

	pending := make(map[uuid.UUID]bool)
	for _, identity := range state.Pending(b.identities, b.session.Phase) {
		pending[identity.Id] = true
	}

	prompt.WriteString("<identities>\n")
	for _, identity := range live {
		fmt.Fprintf(prompt, "- %s | %s | %s | %s", identity.Id, identity.Label, identity.Category, identity.State)
		if pending[identity.Id] {
			prompt.WriteString(" | pending")
		}
		prompt.WriteString("\n")
		for _, note := range identity.Notes {
			fmt.Fprintf(prompt, "    note: %s\n", note)
		}
		if identity.Statement != "" {
			fmt.Fprintf(prompt, "    statement: %s\n", identity.Statement)
		}
	}
	prompt.WriteString("</identities>\n\n")
}

func (b *SessionBuilder) writeMemoryNotes(prompt *strings.Builder) {
	notes, _ := b.session.Metadata[constant.MetadataMemoryNotes].(map[string]interface{})
	if len(notes) == 0 {
		return
	}
	keys := make([]string, 0, len(notes))
	for key := range notes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	prompt.WriteString("<memory_notes>\n")
	for _, key := range keys {
		fmt.Fprintf(prompt, "- %s: %v\n", key, notes[key])
	}
	prompt.WriteString("</memory_notes>\n\n")
}

func (b *SessionBuilder) find(id *uuid.UUID) *entity.Identity {
	if id == nil {
		return nil
	}
	for _, identity := range b.identities {
		if identity.Id == *id {
			return identity
		}
	}
	return nil
}

func joinCategories(categories []constant.Category) string {
	parts := make([]string, len(categories))
	for i, c := range categories {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}
