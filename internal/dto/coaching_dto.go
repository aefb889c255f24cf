package dto

import (
	"time"

	"github.com/google/uuid"
)

// BoundCommand is a follow-up command attached to a directive choice. Bindings are built
// server side, so params are trusted but loosely typed.
type BoundCommand struct {
	ActionId string                 `json:"action_id"`
	Params   map[string]interface{} `json:"params,omitempty"`
}

type DirectiveChoice struct {
	Label    string         `json:"label"`
	Commands []BoundCommand `json:"commands"`
}

type RecordSummary struct {
	Id        uuid.UUID `json:"id"`
	Label     string    `json:"label"`
	Category  string    `json:"category"`
	State     string    `json:"state"`
	Notes     []string  `json:"notes,omitempty"`
	Statement string    `json:"statement,omitempty"`
}

// Directive is an optional UI suggestion produced by a command.
type Directive struct {
	Id      uuid.UUID         `json:"id"`
	Text    string            `json:"text,omitempty"`
	Choices []DirectiveChoice `json:"choices,omitempty"`
	Records []RecordSummary   `json:"records,omitempty"`
}

type HistoryMessageDTO struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system model"`
	Content string `json:"content" validate:"required"`
}

type SendTurnRequest struct {
	MessageId uuid.UUID           `json:"message_id" validate:"required"`
	Chat      string              `json:"chat" validate:"required"`
	History   []HistoryMessageDTO `json:"history,omitempty" validate:"max=50,dive"`
}

type SendTurnResponse struct {
	Message   string                 `json:"message"`
	State     *CoachingStateResponse `json:"state"`
	Directive *Directive             `json:"directive,omitempty"`
}

type InteractionRequest struct {
	MessageId   uuid.UUID `json:"message_id" validate:"required"`
	DirectiveId uuid.UUID `json:"directive_id" validate:"required"`
	ChoiceIndex int       `json:"choice_index" validate:"min=0"`
}

type InteractionResponse struct {
	State *CoachingStateResponse `json:"state"`
}

type IdentityResponse struct {
	Id                uuid.UUID `json:"id"`
	Label             string    `json:"label"`
	Category          string    `json:"category"`
	State             string    `json:"state"`
	Notes             []string  `json:"notes"`
	Statement         string    `json:"statement,omitempty"`
	VisualizationText string    `json:"visualization_text,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

type CoachingStateResponse struct {
	Phase              string                 `json:"phase"`
	FocusCategory      string                 `json:"focus_category,omitempty"`
	CurrentIdentityId  *uuid.UUID             `json:"current_identity_id,omitempty"`
	ProposedIdentityId *uuid.UUID             `json:"proposed_identity_id,omitempty"`
	SkippedCategories  []string               `json:"skipped_categories"`
	WhoIAm             []string               `json:"who_i_am"`
	WhoIWantToBe       []string               `json:"who_i_want_to_be"`
	AskedTopics        []string               `json:"asked_topics"`
	Metadata           map[string]interface{} `json:"metadata,omitempty"`
	Identities         []*IdentityResponse    `json:"identities"`
}
