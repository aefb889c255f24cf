package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"identity-coach-be/internal/constant"
	"identity-coach-be/internal/dto"
	"identity-coach-be/internal/entity"
	"identity-coach-be/internal/pkg/logger"
	"identity-coach-be/internal/repository/unitofwork"
	"identity-coach-be/pkg/coaching/state"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
)

var ErrRecordNotFound = errors.New("identity not found")

// Command is one decoded instruction ready for dispatch.
type Command struct {
	Action ActionID
	Params interface{}
	// Raw keeps the undecoded params for the audit trail.
	Raw map[string]interface{}
}

// Outcome is what a handler hands back to the engine. A nil Outcome is valid.
type Outcome struct {
	Summary   string
	Directive *dto.Directive
}

// HandlerContext is the explicit mutable context every handler works on. Handlers persist
// their own writes through UoW; the session pointer is shared across one dispatch call.
type HandlerContext struct {
	Ctx        context.Context
	UoW        unitofwork.UnitOfWork
	Session    *entity.CoachingSession
	UserId     uuid.UUID
	TriggerRef *uuid.UUID
	Logger     logger.ILogger
	State      *state.Manager
}

func (hc *HandlerContext) SaveSession() error {
	if err := hc.UoW.CoachingSessionRepository().Update(hc.Ctx, hc.Session); err != nil {
		return fmt.Errorf("save coaching session: %w", err)
	}
	return nil
}

func (hc *HandlerContext) SaveIdentity(identity *entity.Identity) error {
	if err := hc.UoW.IdentityRepository().Update(hc.Ctx, identity); err != nil {
		return fmt.Errorf("save identity %q: %w", identity.Label, err)
	}
	return nil
}

func (hc *HandlerContext) Identities() ([]*entity.Identity, error) {
	identities, err := hc.UoW.IdentityRepository().FindAllByUserId(hc.Ctx, hc.UserId)
	if err != nil {
		return nil, fmt.Errorf("load identities: %w", err)
	}
	return identities, nil
}

// Resolve finds the identity a model-supplied reference points at.
func (hc *HandlerContext) Resolve(ref string) (*entity.Identity, error) {
	identities, err := hc.Identities()
	if err != nil {
		return nil, err
	}
	identity := ResolveIdentity(identities, ref)
	if identity == nil {
		return nil, fmt.Errorf("%w: %q", ErrRecordNotFound, ref)
	}
	return identity, nil
}

// RepointCurrent re-reads identities and points the session at the next pending one.
func (hc *HandlerContext) RepointCurrent() (*entity.Identity, error) {
	identities, err := hc.Identities()
	if err != nil {
		return nil, err
	}
	return hc.State.RepointCurrent(hc.Session, identities), nil
}

// ResolveIdentity matches ref by id, then by case-insensitive label, then by a unique
// near-miss label (edit distance 1, labels of five runes or more).
func ResolveIdentity(identities []*entity.Identity, ref string) *entity.Identity {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}

	if id, err := uuid.Parse(ref); err == nil {
		for _, identity := range identities {
			if identity.Id == id {
				return identity
			}
		}
		return nil
	}

	// Prefer live identities when an archived one shares the label.
	var archivedMatch *entity.Identity
	for _, identity := range identities {
		if strings.EqualFold(identity.Label, ref) {
			if identity.State != constant.StateArchived {
				return identity
			}
			if archivedMatch == nil {
				archivedMatch = identity
			}
		}
	}
	if archivedMatch != nil {
		return archivedMatch
	}

	if utf8.RuneCountInString(ref) < 5 {
		return nil
	}
	var near *entity.Identity
	lowered := strings.ToLower(ref)
	for _, identity := range identities {
		if identity.State == constant.StateArchived {
			continue
		}
		if levenshtein.ComputeDistance(lowered, strings.ToLower(identity.Label)) <= 1 {
			if near != nil {
				return nil // ambiguous
			}
			near = identity
		}
	}
	return near
}

// FindByLabel returns the identity whose label equals label ignoring case.
func FindByLabel(identities []*entity.Identity, label string) *entity.Identity {
	label = strings.TrimSpace(label)
	for _, identity := range identities {
		if strings.EqualFold(strings.TrimSpace(identity.Label), label) {
			return identity
		}
	}
	return nil
}

// FindLiveByLabel is FindByLabel restricted to identities that are not archived. Labels are
// unique among live identities only, so an archived label can be used again.
func FindLiveByLabel(identities []*entity.Identity, label string) *entity.Identity {
	label = strings.TrimSpace(label)
	for _, identity := range identities {
		if identity.State == constant.StateArchived {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(identity.Label), label) {
			return identity
		}
	}
	return nil
}

func summarize(identity *entity.Identity) dto.RecordSummary {
	return dto.RecordSummary{
		Id:        identity.Id,
		Label:     identity.Label,
		Category:  string(identity.Category),
		State:     string(identity.State),
		Notes:     append([]string(nil), identity.Notes...),
		Statement: identity.Statement,
	}
}
