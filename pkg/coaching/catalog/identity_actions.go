package catalog

import (
	"fmt"
	"strings"

	"identity-coach-be/internal/constant"
	"identity-coach-be/internal/entity"
	"identity-coach-be/pkg/coaching/state"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
)

type recordDraft struct {
	Label    string `json:"label" jsonschema:"Short identity label, e.g. Explorer" validate:"required,notblank,max=120"`
	Category string `json:"category" jsonschema:"Identity category" validate:"required,category"`
	Note     string `json:"note,omitempty" jsonschema:"Optional first note about the identity"`
}

type createMultipleParams struct {
	Records []recordDraft `json:"records" jsonschema:"Identities to create" validate:"required,min=1,max=20,dive"`
}

type updateRecordParams struct {
	Record   string `json:"record" jsonschema:"Identity id or label" validate:"required"`
	Label    string `json:"label,omitempty" jsonschema:"New label" validate:"omitempty,max=120"`
	Category string `json:"category,omitempty" jsonschema:"New category" validate:"omitempty,category"`
}

type recordNoteParams struct {
	Record string `json:"record" jsonschema:"Identity id or label" validate:"required"`
	Note   string `json:"note" jsonschema:"Note to append" validate:"required"`
}

type acceptWithNoteParams struct {
	Record string `json:"record" jsonschema:"Identity id or label" validate:"required"`
	Note   string `json:"note,omitempty" jsonschema:"Optional note appended before accepting"`
}

type statementParams struct {
	Record    string `json:"record" jsonschema:"Identity id or label" validate:"required"`
	Statement string `json:"statement" jsonschema:"Identity statement in the user's words" validate:"required"`
}

type acceptStatementParams struct {
	Record    string `json:"record" jsonschema:"Identity id or label" validate:"required"`
	Statement string `json:"statement,omitempty" jsonschema:"Final statement; keeps the saved one when empty"`
}

type visualizationParams struct {
	Record string `json:"record" jsonschema:"Identity id or label" validate:"required"`
	Text   string `json:"text" jsonschema:"Visualization description" validate:"required"`
}

type acceptVisualizationParams struct {
	Record string `json:"record" jsonschema:"Identity id or label" validate:"required"`
	Text   string `json:"text,omitempty" jsonschema:"Final visualization; keeps the saved one when empty"`
}

func identityActions() []Action {
	return []Action{
		Define(ActionCreateRecord,
			"Create a proposed identity. An identity with the same label is reused.",
			handleCreateRecord,
			enumProperty("category", categoryEnum),
		),
		Define(ActionCreateMultipleRecords,
			"Create several proposed identities at once.",
			handleCreateMultipleRecords,
			WithSchema(func(s *jsonschema.Schema) {
				if records, ok := s.Properties["records"]; ok && records.Items != nil {
					if category, ok := records.Items.Properties["category"]; ok {
						category.Enum = categoryEnum
					}
				}
			}),
		),
		Define(ActionUpdateRecord,
			"Rename or recategorise an identity.",
			handleUpdateRecord,
			enumProperty("category", categoryEnum),
		),
		Define(ActionAddRecordNote,
			"Append a note to an identity.",
			func(hc *HandlerContext, p *recordNoteParams) (*Outcome, error) {
				identity, err := hc.Resolve(p.Record)
				if err != nil {
					return nil, err
				}
				identity.Notes = append(identity.Notes, strings.TrimSpace(p.Note))
				if err := hc.SaveIdentity(identity); err != nil {
					return nil, err
				}
				return &Outcome{Summary: "note added to " + identity.Label}, nil
			},
		),
		Define(ActionAcceptRecord,
			"Accept a proposed identity.",
			func(hc *HandlerContext, p *recordRefParams) (*Outcome, error) {
				return advanceIdentity(hc, p.Record, constant.StateAccepted, nil)
			},
		),
		Define(ActionAcceptRefinement,
			"Mark an identity as refined.",
			func(hc *HandlerContext, p *acceptWithNoteParams) (*Outcome, error) {
				return advanceIdentity(hc, p.Record, constant.StateRefinementComplete, appendNote(p.Note))
			},
		),
		Define(ActionAcceptCommitment,
			"Mark the user's commitment to an identity as complete.",
			func(hc *HandlerContext, p *acceptWithNoteParams) (*Outcome, error) {
				return advanceIdentity(hc, p.Record, constant.StateCommitmentComplete, appendNote(p.Note))
			},
		),
		Define(ActionSetStatement,
			"Save a draft identity statement.",
			func(hc *HandlerContext, p *statementParams) (*Outcome, error) {
				identity, err := hc.Resolve(p.Record)
				if err != nil {
					return nil, err
				}
				identity.Statement = strings.TrimSpace(p.Statement)
				if err := hc.SaveIdentity(identity); err != nil {
					return nil, err
				}
				return &Outcome{Summary: "statement drafted for " + identity.Label}, nil
			},
		),
		Define(ActionAcceptStatement,
			"Accept an identity statement.",
			func(hc *HandlerContext, p *acceptStatementParams) (*Outcome, error) {
				return advanceIdentity(hc, p.Record, constant.StateStatementComplete, func(identity *entity.Identity) {
					if s := strings.TrimSpace(p.Statement); s != "" {
						identity.Statement = s
					}
				})
			},
		),
		Define(ActionSetVisualization,
			"Save a draft visualization for an identity.",
			func(hc *HandlerContext, p *visualizationParams) (*Outcome, error) {
				identity, err := hc.Resolve(p.Record)
				if err != nil {
					return nil, err
				}
				identity.VisualizationText = strings.TrimSpace(p.Text)
				if err := hc.SaveIdentity(identity); err != nil {
					return nil, err
				}
				return &Outcome{Summary: "visualization drafted for " + identity.Label}, nil
			},
		),
		Define(ActionAcceptVisualization,
			"Accept an identity visualization.",
			func(hc *HandlerContext, p *acceptVisualizationParams) (*Outcome, error) {
				return advanceIdentity(hc, p.Record, constant.StateVisualizationComplete, func(identity *entity.Identity) {
					if t := strings.TrimSpace(p.Text); t != "" {
						identity.VisualizationText = t
					}
				})
			},
		),
		Define(ActionArchiveRecord,
			"Archive an identity. Archived identities are never pending again.",
			handleArchiveRecord,
		),
	}
}

func handleCreateRecord(hc *HandlerContext, p *recordDraft) (*Outcome, error) {
	identities, err := hc.Identities()
	if err != nil {
		return nil, err
	}
	identity, created, err := createIdentity(hc, identities, *p)
	if err != nil {
		return nil, err
	}
	if !created {
		return &Outcome{Summary: fmt.Sprintf("identity %q already exists", identity.Label)}, nil
	}

	id := identity.Id
	hc.Session.ProposedIdentityId = &id
	if err := hc.SaveSession(); err != nil {
		return nil, err
	}
	return &Outcome{Summary: fmt.Sprintf("created identity %q (%s)", identity.Label, identity.Category)}, nil
}

func handleCreateMultipleRecords(hc *HandlerContext, p *createMultipleParams) (*Outcome, error) {
	identities, err := hc.Identities()
	if err != nil {
		return nil, err
	}
	created := make([]string, 0, len(p.Records))
	for _, draft := range p.Records {
		identity, isNew, err := createIdentity(hc, identities, draft)
		if err != nil {
			return nil, err
		}
		if isNew {
			identities = append(identities, identity)
			created = append(created, identity.Label)
		}
	}
	return &Outcome{Summary: fmt.Sprintf("created %d of %d identities: %s", len(created), len(p.Records), strings.Join(created, ", "))}, nil
}

// createIdentity creates a proposed identity unless one with the same label exists.
func createIdentity(hc *HandlerContext, existing []*entity.Identity, draft recordDraft) (*entity.Identity, bool, error) {
	label := strings.TrimSpace(draft.Label)
	if label == "" {
		return nil, false, fmt.Errorf("%w: identity label is blank", ErrInvalidParams)
	}
	if found := FindLiveByLabel(existing, label); found != nil {
		return found, false, nil
	}

	identity := &entity.Identity{
		Id:       uuid.New(),
		UserId:   hc.UserId,
		Label:    label,
		Category: constant.Category(draft.Category),
		State:    constant.StateProposed,
	}
	if note := strings.TrimSpace(draft.Note); note != "" {
		identity.Notes = []string{note}
	}
	if err := hc.UoW.IdentityRepository().Create(hc.Ctx, identity); err != nil {
		return nil, false, fmt.Errorf("create identity %q: %w", label, err)
	}
	return identity, true, nil
}

func handleUpdateRecord(hc *HandlerContext, p *updateRecordParams) (*Outcome, error) {
	identities, err := hc.Identities()
	if err != nil {
		return nil, err
	}
	identity := ResolveIdentity(identities, p.Record)
	if identity == nil {
		return nil, fmt.Errorf("%w: %q", ErrRecordNotFound, p.Record)
	}

	changes := make([]string, 0, 2)
	if label := strings.TrimSpace(p.Label); label != "" && label != identity.Label {
		if other := FindLiveByLabel(identities, label); other != nil && other.Id != identity.Id {
			return nil, fmt.Errorf("%w: label %q is already used", state.ErrPrecondition, label)
		}
		changes = append(changes, fmt.Sprintf("label %q -> %q", identity.Label, label))
		identity.Label = label
	}
	if p.Category != "" && constant.Category(p.Category) != identity.Category {
		changes = append(changes, fmt.Sprintf("category %s -> %s", identity.Category, p.Category))
		identity.Category = constant.Category(p.Category)
	}
	if len(changes) == 0 {
		return &Outcome{Summary: "identity " + identity.Label + " unchanged"}, nil
	}
	if err := hc.SaveIdentity(identity); err != nil {
		return nil, err
	}
	return &Outcome{Summary: strings.Join(changes, "; ")}, nil
}

func handleArchiveRecord(hc *HandlerContext, p *recordRefParams) (*Outcome, error) {
	identity, err := hc.Resolve(p.Record)
	if err != nil {
		return nil, err
	}
	if hc.State.ArchiveIdentity(identity) {
		if err := hc.SaveIdentity(identity); err != nil {
			return nil, err
		}
	}
	next, err := hc.RepointCurrent()
	if err != nil {
		return nil, err
	}
	if err := hc.SaveSession(); err != nil {
		return nil, err
	}
	return &Outcome{Summary: "archived " + identity.Label + nextSuffix(next)}, nil
}

// advanceIdentity resolves ref, applies mutate, moves the identity forward to target and
// re-points the session's current identity at the next pending one.
func advanceIdentity(hc *HandlerContext, ref string, target constant.LifecycleState, mutate func(*entity.Identity)) (*Outcome, error) {
	identity, err := hc.Resolve(ref)
	if err != nil {
		return nil, err
	}
	if identity.State == constant.StateArchived {
		return nil, fmt.Errorf("%w: identity %q is archived", state.ErrInvalidTransition, identity.Label)
	}
	if mutate != nil {
		mutate(identity)
	}
	changed, err := hc.State.AdvanceIdentity(identity, target)
	if err != nil {
		return nil, err
	}
	if err := hc.SaveIdentity(identity); err != nil {
		return nil, err
	}

	next, err := hc.RepointCurrent()
	if err != nil {
		return nil, err
	}
	if err := hc.SaveSession(); err != nil {
		return nil, err
	}

	if !changed {
		return &Outcome{Summary: fmt.Sprintf("%s already %s", identity.Label, identity.State) + nextSuffix(next)}, nil
	}
	return &Outcome{Summary: fmt.Sprintf("%s -> %s", identity.Label, target) + nextSuffix(next)}, nil
}

func appendNote(note string) func(*entity.Identity) {
	return func(identity *entity.Identity) {
		if note = strings.TrimSpace(note); note != "" {
			identity.Notes = append(identity.Notes, note)
		}
	}
}

func nextSuffix(next *entity.Identity) string {
	if next == nil {
		return "; nothing pending"
	}
	return "; next " + next.Label
}
