package catalog

import (
	"fmt"
	"strings"

	"identity-coach-be/internal/constant"
	"identity-coach-be/internal/dto"
	"identity-coach-be/internal/entity"
	"identity-coach-be/pkg/coaching/state"

	"github.com/google/uuid"
)

type showSummariesParams struct {
	Records []string `json:"records" jsonschema:"Identity ids or labels to show" validate:"required,min=1,dive,required"`
	Text    string   `json:"text,omitempty" jsonschema:"Text shown above the summaries"`
}

type directiveTextParams struct {
	Text string `json:"text,omitempty" jsonschema:"Text shown with the choices"`
}

type offerPhaseParams struct {
	ToPhase string `json:"to_phase" jsonschema:"Phase offered to the user" validate:"required,phase"`
	Text    string `json:"text,omitempty" jsonschema:"Text shown with the choices"`
}

type confirmCombineParams struct {
	RecordA string `json:"record_a" jsonschema:"First identity id or label" validate:"required"`
	RecordB string `json:"record_b" jsonschema:"Second identity id or label" validate:"required"`
	Text    string `json:"text,omitempty" jsonschema:"Confirmation question"`
}

type confirmNestParams struct {
	Child  string `json:"child" jsonschema:"Identity id or label to nest" validate:"required"`
	Parent string `json:"parent" jsonschema:"Identity id or label to nest under" validate:"required"`
	Text   string `json:"text,omitempty" jsonschema:"Confirmation question"`
}

type confirmArchiveParams struct {
	Record string `json:"record" jsonschema:"Identity id or label" validate:"required"`
	Text   string `json:"text,omitempty" jsonschema:"Confirmation question"`
}

const (
	choiceConfirm  = "Yes"
	choiceDecline  = "Not now"
	choiceContinue = "Continue"
	choiceNotYet   = "Not yet"
)

func directiveActions() []Action {
	return []Action{
		Define(ActionShowRecordSummaries,
			"Show the user summaries of identities.",
			handleShowRecordSummaries,
			RunsBefore(destructive...),
		),
		Define(ActionOfferRecordChoices,
			"Let the user pick which pending identity to work on next.",
			handleOfferRecordChoices,
		),
		Define(ActionOfferCategories,
			"Let the user pick an identity category to focus on.",
			handleOfferCategories,
		),
		Define(ActionOfferPhaseTransition,
			"Ask the user whether to move on to another phase.",
			handleOfferPhaseTransition,
			enumProperty("to_phase", phaseEnum),
		),
		Define(ActionConfirmCombine,
			"Ask the user to confirm combining two identities.",
			handleConfirmCombine,
			RunsBefore(destructive...),
		),
		Define(ActionConfirmNest,
			"Ask the user to confirm nesting one identity under another.",
			handleConfirmNest,
			RunsBefore(destructive...),
		),
		Define(ActionConfirmArchive,
			"Ask the user to confirm archiving an identity.",
			handleConfirmArchive,
			RunsBefore(destructive...),
		),
	}
}

func newDirective(text string) *dto.Directive {
	return &dto.Directive{Id: uuid.New(), Text: strings.TrimSpace(text)}
}

func bind(action ActionID, params map[string]interface{}) dto.BoundCommand {
	return dto.BoundCommand{ActionId: string(action), Params: params}
}

func handleShowRecordSummaries(hc *HandlerContext, p *showSummariesParams) (*Outcome, error) {
	identities, err := hc.Identities()
	if err != nil {
		return nil, err
	}
	directive := newDirective(p.Text)
	seen := make(map[uuid.UUID]bool, len(p.Records))
	for _, ref := range p.Records {
		identity := ResolveIdentity(identities, ref)
		if identity == nil {
			hc.Logger.Warn("CATALOG", "Summary reference not found", map[string]interface{}{
				"user_id": hc.UserId.String(),
				"ref":     ref,
			})
			continue
		}
		if seen[identity.Id] {
			continue
		}
		seen[identity.Id] = true
		directive.Records = append(directive.Records, summarize(identity))
	}
	if len(directive.Records) == 0 {
		return &Outcome{Summary: "no identities to summarize"}, nil
	}
	return &Outcome{
		Summary:   fmt.Sprintf("showing %d identity summaries", len(directive.Records)),
		Directive: directive,
	}, nil
}

func handleOfferRecordChoices(hc *HandlerContext, p *directiveTextParams) (*Outcome, error) {
	identities, err := hc.Identities()
	if err != nil {
		return nil, err
	}
	pending := state.Pending(identities, hc.Session.Phase)
	if len(pending) == 0 {
		return &Outcome{Summary: fmt.Sprintf("no identity pending in %s", hc.Session.Phase)}, nil
	}

	directive := newDirective(p.Text)
	for _, identity := range pending {
		directive.Choices = append(directive.Choices, dto.DirectiveChoice{
			Label: identity.Label,
			Commands: []dto.BoundCommand{
				bind(ActionSetCurrentRecord, map[string]interface{}{"record": identity.Id.String()}),
			},
		})
		directive.Records = append(directive.Records, summarize(identity))
	}
	return &Outcome{
		Summary:   fmt.Sprintf("offered %d pending identities", len(pending)),
		Directive: directive,
	}, nil
}

func handleOfferCategories(hc *HandlerContext, p *directiveTextParams) (*Outcome, error) {
	directive := newDirective(p.Text)
	for _, category := range constant.Categories {
		if category == constant.CategoryGeneral || state.IsSkipped(hc.Session, category) {
			continue
		}
		directive.Choices = append(directive.Choices, dto.DirectiveChoice{
			Label: string(category),
			Commands: []dto.BoundCommand{
				bind(ActionSetFocusCategory, map[string]interface{}{"category": string(category)}),
			},
		})
	}
	if len(directive.Choices) == 0 {
		return &Outcome{Summary: "every category has been skipped"}, nil
	}
	return &Outcome{
		Summary:   fmt.Sprintf("offered %d categories", len(directive.Choices)),
		Directive: directive,
	}, nil
}

func handleOfferPhaseTransition(hc *HandlerContext, p *offerPhaseParams) (*Outcome, error) {
	directive := newDirective(p.Text)
	directive.Choices = []dto.DirectiveChoice{
		{
			Label: choiceContinue,
			Commands: []dto.BoundCommand{
				bind(ActionTransitionPhase, map[string]interface{}{"to_phase": p.ToPhase}),
			},
		},
		{Label: choiceNotYet},
	}
	return &Outcome{
		Summary:   fmt.Sprintf("offered transition %s -> %s", hc.Session.Phase, p.ToPhase),
		Directive: directive,
	}, nil
}

func handleConfirmCombine(hc *HandlerContext, p *confirmCombineParams) (*Outcome, error) {
	first, second, _, _, err := planCombine(hc, p.RecordA, p.RecordB)
	if err != nil {
		return nil, err
	}
	return confirmation(p.Text, []*entity.Identity{first, second},
		bind(ActionCombineRecords, map[string]interface{}{
			"record_a": first.Id.String(),
			"record_b": second.Id.String(),
		}),
		fmt.Sprintf("asked to combine %q and %q", first.Label, second.Label),
	), nil
}

func handleConfirmNest(hc *HandlerContext, p *confirmNestParams) (*Outcome, error) {
	child, parent, _, err := resolvePair(hc, p.Child, p.Parent)
	if err != nil {
		return nil, err
	}
	if child.Id == parent.Id {
		return nil, fmt.Errorf("%w: identity %q cannot be nested under itself", state.ErrPrecondition, child.Label)
	}
	return confirmation(p.Text, []*entity.Identity{child, parent},
		bind(ActionNestRecord, map[string]interface{}{
			"child":  child.Id.String(),
			"parent": parent.Id.String(),
		}),
		fmt.Sprintf("asked to nest %q under %q", child.Label, parent.Label),
	), nil
}

func handleConfirmArchive(hc *HandlerContext, p *confirmArchiveParams) (*Outcome, error) {
	identity, err := hc.Resolve(p.Record)
	if err != nil {
		return nil, err
	}
	return confirmation(p.Text, []*entity.Identity{identity},
		bind(ActionArchiveRecord, map[string]interface{}{"record": identity.Id.String()}),
		fmt.Sprintf("asked to archive %q", identity.Label),
	), nil
}

// confirmation builds a yes/no directive whose "yes" choice replays command.
func confirmation(text string, identities []*entity.Identity, command dto.BoundCommand, summary string) *Outcome {
	directive := newDirective(text)
	for _, identity := range identities {
		directive.Records = append(directive.Records, summarize(identity))
	}
	directive.Choices = []dto.DirectiveChoice{
		{Label: choiceConfirm, Commands: []dto.BoundCommand{command}},
		{Label: choiceDecline},
	}
	return &Outcome{Summary: summary, Directive: directive}
}
