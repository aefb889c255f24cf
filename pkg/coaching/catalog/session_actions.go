package catalog

import (
	"fmt"
	"strings"

	"identity-coach-be/internal/constant"
	"identity-coach-be/pkg/coaching/state"
)

type transitionPhaseParams struct {
	ToPhase string `json:"to_phase" jsonschema:"Phase to move the session to" validate:"required,phase"`
}

type categoryParams struct {
	Category string `json:"category" jsonschema:"Identity category" validate:"required,category"`
}

type labelsParams struct {
	Labels []string `json:"labels" jsonschema:"Complete replacement list of labels" validate:"dive,required"`
}

type topicParams struct {
	Topic string `json:"topic" jsonschema:"Warm-up topic that has been asked about" validate:"required,topic"`
}

type recordRefParams struct {
	Record string `json:"record" jsonschema:"Identity id or label" validate:"required"`
}

type focusNextPendingParams struct {
	Phase string `json:"phase,omitempty" jsonschema:"Phase to look for pending identities in; defaults to the current phase" validate:"omitempty,phase"`
}

func sessionActions() []Action {
	return []Action{
		Define(ActionTransitionPhase,
			"Move the coaching session to another phase.",
			handleTransitionPhase,
			enumProperty("to_phase", phaseEnum),
		),
		Define(ActionSetFocusCategory,
			"Set the identity category the conversation focuses on.",
			handleSetFocusCategory,
			enumProperty("category", categoryEnum),
		),
		Define(ActionSkipCategory,
			"Mark a category as skipped by the user.",
			handleSkipCategory,
			enumProperty("category", categoryEnum),
		),
		Define(ActionUpdateWhoIAm,
			"Replace the list of labels describing who the user is today.",
			func(hc *HandlerContext, p *labelsParams) (*Outcome, error) {
				hc.Session.WhoIAm = cleanLabels(p.Labels)
				if err := hc.SaveSession(); err != nil {
					return nil, err
				}
				return &Outcome{Summary: fmt.Sprintf("who_i_am set to %d labels", len(hc.Session.WhoIAm))}, nil
			},
		),
		Define(ActionUpdateWhoIWantToBe,
			"Replace the list of labels describing who the user wants to be.",
			func(hc *HandlerContext, p *labelsParams) (*Outcome, error) {
				hc.Session.WhoIWantToBe = cleanLabels(p.Labels)
				if err := hc.SaveSession(); err != nil {
					return nil, err
				}
				return &Outcome{Summary: fmt.Sprintf("who_i_want_to_be set to %d labels", len(hc.Session.WhoIWantToBe))}, nil
			},
		),
		Define(ActionRecordAskedTopic,
			"Remember that a warm-up topic has been asked about.",
			handleRecordAskedTopic,
			enumProperty("topic", topicEnum),
		),
		Define(ActionSetCurrentRecord,
			"Point the session at the identity being worked on.",
			handleSetCurrentRecord,
		),
		Define(ActionFocusNextPending,
			"Point the session at the oldest identity still pending in a phase.",
			handleFocusNextPending,
			enumProperty("phase", phaseEnum),
		),
	}
}

func handleTransitionPhase(hc *HandlerContext, p *transitionPhaseParams) (*Outcome, error) {
	from := hc.Session.Phase
	if err := hc.State.TransitionPhase(hc.Session, constant.Phase(p.ToPhase)); err != nil {
		return nil, err
	}
	if _, ok := state.CompletionState(hc.Session.Phase); ok {
		if _, err := hc.RepointCurrent(); err != nil {
			return nil, err
		}
	}
	if err := hc.SaveSession(); err != nil {
		return nil, err
	}
	return &Outcome{Summary: fmt.Sprintf("phase %s -> %s", from, hc.Session.Phase)}, nil
}

func handleSetFocusCategory(hc *HandlerContext, p *categoryParams) (*Outcome, error) {
	hc.Session.FocusCategory = constant.Category(p.Category)
	if err := hc.SaveSession(); err != nil {
		return nil, err
	}
	return &Outcome{Summary: "focus category " + p.Category}, nil
}

func handleSkipCategory(hc *HandlerContext, p *categoryParams) (*Outcome, error) {
	added := state.SkipCategory(hc.Session, constant.Category(p.Category))
	if err := hc.SaveSession(); err != nil {
		return nil, err
	}
	if !added {
		return &Outcome{Summary: "category " + p.Category + " already skipped"}, nil
	}
	return &Outcome{Summary: "skipped category " + p.Category}, nil
}

func handleRecordAskedTopic(hc *HandlerContext, p *topicParams) (*Outcome, error) {
	if !state.AddAskedTopic(hc.Session, constant.Topic(p.Topic)) {
		return &Outcome{Summary: "topic " + p.Topic + " already asked"}, nil
	}
	if err := hc.SaveSession(); err != nil {
		return nil, err
	}
	return &Outcome{Summary: "asked topic " + p.Topic}, nil
}

func handleSetCurrentRecord(hc *HandlerContext, p *recordRefParams) (*Outcome, error) {
	identity, err := hc.Resolve(p.Record)
	if err != nil {
		return nil, err
	}
	state.PointCurrent(hc.Session, identity)
	if err := hc.SaveSession(); err != nil {
		return nil, err
	}
	return &Outcome{Summary: "current identity " + identity.Label}, nil
}

func handleFocusNextPending(hc *HandlerContext, p *focusNextPendingParams) (*Outcome, error) {
	phase := hc.Session.Phase
	if p.Phase != "" {
		phase = constant.Phase(p.Phase)
	}
	identities, err := hc.Identities()
	if err != nil {
		return nil, err
	}
	next := state.NextPending(identities, phase)
	state.PointCurrent(hc.Session, next)
	if err := hc.SaveSession(); err != nil {
		return nil, err
	}
	if next == nil {
		return &Outcome{Summary: fmt.Sprintf("no identity pending in %s", phase)}, nil
	}
	return &Outcome{Summary: fmt.Sprintf("next pending in %s is %s", phase, next.Label)}, nil
}

func cleanLabels(labels []string) []string {
	cleaned := make([]string, 0, len(labels))
	for _, label := range labels {
		if label = strings.TrimSpace(label); label != "" {
			cleaned = append(cleaned, label)
		}
	}
	return cleaned
}
