package catalog

import (
	"fmt"

	"identity-coach-be/internal/entity"
	"identity-coach-be/pkg/coaching/state"
)

type combineParams struct {
	RecordA string `json:"record_a" jsonschema:"First identity id or label; survives unless it is general" validate:"required"`
	RecordB string `json:"record_b" jsonschema:"Second identity id or label" validate:"required"`
}

type nestParams struct {
	Child  string `json:"child" jsonschema:"Identity id or label to nest and archive" validate:"required"`
	Parent string `json:"parent" jsonschema:"Identity id or label that receives the child's notes" validate:"required"`
}

func compoundActions() []Action {
	return []Action{
		Define(ActionCombineRecords,
			"Merge two identities into one. The absorbed identity is deleted.",
			handleCombineRecords,
		),
		Define(ActionNestRecord,
			"Nest one identity under another. The child is archived.",
			handleNestRecord,
		),
	}
}

// resolvePair resolves both references up front so nothing is mutated when either is missing.
func resolvePair(hc *HandlerContext, refA, refB string) (*entity.Identity, *entity.Identity, []*entity.Identity, error) {
	identities, err := hc.Identities()
	if err != nil {
		return nil, nil, nil, err
	}
	a := ResolveIdentity(identities, refA)
	if a == nil {
		return nil, nil, nil, fmt.Errorf("%w: %q not found", state.ErrPrecondition, refA)
	}
	b := ResolveIdentity(identities, refB)
	if b == nil {
		return nil, nil, nil, fmt.Errorf("%w: %q not found", state.ErrPrecondition, refB)
	}
	return a, b, identities, nil
}

// planCombine resolves and plans a combine, refusing one whose merged label is already taken.
func planCombine(hc *HandlerContext, refA, refB string) (first, second, survivor, absorbed *entity.Identity, err error) {
	first, second, identities, err := resolvePair(hc, refA, refB)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	survivor, absorbed, err = state.PlanCombine(first, second)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	label := state.CombinedLabel(survivor, absorbed)
	if other := FindLiveByLabel(identities, label); other != nil && other.Id != survivor.Id && other.Id != absorbed.Id {
		return nil, nil, nil, nil, fmt.Errorf("%w: label %q is already used", state.ErrPrecondition, label)
	}
	return first, second, survivor, absorbed, nil
}

func handleCombineRecords(hc *HandlerContext, p *combineParams) (*Outcome, error) {
	_, _, survivor, absorbed, err := planCombine(hc, p.RecordA, p.RecordB)
	if err != nil {
		return nil, err
	}
	absorbedLabel := absorbed.Label
	survivorLabel := survivor.Label

	state.ApplyCombine(survivor, absorbed)
	if err := hc.SaveIdentity(survivor); err != nil {
		return nil, err
	}
	if err := hc.UoW.IdentityRepository().Delete(hc.Ctx, hc.UserId, absorbed.Id); err != nil {
		return nil, fmt.Errorf("delete absorbed identity %q: %w", absorbedLabel, err)
	}

	state.ClearIdentityRefs(hc.Session, absorbed.Id)
	if hc.Session.CurrentIdentityId == nil {
		state.PointCurrent(hc.Session, survivor)
	}
	if err := hc.SaveSession(); err != nil {
		return nil, err
	}

	hc.Logger.Info("CATALOG", "Identities combined", map[string]interface{}{
		"user_id":     hc.UserId.String(),
		"survivor_id": survivor.Id.String(),
		"absorbed_id": absorbed.Id.String(),
	})
	return &Outcome{Summary: fmt.Sprintf("combined %q into %q as %q", absorbedLabel, survivorLabel, survivor.Label)}, nil
}

func handleNestRecord(hc *HandlerContext, p *nestParams) (*Outcome, error) {
	child, parent, _, err := resolvePair(hc, p.Child, p.Parent)
	if err != nil {
		return nil, err
	}
	if err := state.ApplyNest(child, parent); err != nil {
		return nil, err
	}
	if err := hc.SaveIdentity(parent); err != nil {
		return nil, err
	}
	if err := hc.SaveIdentity(child); err != nil {
		return nil, err
	}

	if hc.Session.CurrentIdentityId != nil && *hc.Session.CurrentIdentityId == child.Id {
		if _, err := hc.RepointCurrent(); err != nil {
			return nil, err
		}
		if err := hc.SaveSession(); err != nil {
			return nil, err
		}
	}
	return &Outcome{Summary: fmt.Sprintf("nested %q under %q", child.Label, parent.Label)}, nil
}
