package prompt

import (
	"context"
	"fmt"

	"identity-coach-be/internal/constant"
	"identity-coach-be/internal/entity"
	"identity-coach-be/internal/repository/unitofwork"
	"identity-coach-be/pkg/coaching/catalog"
)

// PhaseContext is everything the contract builder and the AI collaborator need for one turn.
type PhaseContext struct {
	Phase   constant.Phase
	Allowed []catalog.ActionID
	Prompt  string
}

type Provider interface {
	ForPhase(ctx context.Context, session *entity.CoachingSession) (*PhaseContext, error)
}

type phaseConfig struct {
	prompt  string
	allowed []catalog.ActionID
}

// alwaysAllowed is appended to every phase's list.
var alwaysAllowed = []catalog.ActionID{
	catalog.ActionTransitionPhase,
	catalog.ActionOfferPhaseTransition,
	catalog.ActionSaveMemoryNote,
	catalog.ActionDeleteMemoryNote,
	catalog.ActionClearMemoryNotes,
}

var phaseTable = map[constant.Phase]phaseConfig{
	constant.PhaseIntroduction: {
		prompt: constant.PhasePromptIntroduction,
		allowed: []catalog.ActionID{
			catalog.ActionUpdateWhoIAm,
			catalog.ActionUpdateWhoIWantToBe,
		},
	},
	constant.PhaseWarmUp: {
		prompt: constant.PhasePromptWarmUp,
		allowed: []catalog.ActionID{
			catalog.ActionRecordAskedTopic,
			catalog.ActionUpdateWhoIAm,
			catalog.ActionUpdateWhoIWantToBe,
			catalog.ActionSetFocusCategory,
			catalog.ActionSkipCategory,
			catalog.ActionOfferCategories,
		},
	},
	constant.PhaseBrainstorming: {
		prompt: constant.PhasePromptBrainstorming,
		allowed: []catalog.ActionID{
			catalog.ActionCreateRecord,
			catalog.ActionCreateMultipleRecords,
			catalog.ActionUpdateRecord,
			catalog.ActionAddRecordNote,
			catalog.ActionAcceptRecord,
			catalog.ActionArchiveRecord,
			catalog.ActionCombineRecords,
			catalog.ActionNestRecord,
			catalog.ActionSetFocusCategory,
			catalog.ActionSkipCategory,
			catalog.ActionOfferCategories,
			catalog.ActionShowRecordSummaries,
			catalog.ActionConfirmCombine,
			catalog.ActionConfirmNest,
			catalog.ActionConfirmArchive,
		},
	},
	constant.PhaseRefinement: {
		prompt: constant.PhasePromptRefinement,
		allowed: []catalog.ActionID{
			catalog.ActionSetCurrentRecord,
			catalog.ActionFocusNextPending,
			catalog.ActionAddRecordNote,
			catalog.ActionUpdateRecord,
			catalog.ActionAcceptRefinement,
			catalog.ActionArchiveRecord,
			catalog.ActionCombineRecords,
			catalog.ActionNestRecord,
			catalog.ActionOfferRecordChoices,
			catalog.ActionShowRecordSummaries,
			catalog.ActionConfirmCombine,
			catalog.ActionConfirmNest,
			catalog.ActionConfirmArchive,
		},
	},
	constant.PhaseCommitment: {
		prompt: constant.PhasePromptCommitment,
		allowed: []catalog.ActionID{
			catalog.ActionSetCurrentRecord,
			catalog.ActionFocusNextPending,
			catalog.ActionAddRecordNote,
			catalog.ActionAcceptCommitment,
			catalog.ActionArchiveRecord,
			catalog.ActionOfferRecordChoices,
			catalog.ActionShowRecordSummaries,
			catalog.ActionConfirmArchive,
		},
	},
	constant.PhaseStatement: {
		prompt: constant.PhasePromptStatement,
		allowed: []catalog.ActionID{
			catalog.ActionSetCurrentRecord,
			catalog.ActionFocusNextPending,
			catalog.ActionSetStatement,
			catalog.ActionAcceptStatement,
			catalog.ActionOfferRecordChoices,
			catalog.ActionShowRecordSummaries,
		},
	},
	constant.PhaseVisualization: {
		prompt: constant.PhasePromptVisualization,
		allowed: []catalog.ActionID{
			catalog.ActionSetCurrentRecord,
			catalog.ActionFocusNextPending,
			catalog.ActionSetVisualization,
			catalog.ActionAcceptVisualization,
			catalog.ActionOfferRecordChoices,
			catalog.ActionShowRecordSummaries,
		},
	},
}

// AllowedFor returns the ordered allowed list of a conversational phase.
func AllowedFor(phase constant.Phase) ([]catalog.ActionID, bool) {
	cfg, ok := phaseTable[phase]
	if !ok {
		return nil, false
	}
	allowed := make([]catalog.ActionID, 0, len(cfg.allowed)+len(alwaysAllowed))
	allowed = append(allowed, cfg.allowed...)
	allowed = append(allowed, alwaysAllowed...)
	return allowed, true
}

// TableProvider serves allowed lists and prompt text from a static per-phase table.
type TableProvider struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewTableProvider(uowFactory unitofwork.RepositoryFactory) *TableProvider {
	return &TableProvider{uowFactory: uowFactory}
}

func (p *TableProvider) ForPhase(ctx context.Context, session *entity.CoachingSession) (*PhaseContext, error) {
	allowed, ok := AllowedFor(session.Phase)
	if !ok {
		return nil, fmt.Errorf("no prompt configured for phase %q", session.Phase)
	}

	uow := p.uowFactory.NewUnitOfWork(ctx)
	identities, err := uow.IdentityRepository().FindAllByUserId(ctx, session.UserId)
	if err != nil {
		return nil, fmt.Errorf("load identities for prompt: %w", err)
	}

	text := NewSessionBuilder(session, identities, phaseTable[session.Phase].prompt).Build()
	return &PhaseContext{
		Phase:   session.Phase,
		Allowed: allowed,
		Prompt:  text,
	}, nil
}
