package prompt

import (
	"context"
	"testing"

	"identity-coach-be/internal/constant"
	"identity-coach-be/internal/entity"
	"identity-coach-be/internal/pkg/logger"
	"identity-coach-be/internal/repository/memory"
	"identity-coach-be/pkg/coaching/catalog"
	"identity-coach-be/pkg/coaching/contract"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryPhaseBuildsAContract(t *testing.T) {
	builder := contract.NewBuilder(catalog.Default(), logger.NewNopLogger())

	for _, phase := range constant.Phases {
		t.Run(string(phase), func(t *testing.T) {
			allowed, ok := AllowedFor(phase)
			require.True(t, ok)
			assert.Contains(t, allowed, catalog.ActionTransitionPhase)

			c, err := builder.Build(allowed)
			require.NoError(t, err)
			assert.Len(t, c.Order, len(allowed))
		})
	}

	_, ok := AllowedFor(constant.PhaseSystemContext)
	assert.False(t, ok)
}

func TestTableProviderForPhase(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewRepositoryFactory(memory.NewStore())
	uow := factory.NewUnitOfWork(ctx)
	userId := uuid.New()

	runner := &entity.Identity{Id: uuid.New(), UserId: userId, Label: "Runner", Category: constant.CategoryHealth, State: constant.StateAccepted, Notes: []string{"runs at dawn"}}
	saver := &entity.Identity{Id: uuid.New(), UserId: userId, Label: "Saver", Category: constant.CategoryFinances, State: constant.StateRefinementComplete}
	ghost := &entity.Identity{Id: uuid.New(), UserId: userId, Label: "Ghost", Category: constant.CategoryGeneral, State: constant.StateArchived}
	for _, identity := range []*entity.Identity{runner, saver, ghost} {
		require.NoError(t, uow.IdentityRepository().Create(ctx, identity))
	}

	current := runner.Id
	session := &entity.CoachingSession{
		UserId:            userId,
		Phase:             constant.PhaseRefinement,
		FocusCategory:     constant.CategoryHealth,
		CurrentIdentityId: &current,
		WhoIAm:            []string{"nurse"},
		Metadata: map[string]interface{}{
			constant.MetadataMemoryNotes: map[string]interface{}{"pet": "dog named Miso"},
		},
	}

	pc, err := NewTableProvider(factory).ForPhase(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, constant.PhaseRefinement, pc.Phase)
	assert.Contains(t, pc.Allowed, catalog.ActionAcceptRefinement)

	assert.Contains(t, pc.Prompt, constant.PhasePromptRefinement)
	assert.Contains(t, pc.Prompt, "Focus category: health")
	assert.Contains(t, pc.Prompt, "Who I am: nurse")
	assert.Contains(t, pc.Prompt, "Current identity: Runner")
	assert.Contains(t, pc.Prompt, "Runner | health | accepted | pending")
	assert.Contains(t, pc.Prompt, "Saver | finances | refinement_complete\n")
	assert.Contains(t, pc.Prompt, "note: runs at dawn")
	assert.Contains(t, pc.Prompt, "- pet: dog named Miso")
	assert.NotContains(t, pc.Prompt, "Ghost")

	session.Phase = constant.PhaseSystemContext
	_, err = NewTableProvider(factory).ForPhase(ctx, session)
	assert.Error(t, err)
}
