package state

import (
	"testing"
	"time"

	"identity-coach-be/internal/constant"
	"identity-coach-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

func identity(label string, category constant.Category, s constant.LifecycleState, minute int) *entity.Identity {
	return &entity.Identity{
		Id:        uuid.New(),
		Label:     label,
		Category:  category,
		State:     s,
		CreatedAt: base.Add(time.Duration(minute) * time.Minute),
	}
}

func TestAdvance(t *testing.T) {
	tests := []struct {
		name        string
		from        constant.LifecycleState
		target      constant.LifecycleState
		wantChanged bool
		wantState   constant.LifecycleState
		wantErr     error
	}{
		{"forward one step", constant.StateProposed, constant.StateAccepted, true, constant.StateAccepted, nil},
		{"forward skipping states", constant.StateAccepted, constant.StateStatementComplete, true, constant.StateStatementComplete, nil},
		{"already reached is a no-op", constant.StateCommitmentComplete, constant.StateAccepted, false, constant.StateCommitmentComplete, nil},
		{"same state is a no-op", constant.StateAccepted, constant.StateAccepted, false, constant.StateAccepted, nil},
		{"archived cannot advance", constant.StateArchived, constant.StateAccepted, false, constant.StateArchived, ErrInvalidTransition},
		{"archived is not a forward target", constant.StateProposed, constant.StateArchived, false, constant.StateProposed, ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := identity("Runner", constant.CategoryHealth, tt.from, 0)
			changed, err := Advance(i, tt.target)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, tt.wantState, i.State)
		})
	}
}

func TestArchive(t *testing.T) {
	for _, s := range append(constant.LifecycleOrder, constant.StateArchived) {
		i := identity("Writer", constant.CategoryCreativity, s, 0)
		changed := Archive(i)
		assert.Equal(t, s != constant.StateArchived, changed, "from %s", s)
		assert.Equal(t, constant.StateArchived, i.State)
	}
}

func TestHasReached(t *testing.T) {
	assert.True(t, HasReached(constant.StateVisualizationComplete, constant.StateAccepted))
	assert.True(t, HasReached(constant.StateAccepted, constant.StateAccepted))
	assert.False(t, HasReached(constant.StateProposed, constant.StateAccepted))
	assert.False(t, HasReached(constant.StateArchived, constant.StateProposed))
}

func TestNextPending(t *testing.T) {
	older := identity("Parent", constant.CategoryRelationships, constant.StateAccepted, 1)
	oldest := identity("Runner", constant.CategoryHealth, constant.StateRefinementComplete, 0)
	archived := identity("Old Me", constant.CategoryGeneral, constant.StateArchived, -5)
	newest := identity("Saver", constant.CategoryFinances, constant.StateProposed, 3)
	identities := []*entity.Identity{newest, archived, older, oldest}

	tests := []struct {
		name  string
		phase constant.Phase
		want  *entity.Identity
	}{
		{"brainstorming finds the proposed one", constant.PhaseBrainstorming, newest},
		{"refinement skips completed and archived", constant.PhaseRefinement, older},
		{"commitment takes the oldest", constant.PhaseCommitment, oldest},
		{"warm up has no pending work", constant.PhaseWarmUp, nil},
		{"introduction has no pending work", constant.PhaseIntroduction, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextPending(identities, tt.phase)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("nothing pending", func(t *testing.T) {
		done := identity("Done", constant.CategoryCareer, constant.StateVisualizationComplete, 0)
		assert.Nil(t, NextPending([]*entity.Identity{done, archived}, constant.PhaseVisualization))
	})

	t.Run("pending keeps creation order", func(t *testing.T) {
		pending := Pending(identities, constant.PhaseCommitment)
		require.Len(t, pending, 3)
		assert.Equal(t, []*entity.Identity{oldest, older, newest}, pending)
	})
}

func TestPlanCombine(t *testing.T) {
	tests := []struct {
		name         string
		first        constant.Category
		second       constant.Category
		wantSurvivor string
	}{
		{"first named survives", constant.CategoryHealth, constant.CategoryCareer, "first"},
		{"general first is absorbed", constant.CategoryGeneral, constant.CategoryCareer, "second"},
		{"general second is absorbed", constant.CategoryHealth, constant.CategoryGeneral, "first"},
		{"both general keeps first", constant.CategoryGeneral, constant.CategoryGeneral, "first"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := identity("first", tt.first, constant.StateAccepted, 0)
			second := identity("second", tt.second, constant.StateAccepted, 1)
			survivor, absorbed, err := PlanCombine(first, second)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSurvivor, survivor.Label)
			assert.NotEqual(t, survivor.Id, absorbed.Id)
		})
	}

	t.Run("same identity is rejected", func(t *testing.T) {
		i := identity("Runner", constant.CategoryHealth, constant.StateAccepted, 0)
		_, _, err := PlanCombine(i, i)
		assert.ErrorIs(t, err, ErrPrecondition)
	})

	t.Run("missing identity is rejected", func(t *testing.T) {
		i := identity("Runner", constant.CategoryHealth, constant.StateAccepted, 0)
		_, _, err := PlanCombine(i, nil)
		assert.ErrorIs(t, err, ErrPrecondition)
	})
}

func TestApplyCombine(t *testing.T) {
	survivor := identity("Runner", constant.CategoryHealth, constant.StateAccepted, 0)
	survivor.Notes = []string{"runs at dawn"}
	absorbed := identity("Athlete", constant.CategoryGeneral, constant.StateProposed, 1)
	absorbed.Notes = []string{"trains twice a week"}
	absorbed.Statement = "I am an athlete"

	ApplyCombine(survivor, absorbed)

	assert.Equal(t, "Runner/Athlete", survivor.Label)
	assert.Equal(t, []string{"runs at dawn", "[from Athlete] trains twice a week"}, survivor.Notes)
	assert.Equal(t, "I am an athlete", survivor.Statement)
	assert.Equal(t, constant.CategoryHealth, survivor.Category)
}

func TestApplyNest(t *testing.T) {
	child := identity("Reader", constant.CategoryCreativity, constant.StateAccepted, 0)
	child.Notes = []string{"one book a month"}
	parent := identity("Learner", constant.CategoryCareer, constant.StateRefinementComplete, 1)

	require.NoError(t, ApplyNest(child, parent))

	assert.Equal(t, constant.StateArchived, child.State)
	assert.Equal(t, "Reader", child.Label)
	assert.Equal(t, "Learner", parent.Label)
	assert.Equal(t, constant.StateRefinementComplete, parent.State)
	require.Len(t, parent.Notes, 2)
	assert.Equal(t, "[nested from Reader] one book a month", parent.Notes[0])
	assert.Contains(t, parent.Notes[1], "Nested Reader (creativity) under Learner")

	assert.ErrorIs(t, ApplyNest(parent, parent), ErrPrecondition)
}

func TestTransitionPhase(t *testing.T) {
	session := &entity.CoachingSession{Phase: constant.PhaseVisualization}

	require.NoError(t, TransitionPhase(session, constant.PhaseIntroduction))
	assert.Equal(t, constant.PhaseIntroduction, session.Phase)

	require.NoError(t, TransitionPhase(session, constant.PhaseCommitment))
	assert.Equal(t, constant.PhaseCommitment, session.Phase)

	assert.ErrorIs(t, TransitionPhase(session, constant.PhaseSystemContext), ErrInvalidTransition)
	assert.ErrorIs(t, TransitionPhase(session, constant.Phase("lunch")), ErrInvalidTransition)
	assert.Equal(t, constant.PhaseCommitment, session.Phase)
}

func TestSessionSets(t *testing.T) {
	session := &entity.CoachingSession{FocusCategory: constant.CategoryHealth}

	assert.True(t, AddAskedTopic(session, constant.TopicWork))
	assert.False(t, AddAskedTopic(session, constant.TopicWork))
	assert.Equal(t, []constant.Topic{constant.TopicWork}, session.AskedTopics)

	assert.True(t, SkipCategory(session, constant.CategoryHealth))
	assert.False(t, SkipCategory(session, constant.CategoryHealth))
	assert.Equal(t, constant.Category(""), session.FocusCategory)
	assert.True(t, IsSkipped(session, constant.CategoryHealth))
	assert.False(t, IsSkipped(session, constant.CategoryCareer))
}

func TestClearIdentityRefs(t *testing.T) {
	id := uuid.New()
	other := uuid.New()
	session := &entity.CoachingSession{CurrentIdentityId: &id, ProposedIdentityId: &other}

	assert.True(t, ClearIdentityRefs(session, id))
	assert.Nil(t, session.CurrentIdentityId)
	require.NotNil(t, session.ProposedIdentityId)
	assert.False(t, ClearIdentityRefs(session, id))
}

func TestMemoryNotes(t *testing.T) {
	session := &entity.CoachingSession{}

	SetMemoryNote(session, "pet", "has a dog named Miso")
	SetMemoryNote(session, "job", "nurse")
	assert.True(t, DeleteMemoryNote(session, "job"))
	assert.False(t, DeleteMemoryNote(session, "job"))

	notes := session.Metadata[constant.MetadataMemoryNotes].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"pet": "has a dog named Miso"}, notes)

	assert.Equal(t, 1, ClearMemoryNotes(session))
	assert.Empty(t, session.Metadata[constant.MetadataMemoryNotes])
}
