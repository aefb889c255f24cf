package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"identity-coach-be/internal/constant"
	"identity-coach-be/internal/dto"
	"identity-coach-be/internal/entity"
	"identity-coach-be/internal/pkg/logger"
	repocontract "identity-coach-be/internal/repository/contract"
	"identity-coach-be/internal/repository/memory"
	"identity-coach-be/internal/repository/unitofwork"
	"identity-coach-be/pkg/coaching/audit"
	"identity-coach-be/pkg/coaching/catalog"
	"identity-coach-be/pkg/coaching/contract"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const actionExplode catalog.ActionID = "explode"

type explodeParams struct{}

var errBoom = errors.New("boom")

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	explode := catalog.Define(actionExplode, "Always fails.",
		func(*catalog.HandlerContext, *explodeParams) (*catalog.Outcome, error) {
			return nil, errBoom
		},
	)
	c, err := catalog.New(append(catalog.Actions(), explode)...)
	require.NoError(t, err)
	return c
}

type fixture struct {
	engine    *Engine
	contracts *contract.Builder
	uow       unitofwork.RepositoryFactory
	recorder  *audit.Recorder
	userId    uuid.UUID
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	return newFixtureOn(t, memory.NewRepositoryFactory(memory.NewStore()), opts...)
}

func newFixtureOn(t *testing.T, uowFactory unitofwork.RepositoryFactory, opts ...Option) *fixture {
	t.Helper()
	c := testCatalog(t)
	nop := logger.NewNopLogger()
	recorder := &audit.Recorder{}
	opts = append([]Option{WithAuditSink(recorder)}, opts...)
	return &fixture{
		engine:    NewEngine(c, uowFactory, nop, opts...),
		contracts: contract.NewBuilder(c, nop),
		uow:       uowFactory,
		recorder:  recorder,
		userId:    uuid.New(),
	}
}

func (f *fixture) respond(t *testing.T, allowed []catalog.ActionID, raw string) *contract.Response {
	t.Helper()
	c, err := f.contracts.Build(allowed)
	require.NoError(t, err)
	resp, err := c.Decode([]byte(raw))
	require.NoError(t, err)
	return resp
}

func (f *fixture) identities(t *testing.T) []*entity.Identity {
	t.Helper()
	ctx := context.Background()
	identities, err := f.uow.NewUnitOfWork(ctx).IdentityRepository().FindAllByUserId(ctx, f.userId)
	require.NoError(t, err)
	return identities
}

func TestSessionIsCreatedOnFirstUse(t *testing.T) {
	f := newFixture(t)

	session, err := f.engine.Session(context.Background(), f.userId)
	require.NoError(t, err)
	assert.Equal(t, constant.PhaseIntroduction, session.Phase)
	assert.Equal(t, f.userId, session.UserId)

	again, err := f.engine.Session(context.Background(), f.userId)
	require.NoError(t, err)
	assert.Equal(t, session.Id, again.Id)
}

func TestDispatchModelResponseCreatesAndDeduplicates(t *testing.T) {
	f := newFixture(t)
	allowed := []catalog.ActionID{catalog.ActionCreateRecord, catalog.ActionTransitionPhase}
	trigger := uuid.New()

	resp := f.respond(t, allowed, `{
		"message": "Let's brainstorm.",
		"transition_phase": {"to_phase": "brainstorming"},
		"create_record": {"label": "Explorer", "category": "passions"}
	}`)
	session, directive, err := f.engine.DispatchModelResponse(context.Background(), f.userId, resp, &trigger)
	require.NoError(t, err)
	assert.Nil(t, directive)
	assert.Equal(t, constant.PhaseBrainstorming, session.Phase)

	identities := f.identities(t)
	require.Len(t, identities, 1)
	assert.Equal(t, "Explorer", identities[0].Label)
	require.NotNil(t, session.ProposedIdentityId)
	assert.Equal(t, identities[0].Id, *session.ProposedIdentityId)
	// brainstorming re-points current at the pending proposal
	require.NotNil(t, session.CurrentIdentityId)
	assert.Equal(t, identities[0].Id, *session.CurrentIdentityId)

	resp = f.respond(t, allowed, `{"message":"Again","create_record":{"label":"explorer","category":"passions"}}`)
	_, _, err = f.engine.DispatchModelResponse(context.Background(), f.userId, resp, &trigger)
	require.NoError(t, err)
	assert.Len(t, f.identities(t), 1)

	entries := f.recorder.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, string(catalog.ActionCreateRecord), entries[0].ActionId)
	assert.Equal(t, string(catalog.ActionTransitionPhase), entries[1].ActionId)
	assert.Contains(t, entries[2].Summary, "already exists")
	for _, e := range entries {
		require.NotNil(t, e.TriggerRef)
		assert.Equal(t, trigger, *e.TriggerRef)
		assert.Equal(t, f.userId, e.UserId)
	}
}

func TestDispatchSkipsUnknownActions(t *testing.T) {
	f := newFixture(t)
	resp := f.respond(t, []catalog.ActionID{catalog.ActionSetFocusCategory},
		`{"message":"ok","set_focus_category":{"category":"health"}}`)
	resp.Commands = append([]catalog.Command{{Action: "teleport"}}, resp.Commands...)

	session, _, err := f.engine.DispatchModelResponse(context.Background(), f.userId, resp, nil)
	require.NoError(t, err)
	assert.Equal(t, constant.CategoryHealth, session.FocusCategory)
	assert.Len(t, f.recorder.Entries(), 1)
}

func TestDispatchNilResponse(t *testing.T) {
	f := newFixture(t)
	session, directive, err := f.engine.DispatchModelResponse(context.Background(), f.userId, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, directive)
	assert.Equal(t, constant.PhaseIntroduction, session.Phase)
	assert.Empty(t, f.recorder.Entries())
}

func TestSilentActionsGetNoTrigger(t *testing.T) {
	f := newFixture(t)
	trigger := uuid.New()
	resp := f.respond(t, []catalog.ActionID{catalog.ActionSaveMemoryNote, catalog.ActionRecordAskedTopic},
		`{"message":"ok","save_memory_note":{"key":"pet","note":"dog"},"record_asked_topic":{"topic":"hobbies"}}`)

	_, _, err := f.engine.DispatchModelResponse(context.Background(), f.userId, resp, &trigger)
	require.NoError(t, err)

	entries := f.recorder.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, string(catalog.ActionSaveMemoryNote), entries[0].ActionId)
	assert.Nil(t, entries[0].TriggerRef)
	require.NotNil(t, entries[1].TriggerRef)
	assert.Equal(t, trigger, *entries[1].TriggerRef)
	assert.Equal(t, map[string]interface{}{"key": "pet", "note": "dog"}, entries[0].Params)
}

func TestLastDirectiveWins(t *testing.T) {
	f := newFixture(t)
	resp := f.respond(t, []catalog.ActionID{catalog.ActionOfferCategories, catalog.ActionOfferPhaseTransition},
		`{"message":"ok","offer_categories":{},"offer_phase_transition":{"to_phase":"warm_up"}}`)

	_, directive, err := f.engine.DispatchModelResponse(context.Background(), f.userId, resp, nil)
	require.NoError(t, err)
	require.NotNil(t, directive)
	require.Len(t, directive.Choices, 2)
	assert.Equal(t, "Continue", directive.Choices[0].Label)
}

func TestHandlerFault(t *testing.T) {
	allowed := []catalog.ActionID{catalog.ActionCreateRecord, actionExplode}
	raw := `{"message":"ok","create_record":{"label":"Runner","category":"health"},"explode":{}}`

	t.Run("atomic rolls back the whole call", func(t *testing.T) {
		f := newFixture(t)
		_, _, err := f.engine.DispatchModelResponse(context.Background(), f.userId, f.respond(t, allowed, raw), nil)
		assert.ErrorIs(t, err, ErrHandlerFault)
		assert.ErrorIs(t, err, errBoom)
		assert.Empty(t, f.identities(t))
		assert.Empty(t, f.recorder.Entries())
	})

	t.Run("legacy keeps earlier writes", func(t *testing.T) {
		f := newFixture(t, WithAtomic(false))
		_, _, err := f.engine.DispatchModelResponse(context.Background(), f.userId, f.respond(t, allowed, raw), nil)
		assert.ErrorIs(t, err, ErrHandlerFault)
		require.Len(t, f.identities(t), 1)

		entries := f.recorder.Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, string(catalog.ActionCreateRecord), entries[0].ActionId)
	})
}

func TestDispatchInteraction(t *testing.T) {
	f := newFixture(t)
	trigger := uuid.New()

	session, err := f.engine.DispatchInteraction(context.Background(), f.userId, []dto.BoundCommand{
		{ActionId: "teleport"},
		{ActionId: string(catalog.ActionSetFocusCategory), Params: map[string]interface{}{"category": "health"}},
		{ActionId: string(catalog.ActionRecordAskedTopic), Params: map[string]interface{}{"topic": 12}},
		{ActionId: string(catalog.ActionClearMemoryNotes)},
	}, &trigger)
	require.NoError(t, err)
	assert.Equal(t, constant.CategoryHealth, session.FocusCategory)
	assert.Empty(t, session.AskedTopics)

	entries := f.recorder.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, string(catalog.ActionSetFocusCategory), entries[0].ActionId)
	assert.Equal(t, string(catalog.ActionClearMemoryNotes), entries[1].ActionId)
	assert.Equal(t, map[string]interface{}{}, entries[1].Params)
}

func TestDispatchInteractionReordersBindings(t *testing.T) {
	f := newFixture(t)
	resp := f.respond(t, []catalog.ActionID{catalog.ActionCreateRecord},
		`{"message":"ok","create_record":{"label":"Runner","category":"health"}}`)
	_, _, err := f.engine.DispatchModelResponse(context.Background(), f.userId, resp, nil)
	require.NoError(t, err)

	_, err = f.engine.DispatchInteraction(context.Background(), f.userId, []dto.BoundCommand{
		{ActionId: string(catalog.ActionArchiveRecord), Params: map[string]interface{}{"record": "Runner"}},
		{ActionId: string(catalog.ActionShowRecordSummaries), Params: map[string]interface{}{"records": []interface{}{"Runner"}}},
	}, nil)
	require.NoError(t, err)

	entries := f.recorder.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, string(catalog.ActionShowRecordSummaries), entries[1].ActionId)
	assert.Equal(t, string(catalog.ActionArchiveRecord), entries[2].ActionId)
}

func TestConcurrentDispatchIsSerialisedPerUser(t *testing.T) {
	f := newFixture(t)
	c, err := f.contracts.Build([]catalog.ActionID{catalog.ActionCreateRecord})
	require.NoError(t, err)

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := c.Decode([]byte(fmt.Sprintf(`{"message":"ok","create_record":{"label":"Identity %d","category":"general"}}`, i)))
			if err != nil {
				errs <- err
				return
			}
			_, _, err = f.engine.DispatchModelResponse(context.Background(), f.userId, resp, nil)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Len(t, f.identities(t), n)
}

// racingFactory lets another request create the user's session right after the engine
// found none.
type racingFactory struct {
	inner unitofwork.RepositoryFactory
	once  sync.Once
	race  func()
}

func (f *racingFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &racingUnitOfWork{UnitOfWork: f.inner.NewUnitOfWork(ctx), factory: f}
}

type racingUnitOfWork struct {
	unitofwork.UnitOfWork
	factory *racingFactory
}

func (u *racingUnitOfWork) CoachingSessionRepository() repocontract.CoachingSessionRepository {
	return &racingSessions{CoachingSessionRepository: u.UnitOfWork.CoachingSessionRepository(), factory: u.factory}
}

type racingSessions struct {
	repocontract.CoachingSessionRepository
	factory *racingFactory
}

func (r *racingSessions) FindByUserId(ctx context.Context, userId uuid.UUID) (*entity.CoachingSession, error) {
	session, err := r.CoachingSessionRepository.FindByUserId(ctx, userId)
	if err == nil && session == nil {
		r.factory.once.Do(r.factory.race)
	}
	return session, err
}

func TestSessionCreateRaceUsesWinnerRow(t *testing.T) {
	store := memory.NewStore()
	inner := memory.NewRepositoryFactory(store)
	userId := uuid.New()
	winner := &entity.CoachingSession{
		Id:       uuid.New(),
		UserId:   userId,
		Phase:    constant.PhaseWarmUp,
		Metadata: map[string]interface{}{},
	}
	racing := &racingFactory{inner: inner, race: func() {
		ctx := context.Background()
		require.NoError(t, inner.NewUnitOfWork(ctx).CoachingSessionRepository().Create(ctx, winner.Clone()))
	}}
	f := newFixtureOn(t, racing)
	f.userId = userId

	resp := f.respond(t, []catalog.ActionID{catalog.ActionSetFocusCategory},
		`{"message":"ok","set_focus_category":{"category":"career"}}`)
	session, _, err := f.engine.DispatchModelResponse(context.Background(), userId, resp, nil)
	require.NoError(t, err)
	assert.Equal(t, winner.Id, session.Id)
	assert.Equal(t, constant.PhaseWarmUp, session.Phase)
	assert.Equal(t, constant.CategoryCareer, session.FocusCategory)
}

func TestDuplicateSessionCreateIsReported(t *testing.T) {
	ctx := context.Background()
	sessions := memory.NewRepositoryFactory(memory.NewStore()).NewUnitOfWork(ctx).CoachingSessionRepository()
	userId := uuid.New()
	require.NoError(t, sessions.Create(ctx, &entity.CoachingSession{UserId: userId, Phase: constant.PhaseIntroduction}))

	err := sessions.Create(ctx, &entity.CoachingSession{UserId: userId, Phase: constant.PhaseIntroduction})
	assert.ErrorIs(t, err, repocontract.ErrSessionExists)
}

func TestCommandOrderIsObservable(t *testing.T) {
	create := dto.BoundCommand{ActionId: string(catalog.ActionCreateRecord), Params: map[string]interface{}{"label": "Runner", "category": "health"}}
	accept := dto.BoundCommand{ActionId: string(catalog.ActionAcceptRecord), Params: map[string]interface{}{"record": "Runner"}}

	t.Run("create then accept", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.engine.DispatchInteraction(context.Background(), f.userId, []dto.BoundCommand{create, accept}, nil)
		require.NoError(t, err)

		identities := f.identities(t)
		require.Len(t, identities, 1)
		assert.Equal(t, constant.StateAccepted, identities[0].State)
		assert.Len(t, f.recorder.Entries(), 2)
	})

	t.Run("accept then create", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.engine.DispatchInteraction(context.Background(), f.userId, []dto.BoundCommand{accept, create}, nil)
		assert.ErrorIs(t, err, ErrHandlerFault)
		assert.ErrorIs(t, err, catalog.ErrRecordNotFound)

		assert.Empty(t, f.identities(t))
		assert.Empty(t, f.recorder.Entries())
	})
}

func TestExpectPhase(t *testing.T) {
	f := newFixture(t)
	allowed := []catalog.ActionID{catalog.ActionSetFocusCategory}
	raw := `{"message":"ok","set_focus_category":{"category":"health"}}`

	_, _, err := f.engine.DispatchModelResponse(context.Background(), f.userId, f.respond(t, allowed, raw), nil,
		ExpectPhase(constant.PhaseWarmUp))
	assert.ErrorIs(t, err, ErrPhaseChanged)
	assert.Empty(t, f.recorder.Entries())

	session, err := f.engine.Session(context.Background(), f.userId)
	require.NoError(t, err)
	assert.Empty(t, session.FocusCategory)

	session, _, err = f.engine.DispatchModelResponse(context.Background(), f.userId, f.respond(t, allowed, raw), nil,
		ExpectPhase(constant.PhaseIntroduction))
	require.NoError(t, err)
	assert.Equal(t, constant.CategoryHealth, session.FocusCategory)
}
