package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"identity-coach-be/internal/model"
	"identity-coach-be/internal/constant"
	"identity-coach-be/internal/entity"
	"identity-coach-be/internal/pkg/logger"
	repocontract "identity-coach-be/internal/repository/contract"
	"identity-coach-be/internal/repository/unitofwork"
	"identity-coach-be/pkg/coaching/audit"
	"identity-coach-be/pkg/coaching/catalog"
	"identity-coach-be/pkg/coaching/contract"
	"identity-coach-be/pkg/coaching/dispatch"
	"identity-coach-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.CoachingSession{}, &model.Identity{}, &model.ActionLog{}))
	return db
}

func cleanup(t *testing.T, uowFactory unitofwork.RepositoryFactory, userId uuid.UUID) {
	t.Cleanup(func() {
		ctx := context.Background()
		uow := uowFactory.NewUnitOfWork(ctx)
		_ = uow.IdentityRepository().DeleteAllByUserId(ctx, userId)
		_ = uow.ActionLogRepository().DeleteAllByUserId(ctx, userId)
		_ = uow.CoachingSessionRepository().DeleteByUserId(ctx, userId)
	})
}

func TestGormDispatchRoundTrip(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	nop := logger.NewNopLogger()
	uowFactory := unitofwork.NewRepositoryFactory(db)
	userId := uuid.New()
	cleanup(t, uowFactory, userId)

	recorder := &audit.Recorder{}
	engine := dispatch.NewEngine(catalog.Default(), uowFactory, nop, dispatch.WithAuditSink(recorder))
	c, err := contract.NewBuilder(catalog.Default(), nop).Build([]catalog.ActionID{
		catalog.ActionCreateMultipleRecords,
		catalog.ActionTransitionPhase,
		catalog.ActionSaveMemoryNote,
	})
	require.NoError(t, err)

	resp, err := c.Decode([]byte(`{
		"message": "Here are a few ideas",
		"create_multiple_records": {"records": [
			{"label": "Runner", "category": "health", "note": "runs at dawn"},
			{"label": "Saver", "category": "finances"}
		]},
		"transition_phase": {"to_phase": "refinement"},
		"save_memory_note": {"key": "pet", "note": "dog named Miso"}
	}`))
	require.NoError(t, err)

	session, _, err := engine.DispatchModelResponse(ctx, userId, resp, nil)
	require.NoError(t, err)
	assert.Equal(t, "refinement", string(session.Phase))
	require.NotNil(t, session.CurrentIdentityId)

	identities, err := uowFactory.NewUnitOfWork(ctx).IdentityRepository().FindAllByUserId(ctx, userId)
	require.NoError(t, err)
	require.Len(t, identities, 2)
	byLabel := map[string]uuid.UUID{}
	for _, identity := range identities {
		byLabel[identity.Label] = identity.Id
		if identity.Label == "Runner" {
			assert.Equal(t, []string{"runs at dawn"}, identity.Notes)
		}
	}
	assert.Contains(t, byLabel, "Runner")
	assert.Contains(t, byLabel, "Saver")

	notes := session.Metadata["memory_notes"].(map[string]interface{})
	assert.Equal(t, "dog named Miso", notes["pet"])
	assert.Len(t, recorder.Entries(), 3)
}

func TestGormHandlerFaultRollsBack(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	nop := logger.NewNopLogger()
	uowFactory := unitofwork.NewRepositoryFactory(db)
	userId := uuid.New()
	cleanup(t, uowFactory, userId)

	engine := dispatch.NewEngine(catalog.Default(), uowFactory, nop)
	c, err := contract.NewBuilder(catalog.Default(), nop).Build([]catalog.ActionID{
		catalog.ActionCreateRecord,
		catalog.ActionAcceptRecord,
	})
	require.NoError(t, err)

	resp, err := c.Decode([]byte(`{"message":"ok","create_record":{"label":"Runner","category":"health"},"accept_record":{"record":"Nobody Here"}}`))
	require.NoError(t, err)

	_, _, err = engine.DispatchModelResponse(ctx, userId, resp, nil)
	assert.ErrorIs(t, err, dispatch.ErrHandlerFault)
	assert.ErrorIs(t, err, catalog.ErrRecordNotFound)

	identities, err := uowFactory.NewUnitOfWork(ctx).IdentityRepository().FindAllByUserId(ctx, userId)
	require.NoError(t, err)
	assert.Empty(t, identities)
}

func TestGormDuplicateSessionKeepsTransactionUsable(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	uowFactory := unitofwork.NewRepositoryFactory(db)
	userId := uuid.New()
	cleanup(t, uowFactory, userId)

	first := uowFactory.NewUnitOfWork(ctx)
	require.NoError(t, first.CoachingSessionRepository().Create(ctx, &entity.CoachingSession{
		UserId: userId, Phase: constant.PhaseWarmUp, Metadata: map[string]interface{}{},
	}))

	uow := uowFactory.NewUnitOfWork(ctx)
	require.NoError(t, uow.Begin(ctx))
	defer func() { _ = uow.Rollback() }()

	err := uow.CoachingSessionRepository().Create(ctx, &entity.CoachingSession{
		UserId: userId, Phase: constant.PhaseIntroduction, Metadata: map[string]interface{}{},
	})
	assert.ErrorIs(t, err, repocontract.ErrSessionExists)

	existing, err := uow.CoachingSessionRepository().FindByUserId(ctx, userId)
	require.NoError(t, err)
	require.NotNil(t, existing)
	assert.Equal(t, constant.PhaseWarmUp, existing.Phase)
}
