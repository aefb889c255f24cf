package service

import (
	"context"
	"fmt"

	"identity-coach-be/internal/constant"
	"identity-coach-be/internal/dto"
	"identity-coach-be/internal/entity"
	"identity-coach-be/internal/pkg/logger"
	"identity-coach-be/internal/pkg/serverutils"
	"identity-coach-be/internal/repository/memory"
	"identity-coach-be/internal/repository/unitofwork"
	"identity-coach-be/pkg/coaching/catalog"
	"identity-coach-be/pkg/coaching/contract"
	"identity-coach-be/pkg/coaching/dispatch"
	"identity-coach-be/pkg/coaching/prompt"
	"identity-coach-be/pkg/llm"

	"github.com/google/uuid"
)

var (
	ErrDirectiveNotFound = fmt.Errorf("directive %w", serverutils.ErrNotFound)
	ErrChoiceOutOfRange  = fmt.Errorf("%w: choice index out of range", catalog.ErrInvalidParams)
)

// Responder produces a contract-conforming model reply.
type Responder interface {
	Respond(ctx context.Context, prompt string, history []llm.Message, c *contract.Contract, model string) (*contract.Response, error)
}

type ICoachingService interface {
	GetState(ctx context.Context, userId uuid.UUID) (*dto.CoachingStateResponse, error)
	SendTurn(ctx context.Context, userId uuid.UUID, req *dto.SendTurnRequest) (*dto.SendTurnResponse, error)
	Interact(ctx context.Context, userId uuid.UUID, req *dto.InteractionRequest) (*dto.InteractionResponse, error)
	DeleteUserData(ctx context.Context, userId uuid.UUID) error
}

type coachingService struct {
	uowFactory unitofwork.RepositoryFactory
	engine     *dispatch.Engine
	contracts  *contract.Builder
	prompts    prompt.Provider
	responder  Responder
	directives *memory.DirectiveRepository
	model      string
	logger     logger.ILogger
}

func NewCoachingService(
	uowFactory unitofwork.RepositoryFactory,
	engine *dispatch.Engine,
	contracts *contract.Builder,
	prompts prompt.Provider,
	responder Responder,
	directives *memory.DirectiveRepository,
	model string,
	logger logger.ILogger,
) ICoachingService {
	return &coachingService{
		uowFactory: uowFactory,
		engine:     engine,
		contracts:  contracts,
		prompts:    prompts,
		responder:  responder,
		directives: directives,
		model:      model,
		logger:     logger,
	}
}

func (s *coachingService) GetState(ctx context.Context, userId uuid.UUID) (*dto.CoachingStateResponse, error) {
	session, err := s.engine.Session(ctx, userId)
	if err != nil {
		return nil, err
	}
	return s.stateResponse(ctx, session)
}

func (s *coachingService) SendTurn(ctx context.Context, userId uuid.UUID, req *dto.SendTurnRequest) (*dto.SendTurnResponse, error) {
	session, err := s.engine.Session(ctx, userId)
	if err != nil {
		return nil, err
	}

	phaseCtx, err := s.prompts.ForPhase(ctx, session)
	if err != nil {
		return nil, err
	}
	c, err := s.contracts.Build(phaseCtx.Allowed)
	if err != nil {
		return nil, err
	}

	history := make([]llm.Message, 0, len(req.History)+1)
	for _, h := range req.History {
		history = append(history, llm.Message{Role: h.Role, Content: h.Content})
	}
	history = append(history, llm.Message{Role: constant.ChatMessageRoleUser, Content: req.Chat})

	reply, err := s.responder.Respond(ctx, phaseCtx.Prompt, history, c, s.model)
	if err != nil {
		s.logger.Error("COACHING", "Model reply failed", map[string]interface{}{
			"user_id": userId.String(),
			"phase":   string(phaseCtx.Phase),
			"error":   err.Error(),
		})
		return nil, err
	}

	trigger := req.MessageId
	session, directive, err := s.engine.DispatchModelResponse(ctx, userId, reply, &trigger, dispatch.ExpectPhase(phaseCtx.Phase))
	if err != nil {
		return nil, err
	}
	if directive != nil {
		s.directives.Save(userId, directive)
	}

	state, err := s.stateResponse(ctx, session)
	if err != nil {
		return nil, err
	}

	s.logger.Info("COACHING", "Turn completed", map[string]interface{}{
		"user_id":       userId.String(),
		"message_id":    req.MessageId.String(),
		"from_phase":    string(phaseCtx.Phase),
		"to_phase":      string(session.Phase),
		"command_count": len(reply.Commands),
		"has_directive": directive != nil,
	})

	return &dto.SendTurnResponse{
		Message:   reply.Message,
		State:     state,
		Directive: directive,
	}, nil
}

func (s *coachingService) Interact(ctx context.Context, userId uuid.UUID, req *dto.InteractionRequest) (*dto.InteractionResponse, error) {
	directive, ok := s.directives.Get(userId, req.DirectiveId)
	if !ok {
		return nil, ErrDirectiveNotFound
	}
	if req.ChoiceIndex < 0 || req.ChoiceIndex >= len(directive.Choices) {
		return nil, ErrChoiceOutOfRange
	}
	choice := directive.Choices[req.ChoiceIndex]

	trigger := req.MessageId
	session, err := s.engine.DispatchInteraction(ctx, userId, choice.Commands, &trigger)
	if err != nil {
		return nil, err
	}
	// A choice is answered once.
	s.directives.Delete(req.DirectiveId)

	state, err := s.stateResponse(ctx, session)
	if err != nil {
		return nil, err
	}
	return &dto.InteractionResponse{State: state}, nil
}

// DeleteUserData removes every coaching row owned by the user.
func (s *coachingService) DeleteUserData(ctx context.Context, userId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.IdentityRepository().DeleteAllByUserId(ctx, userId); err != nil {
		return err
	}
	if err := uow.ActionLogRepository().DeleteAllByUserId(ctx, userId); err != nil {
		return err
	}
	if err := uow.CoachingSessionRepository().DeleteByUserId(ctx, userId); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.logger.Info("COACHING", "User coaching data deleted", map[string]interface{}{
		"user_id": userId.String(),
	})
	return nil
}

func (s *coachingService) stateResponse(ctx context.Context, session *entity.CoachingSession) (*dto.CoachingStateResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	identities, err := uow.IdentityRepository().FindAllByUserId(ctx, session.UserId)
	if err != nil {
		return nil, err
	}

	res := &dto.CoachingStateResponse{
		Phase:              string(session.Phase),
		FocusCategory:      string(session.FocusCategory),
		CurrentIdentityId:  session.CurrentIdentityId,
		ProposedIdentityId: session.ProposedIdentityId,
		SkippedCategories:  make([]string, 0, len(session.SkippedCategories)),
		WhoIAm:             append([]string{}, session.WhoIAm...),
		WhoIWantToBe:       append([]string{}, session.WhoIWantToBe...),
		AskedTopics:        make([]string, 0, len(session.AskedTopics)),
		Metadata:           session.Metadata,
		Identities:         make([]*dto.IdentityResponse, 0, len(identities)),
	}
	for _, c := range session.SkippedCategories {
		res.SkippedCategories = append(res.SkippedCategories, string(c))
	}
	for _, t := range session.AskedTopics {
		res.AskedTopics = append(res.AskedTopics, string(t))
	}
	for _, identity := range identities {
		res.Identities = append(res.Identities, &dto.IdentityResponse{
			Id:                identity.Id,
			Label:             identity.Label,
			Category:          string(identity.Category),
			State:             string(identity.State),
			Notes:             append([]string{}, identity.Notes...),
			Statement:         identity.Statement,
			VisualizationText: identity.VisualizationText,
			CreatedAt:         identity.CreatedAt,
		})
	}
	return res, nil
}
