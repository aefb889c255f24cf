// Package dispatch executes catalog commands against a user's coaching state.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"identity-coach-be/internal/constant"
	"identity-coach-be/internal/dto"
	"identity-coach-be/internal/entity"
	"identity-coach-be/internal/pkg/logger"
	repocontract "identity-coach-be/internal/repository/contract"
	"identity-coach-be/internal/repository/unitofwork"
	"identity-coach-be/pkg/coaching/audit"
	"identity-coach-be/pkg/coaching/catalog"
	"identity-coach-be/pkg/coaching/contract"
	"identity-coach-be/pkg/coaching/lock"
	"identity-coach-be/pkg/coaching/state"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "coaching/dispatch"

var (
	ErrHandlerFault = errors.New("command handler failed")
	// ErrPhaseChanged means the session left the phase the response was produced for.
	ErrPhaseChanged = errors.New("coaching phase changed")
)

// Mode selects how params are decoded and how bad commands are treated.
type Mode int

const (
	// ModeStrictBatch runs commands from a model response. Params are already decoded
	// against the response contract.
	ModeStrictBatch Mode = iota
	// ModeBestEffort replays server-built bindings. Params are coerced loosely and a
	// command whose params cannot be coerced is skipped.
	ModeBestEffort
)

func (m Mode) String() string {
	switch m {
	case ModeStrictBatch:
		return "strict_batch"
	case ModeBestEffort:
		return "best_effort"
	default:
		return "unknown"
	}
}

// Engine is the single entry point that mutates coaching state.
type Engine struct {
	catalog    *catalog.Catalog
	uowFactory unitofwork.RepositoryFactory
	locker     lock.Locker
	sink       audit.Sink
	state      *state.Manager
	logger     logger.ILogger
	tracer     trace.Tracer
	atomic     bool
}

type Option func(*Engine)

// WithAtomic runs each dispatch call in one transaction. Enabled by default; disabling it
// keeps the writes of handlers that ran before a failing one.
func WithAtomic(atomic bool) Option {
	return func(e *Engine) { e.atomic = atomic }
}

func WithLocker(locker lock.Locker) Option {
	return func(e *Engine) { e.locker = locker }
}

func WithAuditSink(sink audit.Sink) Option {
	return func(e *Engine) { e.sink = sink }
}

// CallOption tunes a single dispatch call.
type CallOption func(*callOptions)

type callOptions struct {
	expectPhase constant.Phase
}

// ExpectPhase rejects the call with ErrPhaseChanged, before any command runs, unless the
// session is still in phase once the user's lock is held.
func ExpectPhase(phase constant.Phase) CallOption {
	return func(o *callOptions) { o.expectPhase = phase }
}

func NewEngine(c *catalog.Catalog, uowFactory unitofwork.RepositoryFactory, logger logger.ILogger, opts ...Option) *Engine {
	e := &Engine{
		catalog:    c,
		uowFactory: uowFactory,
		locker:     lock.NewLocalLocker(),
		sink:       audit.Discard,
		state:      state.NewManager(logger),
		logger:     logger,
		tracer:     otel.Tracer(instrumentationName),
		atomic:     true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DispatchModelResponse executes the commands of a decoded model response in contract order
// and returns the updated session and the last directive produced, if any.
func (e *Engine) DispatchModelResponse(ctx context.Context, userId uuid.UUID, resp *contract.Response, triggerRef *uuid.UUID, opts ...CallOption) (*entity.CoachingSession, *dto.Directive, error) {
	var commands []catalog.Command
	if resp != nil {
		commands = resp.Commands
	}
	return e.run(ctx, ModeStrictBatch, userId, commands, triggerRef, opts...)
}

// DispatchInteraction replays the commands bound to a directive choice. Directives produced
// while replaying are dropped.
func (e *Engine) DispatchInteraction(ctx context.Context, userId uuid.UUID, bound []dto.BoundCommand, triggerRef *uuid.UUID, opts ...CallOption) (*entity.CoachingSession, error) {
	commands := make([]catalog.Command, 0, len(bound))
	for _, b := range bound {
		commands = append(commands, catalog.Command{
			Action: catalog.ActionID(b.ActionId),
			Raw:    b.Params,
		})
	}
	ordered, err := e.catalog.OrderCommands(commands)
	if err != nil {
		return nil, err
	}
	session, _, err := e.run(ctx, ModeBestEffort, userId, ordered, triggerRef, opts...)
	return session, err
}

func (e *Engine) run(ctx context.Context, mode Mode, userId uuid.UUID, commands []catalog.Command, triggerRef *uuid.UUID, opts ...CallOption) (_ *entity.CoachingSession, _ *dto.Directive, err error) {
	var call callOptions
	for _, opt := range opts {
		opt(&call)
	}

	ctx, span := e.tracer.Start(ctx, "coaching.dispatch")
	defer span.End()
	span.SetAttributes(
		attribute.String("user_id", userId.String()),
		attribute.String("mode", mode.String()),
		attribute.Int("command_count", len(commands)),
		attribute.Bool("atomic", e.atomic),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	release, err := e.locker.Lock(ctx, userId.String())
	if err != nil {
		return nil, nil, err
	}
	defer release()

	// Once the lock is held the call runs to completion.
	ctx = context.WithoutCancel(ctx)

	uow := e.uowFactory.NewUnitOfWork(ctx)
	committed := false
	if e.atomic {
		if err := uow.Begin(ctx); err != nil {
			return nil, nil, fmt.Errorf("begin dispatch transaction: %w", err)
		}
		defer func() {
			if !committed {
				_ = uow.Rollback()
			}
		}()
	}

	session, err := loadOrCreateSession(ctx, uow, userId)
	if err != nil {
		return nil, nil, err
	}
	if call.expectPhase != "" && session.Phase != call.expectPhase {
		e.logger.Warn("DISPATCH", "Response produced for a stale phase", map[string]interface{}{
			"user_id":  userId.String(),
			"expected": string(call.expectPhase),
			"actual":   string(session.Phase),
		})
		return nil, nil, fmt.Errorf("%w: expected %s, session is in %s", ErrPhaseChanged, call.expectPhase, session.Phase)
	}

	var (
		directive *dto.Directive
		pending   []audit.Entry
		executed  int
	)
	for _, cmd := range commands {
		action, ok := e.catalog.Lookup(cmd.Action)
		if !ok {
			e.logger.Warn("DISPATCH", "Unknown action skipped", map[string]interface{}{
				"user_id":   userId.String(),
				"action_id": string(cmd.Action),
				"mode":      mode.String(),
			})
			continue
		}

		params := cmd.Params
		raw := cmd.Raw
		if mode == ModeBestEffort {
			if raw == nil {
				raw = map[string]interface{}{}
			}
			params, err = action.DecodeLoose(raw)
			if err != nil {
				e.logger.Warn("DISPATCH", "Replayed command skipped", map[string]interface{}{
					"user_id":   userId.String(),
					"action_id": string(action.ID),
					"error":     err.Error(),
				})
				continue
			}
		}

		hc := &catalog.HandlerContext{
			Ctx:     ctx,
			UoW:     uow,
			Session: session,
			UserId:  userId,
			Logger:  e.logger,
			State:   e.state,
		}
		if !action.Silent {
			hc.TriggerRef = triggerRef
		}

		outcome, err := e.execute(ctx, action, hc, params)
		if err != nil {
			e.logger.Error("DISPATCH", "Command failed", map[string]interface{}{
				"user_id":   userId.String(),
				"action_id": string(action.ID),
				"executed":  executed,
				"atomic":    e.atomic,
				"error":     err.Error(),
			})
			return nil, nil, fmt.Errorf("%w: %s: %w", ErrHandlerFault, action.ID, err)
		}
		executed++

		summary := string(action.ID)
		if outcome != nil {
			if outcome.Summary != "" {
				summary = outcome.Summary
			}
			if outcome.Directive != nil {
				directive = outcome.Directive
			}
		}

		entry := audit.Entry{
			Id:         uuid.New(),
			UserId:     userId,
			ActionId:   string(action.ID),
			Params:     raw,
			Summary:    summary,
			TriggerRef: hc.TriggerRef,
			OccurredAt: time.Now(),
		}
		if e.atomic {
			pending = append(pending, entry)
		} else {
			e.record(ctx, entry)
		}
	}

	if e.atomic {
		if err := uow.Commit(); err != nil {
			return nil, nil, fmt.Errorf("commit dispatch transaction: %w", err)
		}
		committed = true
		for _, entry := range pending {
			e.record(ctx, entry)
		}
	}

	fresh, err := uow.CoachingSessionRepository().FindByUserId(ctx, userId)
	if err != nil {
		return nil, nil, fmt.Errorf("reload coaching session: %w", err)
	}
	if fresh == nil {
		fresh = session
	}

	e.logger.Info("DISPATCH", "Dispatch completed", map[string]interface{}{
		"user_id":  userId.String(),
		"mode":     mode.String(),
		"received": len(commands),
		"executed": executed,
		"phase":    string(fresh.Phase),
	})
	span.SetAttributes(attribute.Int("executed_count", executed))
	return fresh, directive, nil
}

func (e *Engine) execute(ctx context.Context, action catalog.Action, hc *catalog.HandlerContext, params interface{}) (*catalog.Outcome, error) {
	_, span := e.tracer.Start(ctx, "coaching.command")
	defer span.End()
	span.SetAttributes(
		attribute.String("action_id", string(action.ID)),
		attribute.Bool("silent", action.Silent),
	)

	outcome, err := action.Handle(hc, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return outcome, nil
}

func (e *Engine) record(ctx context.Context, entry audit.Entry) {
	if err := e.sink.Record(ctx, entry); err != nil {
		e.logger.Warn("DISPATCH", "Audit entry dropped", map[string]interface{}{
			"user_id":   entry.UserId.String(),
			"action_id": entry.ActionId,
			"error":     err.Error(),
		})
	}
}

// Session returns the user's coaching session, creating it in the introduction phase on
// first use.
func (e *Engine) Session(ctx context.Context, userId uuid.UUID) (*entity.CoachingSession, error) {
	uow := e.uowFactory.NewUnitOfWork(ctx)
	return loadOrCreateSession(ctx, uow, userId)
}

func loadOrCreateSession(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) (*entity.CoachingSession, error) {
	session, err := uow.CoachingSessionRepository().FindByUserId(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("load coaching session: %w", err)
	}
	if session != nil {
		return session, nil
	}

	session = &entity.CoachingSession{
		Id:       uuid.New(),
		UserId:   userId,
		Phase:    constant.PhaseIntroduction,
		Metadata: map[string]interface{}{},
	}
	err = uow.CoachingSessionRepository().Create(ctx, session)
	if errors.Is(err, repocontract.ErrSessionExists) {
		// Another request created it first.
		existing, findErr := uow.CoachingSessionRepository().FindByUserId(ctx, userId)
		if findErr != nil {
			return nil, fmt.Errorf("reload coaching session: %w", findErr)
		}
		if existing != nil {
			return existing, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create coaching session: %w", err)
	}
	return session, nil
}
