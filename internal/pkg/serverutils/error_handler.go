package serverutils

import (
	"errors"

	"identity-coach-be/pkg/coaching/catalog"
	"identity-coach-be/pkg/coaching/contract"
	"identity-coach-be/pkg/coaching/dispatch"
	"identity-coach-be/pkg/coaching/lock"
	"identity-coach-be/pkg/coaching/state"

	"github.com/gofiber/fiber/v2"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.Is(err, ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, ErrNotFound), errors.Is(err, catalog.ErrRecordNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, state.ErrPrecondition), errors.Is(err, state.ErrInvalidTransition), errors.Is(err, dispatch.ErrPhaseChanged):
		return fiber.StatusConflict
	case errors.Is(err, catalog.ErrInvalidParams), errors.Is(err, catalog.ErrUnknownAction):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, contract.ErrContractViolation):
		return fiber.StatusBadGateway
	case errors.Is(err, lock.ErrLockTimeout):
		return fiber.StatusTooManyRequests
	case errors.Is(err, dispatch.ErrHandlerFault):
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandlerMiddleware turns errors returned by handlers into the standard error body.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		code := StatusFor(err)
		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}
}
