package controller

import (
	"identity-coach-be/internal/dto"
	"identity-coach-be/internal/pkg/serverutils"
	"identity-coach-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ICoachingController interface {
	RegisterRoutes(r fiber.Router)
	GetState(ctx *fiber.Ctx) error
	SendTurn(ctx *fiber.Ctx) error
	Interact(ctx *fiber.Ctx) error
	DeleteState(ctx *fiber.Ctx) error
}

type coachingController struct {
	service service.ICoachingService
}

func NewCoachingController(service service.ICoachingService) ICoachingController {
	return &coachingController{service: service}
}

func (c *coachingController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/coaching/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("/state", c.GetState)
	h.Delete("/state", c.DeleteState)
	h.Post("/turn", c.SendTurn)
	h.Post("/interaction", c.Interact)
}

func (c *coachingController) GetState(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetState(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get coaching state", res))
}

func (c *coachingController) SendTurn(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.SendTurnRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SendTurn(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send coaching turn", res))
}

func (c *coachingController) Interact(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.InteractionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Interact(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success apply interaction", res))
}

func (c *coachingController) DeleteState(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	if err := c.service.DeleteUserData(ctx.Context(), userId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete coaching state", nil))
}
