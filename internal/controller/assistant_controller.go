package controller

import (
	"watchfolio-be/internal/constant"
	"watchfolio-be/internal/dto"
	"watchfolio-be/internal/pkg/serverutils"
	"watchfolio-be/internal/service"
	"watchfolio-be/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAssistantController interface {
	RegisterRoutes(r fiber.Router)
	SendMessage(ctx *fiber.Ctx) error
	SwitchMode(ctx *fiber.Ctx) error
	NewSession(ctx *fiber.Ctx) error
	GetState(ctx *fiber.Ctx) error
	GetSessions(ctx *fiber.Ctx) error
	LoadSession(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	TrackInteraction(ctx *fiber.Ctx) error
}

type assistantController struct {
	service service.IAssistantService
}

func NewAssistantController(service service.IAssistantService) IAssistantController {
	return &assistantController{service: service}
}

func (c *assistantController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/assistant/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("/message", c.SendMessage)
	h.Post("/mode", c.SwitchMode)
	h.Post("/session/new", c.NewSession)
	h.Get("/state", c.GetState)
	h.Get("/sessions", c.GetSessions)
	h.Get("/sessions/:id", c.LoadSession)
	h.Delete("/sessions/:id", c.DeleteSession)
	h.Post("/interaction", c.TrackInteraction)
}

func (c *assistantController) SendMessage(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals(constant.LocalsUserId).(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SendMessage(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Message accepted", res))
}

func (c *assistantController) SwitchMode(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals(constant.LocalsUserId).(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.SwitchModeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SwitchMode(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Mode switched", res))
}

func (c *assistantController) NewSession(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals(constant.LocalsUserId).(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.service.NewSession(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("New session started", res))
}

func (c *assistantController) GetState(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals(constant.LocalsUserId).(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.service.GetState(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Assistant state", res))
}

func (c *assistantController) GetSessions(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals(constant.LocalsUserId).(string)
	userId, _ := uuid.Parse(userIdStr)

	mode := store.Mode(ctx.Query("mode"))
	if mode != "" && !mode.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "unknown mode")
	}

	res, err := c.service.GetSessions(ctx.Context(), userId, mode)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Session history", res))
}

func (c *assistantController) LoadSession(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals(constant.LocalsUserId).(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.service.LoadSession(ctx.Context(), userId, ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Session loaded", res))
}

func (c *assistantController) DeleteSession(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals(constant.LocalsUserId).(string)
	userId, _ := uuid.Parse(userIdStr)

	if err := c.service.DeleteSession(ctx.Context(), userId, ctx.Params("id")); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Session deleted", nil))
}

func (c *assistantController) TrackInteraction(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals(constant.LocalsUserId).(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.TrackInteractionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.TrackInteraction(ctx.Context(), userId, &req); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Interaction recorded", nil))
}
