package controller

import (
	"paperchat-be/internal/dto"
	"paperchat-be/internal/pkg/serverutils"
	"paperchat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IModelConfigController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Get(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Faults(ctx *fiber.Ctx) error
}

type modelConfigController struct {
	service service.IModelConfigService
	monitor service.IFaultMonitorService // nil when the event bus is disabled
}

func NewModelConfigController(service service.IModelConfigService, monitor service.IFaultMonitorService) IModelConfigController {
	return &modelConfigController{service: service, monitor: monitor}
}

func (c *modelConfigController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/config/v1")
	h.Use(auth)
	h.Get("", c.Get)

	admin := serverutils.RequireAdmin()
	h.Put("", admin, c.Update)
	h.Get("/faults", admin, c.Faults)
}

func (c *modelConfigController) Get(ctx *fiber.Ctx) error {
	res, err := c.service.Get(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get model config", res))
}

func (c *modelConfigController) Update(ctx *fiber.Ctx) error {
	var req dto.UpdateModelConfigRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.BadRequest("Invalid request body", err)
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Update(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update model config", res))
}

func (c *modelConfigController) Faults(ctx *fiber.Ctx) error {
	counts := service.FaultCounts{}
	if c.monitor != nil {
		counts = c.monitor.Snapshot()
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get fault counts", counts))
}
