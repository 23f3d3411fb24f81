package controller

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"outreach/models"
	"outreach/sequencer"
	"outreach/store"
	"outreach/utils"
)

type BatchRunner interface {
	Run(ctx context.Context, limit int) (sequencer.Result, error)
}

type ProspectReader interface {
	Get(ctx context.Context, id uint) (*models.Prospect, error)
}

type EventLister interface {
	ListForProspect(ctx context.Context, prospectID uint, limit int) ([]models.OutreachEvent, error)
}

type OutreachController struct {
	Runner       BatchRunner
	Lock         store.RunLock
	Prospects    ProspectReader
	Events       EventLister
	Logger       logrus.FieldLogger
	DefaultLimit int
}

func NewOutreachController(runner BatchRunner, lock store.RunLock, prospects ProspectReader, events EventLister, logger logrus.FieldLogger, defaultLimit int) *OutreachController {
	return &OutreachController{
		Runner:       runner,
		Lock:         lock,
		Prospects:    prospects,
		Events:       events,
		Logger:       logger,
		DefaultLimit: defaultLimit,
	}
}

type runRequest struct {
	Limit int `query:"limit" validate:"min=0,max=1000"`
}

// RunOutreach triggers one batch and reports how many prospects were attempted
func (oc *OutreachController) RunOutreach(c *fiber.Ctx) error {
	var req runRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", err)
	}
	limit := req.Limit
	if limit == 0 {
		limit = oc.DefaultLimit
	}

	unlock, acquired, err := oc.Lock.TryLock(c.UserContext())
	if err != nil {
		oc.Logger.WithError(err).Error("Failed to acquire run lock")
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "Run lock unavailable", err)
	}
	if !acquired {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "An outreach run is already in progress",
		})
	}
	defer unlock()

	operator, _ := c.Locals("operator").(string)
	utils.LogEvent("outreach_run_triggered", map[string]interface{}{
		"operator": operator,
		"limit":    limit,
	})

	res, err := oc.Runner.Run(c.UserContext(), limit)
	if err != nil {
		if errors.Is(err, sequencer.ErrCatalogLoad) {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load sequence catalog", err)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Outreach run failed", err)
	}

	return c.JSON(res)
}

// GetProspectEvents returns the audit trail of one prospect
func (oc *OutreachController) GetProspectEvents(c *fiber.Ctx) error {
	id := utils.ParseUint(c.Params("id"))
	if id == 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid prospect id", nil)
	}

	prospect, err := oc.Prospects.Get(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, store.ErrProspectNotFound) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Prospect not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load prospect", err)
	}

	events, err := oc.Events.ListForProspect(c.UserContext(), id, c.QueryInt("limit", 50))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load events", err)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"prospect": prospect,
		"events":   events,
	}))
}
