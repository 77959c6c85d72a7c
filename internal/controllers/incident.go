package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"gpit-system/internal/dto"
	"gpit-system/internal/services"
	apperrors "gpit-system/pkg/errors"
	"gpit-system/pkg/utils"
)

type IncidentController struct {
	incidentService *services.IncidentService
	logger          *zap.Logger
}

func NewIncidentController(incidentService *services.IncidentService, logger *zap.Logger) *IncidentController {
	return &IncidentController{incidentService: incidentService, logger: logger}
}

func (c *IncidentController) GetIncidents(ctx echo.Context) error {
	viewer, err := utils.GetViewerFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	params := utils.ParseQuery(ctx.Request().URL.Query())

	res, total, err := c.incidentService.GetIncidents(ctx.Request().Context(), viewer, params)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "incidents listed", http.StatusOK, total)
}

func (c *IncidentController) FindIncident(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	viewer, err := utils.GetViewerFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.incidentService.FindIncident(ctx.Request().Context(), viewer, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "incident found", http.StatusOK)
}

func (c *IncidentController) CreateIncident(ctx echo.Context) error {
	var d dto.CreateIncidentDTO
	if err := ctx.Bind(&d); err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "malformed request body", err, nil),
			c.logger)
	}
	if err := ctx.Validate(&d); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	reporterID, err := utils.GetUserIDFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.incidentService.CreateIncident(ctx.Request().Context(), reporterID, d)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "incident created", http.StatusCreated)
}

func (c *IncidentController) UpdateIncident(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var d dto.UpdateIncidentDTO
	if err := ctx.Bind(&d); err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "malformed request body", err, nil),
			c.logger)
	}
	if err := ctx.Validate(&d); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.incidentService.UpdateIncident(ctx.Request().Context(), id, d)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "incident updated", http.StatusOK)
}
