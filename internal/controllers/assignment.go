package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"gpit-system/internal/repositories"
	"gpit-system/internal/services"
	"gpit-system/pkg/utils"
)

type AssignmentController struct {
	assignmentService *services.AssignmentService
	logger            *zap.Logger
}

func NewAssignmentController(assignmentService *services.AssignmentService, logger *zap.Logger) *AssignmentController {
	return &AssignmentController{assignmentService: assignmentService, logger: logger}
}

// GetAssignments returns assignment history. Privileged roles may filter by
// equipment or employee; employees always get their own rows only.
func (c *AssignmentController) GetAssignments(ctx echo.Context) error {
	viewer, err := utils.GetViewerFromCtx(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	params := utils.ParseQuery(ctx.Request().URL.Query())
	filter := repositories.AssignmentFilter{
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	if v := ctx.QueryParam("equipment_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			filter.EquipmentID = id
		}
	}
	if v := ctx.QueryParam("employee_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			filter.EmployeeID = id
		}
	}
	if ctx.QueryParam("open") == "true" {
		filter.OnlyOpen = true
	}

	res, total, err := c.assignmentService.GetAssignments(ctx.Request().Context(), viewer.Role, viewer.UserID, filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "assignments listed", http.StatusOK, total)
}
