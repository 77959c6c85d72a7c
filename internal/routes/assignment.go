package routes

import (
	"github.com/labstack/echo/v4"

	"gpit-system/internal/controllers"
)

func runAssignmentRouter(g *echo.Group, ctrl *controllers.AssignmentController) {
	// History is viewer-scoped inside the service, so no role gate here.
	g.GET("/assignments", ctrl.GetAssignments)
}
