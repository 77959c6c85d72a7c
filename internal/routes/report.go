package routes

import (
	"github.com/labstack/echo/v4"

	"gpit-system/internal/controllers"
	"gpit-system/pkg/constants"
	"gpit-system/pkg/middleware"
)

func runReportRouter(g *echo.Group, ctrl *controllers.ReportController, authMW *middleware.AuthMiddleware) {
	reports := g.Group("/reports", authMW.RequireRoles(constants.RoleAdmin, constants.RoleTechnician))
	reports.GET("/inventory", ctrl.GetInventory)
}
