package routes

import (
	"github.com/labstack/echo/v4"

	"gpit-system/internal/controllers"
	"gpit-system/pkg/constants"
	"gpit-system/pkg/middleware"
)

func runIncidentRouter(g *echo.Group, ctrl *controllers.IncidentController, authMW *middleware.AuthMiddleware) {
	incidents := g.Group("/incidents")
	incidents.GET("", ctrl.GetIncidents)
	incidents.GET("/:id", ctrl.FindIncident)
	incidents.POST("", ctrl.CreateIncident)
	incidents.PUT("/:id", ctrl.UpdateIncident, authMW.RequireRoles(constants.RoleAdmin, constants.RoleTechnician))
}
