package routes

import (
	"github.com/labstack/echo/v4"

	"gpit-system/internal/controllers"
	"gpit-system/pkg/constants"
	"gpit-system/pkg/middleware"
)

func runEquipmentRouter(g *echo.Group, ctrl *controllers.EquipmentController, authMW *middleware.AuthMiddleware) {
	manage := authMW.RequireRoles(constants.RoleAdmin, constants.RoleTechnician)

	equipments := g.Group("/equipments")

	// Every authenticated user browses the catalog; the projection scopes
	// the holder columns per viewer.
	equipments.GET("", ctrl.GetEquipments)
	equipments.GET("/:id", ctrl.FindEquipment)

	equipments.POST("", ctrl.CreateEquipment, manage)
	equipments.PUT("/:id", ctrl.UpdateEquipment, manage)
	equipments.PUT("/:id/status", ctrl.SetStatus, manage)
	equipments.DELETE("/:id/status", ctrl.ClearStatus, manage)
	equipments.POST("/:id/assign", ctrl.Assign, manage)
	equipments.POST("/:id/unassign", ctrl.Unassign, manage)
	equipments.DELETE("/:id", ctrl.DeleteEquipment, authMW.RequireRoles(constants.RoleAdmin))
}
