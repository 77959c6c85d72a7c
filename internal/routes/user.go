package routes

import (
	"github.com/labstack/echo/v4"

	"gpit-system/internal/controllers"
	"gpit-system/pkg/constants"
	"gpit-system/pkg/middleware"
)

func runUserRouter(g *echo.Group, ctrl *controllers.UserController, authMW *middleware.AuthMiddleware) {
	adminOnly := authMW.RequireRoles(constants.RoleAdmin)

	users := g.Group("/users")
	users.GET("", ctrl.GetUsers, authMW.RequireRoles(constants.RoleAdmin, constants.RoleTechnician))
	users.GET("/:id", ctrl.FindUser, adminOnly)
	users.PUT("/:id/approve", ctrl.ApproveUser, adminOnly)
	users.PUT("/:id/reject", ctrl.RejectUser, adminOnly)
	users.DELETE("/:id", ctrl.DeleteUser, adminOnly)
}
