package routes

import (
	"github.com/labstack/echo/v4"

	"gpit-system/internal/controllers"
)

func runAuthRouter(g *echo.Group, ctrl *controllers.AuthController) {
	auth := g.Group("/auth")
	auth.POST("/register", ctrl.Register)
	auth.POST("/login", ctrl.Login)
	auth.POST("/refresh", ctrl.Refresh)
	auth.POST("/logout", ctrl.Logout)
}
