package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"gpit-system/internal/controllers"
	"gpit-system/internal/repositories"
	"gpit-system/internal/services"
	"gpit-system/pkg/config"
	"gpit-system/pkg/middleware"
	"gpit-system/pkg/service"
)

// InitRouter wires repositories, services and controllers and mounts every
// route group under /api.
func InitRouter(e *echo.Echo, dbConn *pgxpool.Pool, redisClient *redis.Client, jwtSvc service.JWTService, logger *zap.Logger, cfg *config.Config) {
	api := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(jwtSvc, logger)
	txManager := repositories.NewTxManager(dbConn)

	userRepo := repositories.NewUserRepository(dbConn, logger)
	equipmentRepo := repositories.NewEquipmentRepository(dbConn, logger)
	assignmentRepo := repositories.NewAssignmentRepository(dbConn, logger)
	incidentRepo := repositories.NewIncidentRepository(dbConn, logger)
	reportRepo := repositories.NewReportRepository(dbConn)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)

	guard := services.NewDeletionGuardService(txManager, userRepo, equipmentRepo, assignmentRepo, incidentRepo, logger)
	userService := services.NewUserService(userRepo, guard, logger)
	authService := services.NewAuthService(userRepo, cacheRepo, jwtSvc, cfg.Auth, logger)
	assignmentService := services.NewAssignmentService(txManager, equipmentRepo, assignmentRepo, userRepo, logger)
	equipmentService := services.NewEquipmentService(txManager, equipmentRepo, assignmentRepo, guard, logger)
	incidentService := services.NewIncidentService(txManager, incidentRepo, equipmentRepo, userRepo, logger)
	reportService := services.NewReportService(reportRepo, logger)

	authController := controllers.NewAuthController(authService, userService, logger)
	userController := controllers.NewUserController(userService, logger)
	equipmentController := controllers.NewEquipmentController(equipmentService, assignmentService, logger)
	assignmentController := controllers.NewAssignmentController(assignmentService, logger)
	incidentController := controllers.NewIncidentController(incidentService, logger)
	reportController := controllers.NewReportController(reportService, logger)

	secure := api.Group("", authMW.Auth)

	runAuthRouter(api, authController)
	runUserRouter(secure, userController, authMW)
	runEquipmentRouter(secure, equipmentController, authMW)
	runAssignmentRouter(secure, assignmentController)
	runIncidentRouter(secure, incidentController, authMW)
	runReportRouter(secure, reportController, authMW)

	logger.Info("routes mounted")
}
