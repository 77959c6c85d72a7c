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

type AuthController struct {
	authService *services.AuthService
	userService *services.UserService
	logger      *zap.Logger
}

func NewAuthController(authService *services.AuthService, userService *services.UserService, logger *zap.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		userService: userService,
		logger:      logger,
	}
}

// Register creates a pending account; it cannot sign in until approved.
func (c *AuthController) Register(ctx echo.Context) error {
	var d dto.RegisterUserDTO
	if err := ctx.Bind(&d); err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "malformed request body", err, nil),
			c.logger)
	}
	if err := ctx.Validate(&d); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.userService.Register(ctx.Request().Context(), d)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "account created, awaiting approval", http.StatusCreated)
}

func (c *AuthController) Login(ctx echo.Context) error {
	var d dto.LoginDTO
	if err := ctx.Bind(&d); err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "malformed request body", err, nil),
			c.logger)
	}
	if err := ctx.Validate(&d); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	pair, err := c.authService.Login(ctx.Request().Context(), d)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, pair, "signed in", http.StatusOK)
}

func (c *AuthController) Refresh(ctx echo.Context) error {
	var d dto.RefreshDTO
	if err := ctx.Bind(&d); err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "malformed request body", err, nil),
			c.logger)
	}
	if err := ctx.Validate(&d); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	pair, err := c.authService.Refresh(ctx.Request().Context(), d)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, pair, "token pair rotated", http.StatusOK)
}

func (c *AuthController) Logout(ctx echo.Context) error {
	var d dto.RefreshDTO
	if err := ctx.Bind(&d); err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "malformed request body", err, nil),
			c.logger)
	}
	if err := ctx.Validate(&d); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.authService.Logout(ctx.Request().Context(), d.RefreshToken); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, nil, "signed out", http.StatusOK)
}
