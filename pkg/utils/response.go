package utils

import (
	"errors"
	"net/http"

	apperrors "gpit-system/pkg/errors"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type HttpResponse struct {
	Status  bool        `json:"status"`
	Body    interface{} `json:"body,omitempty"`
	Message string      `json:"message"`
	Total   *uint64     `json:"total_count,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

func SuccessResponse(ctx echo.Context, body interface{}, message string, code int, total ...uint64) error {
	response := &HttpResponse{
		Status:  true,
		Body:    body,
		Message: message,
	}
	if len(total) > 0 {
		response.Total = &total[0]
	}
	return ctx.JSON(code, response)
}

func ErrorResponse(ctx echo.Context, err error, logger *zap.Logger) error {
	code := apperrors.HttpStatusFor(err)
	message := err.Error()

	var details interface{}

	var httpErr *apperrors.HttpError
	if errors.As(err, &httpErr) {
		message = httpErr.Message
		if httpErr.Details != nil {
			details = httpErr.Details
		}
	}

	var validationErr *apperrors.ValidationError
	if errors.As(err, &validationErr) && validationErr.Fields != nil {
		details = validationErr.Fields
	}

	// Storage failures are opaque to clients.
	var storageErr *apperrors.StorageError
	if errors.As(err, &storageErr) {
		logger.Error("storage failure", zap.Error(err))
		code = http.StatusInternalServerError
		message = "internal server error"
	}

	return ctx.JSON(code, &HttpResponse{
		Status:  false,
		Message: message,
		Details: details,
	})
}
