package utils

import (
	"context"

	"gpit-system/pkg/contextkeys"
	apperrors "gpit-system/pkg/errors"
)

// Viewer is the explicit caller identity threaded through every core
// operation. It is never read from ambient state.
type Viewer struct {
	UserID uint64
	Role   string
}

func GetUserIDFromCtx(ctx context.Context) (uint64, error) {
	userID, ok := ctx.Value(contextkeys.UserIDKey).(uint64)
	if !ok {
		return 0, apperrors.ErrUserIDNotFoundInContext
	}
	return userID, nil
}

func GetUserRoleFromCtx(ctx context.Context) (string, error) {
	role, ok := ctx.Value(contextkeys.UserRoleKey).(string)
	if !ok {
		return "", apperrors.ErrUserIDNotFoundInContext
	}
	return role, nil
}

func GetViewerFromCtx(ctx context.Context) (Viewer, error) {
	userID, err := GetUserIDFromCtx(ctx)
	if err != nil {
		return Viewer{}, err
	}
	role, err := GetUserRoleFromCtx(ctx)
	if err != nil {
		return Viewer{}, err
	}
	return Viewer{UserID: userID, Role: role}, nil
}
