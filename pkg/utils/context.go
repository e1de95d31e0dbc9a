package utils

import (
	"context"

	"club-system/pkg/contextkeys"
	apperrors "club-system/pkg/errors"
)

// GetUserIDFromCtx достаёт ID пользователя, положенный auth-middleware.
func GetUserIDFromCtx(ctx context.Context) (uint64, error) {
	id, ok := ctx.Value(contextkeys.UserIDKey).(uint64)
	if !ok || id == 0 {
		return 0, apperrors.ErrUserIDNotFoundInContext
	}
	return id, nil
}
