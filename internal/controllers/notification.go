package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"club-system/internal/dto"
	"club-system/internal/services"
	apperrors "club-system/pkg/errors"
	"club-system/pkg/utils"
)

type NotificationController struct {
	notificationService services.NotificationServiceInterface
	logger              *zap.Logger
}

func NewNotificationController(notificationService services.NotificationServiceInterface, logger *zap.Logger) *NotificationController {
	return &NotificationController{
		notificationService: notificationService,
		logger:              logger,
	}
}

// Ответы центра уведомлений имеют форму {success, data}: её разбирает
// realtime-клиент (pkg/rtclient), поэтому она зафиксирована отдельно от
// общего формата ответов.
func notificationResponse(ctx echo.Context, code int, data interface{}) error {
	return ctx.JSON(code, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

func (c *NotificationController) GetNotifications(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	userID, err := utils.GetUserIDFromCtx(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	filter := utils.ParseFilterFromQuery(ctx.QueryParams())
	filter.WithPagination = true

	res, err := c.notificationService.GetNotifications(reqCtx, userID, filter)
	if err != nil {
		c.logger.Error("Ошибка при получении уведомлений", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return notificationResponse(ctx, http.StatusOK, res)
}

// GetUnreadCombined — список непрочитанных и счётчик одним ответом.
func (c *NotificationController) GetUnreadCombined(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	userID, err := utils.GetUserIDFromCtx(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.notificationService.GetUnreadCombined(reqCtx, userID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return notificationResponse(ctx, http.StatusOK, res)
}

func (c *NotificationController) GetUnreadCount(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	userID, err := utils.GetUserIDFromCtx(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.notificationService.CountUnread(reqCtx, userID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return notificationResponse(ctx, http.StatusOK, res)
}

func (c *NotificationController) MarkRead(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	userID, err := utils.GetUserIDFromCtx(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	id := ctx.Param("id")
	if id == "" {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}

	count, err := c.notificationService.MarkRead(reqCtx, userID, []string{id})
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return notificationResponse(ctx, http.StatusOK, dto.UnreadCountData{Count: count})
}

func (c *NotificationController) MarkAllRead(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	userID, err := utils.GetUserIDFromCtx(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	count, err := c.notificationService.MarkAllRead(reqCtx, userID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return notificationResponse(ctx, http.StatusOK, dto.UnreadCountData{Count: count})
}

func (c *NotificationController) DeleteNotification(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	userID, err := utils.GetUserIDFromCtx(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	id := ctx.Param("id")
	if id == "" {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}

	if err := c.notificationService.DeleteNotification(reqCtx, userID, id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return notificationResponse(ctx, http.StatusOK, dto.UnreadCountData{Count: 1})
}

func (c *NotificationController) DeleteRead(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	userID, err := utils.GetUserIDFromCtx(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	count, err := c.notificationService.DeleteRead(reqCtx, userID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return notificationResponse(ctx, http.StatusOK, dto.UnreadCountData{Count: count})
}
