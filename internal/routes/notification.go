package routes

import (
	"github.com/labstack/echo/v4"

	"club-system/internal/controllers"
)

func runNotificationRouter(secureGroup *echo.Group, notificationCtrl *controllers.NotificationController) {
	secureGroup.GET("/notifications", notificationCtrl.GetNotifications)
	secureGroup.GET("/notifications/unread/combined", notificationCtrl.GetUnreadCombined)
	secureGroup.GET("/notifications/unread/count", notificationCtrl.GetUnreadCount)
	secureGroup.PUT("/notifications/:id/read", notificationCtrl.MarkRead)
	secureGroup.PUT("/notifications/read-all", notificationCtrl.MarkAllRead)
	secureGroup.DELETE("/notifications/delete-read", notificationCtrl.DeleteRead)
	secureGroup.DELETE("/notifications/:id", notificationCtrl.DeleteNotification)
}
