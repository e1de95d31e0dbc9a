package routes

import (
	"github.com/labstack/echo/v4"

	"club-system/internal/controllers"
)

func runClubRouter(
	secureGroup *echo.Group,
	clubCtrl *controllers.ClubController,
	memberCtrl *controllers.MemberController,
	reportCtrl *controllers.ReportController,
) {
	secureGroup.GET("/clubs", clubCtrl.GetMyClubs)
	secureGroup.POST("/clubs", clubCtrl.CreateClub)
	secureGroup.GET("/clubs/:id", clubCtrl.FindClub)
	secureGroup.PUT("/clubs/:id", clubCtrl.UpdateClub)
	secureGroup.DELETE("/clubs/:id", clubCtrl.DeleteClub)
	secureGroup.GET("/clubs/:id/online-users", clubCtrl.GetOnlineUsers)

	secureGroup.GET("/clubs/:id/members", memberCtrl.ListMembers)
	secureGroup.POST("/clubs/:id/members", memberCtrl.AddMember)
	secureGroup.DELETE("/clubs/:id/members/:userId", memberCtrl.RemoveMember)
	secureGroup.PATCH("/clubs/:id/members/:userId/role", memberCtrl.ChangeRole)

	secureGroup.GET("/clubs/:id/report", reportCtrl.GetClubActivityXLSX)
}
