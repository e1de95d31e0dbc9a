package routes

import (
	"github.com/labstack/echo/v4"

	"club-system/internal/controllers"
)

func runRoundRouter(
	secureGroup *echo.Group,
	roundCtrl *controllers.RoundController,
	recCtrl *controllers.RecommendationController,
	voteCtrl *controllers.VoteController,
	completionCtrl *controllers.CompletionController,
) {
	secureGroup.GET("/clubs/:id/rounds", roundCtrl.ListRounds)
	secureGroup.GET("/clubs/:id/rounds/active", roundCtrl.GetActiveRound)
	secureGroup.POST("/clubs/:id/rounds", roundCtrl.StartRound)
	secureGroup.PATCH("/rounds/:id/status", roundCtrl.ChangeStatus)

	secureGroup.GET("/rounds/:id/recommendations", recCtrl.ListByRound)
	secureGroup.POST("/rounds/:id/recommendations", recCtrl.CreateRecommendation)
	secureGroup.DELETE("/recommendations/:id", recCtrl.DeleteRecommendation)

	secureGroup.GET("/rounds/:id/votes", voteCtrl.ListByRound)
	secureGroup.POST("/rounds/:id/votes", voteCtrl.CastVote)

	secureGroup.GET("/rounds/:id/completions", completionCtrl.ListByRound)
	secureGroup.PUT("/rounds/:id/completions", completionCtrl.UpsertCompletion)
	secureGroup.DELETE("/rounds/:id/completions", completionCtrl.DeleteCompletion)
}
