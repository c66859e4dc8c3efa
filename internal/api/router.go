package api

import (
	"github.com/gin-gonic/gin"

	"github.com/ericogr/duel-arena/internal/constants"
)

// NewRouter mounts every HTTP route.
func NewRouter(h *GameHandler, secret []byte) *gin.Engine {
	router := gin.Default()
	router.GET(constants.RouteHealth, Health)

	apiRoutes := router.Group(constants.RouteAPIPrefix)
	{
		// Public endpoints
		apiRoutes.GET(constants.RouteVersion, Version)
		apiRoutes.GET(constants.RouteBots, h.ListBots)
		apiRoutes.GET(constants.RouteGames, h.ListGames)
		apiRoutes.GET(constants.RouteLeaderboard, h.ListLeaderboard)

		// Authenticated endpoints
		protected := apiRoutes.Group("")
		protected.Use(AuthRequired(secret))
		protected.GET(constants.RouteLobby, h.GetLobby)
		protected.GET(constants.RouteProfile, h.GetProfile)
		protected.GET(constants.RouteOutcomes, h.ListOutcomes)
		protected.GET(constants.RouteWebSocket, h.ServeWS)
	}
	return router
}
