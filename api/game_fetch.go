package api

import (
	"net/http"

	"jamforge/catalog-api/middleware"
	"jamforge/catalog-api/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GameFetch returns one game. Published games are visible to everyone,
// private ones only to their team and superadmins. The denial is a 404
// on purpose, a 403 would confirm the game exists
func (a *API) GameFetch(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	game := a.loadGame(c)
	if game == nil {
		return
	}

	ok, err := service.CanRead(c.Request.Context(), game, middleware.Viewer(c), a.Members)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to check visibility", zap.Error(err))
		return
	}

	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "Game not found",
			"requestID": requestID,
		})
		return
	}

	c.JSON(http.StatusOK, game)
}
