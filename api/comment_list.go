package api

import (
	"net/http"

	"jamforge/catalog-api/middleware"
	"jamforge/catalog-api/model"
	"jamforge/catalog-api/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CommentList returns a game's comments, gated exactly like the game
// itself
func (a *API) CommentList(c *gin.Context) {
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

	var comments []model.Comment

	err = a.DB.
		Where("game_id = ?", game.ID).
		Order("created_at ASC").
		Find(&comments).
		Error
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch comments", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, comments)
}
