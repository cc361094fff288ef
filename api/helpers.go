package api

import (
	"errors"
	"net/http"

	"jamforge/catalog-api/middleware"
	"jamforge/catalog-api/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// loadGame fetches the game addressed by the :gameID param. It writes
// the error response itself and returns nil when the handler should
// stop
func (a *API) loadGame(c *gin.Context) *model.Game {
	requestID := c.MustGet("requestID").(string)

	gameID := c.Param("gameID")
	if gameID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No game ID provided",
			"requestID": requestID,
		})
		return nil
	}

	var game model.Game

	err := a.DB.Where("id = ?", gameID).First(&game).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "Game not found",
				"requestID": requestID,
			})
			return nil
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch game", zap.String("id", gameID), zap.Error(err))
		return nil
	}

	return &game
}

// requireTeamMember aborts unless the caller is a superadmin or belongs
// to the game's owning team. Used by the write paths, the read paths go
// through the visibility gate instead
func (a *API) requireTeamMember(c *gin.Context, game *model.Game) bool {
	requestID := c.MustGet("requestID").(string)

	viewer := middleware.Viewer(c)
	if viewer == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":     "No bearer token provided",
			"requestID": requestID,
		})
		return false
	}

	if viewer.IsSuperAdmin {
		return true
	}

	member, err := a.Members.IsMember(c.Request.Context(), game.TeamID, viewer.UserID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to check team membership", zap.Error(err))
		return false
	}

	if !member {
		// Same body as a missing game so private listings can't be probed
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "Game not found",
			"requestID": requestID,
		})
		return false
	}

	return true
}
