package api

import (
	"net/http"

	"jamforge/catalog-api/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TeamFetchMine lists every team the caller belongs to
func (a *API) TeamFetchMine(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var teams []model.Team

	err := a.DB.
		Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("team_members.user_id = ?", userID).
		Preload("Members").
		Find(&teams).
		Error
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch teams", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, teams)
}
