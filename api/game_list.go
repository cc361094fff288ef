package api

import (
	"net/http"

	"jamforge/catalog-api/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GameList returns published games only, newest first. An optional
// ?tag= parameter narrows the listing down to one tag
func (a *API) GameList(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	q := a.DB.
		Model(model.Game{}).
		Where("status = ?", model.StatusPublished).
		Order("created_at DESC")

	// Tags are stored comma separated, see model.StringSlice
	if tag := c.Query("tag"); tag != "" {
		q = q.Where(
			"tags = ? OR tags LIKE ? OR tags LIKE ? OR tags LIKE ?",
			tag, tag+",%", "%,"+tag, "%,"+tag+",%",
		)
	}

	var games []model.Game
	if err := q.Find(&games).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list games", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, games)
}
