package api

import (
	"net/http"
	"slices"
	"time"

	"jamforge/catalog-api/middleware"
	"jamforge/catalog-api/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var validStatuses = []string{model.StatusEditing, model.StatusPublished, model.StatusArchived}

// GamePublish flips a game to published. A listing needs a cover, a
// description and at least one build before it goes live
func (a *API) GamePublish(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	game := a.loadGame(c)
	if game == nil {
		return
	}

	if !a.requireTeamMember(c, game) {
		return
	}

	var missing []string
	if game.CoverKind == model.CoverNone {
		missing = append(missing, "cover")
	}
	if game.Description == "" {
		missing = append(missing, "description")
	}
	if game.CurrentBuildID == "" {
		missing = append(missing, "build")
	}

	if len(missing) > 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Game is not ready to publish",
			"missing":   missing,
			"requestID": requestID,
		})
		return
	}

	a.setStatus(c, game.ID, model.StatusPublished)
}

// GameArchive has no preconditions, any game can be archived
func (a *API) GameArchive(c *gin.Context) {
	game := a.loadGame(c)
	if game == nil {
		return
	}

	if !a.requireTeamMember(c, game) {
		return
	}

	a.setStatus(c, game.ID, model.StatusArchived)
}

type forceStatusBody struct {
	Status string `json:"status"`
}

// GameForceStatus sets any status without preconditions, superadmin only
func (a *API) GameForceStatus(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	viewer := middleware.Viewer(c)
	if viewer == nil || !viewer.IsSuperAdmin {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "Game not found",
			"requestID": requestID,
		})
		return
	}

	game := a.loadGame(c)
	if game == nil {
		return
	}

	var data forceStatusBody
	if err := c.ShouldBind(&data); err != nil || !slices.Contains(validStatuses, data.Status) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid status provided",
			"requestID": requestID,
		})
		return
	}

	a.setStatus(c, game.ID, data.Status)
}

func (a *API) setStatus(c *gin.Context, gameID, status string) {
	requestID := c.MustGet("requestID").(string)

	err := a.DB.
		Model(model.Game{}).
		Where("id = ?", gameID).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().Unix(),
		}).
		Error
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to update game status", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": status,
	})
}
