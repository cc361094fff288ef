package api

import (
	"net/http"
	"strings"
	"time"

	"jamforge/catalog-api/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type gameUpdateBody struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Tags        []string `json:"tags"`

	// Exactly one of these may be set. Which field the client used
	// decides the cover kind once, nothing downstream sniffs prefixes
	CoverURL *string `json:"cover_url"`
}

func (a *API) GameUpdate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	game := a.loadGame(c)
	if game == nil {
		return
	}

	if !a.requireTeamMember(c, game) {
		return
	}

	var data gameUpdateBody
	if err := c.ShouldBind(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	updates := map[string]any{
		"updated_at": time.Now().Unix(),
	}

	if data.Title != nil {
		if *data.Title == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "Title can't be empty",
				"requestID": requestID,
			})
			return
		}
		updates["title"] = *data.Title
	}

	if data.Description != nil {
		updates["description"] = *data.Description
	}

	if data.Tags != nil {
		updates["tags"] = model.StringSlice(data.Tags)
	}

	if data.CoverURL != nil {
		if !strings.HasPrefix(*data.CoverURL, "http://") && !strings.HasPrefix(*data.CoverURL, "https://") {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "Cover URL must be absolute",
				"requestID": requestID,
			})
			return
		}

		updates["cover_kind"] = model.CoverExternal
		updates["cover_ref"] = *data.CoverURL
	}

	err := a.DB.
		Model(model.Game{}).
		Where("id = ?", game.ID).
		Updates(updates).
		Error
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to update game", zap.Error(err))
		return
	}

	c.Status(http.StatusNoContent)
}
