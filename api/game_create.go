package api

import (
	"net/http"
	"time"

	"jamforge/catalog-api/model"

	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

type gameCreateBody struct {
	TeamID      string   `json:"team_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

func (a *API) GameCreate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data gameCreateBody
	if err := c.ShouldBind(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	if data.TeamID == "" || data.Title == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Team ID and title fields can't be empty",
			"requestID": requestID,
		})
		return
	}

	member, err := a.Members.IsMember(c.Request.Context(), data.TeamID, userID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to check team membership", zap.Error(err))
		return
	}

	if !member {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "Team not found",
			"requestID": requestID,
		})
		return
	}

	gameID, err := gonanoid.Generate(idCharset, 16)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to generate game ID", zap.Error(err))
		return
	}

	now := time.Now().Unix()
	game := model.Game{
		ID:          gameID,
		TeamID:      data.TeamID,
		Title:       data.Title,
		Description: data.Description,
		Tags:        data.Tags,
		Status:      model.StatusEditing,
		CoverKind:   model.CoverNone,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := a.DB.Create(&game).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to save game to db", zap.Error(err))
		return
	}

	c.JSON(http.StatusCreated, game)
}
