package api

import (
	"net/http"
	"time"

	"jamforge/catalog-api/middleware"
	"jamforge/catalog-api/model"
	"jamforge/catalog-api/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type commentBody struct {
	Body string `json:"body"`
}

func (a *API) CommentCreate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	game := a.loadGame(c)
	if game == nil {
		return
	}

	// Commenting requires being able to see the game in the first place
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

	var data commentBody
	if err := c.ShouldBind(&data); err != nil || data.Body == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Comment body can't be empty",
			"requestID": requestID,
		})
		return
	}

	comment := model.Comment{
		GameID:    game.ID,
		UserID:    userID,
		Body:      data.Body,
		CreatedAt: time.Now().Unix(),
	}

	if err := a.DB.Create(&comment).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to save comment", zap.Error(err))
		return
	}

	c.JSON(http.StatusCreated, comment)
}
