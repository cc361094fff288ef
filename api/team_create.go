package api

import (
	"net/http"
	"time"

	"jamforge/catalog-api/model"

	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type teamCreateBody struct {
	Name string `json:"name"`
}

func (a *API) TeamCreate(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data teamCreateBody
	if err := c.ShouldBind(&data); err != nil || data.Name == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Team name can't be empty",
			"requestID": requestID,
		})
		return
	}

	teamID, err := gonanoid.Generate(idCharset, 16)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to generate team ID", zap.Error(err))
		return
	}

	now := time.Now().Unix()

	// The creator always ends up on the roster as owner
	err = a.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model.Team{
			ID:        teamID,
			Name:      data.Name,
			CreatedAt: now,
		}).Error; err != nil {
			return err
		}

		return tx.Create(&model.TeamMember{
			TeamID:   teamID,
			UserID:   userID,
			Role:     "owner",
			JoinedAt: now,
		}).Error
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create team", zap.Error(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"teamID": teamID,
	})
}
