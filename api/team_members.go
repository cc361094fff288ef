package api

import (
	"errors"
	"net/http"
	"time"

	"jamforge/catalog-api/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type memberAddBody struct {
	UserID string `json:"user_id"`
}

func (a *API) TeamMemberAdd(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)
	teamID := c.Param("teamID")

	if !a.requireTeamOwner(c, teamID, userID) {
		return
	}

	var data memberAddBody
	if err := c.ShouldBind(&data); err != nil || data.UserID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No user ID provided",
			"requestID": requestID,
		})
		return
	}

	var user model.User
	if err := a.DB.Where("id = ?", data.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "User not found",
				"requestID": requestID,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch user", zap.Error(err))
		return
	}

	err := a.DB.Create(&model.TeamMember{
		TeamID:   teamID,
		UserID:   data.UserID,
		Role:     "member",
		JoinedAt: time.Now().Unix(),
	}).Error
	if err != nil {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error":     "User is already a member",
			"requestID": requestID,
		})
		return
	}

	c.Status(http.StatusCreated)
}

func (a *API) TeamMemberRemove(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)
	teamID := c.Param("teamID")
	target := c.Param("userID")

	// Members may leave on their own, removing anyone else needs the
	// owner role
	if target != userID && !a.requireTeamOwner(c, teamID, userID) {
		return
	}

	res := a.DB.
		Where("team_id = ? AND user_id = ?", teamID, target).
		Delete(&model.TeamMember{})
	if res.Error != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to remove team member", zap.Error(res.Error))
		return
	}

	if res.RowsAffected == 0 {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "Member not found",
			"requestID": requestID,
		})
		return
	}

	c.Status(http.StatusNoContent)
}

func (a *API) requireTeamOwner(c *gin.Context, teamID, userID string) bool {
	requestID := c.MustGet("requestID").(string)

	var role string
	err := a.DB.
		Model(model.TeamMember{}).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Select("role").
		First(&role).
		Error
	if err != nil || role != "owner" {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "Team not found",
			"requestID": requestID,
		})
		return false
	}

	return true
}
