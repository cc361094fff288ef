package api

import (
	"errors"
	"net/http"
	"time"

	"jamforge/catalog-api/model"

	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const idCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

type registerBody struct {
	Email    string `json:"email"`
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (a *API) UserRegister(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	var data registerBody
	if err := c.ShouldBind(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	if data.Email == "" || data.Login == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Email and login fields can't be empty",
			"requestID": requestID,
		})
		return
	}

	if len(data.Password) < 8 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Password must be at least 8 characters long",
			"requestID": requestID,
		})
		return
	}

	var exists bool
	err := a.DB.
		Model(model.User{}).
		Where("email = ? OR login = ?", data.Email, data.Login).
		Select("count(*) > 0").
		Find(&exists).
		Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to check if user exists", zap.Error(err))
		return
	}

	if exists {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error":     "Email or login already taken",
			"requestID": requestID,
		})
		return
	}

	hash, err := a.Argon.GenerateFromPassword(data.Password)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to hash password", zap.Error(err))
		return
	}

	userID, err := gonanoid.Generate(idCharset, 16)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to generate user ID", zap.Error(err))
		return
	}

	user := model.User{
		ID:           userID,
		Email:        data.Email,
		Login:        data.Login,
		PasswordHash: hash,
		CreatedAt:    time.Now().Unix(),
	}

	if err := a.DB.Create(&user).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to save user to db", zap.Error(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"userID": user.ID,
	})
}
