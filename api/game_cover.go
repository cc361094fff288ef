package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"jamforge/catalog-api/middleware"
	"jamforge/catalog-api/model"
	"jamforge/catalog-api/service"
	"jamforge/catalog-api/storage"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// GameCover resolves the game's cover reference. External URLs come
// back verbatim, stored keys get a signed URL. Callers may override the
// expiry with ?expiresIn= (seconds) and the signing host with
// ?customPublicUrl= when the URL is handed to a browser on another
// origin
func (a *API) GameCover(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	game := a.loadGame(c)
	if game == nil {
		return
	}

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

	switch game.CoverKind {
	case model.CoverExternal:
		c.JSON(http.StatusOK, gin.H{"url": game.CoverRef})
		return

	case model.CoverKey:
		// Keep going below

	default:
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "Game has no cover",
			"requestID": requestID,
		})
		return
	}

	expires := storage.DefaultExpiry
	if v := c.Query("expiresIn"); v != "" {
		sec, err := strconv.Atoi(v)
		if err != nil || sec <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "Invalid expiresIn value",
				"requestID": requestID,
			})
			return
		}
		expires = time.Duration(sec) * time.Second
	}

	endpoint := c.Query("customPublicUrl")
	if endpoint == "" {
		endpoint = service.PublicEndpoint(
			viper.GetString("storage.public_endpoint"),
			c.GetHeader("Origin"),
			c.Request.Host,
		)
	}

	url, err := a.Store.Sign(c.Request.Context(), game.CoverRef, expires, endpoint)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to sign cover URL",
			"requestID": requestID,
		})

		if errors.Is(err, storage.ErrSigningFailed) {
			zap.L().Error("Cover signing failed", zap.String("gameID", game.ID), zap.Error(err))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
