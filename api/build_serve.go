package api

import (
	"errors"
	"net/http"
	"strings"

	"jamforge/catalog-api/middleware"
	"jamforge/catalog-api/service"
	"jamforge/catalog-api/storage"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// BuildServe proxies one file of a game's current build. The bytes are
// fetched through a signed URL and, for the root document, relative
// references are rewritten so the iframe keeps talking to this proxy.
// Every denial is a 404, a private game must be indistinguishable from
// a missing one
func (a *API) BuildServe(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	game := a.loadGame(c)
	if game == nil {
		return
	}

	filePath := strings.TrimLeft(c.Param("filePath"), "/")
	if filePath == "" {
		filePath = "index.html"
	}

	scheme := c.GetHeader("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
	}

	req := &service.AssetRequest{
		Game:     game,
		FilePath: filePath,
		Viewer:   middleware.Viewer(c),
		Scheme:   scheme,
		Host:     c.Request.Host,
		Token:    c.GetString("queryToken"),
		SignEndpoint: service.PublicEndpoint(
			viper.GetString("storage.public_endpoint"),
			c.GetHeader("Origin"),
			c.Request.Host,
		),
	}

	asset, err := a.Proxy.Serve(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotAvailable),
			errors.Is(err, service.ErrNoBuild),
			errors.Is(err, service.ErrAssetNotFound):
			// Same body as a missing game, a private build must not be
			// probeable through this route either
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "Game not found",
				"requestID": requestID,
			})

		case errors.Is(err, storage.ErrSigningFailed):
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Signing failed while serving build asset",
				zap.String("gameID", game.ID), zap.Error(err))

		default:
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{
				"error":     "Object storage unavailable",
				"requestID": requestID,
			})

			zap.L().Error("Failed to serve build asset",
				zap.String("gameID", game.ID), zap.Error(err))
		}
		return
	}

	c.Header("Cache-Control", asset.CacheControl)
	c.Data(http.StatusOK, asset.ContentType, asset.Body)
}
