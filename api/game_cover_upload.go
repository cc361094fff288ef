package api

import (
	"net/http"
	"path"
	"strings"
	"time"

	"jamforge/catalog-api/model"
	"jamforge/catalog-api/validators"

	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

// GameCoverUpload stores a cover image in the bucket and marks the
// game's cover as a key reference
func (a *API) GameCoverUpload(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	game := a.loadGame(c)
	if game == nil {
		return
	}

	if !a.requireTeamMember(c, game) {
		return
	}

	if !strings.HasPrefix(c.Request.Header.Get("Content-Type"), "multipart/form-data") {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request",
			"requestID": requestID,
		})
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "No file provided",
			"requestID": requestID,
		})
		return
	}

	code, f, contentType, err := validators.CoverValidator(fh)
	if err != nil {
		if code == http.StatusInternalServerError {
			zap.L().Error("Failed to validate cover", zap.Error(err))
			err = validators.ErrFileTypeUnsupported
		}

		c.AbortWithStatusJSON(code, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}
	defer f.Close()

	suffix, err := gonanoid.Generate(idCharset, 10)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to generate cover key", zap.Error(err))
		return
	}

	key := "covers/" + game.ID + "/" + suffix + path.Ext(fh.Filename)

	err = a.Store.Put(c.Request.Context(), key, f, fh.Size, contentType)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{
			"error":     "Object storage unavailable",
			"requestID": requestID,
		})

		zap.L().Error("Failed to upload cover", zap.Error(err))
		return
	}

	err = a.DB.
		Model(model.Game{}).
		Where("id = ?", game.ID).
		Updates(map[string]any{
			"cover_kind": model.CoverKey,
			"cover_ref":  key,
			"updated_at": time.Now().Unix(),
		}).
		Error
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to save cover reference", zap.Error(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"coverKey": key,
	})
}
