package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"jamforge/catalog-api/service"
	"jamforge/catalog-api/storage"
	"jamforge/catalog-api/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BuildUpload ingests a zip archive containing the game's playable
// build. The archive must fit the configured ceiling and carry an
// index.html at its root, both checked before anything hits storage
func (a *API) BuildUpload(c *gin.Context) {
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

	code, f, err := validators.ArchiveValidator(fh)
	if err != nil {
		if code == http.StatusInternalServerError {
			zap.L().Error("Failed to validate archive", zap.Error(err))
			err = errors.New("internal server error")
		}

		c.AbortWithStatusJSON(code, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}
	defer f.Close()

	archive, err := io.ReadAll(f)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to read archive", zap.Error(err))
		return
	}

	build, err := a.Ingest.Ingest(c.Request.Context(), game, archive)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBuildTooLarge):
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":     "Build archive exceeds the size limit",
				"requestID": requestID,
			})

		case errors.Is(err, service.ErrInvalidArchive):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "Payload is not a valid zip archive",
				"requestID": requestID,
			})

		case errors.Is(err, service.ErrMissingEntryPoint):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     "Archive has no index.html at its root",
				"requestID": requestID,
			})

		case errors.Is(err, storage.ErrUnavailable):
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{
				"error":     "Object storage unavailable",
				"requestID": requestID,
			})

			zap.L().Error("Storage failure during ingestion", zap.Error(err))

		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Build ingestion failed", zap.Error(err))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"buildId":  build.ID,
		"buildUrl": build.CanonicalURL,
	})
}
