package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Heartbeat answers liveness probes, nothing to report beyond the 200
func (a *API) Heartbeat(c *gin.Context) {
	c.Status(http.StatusOK)
}
