package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// badRequest rejects a request with itemized field errors.
func badRequest(c *gin.Context, fields gin.H) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":  "validation failed",
		"fields": fields,
	})
}

// storeError reports a remote-store failure. Clients keep their previously
// loaded state; the body only describes the failure.
func storeError(c *gin.Context, err error) {
	c.JSON(http.StatusBadGateway, gin.H{
		"error": err.Error(),
	})
}
