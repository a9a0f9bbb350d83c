package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Deny writes the authorization denial response and aborts the chain.
func Deny(c *gin.Context, reason string) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": reason})
}
