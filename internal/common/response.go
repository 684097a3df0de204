package common

import "github.com/gin-gonic/gin"

// OK writes the payload as-is. The chat endpoints are consumed by clients of
// the original service, so bodies stay flat (no envelope).
func OK(c *gin.Context, data any) {
	c.JSON(200, data)
}

// Fail reports an error with a human-readable detail string.
func Fail(c *gin.Context, httpStatus int, detail string) {
	c.JSON(httpStatus, gin.H{"detail": detail})
}
