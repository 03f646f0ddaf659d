package middleware

import (
	"github.com/BerniceZTT/consultsim/utils"

	"github.com/gin-gonic/gin"
)

// ErrorHandler writes the last error attached with c.Error when no handler
// has responded yet.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}
		utils.HandleError(c, c.Errors.Last().Err)
	}
}
