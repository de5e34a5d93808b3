package utils

import (
	"time"

	"github.com/gin-gonic/gin"

	"voxgate/internal/correlation"
	"voxgate/internal/model"
)

func Success(c *gin.Context, data any) {
	c.JSON(200, data)
}

// Error writes the failure body. The correlation id is taken from the request.
func Error(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, model.ErrorResponse{
		Success:       false,
		Code:          code,
		Error:         msg,
		CorrelationID: correlation.FromGin(c),
		Timestamp:     time.Now().UTC(),
	})
}
