package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "ekyc.backend/internal/domain/errors"
)

// Success sends the standard success envelope
func Success(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// Error sends the standard error envelope. Unknown errors become a 500
// without leaking their cause to the client.
func Error(c *gin.Context, err error) {
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		appErr = apperrors.InternalError(err)
	}

	c.JSON(appErr.Code, gin.H{
		"success": false,
		"message": appErr.Message,
	})
}

// BadRequest sends a 400 with the binding error message
func BadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": err.Error(),
	})
}
