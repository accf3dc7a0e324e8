package response

import (
	"github.com/gin-gonic/gin"

	domainerrors "subpay-indexer.backend/internal/domain/errors"
)

// Success sends a success response.
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error sends an error response, unwrapping a domain AppError when one
// is present and defaulting to Internal Server Error otherwise.
func Error(c *gin.Context, err error) {
	var appErr *domainerrors.AppError
	if e, ok := err.(*domainerrors.AppError); ok {
		appErr = e
	} else {
		appErr = domainerrors.InternalError(err)
	}

	c.JSON(appErr.Status, gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
	})
}
