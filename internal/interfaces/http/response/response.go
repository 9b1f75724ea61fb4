package response

import (
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	domainerrors "gradvillage.backend/internal/domain/errors"
)

var exposeStack atomic.Bool

func init() {
	exposeStack.Store(true)
}

// SetProduction hides the underlying cause of internal errors.
func SetProduction(production bool) {
	exposeStack.Store(!production)
}

// Success sends {success: true, data}
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// Payload sends {success: true, ...fields} for endpoints with a flat envelope
func Payload(c *gin.Context, status int, fields gin.H) {
	body := gin.H{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(status, body)
}

// Error sends an error response
func Error(c *gin.Context, err error) {
	appErr, ok := domainerrors.As(err)
	if !ok {
		// unexpected errors keep their own message
		appErr = domainerrors.NewAppError(http.StatusInternalServerError, domainerrors.CodeInternalError, err.Error(), err)
	}

	body := gin.H{
		"success": false,
		"code":    appErr.Code,
		"message": appErr.Message,
		"error":   appErr.Message,
	}
	for k, v := range appErr.Details {
		if _, reserved := body[k]; !reserved {
			body[k] = v
		}
	}
	if appErr.Status >= http.StatusInternalServerError && exposeStack.Load() {
		if appErr.Err != nil {
			body["cause"] = appErr.Err.Error()
		}
	}

	c.JSON(appErr.Status, body)
}

// ErrorWithError sends an error response with a specific status and code
func ErrorWithError(c *gin.Context, status int, code string, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"code":    code,
		"message": message,
	})
}
