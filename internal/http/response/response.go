package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/questlog-backend/internal/platform/apierr"
)

type ErrorEnvelope struct {
	Error string `json:"error"`
}

// RespondError writes {"error": msg} with the status carried by err.
func RespondError(c *gin.Context, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(apierr.StatusOf(err), ErrorEnvelope{Error: msg})
}

// AbortWithError is RespondError for middleware.
func AbortWithError(c *gin.Context, err error) {
	RespondError(c, err)
	c.Abort()
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
