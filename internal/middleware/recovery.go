package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	apierrors "github.com/taskflow-ai/taskflow-api/internal/errors"
)

// Recovery turns a panic in a handler into a JSON 500.
func Recovery(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				log.Error("panic recovered",
					"request_id", GetRequestID(c),
					"error", fmt.Sprintf("%v", recovered),
					"stack", string(debug.Stack()),
				)
				apierrors.RespondWithError(c, http.StatusInternalServerError, apierrors.NewAPIError(apierrors.ErrCodeInternalError, "Unexpected server error"))
			}
		}()
		c.Next()
	}
}
