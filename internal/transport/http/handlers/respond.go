package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SOS-Tag/sos-tag-api/internal/core/apperror"
	"github.com/SOS-Tag/sos-tag-api/internal/infra/logger"
)

// respondError writes the uniform error envelope. Expected failures carry
// their own status code; anything else is logged and collapsed into the
// generic internal envelope so no internals leak to clients.
func respondError(c *gin.Context, err error) {
	if appErr, ok := apperror.As(err); ok {
		c.JSON(appErr.Code, appErr)
		return
	}

	logger.WithContext(c.Request.Context()).Error("Unexpected handler error",
		zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.JSON(http.StatusInternalServerError, apperror.NewInternal())
}

// bindJSON decodes the request body; a malformed body degrades to the
// zero-value payload so the service layer reports the empty-field
// diagnostics instead of a transport-level parse error.
func bindJSON(c *gin.Context, target any) {
	_ = c.ShouldBindJSON(target)
}
