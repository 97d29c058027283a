package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SOS-Tag/sos-tag-api/internal/usecase"
)

// PasswordHandler exposes the forgot/change-password endpoints.
type PasswordHandler struct {
	reset *usecase.PasswordResetService
}

// NewPasswordHandler constructs PasswordHandler.
func NewPasswordHandler(reset *usecase.PasswordResetService) *PasswordHandler {
	return &PasswordHandler{reset: reset}
}

// RegisterRoutes binds password routes, applying optional middleware ahead of
// the forgot-password handler.
func (h *PasswordHandler) RegisterRoutes(r *gin.RouterGroup, forgotMiddlewares ...gin.HandlerFunc) {
	chain := append([]gin.HandlerFunc{}, forgotMiddlewares...)
	r.POST("/password/forgot", append(chain, h.forgotPassword)...)
	r.POST("/password/change", h.changePassword)
}

func (h *PasswordHandler) forgotPassword(c *gin.Context) {
	var req EmailRequest
	bindJSON(c, &req)

	ok, err := h.reset.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: ok})
}

func (h *PasswordHandler) changePassword(c *gin.Context) {
	var req ChangePasswordRequest
	bindJSON(c, &req)

	account, err := h.reset.ChangePassword(c.Request.Context(), req.Token, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, accountView(*account))
}
