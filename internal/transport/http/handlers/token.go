package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SOS-Tag/sos-tag-api/internal/infra/config"
	"github.com/SOS-Tag/sos-tag-api/internal/usecase"
)

// TokenHandler exposes the refresh-token side channel.
type TokenHandler struct {
	auth *usecase.AuthService
	cfg  *config.AppConfig
}

// NewTokenHandler constructs TokenHandler.
func NewTokenHandler(auth *usecase.AuthService, cfg *config.AppConfig) *TokenHandler {
	return &TokenHandler{auth: auth, cfg: cfg}
}

// RegisterRoutes binds the refresh endpoint at the engine root; the cookie is
// path-scoped to it.
func (h *TokenHandler) RegisterRoutes(r gin.IRoutes) {
	r.POST(refreshCookiePath, h.refresh)
}

// refresh reads the refresh cookie, validates it and rotates the session.
// Every defect produces the same {ok:false} body with a 200 status; the
// endpoint never explains why a refresh was rejected.
func (h *TokenHandler) refresh(c *gin.Context) {
	token, err := c.Cookie(refreshCookieName)
	if err != nil {
		token = ""
	}

	result, err := h.auth.RefreshSession(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}

	if !result.OK {
		c.JSON(http.StatusOK, RefreshResponse{OK: false, AccessToken: ""})
		return
	}

	maxAge := int(h.cfg.JWT.RefreshTokenTTL.Seconds())
	secure := h.cfg.App.Env == "production"
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookieName, result.RefreshToken, maxAge, refreshCookiePath, "", secure, true)

	c.JSON(http.StatusOK, RefreshResponse{OK: true, AccessToken: result.AccessToken})
}
