package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SOS-Tag/sos-tag-api/internal/infra/config"
	"github.com/SOS-Tag/sos-tag-api/internal/usecase"
)

// refreshCookieName is the HTTP-only cookie carrying the signed refresh
// token, path-scoped so it is only ever sent to the refresh endpoint.
const (
	refreshCookieName = "jid"
	refreshCookiePath = "/refresh_token"
)

// AuthHandler exposes the login, logout and Google sign-in endpoints.
type AuthHandler struct {
	auth *usecase.AuthService
	cfg  *config.AppConfig
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, cfg *config.AppConfig) *AuthHandler {
	return &AuthHandler{auth: auth, cfg: cfg}
}

// RegisterRoutes binds authentication routes, applying optional middleware
// ahead of the login handler.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, loginMiddlewares ...gin.HandlerFunc) {
	chain := append([]gin.HandlerFunc{}, loginMiddlewares...)
	r.POST("/login", append(chain, h.login)...)
	r.POST("/login/google", h.loginWithGoogle)
	r.POST("/logout", h.logout)
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	maxAge := int(h.cfg.JWT.RefreshTokenTTL.Seconds())
	if token == "" {
		maxAge = -1
	}
	secure := h.cfg.App.Env == "production"
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookieName, token, maxAge, refreshCookiePath, "", secure, true)
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	bindJSON(c, &req)

	session, err := h.auth.Login(c.Request.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.setRefreshCookie(c, session.RefreshToken)
	c.JSON(http.StatusOK, LoginResponse{
		User:        accountView(session.Account),
		AccessToken: session.AccessToken,
	})
}

func (h *AuthHandler) loginWithGoogle(c *gin.Context) {
	var req GoogleLoginRequest
	bindJSON(c, &req)

	session, err := h.auth.LoginWithGoogle(c.Request.Context(), usecase.GoogleLoginInput{
		TokenID:     req.TokenID,
		AccessToken: req.AccessToken,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.setRefreshCookie(c, session.RefreshToken)
	c.JSON(http.StatusOK, LoginResponse{
		User:        accountView(session.Account),
		AccessToken: session.AccessToken,
	})
}

func (h *AuthHandler) logout(c *gin.Context) {
	ok, err := h.auth.Logout(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	h.setRefreshCookie(c, "")
	c.JSON(http.StatusOK, SuccessResponse{Success: ok})
}
