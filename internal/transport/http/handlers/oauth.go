package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/SOS-Tag/sos-tag-api/internal/core/apperror"
	"github.com/SOS-Tag/sos-tag-api/internal/core/port"
	"github.com/SOS-Tag/sos-tag-api/internal/infra/config"
)

// OAuthHandler exposes the Google authorization-code callback.
type OAuthHandler struct {
	oauth port.GoogleOAuth
	cfg   *config.AppConfig
}

// NewOAuthHandler constructs OAuthHandler.
func NewOAuthHandler(oauth port.GoogleOAuth, cfg *config.AppConfig) *OAuthHandler {
	return &OAuthHandler{oauth: oauth, cfg: cfg}
}

// RegisterRoutes binds the OAuth callback at the engine root, matching the
// redirect URI registered with Google.
func (h *OAuthHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/oauth/google", h.googleCallback)
}

// googleCallback exchanges the authorization code and hands the resulting
// credential pair to the frontend via redirect query parameters. The frontend
// then completes the login through the Google login endpoint.
func (h *OAuthHandler) googleCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		respondError(c, apperror.NewBadRequest(apperror.TypeGoogleLoginValidation,
			"The authorization code provided by Google is missing.", []apperror.FieldError{{
				Type:   apperror.FieldEmpty,
				Name:   "code",
				Detail: "The code is required.",
			}}))
		return
	}

	tokens, err := h.oauth.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		respondError(c, err)
		return
	}

	redirect, err := url.Parse(h.cfg.Frontend.GoogleAuthURL)
	if err != nil {
		respondError(c, err)
		return
	}

	query := redirect.Query()
	query.Set("tokenId", tokens.IDToken)
	query.Set("accessToken", tokens.AccessToken)
	redirect.RawQuery = query.Encode()

	c.Redirect(http.StatusFound, redirect.String())
}
