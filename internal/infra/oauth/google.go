package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SOS-Tag/sos-tag-api/internal/core/port"
	"github.com/SOS-Tag/sos-tag-api/internal/infra/config"
)

const (
	defaultTokenURL    = "https://oauth2.googleapis.com/token"
	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v1/userinfo"
)

// GoogleClient implements port.GoogleOAuth against the Google OAuth2 endpoints.
type GoogleClient struct {
	clientID     string
	clientSecret string
	redirectURL  string
	tokenURL     string
	userInfoURL  string
	httpClient   *http.Client
}

// Option overrides GoogleClient defaults, used in tests.
type Option func(*GoogleClient)

// WithEndpoints substitutes the Google endpoints.
func WithEndpoints(tokenURL, userInfoURL string) Option {
	return func(c *GoogleClient) {
		c.tokenURL = tokenURL
		c.userInfoURL = userInfoURL
	}
}

// WithHTTPClient substitutes the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *GoogleClient) {
		c.httpClient = client
	}
}

// NewGoogleClient constructs a Google OAuth client from injected settings.
func NewGoogleClient(cfg config.OAuthSettings, opts ...Option) *GoogleClient {
	c := &GoogleClient{
		clientID:     cfg.GoogleClientID,
		clientSecret: cfg.GoogleClientSecret,
		redirectURL:  cfg.GoogleRedirectURL,
		tokenURL:     defaultTokenURL,
		userInfoURL:  defaultUserInfoURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type googleTokenResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
	Error       string `json:"error"`
	ErrorDesc   string `json:"error_description"`
}

type googleUserInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
}

// ExchangeCode trades an authorization code for Google tokens.
func (c *GoogleClient) ExchangeCode(ctx context.Context, code string) (*port.GoogleTokens, error) {
	data := url.Values{
		"code":          {code},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"redirect_uri":  {c.redirectURL},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}

	var tokenResp googleTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || tokenResp.Error != "" {
		return nil, fmt.Errorf("google token endpoint: status %d: %s %s", resp.StatusCode, tokenResp.Error, tokenResp.ErrorDesc)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("google token endpoint: missing access token")
	}

	return &port.GoogleTokens{
		IDToken:     tokenResp.IDToken,
		AccessToken: tokenResp.AccessToken,
	}, nil
}

// UserInfo fetches the profile behind the supplied credentials.
func (c *GoogleClient) UserInfo(ctx context.Context, tokenID, accessToken string) (*port.GoogleProfile, error) {
	endpoint := fmt.Sprintf("%s?alt=json&access_token=%s", c.userInfoURL, url.QueryEscape(accessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tokenID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read userinfo response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google userinfo endpoint: status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("decode userinfo response: %w", err)
	}

	return &port.GoogleProfile{
		Email:         info.Email,
		VerifiedEmail: info.VerifiedEmail,
		GivenName:     info.GivenName,
		FamilyName:    info.FamilyName,
	}, nil
}

var _ port.GoogleOAuth = (*GoogleClient)(nil)
