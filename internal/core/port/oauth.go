package port

import "context"

// GoogleProfile is the subset of the Google userinfo payload the lifecycle
// service consumes.
type GoogleProfile struct {
	Email         string
	VerifiedEmail bool
	GivenName     string
	FamilyName    string
}

// GoogleTokens holds the credential pair produced by the authorization-code
// exchange and later presented by the frontend on login.
type GoogleTokens struct {
	IDToken     string
	AccessToken string
}

// GoogleOAuth abstracts the Google OAuth collaborator.
type GoogleOAuth interface {
	// ExchangeCode trades an authorization code for Google tokens.
	ExchangeCode(ctx context.Context, code string) (*GoogleTokens, error)

	// UserInfo fetches the profile behind the supplied credentials.
	UserInfo(ctx context.Context, tokenID, accessToken string) (*GoogleProfile, error)
}
