package handlers

import (
	"time"

	"github.com/SOS-Tag/sos-tag-api/internal/core/domain"
)

// RegisterRequest carries the registration payload.
type RegisterRequest struct {
	Fname    string `json:"fname"`
	Lname    string `json:"lname"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// LoginRequest carries an email/password pair.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GoogleLoginRequest carries the Google credential pair obtained by the
// frontend.
type GoogleLoginRequest struct {
	TokenID     string `json:"tokenId"`
	AccessToken string `json:"accessToken"`
}

// TokenRequest carries a single-use opaque token.
type TokenRequest struct {
	Token string `json:"token"`
}

// EmailRequest carries a bare email address.
type EmailRequest struct {
	Email string `json:"email"`
}

// ChangePasswordRequest carries a reset token and the replacement password.
type ChangePasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// UpdateUserRequest carries a partial profile update. Absent fields are left
// untouched.
type UpdateUserRequest struct {
	Fname   *string `json:"fname,omitempty"`
	Lname   *string `json:"lname,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Street  *string `json:"street,omitempty"`
	City    *string `json:"city,omitempty"`
	ZipCode *string `json:"zipCode,omitempty"`
	Country *string `json:"country,omitempty"`
}

// AddressView is the wire representation of the optional postal fields.
type AddressView struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
	Country string `json:"country,omitempty"`
}

// AccountView is the public wire representation of an account. It never
// carries the password hash or the token version.
type AccountView struct {
	ID        string       `json:"id"`
	Fname     string       `json:"fname"`
	Lname     string       `json:"lname"`
	Email     string       `json:"email"`
	Phone     string       `json:"phone,omitempty"`
	Address   *AddressView `json:"address,omitempty"`
	Roles     []string     `json:"roles,omitempty"`
	Confirmed bool         `json:"confirmed"`
	Activated bool         `json:"activated"`
	CreatedAt time.Time    `json:"createdAt"`
}

// LoginResponse is the successful outcome of a login. The refresh token
// travels only via the cookie.
type LoginResponse struct {
	User        AccountView `json:"user"`
	AccessToken string      `json:"accessToken"`
}

// RefreshResponse reports a refresh-token rotation attempt.
type RefreshResponse struct {
	OK          bool   `json:"ok"`
	AccessToken string `json:"accessToken"`
}

// SuccessResponse acknowledges an operation with no payload.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// UsersResponse is one page of an account listing.
type UsersResponse struct {
	Users []AccountView `json:"users"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// RevokeTokensResponse reports the token version after an explicit
// revocation.
type RevokeTokensResponse struct {
	TokenVersion int `json:"tokenVersion"`
}

func accountView(account domain.Account) AccountView {
	view := AccountView{
		ID:        account.ID,
		Fname:     account.Fname,
		Lname:     account.Lname,
		Email:     account.Email,
		Phone:     account.Phone,
		Roles:     account.Roles,
		Confirmed: account.Confirmed,
		Activated: account.Activated,
		CreatedAt: account.CreatedAt,
	}
	if account.Address != nil {
		view.Address = &AddressView{
			Street:  account.Address.Street,
			City:    account.Address.City,
			ZipCode: account.Address.ZipCode,
			Country: account.Address.Country,
		}
	}
	return view
}
