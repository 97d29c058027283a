package domain

import "time"

// Role names understood by the authorization layer.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Account mirrors the persisted representation in the accounts table.
//
// PasswordHash is nil for accounts created through Google sign-in; such
// accounts can only authenticate via OAuth. TokenVersion is a monotonic
// counter embedded in refresh tokens: bumping it invalidates every refresh
// token issued before the bump.
type Account struct {
	ID           string
	Fname        string
	Lname        string
	Email        string
	Phone        string
	Address      *Address
	PasswordHash *string
	Roles        []string
	TokenVersion int
	Confirmed    bool
	Activated    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Address groups the optional postal fields of a profile.
type Address struct {
	Street  string
	City    string
	ZipCode string
	Country string
}

// HasRole reports whether the account carries the given role.
func (a Account) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Public strips credentials and internal counters from the account.
func (a Account) Public() Account {
	a.PasswordHash = nil
	a.TokenVersion = 0
	return a
}
