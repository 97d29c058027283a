package port

import (
	"context"

	"github.com/SOS-Tag/sos-tag-api/internal/core/domain"
)

// ProfileUpdate carries the optional profile fields of a partial update.
// Nil pointers leave the column untouched; email is not updatable here.
type ProfileUpdate struct {
	Fname   *string
	Lname   *string
	Phone   *string
	Street  *string
	City    *string
	ZipCode *string
	Country *string
}

// ListOptions controls pagination, filtering and sorting of account listings.
type ListOptions struct {
	Page   int
	Limit  int
	Filter string
	SortBy string
	Desc   bool
}

// GoogleUpsert captures the profile fields taken from a verified Google
// account. NewID is consumed only when the upsert inserts a fresh row.
type GoogleUpsert struct {
	NewID string
	Fname string
	Lname string
	Email string
}

// AccountRepository exposes persistence behavior for accounts.
//
// Cross-request coordination (email uniqueness, token version bumps) relies on
// the backing store's atomic operations, never on in-process locking.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	SetConfirmed(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*domain.Account, error)
	UpsertGoogle(ctx context.Context, profile GoogleUpsert) (*domain.Account, error)
	IncrementTokenVersion(ctx context.Context, id string) (int, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, opts ListOptions) ([]domain.Account, int, error)
}
