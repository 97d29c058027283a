package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/SOS-Tag/sos-tag-api/internal/core/apperror"
	"github.com/SOS-Tag/sos-tag-api/internal/core/domain"
	"github.com/SOS-Tag/sos-tag-api/internal/core/port"
	"github.com/SOS-Tag/sos-tag-api/internal/repository"
)

// UpdateInput carries the optional profile fields of a partial update. Nil
// pointers leave the field untouched.
type UpdateInput struct {
	Fname   *string
	Lname   *string
	Phone   *string
	Street  *string
	City    *string
	ZipCode *string
	Country *string
}

// UserPage is one page of an account listing.
type UserPage struct {
	Users []domain.Account
	Total int
	Page  int
	Limit int
}

// UserService exposes profile reads and updates plus the administrative
// account operations.
type UserService struct {
	accounts port.AccountRepository
	logger   *zap.Logger
}

// NewUserService constructs a UserService instance.
func NewUserService(accounts port.AccountRepository, logger *zap.Logger) *UserService {
	return &UserService{accounts: accounts, logger: logger}
}

// CurrentUser returns the account behind the authenticated identity, or nil
// when the request carried no identity.
func (s *UserService) CurrentUser(ctx context.Context, accountID string) (*domain.Account, error) {
	if accountID == "" {
		return nil, nil
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NewNotFound(apperror.TypeUserNotFound, "User not found.")
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	public := account.Public()
	return &public, nil
}

// UpdateCurrentUser applies a partial profile update to the authenticated
// account.
func (s *UserService) UpdateCurrentUser(ctx context.Context, accountID string, input UpdateInput) (*domain.Account, error) {
	return s.update(ctx, accountID, input)
}

// UpdateUser applies a partial profile update to any account, on behalf of an
// administrator.
func (s *UserService) UpdateUser(ctx context.Context, accountID string, input UpdateInput) (*domain.Account, error) {
	return s.update(ctx, accountID, input)
}

func (s *UserService) update(ctx context.Context, accountID string, input UpdateInput) (*domain.Account, error) {
	if fields := checkUpdateInput(input); len(fields) > 0 {
		return nil, apperror.NewBadRequest(apperror.TypeUpdateValidation,
			"Some of the inputs provided for updating the account are missing or malformed.", fields)
	}

	account, err := s.accounts.UpdateProfile(ctx, accountID, port.ProfileUpdate{
		Fname:   input.Fname,
		Lname:   input.Lname,
		Phone:   input.Phone,
		Street:  input.Street,
		City:    input.City,
		ZipCode: input.ZipCode,
		Country: input.Country,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NewNotFound(apperror.TypeUserNotFound, "User not found.")
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	public := account.Public()
	return &public, nil
}

// AllUsers returns one page of accounts matched by the listing options.
func (s *UserService) AllUsers(ctx context.Context, opts port.ListOptions) (*UserPage, error) {
	accounts, total, err := s.accounts.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	users := make([]domain.Account, 0, len(accounts))
	for _, account := range accounts {
		users = append(users, account.Public())
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	limit := opts.Limit
	if limit < 1 {
		limit = 20
	}

	return &UserPage{Users: users, Total: total, Page: page, Limit: limit}, nil
}

// DeleteAccount removes an account. A missing account reports the not-found
// envelope rather than succeeding silently.
func (s *UserService) DeleteAccount(ctx context.Context, accountID string) (bool, error) {
	if err := s.accounts.Delete(ctx, accountID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, apperror.NewNotFound(apperror.TypeAccountNotFound, "This account does not exist.")
		}
		return false, fmt.Errorf("delete account: %w", err)
	}

	s.logger.Info("Account deleted", zap.String("account_id", accountID))
	return true, nil
}

// checkUpdateInput validates only the fields present in the partial update:
// a provided field must be non-blank, and a provided phone must be
// well-formed.
func checkUpdateInput(input UpdateInput) []apperror.FieldError {
	present := []fieldValue{}
	add := func(name string, value *string) {
		if value != nil {
			present = append(present, fieldValue{name, *value})
		}
	}
	add("fname", input.Fname)
	add("lname", input.Lname)
	add("phone", input.Phone)
	add("street", input.Street)
	add("city", input.City)
	add("zipCode", input.ZipCode)
	add("country", input.Country)

	return checkFields(present)
}
