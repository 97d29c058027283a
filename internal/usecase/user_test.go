package usecase

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/SOS-Tag/sos-tag-api/internal/core/apperror"
	"github.com/SOS-Tag/sos-tag-api/internal/core/domain"
	"github.com/SOS-Tag/sos-tag-api/internal/core/port"
)

func seedAccounts(t *testing.T, repo *memAccountRepository, emails ...string) []string {
	t.Helper()
	ids := make([]string, 0, len(emails))
	for i, email := range emails {
		id := string(rune('a'+i)) + "-id"
		account := domain.Account{
			ID:        id,
			Fname:     "F",
			Lname:     "L",
			Email:     email,
			Phone:     "0700000000",
			Roles:     []string{domain.RoleUser},
			Confirmed: true,
			Activated: true,
		}
		if err := repo.Create(context.Background(), account); err != nil {
			t.Fatalf("seed %s failed: %v", email, err)
		}
		ids = append(ids, id)
	}
	return ids
}

func TestCurrentUserWithoutIdentity(t *testing.T) {
	svc := NewUserService(newMemAccountRepository(), zap.NewNop())

	account, err := svc.CurrentUser(context.Background(), "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if account != nil {
		t.Fatalf("expected nil account, got %+v", account)
	}
}

func TestCurrentUserStripsCredentials(t *testing.T) {
	repo := newMemAccountRepository()
	ids := seedAccounts(t, repo, "a@b.com")
	svc := NewUserService(repo, zap.NewNop())

	account, err := svc.CurrentUser(context.Background(), ids[0])
	if err != nil {
		t.Fatalf("current user failed: %v", err)
	}
	if account.PasswordHash != nil || account.TokenVersion != 0 {
		t.Fatalf("expected sanitized account, got %+v", account)
	}
}

func TestUpdateCurrentUserPartialUpdate(t *testing.T) {
	repo := newMemAccountRepository()
	ids := seedAccounts(t, repo, "a@b.com")
	svc := NewUserService(repo, zap.NewNop())

	fname := "New"
	city := "Paris"
	account, err := svc.UpdateCurrentUser(context.Background(), ids[0], UpdateInput{Fname: &fname, City: &city})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if account.Fname != "New" {
		t.Fatalf("expected fname to change, got %q", account.Fname)
	}
	if account.Lname != "L" {
		t.Fatalf("expected lname untouched, got %q", account.Lname)
	}
	if account.Address == nil || account.Address.City != "Paris" {
		t.Fatalf("expected city set, got %+v", account.Address)
	}
}

func TestUpdateCurrentUserRejectsMalformedPhone(t *testing.T) {
	repo := newMemAccountRepository()
	ids := seedAccounts(t, repo, "a@b.com")
	svc := NewUserService(repo, zap.NewNop())

	phone := "12345"
	_, err := svc.UpdateCurrentUser(context.Background(), ids[0], UpdateInput{Phone: &phone})
	appErr, ok := apperror.As(err)
	if !ok || appErr.Type != apperror.TypeUpdateValidation {
		t.Fatalf("expected UPDATE_VALIDATION_ERROR, got %v", err)
	}
	if len(appErr.Fields) != 1 || appErr.Fields[0].Name != "phone" || appErr.Fields[0].Type != apperror.FieldInvalid {
		t.Fatalf("expected an INVALID phone diagnostic, got %+v", appErr.Fields)
	}
}

func TestUpdateCurrentUserRejectsBlankProvidedField(t *testing.T) {
	repo := newMemAccountRepository()
	ids := seedAccounts(t, repo, "a@b.com")
	svc := NewUserService(repo, zap.NewNop())

	blank := "   "
	_, err := svc.UpdateCurrentUser(context.Background(), ids[0], UpdateInput{Fname: &blank})
	appErr, ok := apperror.As(err)
	if !ok || appErr.Type != apperror.TypeUpdateValidation {
		t.Fatalf("expected UPDATE_VALIDATION_ERROR, got %v", err)
	}
	if len(appErr.Fields) != 1 || appErr.Fields[0].Type != apperror.FieldEmpty {
		t.Fatalf("expected an EMPTY fname diagnostic, got %+v", appErr.Fields)
	}
}

func TestUpdateUserUnknownAccount(t *testing.T) {
	svc := NewUserService(newMemAccountRepository(), zap.NewNop())

	fname := "X"
	_, err := svc.UpdateUser(context.Background(), "missing", UpdateInput{Fname: &fname})
	appErr, ok := apperror.As(err)
	if !ok || appErr.Type != apperror.TypeUserNotFound {
		t.Fatalf("expected USER_NOT_FOUND, got %v", err)
	}
}

func TestAllUsersPaginatesAndFilters(t *testing.T) {
	repo := newMemAccountRepository()
	seedAccounts(t, repo, "a@b.com", "b@b.com", "c@b.com", "d@other.org")
	svc := NewUserService(repo, zap.NewNop())

	page, err := svc.AllUsers(context.Background(), port.ListOptions{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if page.Total != 4 || len(page.Users) != 2 {
		t.Fatalf("expected total 4 with 2 users on page, got total=%d len=%d", page.Total, len(page.Users))
	}

	page, err = svc.AllUsers(context.Background(), port.ListOptions{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page.Users) != 2 {
		t.Fatalf("expected 2 users on page 2, got %d", len(page.Users))
	}

	page, err = svc.AllUsers(context.Background(), port.ListOptions{Filter: "other"})
	if err != nil {
		t.Fatalf("filtered list failed: %v", err)
	}
	if page.Total != 1 || len(page.Users) != 1 {
		t.Fatalf("expected exactly one filtered match, got total=%d len=%d", page.Total, len(page.Users))
	}

	for _, user := range page.Users {
		if user.PasswordHash != nil {
			t.Fatal("expected listed users to be sanitized")
		}
	}
}

func TestDeleteAccountReportsMissing(t *testing.T) {
	repo := newMemAccountRepository()
	ids := seedAccounts(t, repo, "a@b.com")
	svc := NewUserService(repo, zap.NewNop())

	ok, err := svc.DeleteAccount(context.Background(), ids[0])
	if err != nil || !ok {
		t.Fatalf("delete failed: ok=%v err=%v", ok, err)
	}

	_, err = svc.DeleteAccount(context.Background(), ids[0])
	appErr, isApp := apperror.As(err)
	if !isApp || appErr.Type != apperror.TypeAccountNotFound {
		t.Fatalf("expected ACCOUNT_NOT_FOUND on second delete, got %v", err)
	}
}
