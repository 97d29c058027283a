package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/SOS-Tag/sos-tag-api/internal/core/apperror"
)

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Fname:    "A",
		Lname:    "B",
		Email:    "a@b.com",
		Phone:    "0700000000",
		Password: strongTestPassword,
	}
}

func TestRegisterReturnsPublicFields(t *testing.T) {
	repo := newMemAccountRepository()
	tokens := newMemTokenStore()
	mail := &mockMailer{}
	events := &mockPublisher{}
	svc := newTestRegistrationService(repo, tokens, mail, events)

	account, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if account.Fname != "A" || account.Lname != "B" || account.Email != "a@b.com" {
		t.Fatalf("unexpected public fields: %+v", account)
	}
	if account.PasswordHash != nil {
		t.Fatal("expected password hash to be stripped from the response")
	}
	if account.Confirmed {
		t.Fatal("expected account to start unconfirmed")
	}

	if len(mail.confirmations) != 1 {
		t.Fatalf("expected 1 confirmation mail, got %d", len(mail.confirmations))
	}
	if !strings.Contains(mail.confirmations[0].url, "/auth/confirm/") {
		t.Fatalf("unexpected confirmation URL: %s", mail.confirmations[0].url)
	}
	if len(events.registered) != 1 {
		t.Fatalf("expected 1 registered event, got %d", len(events.registered))
	}
}

func TestRegisterStampsCreationTimestamps(t *testing.T) {
	repo := newMemAccountRepository()
	events := &mockPublisher{}
	svc := newTestRegistrationService(repo, newMemTokenStore(), &mockMailer{}, events)

	account, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if account.CreatedAt.IsZero() || account.UpdatedAt.IsZero() {
		t.Fatalf("expected creation timestamps to be set, got created=%v updated=%v",
			account.CreatedAt, account.UpdatedAt)
	}

	stored, err := repo.GetByID(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.CreatedAt.IsZero() || stored.UpdatedAt.IsZero() {
		t.Fatal("expected the persisted row to carry the creation timestamps")
	}
	if events.registered[0].RegisteredAt.IsZero() {
		t.Fatal("expected the registered event to carry the creation time")
	}
}

func TestRegisterValidationListsEveryOffendingField(t *testing.T) {
	svc := newTestRegistrationService(newMemAccountRepository(), newMemTokenStore(), &mockMailer{}, &mockPublisher{})

	_, err := svc.Register(context.Background(), RegisterInput{
		Fname:    "",
		Lname:    "B",
		Email:    "not-an-email",
		Phone:    "12345",
		Password: "weak",
	})

	appErr, ok := apperror.As(err)
	if !ok {
		t.Fatalf("expected apperror, got %v", err)
	}
	if appErr.Type != apperror.TypeRegistrationValidation {
		t.Fatalf("expected %s, got %s", apperror.TypeRegistrationValidation, appErr.Type)
	}
	if appErr.Code != 400 {
		t.Fatalf("expected code 400, got %d", appErr.Code)
	}

	byName := map[string]apperror.FieldError{}
	for _, f := range appErr.Fields {
		byName[f.Name] = f
	}
	if len(byName) != 4 {
		t.Fatalf("expected 4 offending fields, got %d: %+v", len(byName), appErr.Fields)
	}
	if byName["fname"].Type != apperror.FieldEmpty {
		t.Fatalf("expected fname to be EMPTY, got %s", byName["fname"].Type)
	}
	for _, name := range []string{"email", "phone", "password"} {
		if byName[name].Type != apperror.FieldInvalid {
			t.Fatalf("expected %s to be INVALID, got %s", name, byName[name].Type)
		}
	}
}

func TestRegisterEmptinessShortCircuitsFormatCheck(t *testing.T) {
	svc := newTestRegistrationService(newMemAccountRepository(), newMemTokenStore(), &mockMailer{}, &mockPublisher{})

	input := validRegisterInput()
	input.Email = "   "

	_, err := svc.Register(context.Background(), input)
	appErr, ok := apperror.As(err)
	if !ok {
		t.Fatalf("expected apperror, got %v", err)
	}
	if len(appErr.Fields) != 1 {
		t.Fatalf("expected exactly 1 field error, got %+v", appErr.Fields)
	}
	if appErr.Fields[0].Type != apperror.FieldEmpty || appErr.Fields[0].Name != "email" {
		t.Fatalf("expected a single EMPTY email diagnostic, got %+v", appErr.Fields[0])
	}
}

func TestRegisterDuplicateEmailIsCaseInsensitive(t *testing.T) {
	repo := newMemAccountRepository()
	svc := newTestRegistrationService(repo, newMemTokenStore(), &mockMailer{}, &mockPublisher{})

	if _, err := svc.Register(context.Background(), validRegisterInput()); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}

	input := validRegisterInput()
	input.Email = "A@B.COM"
	_, err := svc.Register(context.Background(), input)

	appErr, ok := apperror.As(err)
	if !ok {
		t.Fatalf("expected apperror, got %v", err)
	}
	if appErr.Type != apperror.TypeEmailAlreadyExists || appErr.Code != 409 {
		t.Fatalf("expected EMAIL_ALREADY_EXISTS 409, got %s %d", appErr.Type, appErr.Code)
	}
}

func TestConfirmUserIsExactlyOnce(t *testing.T) {
	repo := newMemAccountRepository()
	tokens := newMemTokenStore()
	events := &mockPublisher{}
	svc := newTestRegistrationService(repo, tokens, &mockMailer{}, events)

	if _, err := svc.Register(context.Background(), validRegisterInput()); err != nil {
		t.Fatalf("registration failed: %v", err)
	}
	token := tokens.lastToken("confirm")
	if token == "" {
		t.Fatal("expected a confirmation token to be stored")
	}

	ok, err := svc.ConfirmUser(context.Background(), token)
	if err != nil || !ok {
		t.Fatalf("first redemption failed: ok=%v err=%v", ok, err)
	}

	account, err := repo.GetByEmail(context.Background(), "a@b.com")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if !account.Confirmed {
		t.Fatal("expected account to be confirmed after redemption")
	}
	if len(events.confirmed) != 1 {
		t.Fatalf("expected 1 confirmed event, got %d", len(events.confirmed))
	}

	_, err = svc.ConfirmUser(context.Background(), token)
	appErr, isApp := apperror.As(err)
	if !isApp {
		t.Fatalf("expected apperror on second redemption, got %v", err)
	}
	if appErr.Type != apperror.TypeAccountLinkExpired || appErr.Code != 410 {
		t.Fatalf("expected ACCOUNT_LINK_EXPIRED 410, got %s %d", appErr.Type, appErr.Code)
	}
}

func TestConfirmUserEmptyToken(t *testing.T) {
	svc := newTestRegistrationService(newMemAccountRepository(), newMemTokenStore(), &mockMailer{}, &mockPublisher{})

	_, err := svc.ConfirmUser(context.Background(), "")
	appErr, ok := apperror.As(err)
	if !ok {
		t.Fatalf("expected apperror, got %v", err)
	}
	if appErr.Type != apperror.TypeConfirmationValidation {
		t.Fatalf("expected CONFIRMATION_VALIDATION_ERROR, got %s", appErr.Type)
	}
}

func TestResendConfirmationLinkIssuesFreshToken(t *testing.T) {
	repo := newMemAccountRepository()
	tokens := newMemTokenStore()
	mail := &mockMailer{}
	svc := newTestRegistrationService(repo, tokens, mail, &mockPublisher{})

	if _, err := svc.Register(context.Background(), validRegisterInput()); err != nil {
		t.Fatalf("registration failed: %v", err)
	}
	first := tokens.lastToken("confirm")

	ok, err := svc.ResendConfirmationLink(context.Background(), "a@b.com")
	if err != nil || !ok {
		t.Fatalf("resend failed: ok=%v err=%v", ok, err)
	}
	if len(mail.confirmations) != 2 {
		t.Fatalf("expected 2 confirmation mails, got %d", len(mail.confirmations))
	}

	// The first token stays redeemable until its own expiry.
	if _, err := tokens.TakeAndConsume(context.Background(), "confirm", first); err != nil {
		t.Fatalf("expected first token to remain valid, got %v", err)
	}
}

func TestResendConfirmationLinkUnknownEmail(t *testing.T) {
	svc := newTestRegistrationService(newMemAccountRepository(), newMemTokenStore(), &mockMailer{}, &mockPublisher{})

	_, err := svc.ResendConfirmationLink(context.Background(), "missing@b.com")
	appErr, ok := apperror.As(err)
	if !ok {
		t.Fatalf("expected apperror, got %v", err)
	}
	if appErr.Type != apperror.TypeAccountNotFound || appErr.Code != 404 {
		t.Fatalf("expected ACCOUNT_NOT_FOUND 404, got %s %d", appErr.Type, appErr.Code)
	}
}
