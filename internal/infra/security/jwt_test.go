package security

import (
	"testing"
	"time"

	"github.com/SOS-Tag/sos-tag-api/internal/core/domain"
	"github.com/SOS-Tag/sos-tag-api/internal/infra/config"
)

func newTestIssuer(t *testing.T) *TokenIssuer {
	t.Helper()

	issuer, err := NewTokenIssuer(config.JWTSettings{
		AccessSecret:    "access-test-secret",
		RefreshSecret:   "refresh-test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	return issuer
}

func TestNewTokenIssuerRequiresBothSecrets(t *testing.T) {
	if _, err := NewTokenIssuer(config.JWTSettings{AccessSecret: "a"}); err == nil {
		t.Fatal("expected error for missing refresh secret")
	}
	if _, err := NewTokenIssuer(config.JWTSettings{RefreshSecret: "r"}); err == nil {
		t.Fatal("expected error for missing access secret")
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	issuer := newTestIssuer(t)
	account := domain.Account{ID: "acc-1", Roles: []string{"user", "admin"}}

	token, err := issuer.IssueAccess(account)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	claims, err := issuer.ParseAccess(token)
	if err != nil {
		t.Fatalf("ParseAccess: %v", err)
	}
	if claims.UserID != account.ID {
		t.Fatalf("expected user id %q, got %q", account.ID, claims.UserID)
	}
	if len(claims.Roles) != 2 || claims.Roles[0] != "user" || claims.Roles[1] != "admin" {
		t.Fatalf("unexpected roles: %v", claims.Roles)
	}
}

func TestRefreshTokenCarriesTokenVersion(t *testing.T) {
	issuer := newTestIssuer(t)

	token, err := issuer.IssueRefresh(domain.Account{ID: "acc-1", TokenVersion: 4})
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}

	claims, err := issuer.ParseRefresh(token)
	if err != nil {
		t.Fatalf("ParseRefresh: %v", err)
	}
	if claims.UserID != "acc-1" {
		t.Fatalf("unexpected user id %q", claims.UserID)
	}
	if claims.TokenVersion != 4 {
		t.Fatalf("expected token version 4, got %d", claims.TokenVersion)
	}
}

func TestTokensDoNotVerifyAcrossSecrets(t *testing.T) {
	issuer := newTestIssuer(t)
	account := domain.Account{ID: "acc-1"}

	access, err := issuer.IssueAccess(account)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	refresh, err := issuer.IssueRefresh(account)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}

	if _, err := issuer.ParseRefresh(access); err == nil {
		t.Fatal("access token verified against the refresh secret")
	}
	if _, err := issuer.ParseAccess(refresh); err == nil {
		t.Fatal("refresh token verified against the access secret")
	}
}

func TestParseRejectsForeignSignature(t *testing.T) {
	issuer := newTestIssuer(t)

	other, err := NewTokenIssuer(config.JWTSettings{
		AccessSecret:  "some-other-access-secret",
		RefreshSecret: "some-other-refresh-secret",
	})
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}

	token, err := other.IssueAccess(domain.Account{ID: "acc-1"})
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	if _, err := issuer.ParseAccess(token); err == nil {
		t.Fatal("expected foreign token to be rejected")
	}
}

func TestParseRejectsGarbageAndEmptyInput(t *testing.T) {
	issuer := newTestIssuer(t)

	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := issuer.ParseAccess(token); err == nil {
			t.Fatalf("expected error for access token %q", token)
		}
		if _, err := issuer.ParseRefresh(token); err == nil {
			t.Fatalf("expected error for refresh token %q", token)
		}
	}
}

func TestExpiredTokensAreRejected(t *testing.T) {
	issuer := newTestIssuer(t)

	base := time.Now()
	issuer.WithClock(func() time.Time { return base })

	token, err := issuer.IssueAccess(domain.Account{ID: "acc-1"})
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	issuer.WithClock(func() time.Time { return base.Add(16 * time.Minute) })
	if _, err := issuer.ParseAccess(token); err == nil {
		t.Fatal("expected expired access token to be rejected")
	}

	issuer.WithClock(func() time.Time { return base.Add(14 * time.Minute) })
	if _, err := issuer.ParseAccess(token); err != nil {
		t.Fatalf("token rejected before expiry: %v", err)
	}
}
