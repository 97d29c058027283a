package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"

	"github.com/SOS-Tag/sos-tag-api/internal/core/port"
	"github.com/SOS-Tag/sos-tag-api/internal/repository"
)

func newTestRedis(t *testing.T) (*red.Client, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := red.NewClient(&red.Options{Addr: server.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})

	return client, server
}

func TestEphemeralTokenStore_PutAndConsume(t *testing.T) {
	client, server := newTestRedis(t)
	store := NewEphemeralTokenStore(client, "sostag:token", 24*time.Hour)

	ctx := context.Background()

	if err := store.Put(ctx, port.PurposeConfirm, "tok-abc", "account-1"); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	remaining := server.TTL("sostag:token:confirm:tok-abc")
	if remaining <= 0 || remaining > 24*time.Hour {
		t.Fatalf("expected ttl within (0, 24h], got %v", remaining)
	}

	accountID, err := store.TakeAndConsume(ctx, port.PurposeConfirm, "tok-abc")
	if err != nil {
		t.Fatalf("TakeAndConsume returned error: %v", err)
	}
	if accountID != "account-1" {
		t.Fatalf("expected account-1, got %s", accountID)
	}
}

func TestEphemeralTokenStore_ConsumeIsExactlyOnce(t *testing.T) {
	client, _ := newTestRedis(t)
	store := NewEphemeralTokenStore(client, "", 0)

	ctx := context.Background()

	if err := store.Put(ctx, port.PurposeReset, "tok-reset", "account-2"); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	if _, err := store.TakeAndConsume(ctx, port.PurposeReset, "tok-reset"); err != nil {
		t.Fatalf("first consume returned error: %v", err)
	}

	if _, err := store.TakeAndConsume(ctx, port.PurposeReset, "tok-reset"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second consume, got %v", err)
	}
}

func TestEphemeralTokenStore_ExpiredTokenIsGone(t *testing.T) {
	client, server := newTestRedis(t)
	store := NewEphemeralTokenStore(client, "sostag:token", time.Minute)

	ctx := context.Background()

	if err := store.Put(ctx, port.PurposeConfirm, "tok-old", "account-3"); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	server.FastForward(2 * time.Minute)

	if _, err := store.TakeAndConsume(ctx, port.PurposeConfirm, "tok-old"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for expired token, got %v", err)
	}
}

func TestEphemeralTokenStore_PurposesAreIsolated(t *testing.T) {
	client, _ := newTestRedis(t)
	store := NewEphemeralTokenStore(client, "sostag:token", time.Hour)

	ctx := context.Background()

	if err := store.Put(ctx, port.PurposeConfirm, "shared", "account-4"); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	if _, err := store.TakeAndConsume(ctx, port.PurposeReset, "shared"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong purpose, got %v", err)
	}

	if _, err := store.TakeAndConsume(ctx, port.PurposeConfirm, "shared"); err != nil {
		t.Fatalf("consume with the issuing purpose returned error: %v", err)
	}
}

func TestEphemeralTokenStore_NewTokenDoesNotInvalidateOldOne(t *testing.T) {
	client, _ := newTestRedis(t)
	store := NewEphemeralTokenStore(client, "sostag:token", time.Hour)

	ctx := context.Background()

	if err := store.Put(ctx, port.PurposeReset, "first", "account-5"); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if err := store.Put(ctx, port.PurposeReset, "second", "account-5"); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	for _, token := range []string{"first", "second"} {
		accountID, err := store.TakeAndConsume(ctx, port.PurposeReset, token)
		if err != nil {
			t.Fatalf("consume %s returned error: %v", token, err)
		}
		if accountID != "account-5" {
			t.Fatalf("expected account-5 for %s, got %s", token, accountID)
		}
	}
}

func TestEphemeralTokenStore_RejectsBlankInputs(t *testing.T) {
	client, _ := newTestRedis(t)
	store := NewEphemeralTokenStore(client, "sostag:token", time.Hour)

	ctx := context.Background()

	if err := store.Put(ctx, "", "tok", "account"); err == nil {
		t.Fatal("expected error for empty purpose")
	}
	if err := store.Put(ctx, port.PurposeConfirm, " ", "account"); err == nil {
		t.Fatal("expected error for blank token")
	}
	if err := store.Put(ctx, port.PurposeConfirm, "tok", ""); err == nil {
		t.Fatal("expected error for empty account id")
	}
	if _, err := store.TakeAndConsume(ctx, port.PurposeConfirm, ""); err == nil {
		t.Fatal("expected error for empty token")
	}
}
