package port

import "context"

// Ephemeral token purposes. Each purpose namespaces its own keys.
const (
	PurposeConfirm = "confirm"
	PurposeReset   = "reset"
)

// EphemeralTokenStore maps single-use opaque tokens to an account id with a
// fixed TTL. Consumption is atomic: of two concurrent TakeAndConsume calls for
// the same token, exactly one receives the account id.
//
// The store deliberately does not invalidate earlier tokens of the same
// purpose when a new one is issued; each expires on its own.
type EphemeralTokenStore interface {
	// Put stores accountID under purpose:token, overwriting any identical key.
	Put(ctx context.Context, purpose, token, accountID string) error

	// TakeAndConsume atomically reads and deletes purpose:token. It returns
	// repository.ErrNotFound whether the token was never issued, expired, or
	// already consumed; callers cannot distinguish the three.
	TakeAndConsume(ctx context.Context, purpose, token string) (string, error)
}
