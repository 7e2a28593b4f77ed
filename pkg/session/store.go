package session

import "context"

// Store maps hashed session tokens to identity ids for the lifetime of a
// session. Implementations own expiry: entries disappear after the store's
// TTL unless refreshed with Touch.
type Store interface {
	// Put binds a hashed token to an identity id.
	Put(ctx context.Context, tokenHash, identityID string) error

	// Get returns the identity id bound to a hashed token. The second
	// return is false when the token is unknown or expired.
	Get(ctx context.Context, tokenHash string) (string, bool, error)

	// Touch re-arms the TTL of a live session. Touching an unknown token
	// is a no-op.
	Touch(ctx context.Context, tokenHash string) error

	// Delete removes a session. Deleting an unknown token is a no-op.
	Delete(ctx context.Context, tokenHash string) error
}
