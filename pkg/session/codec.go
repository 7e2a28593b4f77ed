package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/confide/confide/pkg/identity"
)

// IdentityLookup resolves identity ids back to records. *identity.Store
// satisfies it.
type IdentityLookup interface {
	GetByID(ctx context.Context, id string) (*identity.Identity, error)
}

// Codec serializes identities to opaque session tokens and back.
//
// A token issued for identity X resolves to X until Revoke or store expiry;
// nothing reassigns a live token. Resolve refreshes the TTL, so sessions
// stay alive while they are being used.
type Codec struct {
	store Store
	users IdentityLookup
}

// NewCodec creates a session codec on top of a token store and an identity
// lookup.
func NewCodec(store Store, users IdentityLookup) *Codec {
	return &Codec{store: store, users: users}
}

// Issue mints a session token bound to the identity.
func (c *Codec) Issue(ctx context.Context, user *identity.Identity) (string, error) {
	token, tokenHash, err := GenerateToken()
	if err != nil {
		return "", err
	}
	if err := c.store.Put(ctx, tokenHash, user.ID); err != nil {
		return "", fmt.Errorf("failed to persist session: %w", err)
	}
	return token, nil
}

// Resolve returns the identity bound to token, refreshing the session TTL.
//
// Anything that does not decode (malformed token, unknown or expired
// session, a session whose identity has vanished, even a session store
// outage) yields (nil, nil): callers treat all of these as "no session".
// Only an identity storage failure is returned as an error, because that is
// a server-side fault the caller must not mistake for a logged-out client.
func (c *Codec) Resolve(ctx context.Context, token string) (*identity.Identity, error) {
	if ValidateTokenFormat(token) != nil {
		return nil, nil
	}

	identityID, ok, err := c.store.Get(ctx, HashToken(token))
	if err != nil || !ok {
		return nil, nil
	}

	user, err := c.users.GetByID(ctx, identityID)
	if errors.Is(err, identity.ErrNotFound) {
		// Stale session for a record that no longer exists.
		c.store.Delete(ctx, HashToken(token))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	c.store.Touch(ctx, HashToken(token))
	return user, nil
}

// Revoke destroys the session for token. Revoking an unknown or malformed
// token is a no-op.
func (c *Codec) Revoke(ctx context.Context, token string) error {
	if ValidateTokenFormat(token) != nil {
		return nil
	}
	return c.store.Delete(ctx, HashToken(token))
}
