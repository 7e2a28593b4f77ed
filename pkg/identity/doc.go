// Package identity provides user identity records and credential management for Confide.
//
// # Overview
//
// This package implements the durable side of authentication: local account
// registration with bcrypt password hashing, credential verification, and
// idempotent find-or-create resolution of federated (OAuth2/OIDC) subjects to
// local identities. A single identities table backs both authentication
// methods; uniqueness constraints on the username and on the
// (provider, subject) pair keep concurrent creates from producing duplicate
// accounts.
//
// # Key Components
//
// Identity: the durable user record
//
//	user := &identity.Identity{
//		Username: "alice",
//	}
//
// Store: SQL-backed persistence
//
//	store := identity.NewStore(db)
//	user, err := store.Register(ctx, "alice", "secret123")
//	user, err = store.Verify(ctx, "alice", "secret123")
//	user, err = store.ResolveFederated(ctx, "google", "subject-42")
//
// # Error Handling
//
// Expected user mistakes are sentinel errors, not failures:
//
//	ErrDuplicateUsername  - username already registered
//	ErrInvalidCredentials - unknown user or wrong password (indistinguishable)
//	ErrNotFound           - no identity with the given id
//	ErrStorageUnavailable - the backing database failed
//
// Verify deliberately does not reveal whether the username exists; both
// failure modes return ErrInvalidCredentials.
package identity
