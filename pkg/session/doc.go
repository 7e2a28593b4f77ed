// Package session issues and resolves opaque session tokens for Confide.
//
// # Overview
//
// On login the Codec mints a random token (confide_[base64url(32 bytes)]),
// stores the SHA-256 of the token against the identity id, and hands the token
// to the client as a cookie. On each request the token is hashed again and
// looked up; anything that does not resolve (unknown, expired, revoked,
// malformed) is treated as "no session". The token itself never encodes the
// identity, so session state cannot be forged or read without the store.
//
// Two Store implementations are provided: an in-process expirable LRU for
// single-instance deployments (sessions die with the process, which is
// acceptable: they are a convenience cache, not durable state) and a Redis
// store for multi-instance deployments.
//
// # Usage
//
//	store := session.NewMemoryStore(10000, 24*time.Hour)
//	codec := session.NewCodec(store, identityStore)
//
//	token, err := codec.Issue(ctx, user)
//	user, err = codec.Resolve(ctx, token) // (nil, nil) means no session
//	err = codec.Revoke(ctx, token)
package session
