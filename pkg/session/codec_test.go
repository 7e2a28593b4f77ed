package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confide/confide/pkg/identity"
)

// fakeLookup is an in-memory IdentityLookup for codec tests.
type fakeLookup struct {
	users map[string]*identity.Identity
	err   error
}

func (f *fakeLookup) GetByID(_ context.Context, id string) (*identity.Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.users[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return user, nil
}

func newTestCodec(t *testing.T, users ...*identity.Identity) (*Codec, *fakeLookup) {
	t.Helper()
	lookup := &fakeLookup{users: make(map[string]*identity.Identity)}
	for _, u := range users {
		lookup.users[u.ID] = u
	}
	return NewCodec(NewMemoryStore(100, time.Hour), lookup), lookup
}

func TestCodec_RoundTrip(t *testing.T) {
	alice := &identity.Identity{ID: "id-alice", Username: "alice"}
	codec, _ := newTestCodec(t, alice)
	ctx := context.Background()

	token, err := codec.Issue(ctx, alice)
	require.NoError(t, err)
	require.NoError(t, ValidateTokenFormat(token))

	resolved, err := codec.Resolve(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, alice.ID, resolved.ID)
}

func TestCodec_Resolve_NeverIssued(t *testing.T) {
	codec, _ := newTestCodec(t)
	ctx := context.Background()

	// A well-formed token that was never issued.
	token, _, err := GenerateToken()
	require.NoError(t, err)

	resolved, err := codec.Resolve(ctx, token)
	assert.NoError(t, err)
	assert.Nil(t, resolved)
}

func TestCodec_Resolve_Malformed(t *testing.T) {
	codec, _ := newTestCodec(t)
	ctx := context.Background()

	for _, token := range []string{"", "garbage", TokenPrefix + "short"} {
		resolved, err := codec.Resolve(ctx, token)
		assert.NoError(t, err, "token %q", token)
		assert.Nil(t, resolved, "token %q", token)
	}
}

func TestCodec_Revoke(t *testing.T) {
	alice := &identity.Identity{ID: "id-alice", Username: "alice"}
	codec, _ := newTestCodec(t, alice)
	ctx := context.Background()

	token, err := codec.Issue(ctx, alice)
	require.NoError(t, err)

	require.NoError(t, codec.Revoke(ctx, token))

	resolved, err := codec.Resolve(ctx, token)
	assert.NoError(t, err)
	assert.Nil(t, resolved, "revoked session must not resolve")

	// Revoking again, or revoking garbage, is a no-op.
	assert.NoError(t, codec.Revoke(ctx, token))
	assert.NoError(t, codec.Revoke(ctx, "garbage"))
}

func TestCodec_Resolve_StableBinding(t *testing.T) {
	alice := &identity.Identity{ID: "id-alice", Username: "alice"}
	bob := &identity.Identity{ID: "id-bob", Username: "bob"}
	codec, _ := newTestCodec(t, alice, bob)
	ctx := context.Background()

	aliceToken, err := codec.Issue(ctx, alice)
	require.NoError(t, err)
	bobToken, err := codec.Issue(ctx, bob)
	require.NoError(t, err)

	// Issuing bob's session must not disturb alice's.
	for i := 0; i < 3; i++ {
		resolved, err := codec.Resolve(ctx, aliceToken)
		require.NoError(t, err)
		require.NotNil(t, resolved)
		assert.Equal(t, alice.ID, resolved.ID)

		resolved, err = codec.Resolve(ctx, bobToken)
		require.NoError(t, err)
		require.NotNil(t, resolved)
		assert.Equal(t, bob.ID, resolved.ID)
	}
}

func TestCodec_Resolve_IdentityDeleted(t *testing.T) {
	alice := &identity.Identity{ID: "id-alice", Username: "alice"}
	codec, lookup := newTestCodec(t, alice)
	ctx := context.Background()

	token, err := codec.Issue(ctx, alice)
	require.NoError(t, err)

	// The identity disappears out from under the session.
	delete(lookup.users, alice.ID)

	resolved, err := codec.Resolve(ctx, token)
	assert.NoError(t, err)
	assert.Nil(t, resolved, "session for a vanished identity must read as absent")
}

func TestCodec_Resolve_IdentityStorageFailure(t *testing.T) {
	alice := &identity.Identity{ID: "id-alice", Username: "alice"}
	codec, lookup := newTestCodec(t, alice)
	ctx := context.Background()

	token, err := codec.Issue(ctx, alice)
	require.NoError(t, err)

	lookup.err = identity.ErrStorageUnavailable

	_, err = codec.Resolve(ctx, token)
	assert.ErrorIs(t, err, identity.ErrStorageUnavailable,
		"a storage outage must not read as a logged-out client")
}
