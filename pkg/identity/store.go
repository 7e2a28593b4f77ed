package identity

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Schema is the SQL schema for the identities table. It is portable across
// PostgreSQL and SQLite; timestamps are supplied by the application so the
// same statements work against both. Local accounts store NULL federated
// columns, so the UNIQUE pair constrains only federated rows (both engines
// treat NULLs as distinct).
const Schema = `
CREATE TABLE IF NOT EXISTS identities (
	id TEXT PRIMARY KEY,
	username TEXT UNIQUE,
	password_hash TEXT NOT NULL DEFAULT '',
	federated_provider TEXT,
	federated_subject TEXT,
	secret TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	UNIQUE (federated_provider, federated_subject)
);
`

// Store persists Identity records in a SQL database.
//
// The database is the single source of truth: concurrent creates on the same
// uniqueness key (username or federated subject) are serialized by the UNIQUE
// constraints, not by application-level locking, so the store stays correct
// when multiple server processes share one database.
type Store struct {
	db *sql.DB
}

// NewStore creates a new identity store on top of db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the identities table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("%w: create schema: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Register creates a local account with a bcrypt-hashed password.
// It fails with ErrDuplicateUsername if the username is already taken.
func (s *Store) Register(ctx context.Context, username, plaintext string) (*Identity, error) {
	hash, err := HashPassword(plaintext)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &Identity{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO identities (id, username, password_hash, federated_provider, federated_subject, secret, created_at, updated_at)
		VALUES ($1, $2, $3, NULL, NULL, '', $4, $5)
	`, user.ID, user.Username, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		// The insert races with concurrent registrations; re-check the
		// username rather than parsing driver-specific error codes.
		if _, lookupErr := s.getByUsername(ctx, username); lookupErr == nil {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("%w: insert identity: %v", ErrStorageUnavailable, err)
	}

	return user, nil
}

// Verify checks a username/password pair and returns the matching identity.
// Unknown usernames and wrong passwords both fail with ErrInvalidCredentials.
func (s *Store) Verify(ctx context.Context, username, plaintext string) (*Identity, error) {
	user, err := s.getByUsername(ctx, username)
	if err == sql.ErrNoRows {
		// Burn a comparison so a miss is not observably faster.
		bcrypt.CompareHashAndPassword(dummyHash, []byte(plaintext))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query identity: %v", ErrStorageUnavailable, err)
	}

	if user.PasswordHash == "" || !CheckPassword(user.PasswordHash, plaintext) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// ResolveFederated finds the identity linked to (provider, subject) or
// atomically creates one. Concurrent first-time calls for the same subject
// yield exactly one identity: the insert uses ON CONFLICT DO NOTHING against
// the uniqueness constraint and the winner is re-read afterwards.
func (s *Store) ResolveFederated(ctx context.Context, provider, subject string) (*Identity, error) {
	if user, err := s.getByFederatedSubject(ctx, provider, subject); err == nil {
		return user, nil
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("%w: query identity: %v", ErrStorageUnavailable, err)
	}

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO identities (id, username, password_hash, federated_provider, federated_subject, secret, created_at, updated_at)
		VALUES ($1, NULL, '', $2, $3, '', $4, $5)
		ON CONFLICT (federated_provider, federated_subject) DO NOTHING
	`, uuid.NewString(), provider, subject, now, now)
	if err != nil {
		return nil, fmt.Errorf("%w: insert identity: %v", ErrStorageUnavailable, err)
	}

	user, err := s.getByFederatedSubject(ctx, provider, subject)
	if err != nil {
		return nil, fmt.Errorf("%w: reread identity: %v", ErrStorageUnavailable, err)
	}
	return user, nil
}

// GetByID returns the identity with the given id, or ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id string) (*Identity, error) {
	user, err := s.scanOne(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query identity: %v", ErrStorageUnavailable, err)
	}
	return user, nil
}

// SetSecret attaches a submitted secret to the identity.
func (s *Store) SetSecret(ctx context.Context, id, secret string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE identities SET secret = $1, updated_at = $2 WHERE id = $3
	`, secret, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("%w: update secret: %v", ErrStorageUnavailable, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSecrets returns the secrets of all identities that have submitted one.
// Authors are not included.
func (s *Store) ListSecrets(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT secret FROM identities WHERE secret <> '' ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: query secrets: %v", ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var secrets []string
	for rows.Next() {
		var secret string
		if err := rows.Scan(&secret); err != nil {
			return nil, fmt.Errorf("%w: scan secret: %v", ErrStorageUnavailable, err)
		}
		secrets = append(secrets, secret)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate secrets: %v", ErrStorageUnavailable, err)
	}
	return secrets, nil
}

// Counts returns the total number of identities, how many were provisioned
// from a federated provider, and how many carry a secret. Used by the
// metrics refresher.
func (s *Store) Counts(ctx context.Context) (identities, federated, secrets int64, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(federated_provider),
		       COUNT(CASE WHEN secret <> '' THEN 1 END)
		FROM identities
	`).Scan(&identities, &federated, &secrets)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: count identities: %v", ErrStorageUnavailable, err)
	}
	return identities, federated, secrets, nil
}

const selectColumns = `
	SELECT id, COALESCE(username, ''), password_hash, COALESCE(federated_provider, ''), COALESCE(federated_subject, ''), secret, created_at, updated_at
	FROM identities`

func (s *Store) getByUsername(ctx context.Context, username string) (*Identity, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, selectColumns+` WHERE username = $1`, username))
}

func (s *Store) getByFederatedSubject(ctx context.Context, provider, subject string) (*Identity, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		selectColumns+` WHERE federated_provider = $1 AND federated_subject = $2`, provider, subject))
}

func (s *Store) scanOne(row *sql.Row) (*Identity, error) {
	user := &Identity{}
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash,
		&user.FederatedProvider, &user.FederatedSubject, &user.Secret,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}
