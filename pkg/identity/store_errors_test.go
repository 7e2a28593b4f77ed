package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests exercise the failure paths against a mocked database; the happy
// paths run against real SQLite in store_test.go.

func TestStore_Verify_StorageUnavailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM identities").
		WillReturnError(errors.New("connection refused"))

	store := NewStore(db)
	_, err = store.Verify(context.Background(), "alice", "secret123")
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.NotErrorIs(t, err, ErrInvalidCredentials,
		"a storage failure must not masquerade as a credential failure")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ResolveFederated_StorageUnavailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM identities").
		WillReturnError(errors.New("connection refused"))

	store := NewStore(db)
	_, err = store.ResolveFederated(context.Background(), "google", "subject-1")
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ResolveFederated_InsertFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM identities").
		WillReturnRows(sqlmock.NewRows([]string{"id"})) // no match
	mock.ExpectExec("INSERT INTO identities").
		WillReturnError(errors.New("disk full"))

	store := NewStore(db)
	_, err = store.ResolveFederated(context.Background(), "google", "subject-1")
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListSecrets_StorageUnavailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT secret FROM identities").
		WillReturnError(errors.New("connection refused"))

	store := NewStore(db)
	_, err = store.ListSecrets(context.Background())
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	assert.NoError(t, mock.ExpectationsWereMet())
}
