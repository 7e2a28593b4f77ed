package identity

import "errors"

var (
	// ErrDuplicateUsername is returned by Register when the username is taken.
	ErrDuplicateUsername = errors.New("username already registered")

	// ErrInvalidCredentials is returned by Verify for both an unknown
	// username and a wrong password. Callers must not be able to tell the
	// two apart.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotFound is returned when no identity matches the given id.
	ErrNotFound = errors.New("identity not found")

	// ErrStorageUnavailable wraps failures of the backing database. It is
	// not locally recoverable; callers surface it as a server-side error.
	ErrStorageUnavailable = errors.New("identity storage unavailable")
)
