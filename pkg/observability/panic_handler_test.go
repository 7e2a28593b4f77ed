package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoverPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(ErrorLevel, &buf)

	func() {
		defer RecoverPanic(logger, "gauge refresh")
		panic("boom")
	}()

	out := buf.String()
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "gauge refresh")
	assert.Contains(t, out, "PANIC recovered")
}

func TestMustRecover(t *testing.T) {
	err := func() (err error) {
		defer func() { err = MustRecover(recover()) }()
		panic("kaboom")
	}()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")

	assert.NoError(t, func() (err error) {
		defer func() { err = MustRecover(recover()) }()
		return nil
	}())
}
