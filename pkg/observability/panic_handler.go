package observability

import (
	"fmt"
	"runtime/debug"
)

// RecoverPanic recovers a panic in a defer statement and logs it with the
// full stack trace. The panic is not re-raised.
//
//	defer observability.RecoverPanic(logger, "session gauge refresh")
func RecoverPanic(logger *Logger, context string) {
	if r := recover(); r != nil {
		logger.WithField("panic", r).
			WithField("stack", string(debug.Stack())).
			WithField("context", context).
			Error("PANIC recovered")
	}
}

// MustRecover converts a recovered panic value into an error, for call
// sites that propagate failure instead of logging it.
//
//	defer func() { err = observability.MustRecover(recover()) }()
func MustRecover(r interface{}) error {
	if r != nil {
		return fmt.Errorf("panic: %v", r)
	}
	return nil
}
