// Package httputil provides shared HTTP plumbing for Confide's handlers:
// JSON error responses, form and path parameter helpers, and the access log,
// request id, recovery, and body limit middleware that every route passes
// through.
package httputil
