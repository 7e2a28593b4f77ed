// Package api implements Confide's HTTP surface: local registration and
// login, federated login via the sso registry, session logout, and the
// authenticated secrets endpoints.
//
// Browser clients drive the flows with form posts and are redirected between
// pages; clients that ask for JSON get structured responses with matching
// status codes instead.
package api
