// Package config loads Confide's configuration from CONFIDE_* environment
// variables with sensible defaults for local development.
package config
