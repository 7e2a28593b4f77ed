package httputil

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// ParsePathString extracts a string path parameter
func ParsePathString(r *http.Request, key string) (string, error) {
	vars := mux.Vars(r)
	str := vars[key]
	if str == "" {
		return "", fmt.Errorf("missing path parameter: %s", key)
	}
	return str, nil
}

// ParsePathStringOrError extracts a string path parameter and writes error on failure
func ParsePathStringOrError(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	val, err := ParsePathString(r, key)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return "", false
	}
	return val, true
}

// ParseQueryString extracts a string query parameter
func ParseQueryString(r *http.Request, key string, defaultVal string) string {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// FormString parses the request form and returns the trimmed value for key.
// Returns "" when the field is absent or the body is not a form.
func FormString(r *http.Request, key string) string {
	if err := r.ParseForm(); err != nil {
		return ""
	}
	return strings.TrimSpace(r.PostFormValue(key))
}

// RequireForm validates that every named form field is present and non-empty.
// On the first missing field it writes a 400 and returns false.
func RequireForm(w http.ResponseWriter, r *http.Request, fields ...string) bool {
	for _, field := range fields {
		if FormString(r, field) == "" {
			WriteBadRequest(w, fmt.Sprintf("%s is required", field))
			return false
		}
	}
	return true
}
