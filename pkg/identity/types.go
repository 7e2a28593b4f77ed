package identity

import "time"

// Identity represents a user account.
//
// An identity is reachable by at least one authentication method: a local
// credential (Username + PasswordHash) or a federated subject
// (FederatedProvider + FederatedSubject). Local and federated accounts are
// disjoint; linking a federated subject to an existing local account is not
// supported.
type Identity struct {
	ID                string    `json:"id"`
	Username          string    `json:"username,omitempty"`
	PasswordHash      string    `json:"-"` // Never expose hash
	FederatedProvider string    `json:"federated_provider,omitempty"`
	FederatedSubject  string    `json:"federated_subject,omitempty"`
	Secret            string    `json:"secret,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// IsLocal reports whether the identity can authenticate with a password.
func (i *Identity) IsLocal() bool {
	return i.Username != "" && i.PasswordHash != ""
}

// IsFederated reports whether the identity is linked to a federated provider.
func (i *Identity) IsFederated() bool {
	return i.FederatedSubject != ""
}
