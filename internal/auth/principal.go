// Package auth supplies the authenticated principal attached to every
// write. Authentication itself (sessions, tokens) is an external
// collaborator; this package only models the identity it produces.
package auth

import (
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthenticated is returned when a mutating operation is attempted
// without a known principal. Callers must fail fast before any computation
// or write occurs.
var ErrUnauthenticated = errors.New("unauthenticated")

// Principal is the authenticated identity stamped on writes as
// createdBy/validatedBy.
type Principal struct {
	Email string
	Name  string
}

// IsZero reports whether no identity is present.
func (p Principal) IsZero() bool {
	return p.Email == ""
}

// DisplayName returns the human-readable name, falling back to the email.
func (p Principal) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}

// Header names carrying the identity asserted by the fronting auth proxy.
const (
	EmailHeader = "X-User-Email"
	NameHeader  = "X-User-Name"
)

// FromRequest extracts the principal asserted by the transport. A zero
// principal means the request is unauthenticated.
func FromRequest(r *http.Request) Principal {
	return Principal{
		Email: strings.TrimSpace(r.Header.Get(EmailHeader)),
		Name:  strings.TrimSpace(r.Header.Get(NameHeader)),
	}
}
