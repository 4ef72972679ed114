package authz

import (
	"net/http"

	"github.com/registrum/registrum/pkg/middleware"
)

// FromRequest returns the principal resolved by the auth middleware,
// typed for authorization decisions.
func FromRequest(r *http.Request) (Principal, bool) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		return Principal{}, false
	}
	return Principal{ID: p.ID, Name: p.Name, Role: Role(p.Role)}, true
}
