package documents

import (
	"errors"
	"net/http"

	"github.com/registrum/registrum/internal/authz"
)

// Domain errors for document workflow operations.
var (
	ErrNotFound         = errors.New("document not found")
	ErrDuplicate        = errors.New("document already exists")
	ErrClaimConflict    = errors.New("document is assigned to another reviewer")
	ErrTerminalState    = errors.New("document is in a terminal state")
	ErrNotClaimed       = errors.New("document is not claimed for review")
	ErrReasonRequired   = errors.New("rejection reason is required")
	ErrInvalidRejection = errors.New("invalid rejection type")
	ErrFileTooLarge     = errors.New("file exceeds maximum upload size")
	ErrInvalidUpload    = errors.New("invalid upload")
)

// MapHTTPStatus maps workflow errors to HTTP status codes. Conflicts with
// the state machine (double claim, terminal state, unclaimed approve) are
// 409; authorization failures are 403; malformed requests are 400.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate),
		errors.Is(err, ErrClaimConflict),
		errors.Is(err, ErrTerminalState),
		errors.Is(err, ErrNotClaimed):
		return http.StatusConflict
	case errors.Is(err, authz.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrReasonRequired),
		errors.Is(err, ErrInvalidRejection),
		errors.Is(err, ErrInvalidUpload):
		return http.StatusBadRequest
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}
