package reviewers

import "errors"

// ErrNotFound indicates no statistics row exists for the reviewer.
var ErrNotFound = errors.New("reviewer not found")
