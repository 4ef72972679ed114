// Package authz defines the resolved principal and the single authorization
// predicate used by every workflow operation. The token verification that
// produces a Principal lives in pkg/middleware; this package only decides
// whether an already-authenticated principal may perform an action.
package authz

import "errors"

// Role is the opaque role assigned by the identity provider.
type Role string

// Roles known to the review service. Teacher and student accounts resolve
// through the same identity provider but never participate in review.
const (
	RoleAdmin    Role = "admin"
	RoleReviewer Role = "reviewer"
	RoleTeacher  Role = "teacher"
	RoleStudent  Role = "student"
)

// Action identifies a workflow operation subject to authorization.
type Action string

// Workflow actions.
const (
	ActionClaim   Action = "claim"
	ActionRelease Action = "release"
	ActionUpdate  Action = "update"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionArchive Action = "archive"
	ActionUpload  Action = "upload"
	ActionView    Action = "view"
)

// ErrForbidden indicates the principal's role does not permit the action.
var ErrForbidden = errors.New("not permitted")

// Principal is an authenticated caller resolved by the auth middleware.
type Principal struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Resource carries the per-document context a decision may depend on:
// the identity of the current assignee, if any.
type Resource struct {
	AssigneeID *string
}

// Assigned reports whether the resource is assigned to the principal.
func (r Resource) Assigned(p Principal) bool {
	return r.AssigneeID != nil && *r.AssigneeID == p.ID
}

// CanAct decides whether p may perform action on the resource. The admin
// bypass exists only here; callers must not special-case roles themselves.
func CanAct(p Principal, action Action, res Resource) bool {
	if p.Role == RoleAdmin {
		return true
	}

	if p.Role != RoleReviewer {
		return false
	}

	switch action {
	case ActionClaim, ActionReject, ActionUpload, ActionView:
		// claiming is self-assignment; rejection is permitted unclaimed
		return true
	case ActionRelease, ActionUpdate, ActionApprove:
		return res.Assigned(p)
	default:
		return false
	}
}
