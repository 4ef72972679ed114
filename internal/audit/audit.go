// Package audit records workflow transitions in a flat append-only trail.
// Entries are written in the same transaction as the transition they
// describe and are never mutated or deleted.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// EntryType identifies the workflow transition an entry records.
type EntryType string

// Entry types, one per successful workflow transition.
const (
	TypeCreated  EntryType = "created"
	TypeClaimed  EntryType = "claimed"
	TypeReleased EntryType = "released"
	TypeUpdated  EntryType = "updated"
	TypeApproved EntryType = "approved"
	TypeRejected EntryType = "rejected"
	TypeArchived EntryType = "archived"
)

// Entry is one audit record.
type Entry struct {
	ID         uuid.UUID `json:"id"`
	Type       EntryType `json:"type"`
	DocumentID uuid.UUID `json:"document_id"`
	ActorID    string    `json:"actor_id"`
	ActorName  string    `json:"actor_name"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
