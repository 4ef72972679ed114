// Package revisions implements the append-only edit ledger. Every accepted
// update to a document's editable data appends exactly one revision, written
// in the same transaction as the document's edited-data snapshot. Revisions
// are never mutated or deleted; a concurrent update that loses last-writer-
// wins on the snapshot still keeps its revision for audit and recovery.
package revisions

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Revision is one immutable edit record.
type Revision struct {
	ID           uuid.UUID       `json:"id"`
	DocumentID   uuid.UUID       `json:"document_id"`
	EditorID     string          `json:"editor_id"`
	EditorName   string          `json:"editor_name"`
	PreviousData json.RawMessage `json:"previous_data"`
	NewData      json.RawMessage `json:"new_data"`
	ChangeNote   string          `json:"change_note,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
