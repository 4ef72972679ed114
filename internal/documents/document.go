// Package documents implements the review workflow domain for Registrum.
// A document is one uploaded scan plus the extracted record derived from it;
// it moves from pending review through claim, edit, and a terminal approval
// or rejection, with every transition audited.
package documents

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/registrum/registrum/internal/extraction"
)

// Status is the workflow state of a document.
type Status string

// Workflow states. StatusAICompleted and StatusPendingReview are equivalent
// entry states: both mean extraction finished and no reviewer has claimed
// the document yet.
const (
	StatusAICompleted   Status = "ai_completed"
	StatusPendingReview Status = "pending_review"
	StatusInReview      Status = "in_review"
	StatusApproved      Status = "approved"
	StatusRejected      Status = "rejected"
)

// Claimable reports whether an unassigned document in this status may be claimed.
func (s Status) Claimable() bool {
	return s == StatusAICompleted || s == StatusPendingReview
}

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusAICompleted, StatusPendingReview, StatusInReview, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// RejectionType categorizes why a document was rejected.
type RejectionType string

// Rejection categories.
const (
	RejectQuality     RejectionType = "quality"
	RejectIllegible   RejectionType = "illegible"
	RejectIncomplete  RejectionType = "incomplete"
	RejectWrongFormat RejectionType = "wrong_format"
)

// Valid reports whether t is a known rejection type.
func (t RejectionType) Valid() bool {
	switch t {
	case RejectQuality, RejectIllegible, RejectIncomplete, RejectWrongFormat:
		return true
	}
	return false
}

// Document is the persistent workflow entity. OriginalData is the sorted
// extraction output frozen at upload; EditedData starts as a copy and is
// replaced wholesale by each accepted update. A document is never hard
// deleted while active; Archived soft-hides it from every queue.
type Document struct {
	ID           uuid.UUID       `json:"id"`
	OwnerID      string          `json:"owner_id"`
	OwnerName    string          `json:"owner_name"`
	FormType     string          `json:"form_type"`
	Status       Status          `json:"status"`
	Priority     int             `json:"priority"`
	StorageKey   string          `json:"storage_key"`
	PageCount    *int            `json:"page_count"`
	OriginalData json.RawMessage `json:"original_data"`
	EditedData   json.RawMessage `json:"edited_data"`
	Validation   json.RawMessage `json:"validation"`
	QualityScore *float64        `json:"quality_score"`

	ReviewerID   *string    `json:"reviewer_id"`
	ReviewerName *string    `json:"reviewer_name"`
	AssignedAt   *time.Time `json:"assigned_at"`

	ApprovedBy   *string    `json:"approved_by"`
	ApprovedAt   *time.Time `json:"approved_at"`
	ApprovalNote *string    `json:"approval_note"`

	RejectedBy      *string    `json:"rejected_by"`
	RejectedAt      *time.Time `json:"rejected_at"`
	RejectionReason *string    `json:"rejection_reason"`
	RejectionType   *string    `json:"rejection_type"`

	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateCommand carries everything needed to register one uploaded scan:
// the raw file bytes, the upstream extraction payload, and owner identity.
type CreateCommand struct {
	Data        []byte
	Filename    string
	ContentType string
	Extraction  []byte
	FormType    string
	Priority    int
	OwnerID     string
	OwnerName   string
	PageCount   *int
}

// UploadResult pairs the created document with its validation report.
// The report is returned even when validation failed: domain-rule errors
// do not block creation, only approval-quality data.
type UploadResult struct {
	Document *Document         `json:"document"`
	Report   extraction.Report `json:"report"`
}

// BatchResult reports the outcome of a single file within a batch upload.
type BatchResult struct {
	Result   *UploadResult `json:"result,omitempty"`
	Filename string        `json:"filename"`
	Error    string        `json:"error,omitempty"`
}

// StatusCount is one row of the per-status queue summary.
type StatusCount struct {
	Status Status `json:"status"`
	Count  int    `json:"count"`
}
