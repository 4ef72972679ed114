package documents

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/registrum/registrum/pkg/query"
	"github.com/registrum/registrum/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "documents", "d").
	Project("id", "ID").
	Project("owner_id", "OwnerID").
	Project("owner_name", "OwnerName").
	Project("form_type", "FormType").
	Project("status", "Status").
	Project("priority", "Priority").
	Project("storage_key", "StorageKey").
	Project("page_count", "PageCount").
	Project("original_data", "OriginalData").
	Project("edited_data", "EditedData").
	Project("validation", "Validation").
	Project("quality_score", "QualityScore").
	Project("reviewer_id", "ReviewerID").
	Project("reviewer_name", "ReviewerName").
	Project("assigned_at", "AssignedAt").
	Project("approved_by", "ApprovedBy").
	Project("approved_at", "ApprovedAt").
	Project("approval_note", "ApprovalNote").
	Project("rejected_by", "RejectedBy").
	Project("rejected_at", "RejectedAt").
	Project("rejection_reason", "RejectionReason").
	Project("rejection_type", "RejectionType").
	Project("archived", "Archived").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

// Queue order: highest priority first, oldest first within a priority.
var defaultSort = []query.SortField{
	{Field: "Priority", Descending: true},
	{Field: "CreatedAt", Descending: false},
}

// Filters contains optional filtering criteria for queue queries.
// Nil fields are ignored. Statuses narrows to any of several states in one
// query; Unassigned restricts to documents no reviewer currently holds.
type Filters struct {
	Status     *string  `json:"status,omitempty"`
	Statuses   []string `json:"statuses,omitempty"`
	FormType   *string  `json:"form_type,omitempty"`
	OwnerID    *string  `json:"owner_id,omitempty"`
	ReviewerID *string  `json:"reviewer_id,omitempty"`
	Priority   *int     `json:"priority,omitempty"`
	Unassigned *bool    `json:"unassigned,omitempty"`
}

// Apply adds filter conditions to a query builder. Archived documents are
// always excluded from queue queries.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	b.WhereEquals("Status", f.Status).
		WhereEquals("FormType", f.FormType).
		WhereEquals("OwnerID", f.OwnerID).
		WhereEquals("ReviewerID", f.ReviewerID).
		WhereEquals("Priority", f.Priority).
		WhereEquals("Archived", ptr(false))

	if len(f.Statuses) > 0 {
		values := make([]any, len(f.Statuses))
		for i, s := range f.Statuses {
			values[i] = s
		}
		b.WhereIn("Status", values)
	}

	if f.Unassigned != nil && *f.Unassigned {
		b.WhereNullable("ReviewerID", nil)
	}

	return b
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	if ft := values.Get("form_type"); ft != "" {
		f.FormType = &ft
	}

	if o := values.Get("owner_id"); o != "" {
		f.OwnerID = &o
	}

	if r := values.Get("reviewer_id"); r != "" {
		f.ReviewerID = &r
	}

	if p := values.Get("priority"); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			f.Priority = &v
		}
	}

	if s := values.Get("statuses"); s != "" {
		for _, part := range strings.Split(s, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				f.Statuses = append(f.Statuses, trimmed)
			}
		}
	}

	if u := values.Get("unassigned"); u != "" {
		if v, err := strconv.ParseBool(u); err == nil {
			f.Unassigned = &v
		}
	}

	return f
}

func ptr[T any](v T) *T { return &v }

// documentColumns is the RETURNING column list for workflow mutations,
// aligned with scanDocument.
const documentColumns = `id, owner_id, owner_name, form_type, status, priority, storage_key, page_count,
		original_data, edited_data, validation, quality_score,
		reviewer_id, reviewer_name, assigned_at,
		approved_by, approved_at, approval_note,
		rejected_by, rejected_at, rejection_reason, rejection_type,
		archived, created_at, updated_at`

func scanDocument(s repository.Scanner) (Document, error) {
	var d Document
	err := s.Scan(
		&d.ID,
		&d.OwnerID,
		&d.OwnerName,
		&d.FormType,
		&d.Status,
		&d.Priority,
		&d.StorageKey,
		&d.PageCount,
		&d.OriginalData,
		&d.EditedData,
		&d.Validation,
		&d.QualityScore,
		&d.ReviewerID,
		&d.ReviewerName,
		&d.AssignedAt,
		&d.ApprovedBy,
		&d.ApprovedAt,
		&d.ApprovalNote,
		&d.RejectedBy,
		&d.RejectedAt,
		&d.RejectionReason,
		&d.RejectionType,
		&d.Archived,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	return d, err
}
