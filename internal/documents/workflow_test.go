package documents_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/registrum/registrum/internal/authz"
	"github.com/registrum/registrum/internal/documents"
	"github.com/registrum/registrum/pkg/pagination"
)

func reviewer(id string) authz.Principal {
	return authz.Principal{ID: id, Name: "Mwamba", Role: authz.RoleReviewer}
}

var workflowAdmin = authz.Principal{ID: "admin-1", Name: "Mme. Okito", Role: authz.RoleAdmin}

func workflowDoc(status documents.Status, reviewerID string) *documents.Document {
	doc := &documents.Document{
		ID:     uuid.MustParse("b3c1a2d4-0000-4000-8000-000000000001"),
		Status: status,
	}
	if reviewerID != "" {
		doc.ReviewerID = &reviewerID
	}
	return doc
}

func TestCanRelease(t *testing.T) {
	tests := []struct {
		name  string
		doc   *documents.Document
		actor authz.Principal
		want  error
	}{
		{"assignee releases", workflowDoc(documents.StatusInReview, "rev-1"), reviewer("rev-1"), nil},
		{"admin releases another's claim", workflowDoc(documents.StatusInReview, "rev-1"), workflowAdmin, nil},
		{"other reviewer denied", workflowDoc(documents.StatusInReview, "rev-1"), reviewer("rev-2"), authz.ErrForbidden},
		{"unclaimed document", workflowDoc(documents.StatusPendingReview, ""), reviewer("rev-1"), documents.ErrNotClaimed},
		{"approved is terminal", workflowDoc(documents.StatusApproved, "rev-1"), reviewer("rev-1"), documents.ErrTerminalState},
		{"rejected is terminal", workflowDoc(documents.StatusRejected, "rev-1"), reviewer("rev-1"), documents.ErrTerminalState},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := documents.CanRelease(tc.doc, tc.actor)
			if !errors.Is(err, tc.want) {
				t.Errorf("CanRelease() = %v, want %v", err, tc.want)
			}
		})
	}

	t.Run("archived document is gone", func(t *testing.T) {
		doc := workflowDoc(documents.StatusInReview, "rev-1")
		doc.Archived = true

		if err := documents.CanRelease(doc, reviewer("rev-1")); !errors.Is(err, documents.ErrNotFound) {
			t.Errorf("CanRelease() = %v, want ErrNotFound", err)
		}
	})
}

func TestCanUpdate(t *testing.T) {
	tests := []struct {
		name  string
		doc   *documents.Document
		actor authz.Principal
		want  error
	}{
		{"assignee edits", workflowDoc(documents.StatusInReview, "rev-1"), reviewer("rev-1"), nil},
		{"admin edits", workflowDoc(documents.StatusInReview, "rev-1"), workflowAdmin, nil},
		{"other reviewer denied", workflowDoc(documents.StatusInReview, "rev-1"), reviewer("rev-2"), authz.ErrForbidden},
		{"unassigned document denied", workflowDoc(documents.StatusPendingReview, ""), reviewer("rev-1"), authz.ErrForbidden},
		{"approved is terminal", workflowDoc(documents.StatusApproved, "rev-1"), reviewer("rev-1"), documents.ErrTerminalState},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := documents.CanUpdate(tc.doc, tc.actor)
			if !errors.Is(err, tc.want) {
				t.Errorf("CanUpdate() = %v, want %v", err, tc.want)
			}
		})
	}

	t.Run("archived document is gone", func(t *testing.T) {
		doc := workflowDoc(documents.StatusInReview, "rev-1")
		doc.Archived = true

		if err := documents.CanUpdate(doc, reviewer("rev-1")); !errors.Is(err, documents.ErrNotFound) {
			t.Errorf("CanUpdate() = %v, want ErrNotFound", err)
		}
	})
}

func TestCanApprove(t *testing.T) {
	tests := []struct {
		name  string
		doc   *documents.Document
		actor authz.Principal
		want  error
	}{
		{"assignee approves", workflowDoc(documents.StatusInReview, "rev-1"), reviewer("rev-1"), nil},
		{"admin approves", workflowDoc(documents.StatusInReview, "rev-1"), workflowAdmin, nil},
		{"other reviewer denied", workflowDoc(documents.StatusInReview, "rev-1"), reviewer("rev-2"), authz.ErrForbidden},
		{"unclaimed document", workflowDoc(documents.StatusPendingReview, ""), reviewer("rev-1"), documents.ErrNotClaimed},
		{"already approved", workflowDoc(documents.StatusApproved, "rev-1"), reviewer("rev-1"), documents.ErrTerminalState},
		{"already rejected", workflowDoc(documents.StatusRejected, "rev-1"), reviewer("rev-1"), documents.ErrTerminalState},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := documents.CanApprove(tc.doc, tc.actor)
			if !errors.Is(err, tc.want) {
				t.Errorf("CanApprove() = %v, want %v", err, tc.want)
			}
		})
	}

	t.Run("archived document is gone", func(t *testing.T) {
		doc := workflowDoc(documents.StatusInReview, "rev-1")
		doc.Archived = true

		if err := documents.CanApprove(doc, reviewer("rev-1")); !errors.Is(err, documents.ErrNotFound) {
			t.Errorf("CanApprove() = %v, want ErrNotFound", err)
		}
	})
}

func TestCanReject(t *testing.T) {
	tests := []struct {
		name  string
		doc   *documents.Document
		actor authz.Principal
		want  error
	}{
		{"unclaimed document", workflowDoc(documents.StatusPendingReview, ""), reviewer("rev-1"), nil},
		{"another reviewer's claim", workflowDoc(documents.StatusInReview, "rev-1"), reviewer("rev-2"), nil},
		{"admin rejects", workflowDoc(documents.StatusPendingReview, ""), workflowAdmin, nil},
		{"teacher denied", workflowDoc(documents.StatusPendingReview, ""), authz.Principal{ID: "t-1", Role: authz.RoleTeacher}, authz.ErrForbidden},
		{"approved is terminal", workflowDoc(documents.StatusApproved, "rev-1"), reviewer("rev-1"), documents.ErrTerminalState},
		{"rejected is terminal", workflowDoc(documents.StatusRejected, "rev-1"), reviewer("rev-1"), documents.ErrTerminalState},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := documents.CanReject(tc.doc, tc.actor)
			if !errors.Is(err, tc.want) {
				t.Errorf("CanReject() = %v, want %v", err, tc.want)
			}
		})
	}

	t.Run("archived document is gone", func(t *testing.T) {
		doc := workflowDoc(documents.StatusPendingReview, "")
		doc.Archived = true

		if err := documents.CanReject(doc, reviewer("rev-1")); !errors.Is(err, documents.ErrNotFound) {
			t.Errorf("CanReject() = %v, want ErrNotFound", err)
		}
	})
}

// Argument and role checks that refuse before any store access; the system
// under test carries no database connection, so a refused call that still
// passes proves the guard runs first.
func TestWorkflowPreChecks(t *testing.T) {
	sys := documents.New(
		nil,
		nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
		nil,
		nil,
		nil,
		nil,
	)

	ctx := context.Background()
	id := uuid.MustParse("b3c1a2d4-0000-4000-8000-000000000002")

	t.Run("reject requires a reason", func(t *testing.T) {
		_, err := sys.Reject(ctx, id, reviewer("rev-1"), "", documents.RejectQuality)
		if !errors.Is(err, documents.ErrReasonRequired) {
			t.Errorf("Reject() = %v, want ErrReasonRequired", err)
		}
	})

	t.Run("reject requires a known type", func(t *testing.T) {
		_, err := sys.Reject(ctx, id, reviewer("rev-1"), "blurry scan", documents.RejectionType("smudged"))
		if !errors.Is(err, documents.ErrInvalidRejection) {
			t.Errorf("Reject() = %v, want ErrInvalidRejection", err)
		}
	})

	t.Run("claim denied for students", func(t *testing.T) {
		student := authz.Principal{ID: "stu-1", Name: "Tshala", Role: authz.RoleStudent}
		_, err := sys.Claim(ctx, id, student)
		if !errors.Is(err, authz.ErrForbidden) {
			t.Errorf("Claim() = %v, want ErrForbidden", err)
		}
	})

	t.Run("update requires valid json", func(t *testing.T) {
		_, err := sys.Update(ctx, id, reviewer("rev-1"), []byte("not json"), "")
		if !errors.Is(err, documents.ErrInvalidUpload) {
			t.Errorf("Update() = %v, want ErrInvalidUpload", err)
		}
	})

	t.Run("archive denied for reviewers", func(t *testing.T) {
		err := sys.Archive(ctx, id, reviewer("rev-1"))
		if !errors.Is(err, authz.ErrForbidden) {
			t.Errorf("Archive() = %v, want ErrForbidden", err)
		}
	})
}
