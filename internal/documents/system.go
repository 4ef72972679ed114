package documents

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/registrum/registrum/internal/authz"
	"github.com/registrum/registrum/internal/reviewers"
	"github.com/registrum/registrum/pkg/pagination"
)

// System defines the public contract for document workflow operations.
// Mutations are all-or-nothing per call: no partial state is ever visible
// to readers.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Document], error)

	Find(ctx context.Context, id uuid.UUID) (*Document, error)
	Create(ctx context.Context, cmd CreateCommand) (*UploadResult, error)

	// Claim atomically assigns the document to the actor. It succeeds from
	// an unassigned entry state, idempotently from in_review when the actor
	// already holds the assignment, and conflicts otherwise.
	Claim(ctx context.Context, id uuid.UUID, actor authz.Principal) (*Document, error)

	// Release returns a claimed document to the queue. Assignee or admin only.
	Release(ctx context.Context, id uuid.UUID, actor authz.Principal, reason string) (*Document, error)

	// Update replaces the edited-data snapshot and appends a revision in the
	// same transaction. Assignee or admin only; status is unchanged.
	Update(ctx context.Context, id uuid.UUID, actor authz.Principal, data json.RawMessage, note string) (*Document, error)

	// Approve finalizes the document and increments the approver's lifetime
	// counter. Assignee or admin only.
	Approve(ctx context.Context, id uuid.UUID, actor authz.Principal, note string) (*Document, error)

	// Reject finalizes the document with a required reason. Any reviewer may
	// reject, claimed or not.
	Reject(ctx context.Context, id uuid.UUID, actor authz.Principal, reason string, rtype RejectionType) (*Document, error)

	// Archive soft-hides the document from all queues. Admin only.
	Archive(ctx context.Context, id uuid.UUID, actor authz.Principal) error

	AssignedTo(
		ctx context.Context,
		actor authz.Principal,
		page pagination.PageRequest,
	) (*pagination.PageResult[Document], error)

	StatusCounts(ctx context.Context) ([]StatusCount, error)
	Leaderboard(ctx context.Context, window time.Duration, limit int) ([]reviewers.Standing, error)
}
