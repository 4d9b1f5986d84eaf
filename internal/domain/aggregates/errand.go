package aggregates

import (
	"context"

	"github.com/OpenSundsvall/api-service-case-data/internal/domain/errand"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/ctxutil"
)

var ErrandAggregateContract = Contract{
	Name: "CaseData.ErrandAggregate",
	Root: "errand",
	Owned: []string{
		"stakeholder", "facility", "attachment", "decision", "appeal", "note",
		"history_commit", "history_change",
	},
}

// ErrandAggregate owns every write to an errand and its children.
//
// Each mutating method loads the aggregate fresh, applies the change, touches
// the root, persists with a version compare-and-set and appends an audit
// commit in one transaction. Lost compare-and-sets are retried a bounded
// number of times before CodeOptimisticConflict is returned.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeOptimisticConflict, CodeConflict, CodeInternal.
type ErrandAggregate interface {
	Aggregate

	// Create assigns the errand number, stamps attribution and inserts the
	// complete aggregate together with its creation commit.
	Create(ctx context.Context, in CreateErrandInput) (*errand.Errand, error)

	// Delete removes the errand and everything it owns. Used to compensate a
	// creation whose workflow could not be started.
	Delete(ctx context.Context, ref ErrandRef) error

	Patch(ctx context.Context, in PatchErrandInput) (*errand.Errand, error)
	AttachProcess(ctx context.Context, in AttachProcessInput) (*errand.Errand, error)
	AppendMessageIDs(ctx context.Context, in AppendMessageIDsInput) (*errand.Errand, error)

	AddStakeholder(ctx context.Context, in AddStakeholderInput) (*errand.Stakeholder, error)
	AddAttachment(ctx context.Context, in AddAttachmentInput) (*errand.Attachment, error)
	AddDecision(ctx context.Context, in AddDecisionInput) (*errand.Decision, error)
	AddNote(ctx context.Context, in AddNoteInput) (*errand.Note, error)
	AddStatus(ctx context.Context, in AddStatusInput) (*errand.Errand, error)

	// UpdateNote patches a note owned by the errand and restamps its author.
	UpdateNote(ctx context.Context, in UpdateNoteInput) (*errand.Note, error)

	// Single child updates change one child in place, bump its version and
	// return it as stored. The root is touched like for any other write.
	// CodeNotFound is returned when the errand does not own the child.
	UpdateStakeholder(ctx context.Context, in UpdateStakeholderInput) (*errand.Stakeholder, error)
	ReplaceStakeholder(ctx context.Context, in ReplaceStakeholderInput) (*errand.Stakeholder, error)
	ReplaceAttachment(ctx context.Context, in ReplaceAttachmentInput) (*errand.Attachment, error)
	UpdateDecision(ctx context.Context, in UpdateDecisionInput) (*errand.Decision, error)
	ReplaceDecision(ctx context.Context, in ReplaceDecisionInput) (*errand.Decision, error)
	ReplaceNote(ctx context.Context, in ReplaceNoteInput) (*errand.Note, error)

	ReplaceStakeholders(ctx context.Context, in ReplaceStakeholdersInput) (*errand.Errand, error)
	ReplaceAttachments(ctx context.Context, in ReplaceAttachmentsInput) (*errand.Errand, error)
	ReplaceStatuses(ctx context.Context, in ReplaceStatusesInput) (*errand.Errand, error)

	// Remove* return CodeNotFound when the child is not owned by the errand.
	RemoveStakeholder(ctx context.Context, in RemoveChildInput) error
	RemoveAttachment(ctx context.Context, in RemoveChildInput) error
	RemoveDecision(ctx context.Context, in RemoveChildInput) error
	RemoveNote(ctx context.Context, in RemoveChildInput) error
}

type CreateErrandInput struct {
	Errand *errand.Errand
	Actor  ctxutil.Attribution
}

// ErrandRef addresses an existing errand on behalf of an actor.
type ErrandRef struct {
	ErrandID int64
	Actor    ctxutil.Attribution
}

type PatchErrandInput struct {
	ErrandRef
	Patch errand.Patch
}

type AttachProcessInput struct {
	ErrandRef
	ProcessID string
}

type AppendMessageIDsInput struct {
	ErrandRef
	MessageIDs []string
}

type AddStakeholderInput struct {
	ErrandRef
	Stakeholder errand.Stakeholder
}

type AddAttachmentInput struct {
	ErrandRef
	Attachment errand.Attachment
}

type AddDecisionInput struct {
	ErrandRef
	Decision errand.Decision
}

type AddNoteInput struct {
	ErrandRef
	Note errand.Note
}

type UpdateNoteInput struct {
	ErrandRef
	NoteID int64
	Patch  errand.NotePatch
}

type UpdateStakeholderInput struct {
	ErrandRef
	ChildID int64
	Patch   errand.StakeholderPatch
}

type ReplaceStakeholderInput struct {
	ErrandRef
	ChildID     int64
	Stakeholder errand.Stakeholder
}

type ReplaceAttachmentInput struct {
	ErrandRef
	ChildID    int64
	Attachment errand.Attachment
}

type UpdateDecisionInput struct {
	ErrandRef
	ChildID int64
	Patch   errand.DecisionPatch
}

// ReplaceDecisionInput swaps the whole decision including its decider,
// appeal and attachments; the decision keeps its id.
type ReplaceDecisionInput struct {
	ErrandRef
	ChildID  int64
	Decision errand.Decision
}

type ReplaceNoteInput struct {
	ErrandRef
	ChildID int64
	Note    errand.Note
}

type AddStatusInput struct {
	ErrandRef
	Status errand.Status
}

type ReplaceStakeholdersInput struct {
	ErrandRef
	Stakeholders []errand.Stakeholder
}

type ReplaceAttachmentsInput struct {
	ErrandRef
	Attachments []errand.Attachment
}

type ReplaceStatusesInput struct {
	ErrandRef
	Statuses []errand.Status
}

type RemoveChildInput struct {
	ErrandRef
	ChildID int64
}
