package aggregates

import (
	"context"
	"fmt"
	"time"

	types "github.com/OpenSundsvall/api-service-case-data/internal/domain"
	domainagg "github.com/OpenSundsvall/api-service-case-data/internal/domain/aggregates"
	"github.com/OpenSundsvall/api-service-case-data/internal/domain/errand"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/dbctx"
)

func (a *errandAggregate) UpdateNote(ctx context.Context, in domainagg.UpdateNoteInput) (*types.Note, error) {
	const op = "CaseData.Errand.UpdateNote"
	if in.NoteID <= 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing note id", nil)
	}
	out, err := a.mutate(ctx, op, in.ErrandRef, func(dbc dbctx.Context, cur *types.Errand, now time.Time) error {
		n := childByID(cur.Notes, in.NoteID, noteID)
		if n == nil {
			return notOwned(op, "note", cur.ID, in.NoteID)
		}
		in.Patch.Apply(n)
		errand.TouchNote(n, in.Actor.User, false)
		n.Updated = now
		ok, err := a.deps.Errands.UpdateNote(dbc, cur.ID, n)
		return requireOwned(op, "note", cur.ID, in.NoteID, ok, err)
	})
	if err != nil {
		return nil, err
	}
	return storedChild(op, out.Notes, in.NoteID, noteID)
}

func (a *errandAggregate) ReplaceNote(ctx context.Context, in domainagg.ReplaceNoteInput) (*types.Note, error) {
	const op = "CaseData.Errand.ReplaceNote"
	if in.ChildID <= 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing note id", nil)
	}
	out, err := a.mutate(ctx, op, in.ErrandRef, func(dbc dbctx.Context, cur *types.Errand, now time.Time) error {
		n := childByID(cur.Notes, in.ChildID, noteID)
		if n == nil {
			return notOwned(op, "note", cur.ID, in.ChildID)
		}
		errand.PutNote(n, in.Note)
		errand.TouchNote(n, in.Actor.User, false)
		n.Updated = now
		ok, err := a.deps.Errands.UpdateNote(dbc, cur.ID, n)
		return requireOwned(op, "note", cur.ID, in.ChildID, ok, err)
	})
	if err != nil {
		return nil, err
	}
	return storedChild(op, out.Notes, in.ChildID, noteID)
}

func (a *errandAggregate) UpdateStakeholder(ctx context.Context, in domainagg.UpdateStakeholderInput) (*types.Stakeholder, error) {
	const op = "CaseData.Errand.UpdateStakeholder"
	if in.ChildID <= 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing stakeholder id", nil)
	}
	if t := in.Patch.Type; t != nil && !t.Valid() {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("unknown stakeholder type %q", *t), nil)
	}
	return a.writeStakeholder(ctx, op, in.ErrandRef, in.ChildID, func(s *types.Stakeholder) {
		in.Patch.Apply(s)
	})
}

func (a *errandAggregate) ReplaceStakeholder(ctx context.Context, in domainagg.ReplaceStakeholderInput) (*types.Stakeholder, error) {
	const op = "CaseData.Errand.ReplaceStakeholder"
	if in.ChildID <= 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing stakeholder id", nil)
	}
	if err := validateStakeholder(&in.Stakeholder); err != nil {
		return nil, domainagg.Wrap(domainagg.CodeValidation, op, err)
	}
	return a.writeStakeholder(ctx, op, in.ErrandRef, in.ChildID, func(s *types.Stakeholder) {
		errand.PutStakeholder(s, in.Stakeholder)
	})
}

func (a *errandAggregate) writeStakeholder(ctx context.Context, op string, ref domainagg.ErrandRef, id int64, edit func(*types.Stakeholder)) (*types.Stakeholder, error) {
	out, err := a.mutate(ctx, op, ref, func(dbc dbctx.Context, cur *types.Errand, now time.Time) error {
		s := childByID(cur.Stakeholders, id, stakeholderID)
		if s == nil {
			return notOwned(op, "stakeholder", cur.ID, id)
		}
		edit(s)
		s.Updated = now
		ok, err := a.deps.Errands.UpdateStakeholder(dbc, cur.ID, s)
		return requireOwned(op, "stakeholder", cur.ID, id, ok, err)
	})
	if err != nil {
		return nil, err
	}
	return storedChild(op, out.Stakeholders, id, stakeholderID)
}

func (a *errandAggregate) ReplaceAttachment(ctx context.Context, in domainagg.ReplaceAttachmentInput) (*types.Attachment, error) {
	const op = "CaseData.Errand.ReplaceAttachment"
	if in.ChildID <= 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing attachment id", nil)
	}
	out, err := a.mutate(ctx, op, in.ErrandRef, func(dbc dbctx.Context, cur *types.Errand, now time.Time) error {
		att := childByID(cur.Attachments, in.ChildID, attachmentID)
		if att == nil {
			return notOwned(op, "attachment", cur.ID, in.ChildID)
		}
		errand.PutAttachment(att, in.Attachment)
		att.Updated = now
		ok, err := a.deps.Errands.UpdateAttachment(dbc, cur.ID, att)
		return requireOwned(op, "attachment", cur.ID, in.ChildID, ok, err)
	})
	if err != nil {
		return nil, err
	}
	return storedChild(op, out.Attachments, in.ChildID, attachmentID)
}

func (a *errandAggregate) UpdateDecision(ctx context.Context, in domainagg.UpdateDecisionInput) (*types.Decision, error) {
	const op = "CaseData.Errand.UpdateDecision"
	if in.ChildID <= 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing decision id", nil)
	}
	out, err := a.mutate(ctx, op, in.ErrandRef, func(dbc dbctx.Context, cur *types.Errand, now time.Time) error {
		d := childByID(cur.Decisions, in.ChildID, decisionID)
		if d == nil {
			return notOwned(op, "decision", cur.ID, in.ChildID)
		}
		in.Patch.Apply(d)
		d.Updated = now
		ok, err := a.deps.Errands.UpdateDecision(dbc, cur.ID, d)
		return requireOwned(op, "decision", cur.ID, in.ChildID, ok, err)
	})
	if err != nil {
		return nil, err
	}
	return storedChild(op, out.Decisions, in.ChildID, decisionID)
}

// ReplaceDecision drops the stored decision with everything it owns and
// inserts the new one under the same id, one version up.
func (a *errandAggregate) ReplaceDecision(ctx context.Context, in domainagg.ReplaceDecisionInput) (*types.Decision, error) {
	const op = "CaseData.Errand.ReplaceDecision"
	if in.ChildID <= 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing decision id", nil)
	}
	if d := in.Decision.DecidedBy; d != nil {
		if err := validateStakeholder(d); err != nil {
			return nil, domainagg.Wrap(domainagg.CodeValidation, op, err)
		}
	}
	out, err := a.mutate(ctx, op, in.ErrandRef, func(dbc dbctx.Context, cur *types.Errand, now time.Time) error {
		old := childByID(cur.Decisions, in.ChildID, decisionID)
		if old == nil {
			return notOwned(op, "decision", cur.ID, in.ChildID)
		}
		next := cloneDecision(in.Decision)
		errand.StampDecision(&next, now)
		next.ID, next.Version, next.Created = old.ID, old.Version+1, old.Created

		ok, err := a.deps.Errands.DeleteDecision(dbc, cur.ID, old.ID)
		if err := requireOwned(op, "decision", cur.ID, old.ID, ok, err); err != nil {
			return err
		}
		return a.deps.Errands.InsertDecision(dbc, cur.ID, &next)
	})
	if err != nil {
		return nil, err
	}
	return storedChild(op, out.Decisions, in.ChildID, decisionID)
}

func childByID[T any](items []T, id int64, idOf func(*T) int64) *T {
	for i := range items {
		if idOf(&items[i]) == id {
			return &items[i]
		}
	}
	return nil
}

func stakeholderID(s *types.Stakeholder) int64 { return s.ID }
func attachmentID(a *types.Attachment) int64 { return a.ID }
func decisionID(d *types.Decision) int64 { return d.ID }
func noteID(n *types.Note) int64 { return n.ID }

func notOwned(op, kind string, errandID, childID int64) error {
	return domainagg.NotFound(op, "%s %d not found on errand %d", kind, childID, errandID)
}

// requireOwned turns a child write that matched no row into CodeNotFound.
func requireOwned(op, kind string, errandID, childID int64, ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return notOwned(op, kind, errandID, childID)
	}
	return nil
}

// storedChild picks the written child out of the reloaded aggregate.
func storedChild[T any](op string, items []T, id int64, idOf func(*T) int64) (*T, error) {
	if c := childByID(items, id, idOf); c != nil {
		return c, nil
	}
	return nil, domainagg.NewError(domainagg.CodeInternal, op, "written child not readable", nil)
}
