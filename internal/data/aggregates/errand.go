package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/OpenSundsvall/api-service-case-data/internal/data/repos"
	"github.com/OpenSundsvall/api-service-case-data/internal/data/repos/errands"
	types "github.com/OpenSundsvall/api-service-case-data/internal/domain"
	domainagg "github.com/OpenSundsvall/api-service-case-data/internal/domain/aggregates"
	"github.com/OpenSundsvall/api-service-case-data/internal/domain/errand"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/dbctx"
)

const errandTable = "errand"

type ErrandAggregateDeps struct {
	Base BaseDeps

	Errands repos.ErrandRepo
	History repos.HistoryRepo
	Numbers NumberGenerator
	// NumberLock is optional; without it concurrent creates rely on the
	// unique errand number index and retry on collision.
	NumberLock NumberLocker

	Retry RetryPolicy
	Clock func() time.Time
}

type errandAggregate struct {
	deps      ErrandAggregateDeps
	lifecycle errandLifecycle
	audit     errandAudit
}

func NewErrandAggregate(deps ErrandAggregateDeps) domainagg.ErrandAggregate {
	deps.Base = deps.Base.withDefaults()
	if deps.Clock == nil {
		deps.Clock = func() time.Time { return time.Now().UTC() }
	}
	if deps.Retry.MaxAttempts == 0 {
		deps.Retry = DefaultRetryPolicy()
	}
	return &errandAggregate{
		deps:      deps,
		lifecycle: errandLifecycle{numbers: deps.Numbers, log: deps.Base.Log.With("aggregate", "ErrandAggregate")},
		audit:     errandAudit{history: deps.History},
	}
}

func (a *errandAggregate) Contract() domainagg.Contract {
	return domainagg.ErrandAggregateContract
}

func (a *errandAggregate) configured(op string) error {
	if a.deps.Errands == nil || a.deps.History == nil || a.deps.Numbers == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "errand aggregate repos not configured", nil)
	}
	return nil
}

func (a *errandAggregate) Create(ctx context.Context, in domainagg.CreateErrandInput) (*types.Errand, error) {
	const op = "CaseData.Errand.Create"
	if err := a.configured(op); err != nil {
		return nil, err
	}
	if err := validateNewErrand(in.Errand); err != nil {
		return nil, domainagg.Wrap(domainagg.CodeValidation, op, err)
	}

	if a.deps.NumberLock != nil {
		release, err := a.deps.NumberLock.LockNumber(ctx, in.Errand.CaseType)
		if err != nil {
			return nil, domainagg.NewError(domainagg.CodeRetryable, op, "errand number lock unavailable", err)
		}
		defer release()
	}

	var out *types.Errand
	var numberTaken bool
	_, err := executeWithRetry(ctx, a.deps.Base, a.deps.Retry, op, func(dbc dbctx.Context) error {
		numberTaken = false
		e := in.Errand
		now := a.deps.Clock()
		if err := a.lifecycle.beforeInsert(dbc, e, in.Actor, now); err != nil {
			return err
		}
		if err := a.deps.Errands.Create(dbc, e); err != nil {
			if isUniqueViolation(err, "errand_number", "uk_errand_errand_number") {
				// another writer took the number between scan and insert
				numberTaken = true
				return OptimisticConflictError(fmt.Sprintf("errand number %s already taken", e.ErrandNumber))
			}
			return err
		}
		a.lifecycle.afterInsert(e)

		created, err := a.deps.Errands.GetByID(dbc, e.ID)
		if err != nil {
			return err
		}
		if created == nil {
			return InvariantError("inserted errand not readable")
		}
		if err := a.audit.record(dbc, nil, errand.Snapshots(created), in.Actor, now); err != nil {
			return err
		}
		out = created
		return nil
	})
	if numberTaken && domainagg.IsCode(err, domainagg.CodeOptimisticConflict) {
		return nil, domainagg.NewError(domainagg.CodeConflict, op, "no free errand number after retries", err)
	}
	return out, err
}

func (a *errandAggregate) Delete(ctx context.Context, ref domainagg.ErrandRef) error {
	const op = "CaseData.Errand.Delete"
	if err := a.configured(op); err != nil {
		return err
	}
	if ref.ErrandID <= 0 {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing errand id", nil)
	}
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		cur, err := a.deps.Errands.GetByID(dbc, ref.ErrandID)
		if err != nil {
			return err
		}
		if cur == nil {
			return domainagg.NotFound(op, "errand not found: %d", ref.ErrandID)
		}
		if _, err := a.deps.Errands.Delete(dbc, cur.ID); err != nil {
			return err
		}
		return a.audit.record(dbc, errand.Snapshots(cur), nil, ref.Actor, a.deps.Clock())
	})
}

// mutate is the load, change, touch, compare-and-set, audit sequence every
// update of an existing errand goes through. apply may write children
// through the repo; the root row is written afterwards with the version the
// errand was loaded at.
func (a *errandAggregate) mutate(ctx context.Context, op string, ref domainagg.ErrandRef, apply func(dbc dbctx.Context, cur *types.Errand, now time.Time) error) (*types.Errand, error) {
	if err := a.configured(op); err != nil {
		return nil, err
	}
	if ref.ErrandID <= 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing errand id", nil)
	}
	var out *types.Errand
	_, err := executeWithRetry(ctx, a.deps.Base, a.deps.Retry, op, func(dbc dbctx.Context) error {
		cur, err := a.deps.Errands.GetByID(dbc, ref.ErrandID)
		if err != nil {
			return err
		}
		if cur == nil {
			return domainagg.NotFound(op, "errand not found: %d", ref.ErrandID)
		}
		before := errand.Snapshots(cur)
		loadedVersion := cur.Version
		now := a.deps.Clock()

		if err := apply(dbc, cur, now); err != nil {
			return err
		}
		a.lifecycle.beforeUpdate(cur, ref.Actor, now)

		ok, err := a.deps.Base.CASGuard.UpdateByVersion(dbc, errandTable, cur.ID, loadedVersion, errands.RootColumns(cur))
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, fmt.Sprintf("errand %d changed since version %d", cur.ID, loadedVersion)); err != nil {
			return err
		}

		after, err := a.deps.Errands.GetByID(dbc, cur.ID)
		if err != nil {
			return err
		}
		if after == nil {
			return InvariantError("updated errand not readable")
		}
		if err := a.audit.record(dbc, before, errand.Snapshots(after), ref.Actor, now); err != nil {
			return err
		}
		out = after
		return nil
	})
	return out, err
}

func (a *errandAggregate) Patch(ctx context.Context, in domainagg.PatchErrandInput) (*types.Errand, error) {
	const op = "CaseData.Errand.Patch"
	if in.Patch.CaseType != nil && !in.Patch.CaseType.Valid() {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("unknown case type %q", *in.Patch.CaseType), nil)
	}
	if in.Patch.Priority != nil && !in.Patch.Priority.Valid() {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("unknown priority %q", *in.Patch.Priority), nil)
	}
	return a.mutate(ctx, op, in.ErrandRef, func(_ dbctx.Context, cur *types.Errand, _ time.Time) error {
		in.Patch.Apply(cur)
		return nil
	})
}

func (a *errandAggregate) AttachProcess(ctx context.Context, in domainagg.AttachProcessInput) (*types.Errand, error) {
	const op = "CaseData.Errand.AttachProcess"
	return a.mutate(ctx, op, in.ErrandRef, func(_ dbctx.Context, cur *types.Errand, _ time.Time) error {
		cur.ProcessID = strings.TrimSpace(in.ProcessID)
		return nil
	})
}

func (a *errandAggregate) AppendMessageIDs(ctx context.Context, in domainagg.AppendMessageIDsInput) (*types.Errand, error) {
	const op = "CaseData.Errand.AppendMessageIDs"
	ids := make([]string, 0, len(in.MessageIDs))
	for _, id := range in.MessageIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "no message ids given", nil)
	}
	return a.mutate(ctx, op, in.ErrandRef, func(_ dbctx.Context, cur *types.Errand, _ time.Time) error {
		cur.MessageIDs = append(cur.MessageIDs, ids...)
		return nil
	})
}

func (a *errandAggregate) AddStakeholder(ctx context.Context, in domainagg.AddStakeholderInput) (*types.Stakeholder, error) {
	const op = "CaseData.Errand.AddStakeholder"
	if err := validateStakeholder(&in.Stakeholder); err != nil {
		return nil, domainagg.Wrap(domainagg.CodeValidation, op, err)
	}
	var created types.Stakeholder
	_, err := a.mutate(ctx, op, in.ErrandRef, func(dbc dbctx.Context, cur *types.Errand, now time.Time) error {
		created = in.Stakeholder
		errand.StampStakeholder(&created, now)
		return a.deps.Errands.InsertStakeholder(dbc, cur.ID, &created)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (a *errandAggregate) AddAttachment(ctx context.Context, in domainagg.AddAttachmentInput) (*types.Attachment, error) {
	const op = "CaseData.Errand.AddAttachment"
	var created types.Attachment
	_, err := a.mutate(ctx, op, in.ErrandRef, func(dbc dbctx.Context, cur *types.Errand, now time.Time) error {
		created = in.Attachment
		errand.StampAttachment(&created, now)
		return a.deps.Errands.InsertAttachment(dbc, cur.ID, &created)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (a *errandAggregate) AddDecision(ctx context.Context, in domainagg.AddDecisionInput) (*types.Decision, error) {
	const op = "CaseData.Errand.AddDecision"
	if d := in.Decision.DecidedBy; d != nil {
		if err := validateStakeholder(d); err != nil {
			return nil, domainagg.Wrap(domainagg.CodeValidation, op, err)
		}
	}
	var created types.Decision
	_, err := a.mutate(ctx, op, in.ErrandRef, func(dbc dbctx.Context, cur *types.Errand, now time.Time) error {
		created = cloneDecision(in.Decision)
		errand.StampDecision(&created, now)
		return a.deps.Errands.InsertDecision(dbc, cur.ID, &created)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (a *errandAggregate) AddNote(ctx context.Context, in domainagg.AddNoteInput) (*types.Note, error) {
	const op = "CaseData.Errand.AddNote"
	var created types.Note
	_, err := a.mutate(ctx, op, in.ErrandRef, func(dbc dbctx.Context, cur *types.Errand, now time.Time) error {
		created = in.Note
		errand.StampNote(&created, in.Actor.User, now)
		return a.deps.Errands.InsertNote(dbc, cur.ID, &created)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (a *errandAggregate) AddStatus(ctx context.Context, in domainagg.AddStatusInput) (*types.Errand, error) {
	const op = "CaseData.Errand.AddStatus"
	if strings.TrimSpace(in.Status.StatusType) == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing statusType", nil)
	}
	return a.mutate(ctx, op, in.ErrandRef, func(_ dbctx.Context, cur *types.Errand, now time.Time) error {
		cur.Statuses = append(cur.Statuses, withStatusTime(in.Status, now))
		return nil
	})
}

func (a *errandAggregate) ReplaceStatuses(ctx context.Context, in domainagg.ReplaceStatusesInput) (*types.Errand, error) {
	const op = "CaseData.Errand.ReplaceStatuses"
	for _, s := range in.Statuses {
		if strings.TrimSpace(s.StatusType) == "" {
			return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing statusType", nil)
		}
	}
	return a.mutate(ctx, op, in.ErrandRef, func(_ dbctx.Context, cur *types.Errand, now time.Time) error {
		next := make([]types.Status, 0, len(in.Statuses))
		for _, s := range in.Statuses {
			next = append(next, withStatusTime(s, now))
		}
		cur.Statuses = next
		return nil
	})
}

func (a *errandAggregate) ReplaceStakeholders(ctx context.Context, in domainagg.ReplaceStakeholdersInput) (*types.Errand, error) {
	const op = "CaseData.Errand.ReplaceStakeholders"
	for i := range in.Stakeholders {
		if err := validateStakeholder(&in.Stakeholders[i]); err != nil {
			return nil, domainagg.Wrap(domainagg.CodeValidation, op, err)
		}
	}
	return a.mutate(ctx, op, in.ErrandRef, func(dbc dbctx.Context, cur *types.Errand, now time.Time) error {
		if err := a.deps.Errands.DeleteAllStakeholders(dbc, cur.ID); err != nil {
			return err
		}
		for _, s := range in.Stakeholders {
			row := s
			errand.StampStakeholder(&row, now)
			if err := a.deps.Errands.InsertStakeholder(dbc, cur.ID, &row); err != nil {
				return err
			}
		}
		return nil
	})
}

func (a *errandAggregate) ReplaceAttachments(ctx context.Context, in domainagg.ReplaceAttachmentsInput) (*types.Errand, error) {
	const op = "CaseData.Errand.ReplaceAttachments"
	return a.mutate(ctx, op, in.ErrandRef, func(dbc dbctx.Context, cur *types.Errand, now time.Time) error {
		if err := a.deps.Errands.DeleteAllAttachments(dbc, cur.ID); err != nil {
			return err
		}
		for _, att := range in.Attachments {
			row := att
			errand.StampAttachment(&row, now)
			if err := a.deps.Errands.InsertAttachment(dbc, cur.ID, &row); err != nil {
				return err
			}
		}
		return nil
	})
}

func (a *errandAggregate) RemoveStakeholder(ctx context.Context, in domainagg.RemoveChildInput) error {
	return a.removeChild(ctx, "CaseData.Errand.RemoveStakeholder", "stakeholder", in, a.deps.Errands.DeleteStakeholder)
}

func (a *errandAggregate) RemoveAttachment(ctx context.Context, in domainagg.RemoveChildInput) error {
	return a.removeChild(ctx, "CaseData.Errand.RemoveAttachment", "attachment", in, a.deps.Errands.DeleteAttachment)
}

func (a *errandAggregate) RemoveDecision(ctx context.Context, in domainagg.RemoveChildInput) error {
	return a.removeChild(ctx, "CaseData.Errand.RemoveDecision", "decision", in, a.deps.Errands.DeleteDecision)
}

func (a *errandAggregate) RemoveNote(ctx context.Context, in domainagg.RemoveChildInput) error {
	return a.removeChild(ctx, "CaseData.Errand.RemoveNote", "note", in, a.deps.Errands.DeleteNote)
}

func (a *errandAggregate) removeChild(ctx context.Context, op, kind string, in domainagg.RemoveChildInput, del func(dbctx.Context, int64, int64) (bool, error)) error {
	if in.ChildID <= 0 {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing "+kind+" id", nil)
	}
	_, err := a.mutate(ctx, op, in.ErrandRef, func(dbc dbctx.Context, cur *types.Errand, _ time.Time) error {
		ok, err := del(dbc, cur.ID, in.ChildID)
		return requireOwned(op, kind, cur.ID, in.ChildID, ok, err)
	})
	return err
}

func validateNewErrand(e *types.Errand) error {
	if e == nil {
		return ValidationError("missing errand")
	}
	if !e.CaseType.Valid() {
		return ValidationError(fmt.Sprintf("unknown case type %q", e.CaseType))
	}
	if !e.Priority.Valid() {
		return ValidationError(fmt.Sprintf("unknown priority %q", e.Priority))
	}
	for i := range e.Stakeholders {
		if err := validateStakeholder(&e.Stakeholders[i]); err != nil {
			return err
		}
	}
	for _, s := range e.Statuses {
		if strings.TrimSpace(s.StatusType) == "" {
			return ValidationError("missing statusType")
		}
	}
	return nil
}

func validateStakeholder(s *types.Stakeholder) error {
	if !s.Type.Valid() {
		return ValidationError(fmt.Sprintf("unknown stakeholder type %q", s.Type))
	}
	return nil
}

func withStatusTime(s types.Status, now time.Time) types.Status {
	if s.DateTime.IsZero() {
		s.DateTime = now
	}
	return s
}

// cloneDecision copies the owned pointers so a retried attempt starts from
// the caller's input rather than from rows a rolled back attempt stamped.
func cloneDecision(d types.Decision) types.Decision {
	if d.DecidedBy != nil {
		s := *d.DecidedBy
		d.DecidedBy = &s
	}
	d.Attachments = append([]types.Attachment(nil), d.Attachments...)
	if d.Appeal != nil {
		ap := *d.Appeal
		if ap.AppealedBy != nil {
			s := *ap.AppealedBy
			ap.AppealedBy = &s
		}
		if ap.JudicialAuthorisation != nil {
			s := *ap.JudicialAuthorisation
			ap.JudicialAuthorisation = &s
		}
		ap.Attachments = append([]types.Attachment(nil), ap.Attachments...)
		d.Appeal = &ap
	}
	return d
}
