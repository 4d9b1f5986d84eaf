package aggregates_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/OpenSundsvall/api-service-case-data/internal/data/aggregates"
	aggtest "github.com/OpenSundsvall/api-service-case-data/internal/data/aggregates/testutil"
	"github.com/OpenSundsvall/api-service-case-data/internal/data/repos"
	repotest "github.com/OpenSundsvall/api-service-case-data/internal/data/repos/testutil"
	types "github.com/OpenSundsvall/api-service-case-data/internal/domain"
	domainagg "github.com/OpenSundsvall/api-service-case-data/internal/domain/aggregates"
	"github.com/OpenSundsvall/api-service-case-data/internal/domain/errand"
	"github.com/OpenSundsvall/api-service-case-data/internal/domain/history"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/ctxutil"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/dbctx"
	"github.com/OpenSundsvall/api-service-case-data/internal/services"
)

type errandFixture struct {
	db      *gorm.DB
	errands repos.ErrandRepo
	history repos.HistoryRepo
	runner  *aggtest.InjectedTxRunner
	hooks   *aggtest.HooksRecorder
	agg     domainagg.ErrandAggregate
	now     time.Time
}

func newErrandFixture(t *testing.T) *errandFixture {
	t.Helper()
	db := repotest.DB(t)
	log := repotest.Logger(t)
	f := &errandFixture{
		db:      db,
		errands: repos.NewErrandRepo(db, log),
		history: repos.NewHistoryRepo(db, log),
		runner:  &aggtest.InjectedTxRunner{Inner: aggregates.NewGormTxRunner(db)},
		hooks:   &aggtest.HooksRecorder{},
		now:     time.Now().UTC().Truncate(time.Second),
	}
	f.agg = aggregates.NewErrandAggregate(aggregates.ErrandAggregateDeps{
		Base: aggregates.BaseDeps{
			DB:       db,
			Log:      log,
			Runner:   f.runner,
			Hooks:    f.hooks,
			CASGuard: aggregates.NewCASGuard(db),
		},
		Errands: f.errands,
		History: f.history,
		Numbers: services.NewErrandNumberGenerator(log, f.errands, func() time.Time { return f.now }),
		Retry:   aggregates.RetryPolicy{MaxAttempts: aggregates.DefaultMaxAttempts},
		Clock:   func() time.Time { return f.now },
	})
	return f
}

func (f *errandFixture) tick() {
	f.now = f.now.Add(time.Second)
}

func (f *errandFixture) create(t *testing.T, actor ctxutil.Attribution) *types.Errand {
	t.Helper()
	e, err := f.agg.Create(context.Background(), domainagg.CreateErrandInput{
		Errand: &errand.Errand{
			CaseType: errand.CaseParkingPermit,
			Priority: errand.PriorityHigh,
			Phase:    "Aktualisering",
			Stakeholders: []errand.Stakeholder{{
				Type:      errand.StakeholderPerson,
				FirstName: "Kim",
				Roles:     []string{errand.RoleApplicant},
			}},
		},
		Actor: actor,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	f.runner.BeginCalls = 0
	return e
}

func (f *errandFixture) reload(t *testing.T, id int64) *types.Errand {
	t.Helper()
	e, err := f.errands.GetByID(dbctx.Context{Ctx: context.Background()}, id)
	if err != nil || e == nil {
		t.Fatalf("reload errand %d: %v", id, err)
	}
	return e
}

func TestErrandCreateAssignsSequentialNumbers(t *testing.T) {
	f := newErrandFixture(t)
	actor := ctxutil.NewAttribution("client-a", "user-a")

	first := f.create(t, actor)
	second := f.create(t, actor)

	year := f.now.Year()
	if want := fmt.Sprintf("PRH-%d-000001", year); first.ErrandNumber != want {
		t.Fatalf("first number: want=%s got=%s", want, first.ErrandNumber)
	}
	if want := fmt.Sprintf("PRH-%d-000002", year); second.ErrandNumber != want {
		t.Fatalf("second number: want=%s got=%s", want, second.ErrandNumber)
	}
	if first.CreatedByClient != "client-a" || first.CreatedBy != "user-a" {
		t.Fatalf("created stamps: got client=%s user=%s", first.CreatedByClient, first.CreatedBy)
	}
	if first.UpdatedByClient != "client-a" || first.UpdatedBy != "user-a" {
		t.Fatalf("updated stamps: got client=%s user=%s", first.UpdatedByClient, first.UpdatedBy)
	}
	if len(first.Stakeholders) != 1 || first.Stakeholders[0].ID == 0 {
		t.Fatalf("stakeholders: want one persisted child got %+v", first.Stakeholders)
	}

	changes, err := f.history.ListByEntity(dbctx.Context{Ctx: context.Background()}, history.EntityErrand, first.ID)
	if err != nil {
		t.Fatalf("ListByEntity: %v", err)
	}
	if len(changes) != 1 || changes[0].ChangeType != history.ChangeCreated {
		t.Fatalf("create history: want one created change got %d", len(changes))
	}
}

func TestErrandCreateRetriesOnConflict(t *testing.T) {
	f := newErrandFixture(t)
	f.runner.ConflictFirst = 2

	e, err := f.agg.Create(context.Background(), domainagg.CreateErrandInput{
		Errand: &errand.Errand{CaseType: errand.CaseParkingPermit},
		Actor:  ctxutil.NewAttribution("c", "u"),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got := f.runner.Attempts(); got != 3 {
		t.Fatalf("attempts: want=3 got=%d", got)
	}
	if got := f.hooks.Retries("CaseData.Errand.Create"); got != 2 {
		t.Fatalf("retries: want=2 got=%d", got)
	}
	if got := f.hooks.Status("CaseData.Errand.Create", "success"); got != 1 {
		t.Fatalf("successful attempts: want=1 got=%d", got)
	}
	if want := fmt.Sprintf("PRH-%d-000001", f.now.Year()); e.ErrandNumber != want {
		t.Fatalf("number after rolled back attempts: want=%s got=%s", want, e.ErrandNumber)
	}
}

func TestErrandPatchRetriesUpToFiveAttempts(t *testing.T) {
	for k := 0; k < aggregates.DefaultMaxAttempts; k++ {
		t.Run(fmt.Sprintf("conflicts=%d", k), func(t *testing.T) {
			f := newErrandFixture(t)
			e := f.create(t, ctxutil.NewAttribution("c", "u"))
			f.runner.ConflictFirst = k

			desc := "patched"
			out, err := f.agg.Patch(context.Background(), domainagg.PatchErrandInput{
				ErrandRef: domainagg.ErrandRef{ErrandID: e.ID, Actor: ctxutil.NewAttribution("c2", "u2")},
				Patch:     errand.Patch{Description: &desc},
			})
			if err != nil {
				t.Fatalf("Patch: %v", err)
			}
			if got := f.runner.Attempts(); got != k+1 {
				t.Fatalf("attempts: want=%d got=%d", k+1, got)
			}
			if out.Version != e.Version+1 {
				t.Fatalf("version: want=%d got=%d", e.Version+1, out.Version)
			}
			if out.Description != desc {
				t.Fatalf("description: want=%q got=%q", desc, out.Description)
			}
		})
	}
}

func TestErrandPatchSurfacesConflictAfterExhaustion(t *testing.T) {
	f := newErrandFixture(t)
	e := f.create(t, ctxutil.NewAttribution("c", "u"))
	f.runner.ConflictFirst = aggregates.DefaultMaxAttempts

	desc := "never"
	_, err := f.agg.Patch(context.Background(), domainagg.PatchErrandInput{
		ErrandRef: domainagg.ErrandRef{ErrandID: e.ID},
		Patch:     errand.Patch{Description: &desc},
	})
	if !domainagg.IsCode(err, domainagg.CodeOptimisticConflict) {
		t.Fatalf("error code: want=%s got=%s (%v)", domainagg.CodeOptimisticConflict, domainagg.CodeOf(err), err)
	}
	if got := f.runner.Attempts(); got != aggregates.DefaultMaxAttempts {
		t.Fatalf("attempts: want=%d got=%d", aggregates.DefaultMaxAttempts, got)
	}
	if got := f.hooks.Conflicts("CaseData.Errand.Patch"); got != aggregates.DefaultMaxAttempts {
		t.Fatalf("conflicts: want=%d got=%d", aggregates.DefaultMaxAttempts, got)
	}
	if got := f.hooks.Retries("CaseData.Errand.Patch"); got != aggregates.DefaultMaxAttempts-1 {
		t.Fatalf("retries: want=%d got=%d", aggregates.DefaultMaxAttempts-1, got)
	}
	if cur := f.reload(t, e.ID); cur.Description == desc || cur.Version != e.Version {
		t.Fatalf("rolled back state leaked: description=%q version=%d", cur.Description, cur.Version)
	}
}

func TestErrandPatchMissingErrandIsNotRetried(t *testing.T) {
	f := newErrandFixture(t)
	desc := "x"
	_, err := f.agg.Patch(context.Background(), domainagg.PatchErrandInput{
		ErrandRef: domainagg.ErrandRef{ErrandID: 4711},
		Patch:     errand.Patch{Description: &desc},
	})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("error code: want=%s got=%s", domainagg.CodeNotFound, domainagg.CodeOf(err))
	}
	if got := f.runner.Attempts(); got != 1 {
		t.Fatalf("attempts: want=1 got=%d", got)
	}
}

func TestErrandChildMutationTouchesRoot(t *testing.T) {
	f := newErrandFixture(t)
	e := f.create(t, ctxutil.NewAttribution("c1", "u1"))
	f.tick()

	actor := ctxutil.NewAttribution("c2", "u2")
	ref := domainagg.ErrandRef{ErrandID: e.ID, Actor: actor}

	att, err := f.agg.AddAttachment(context.Background(), domainagg.AddAttachmentInput{
		ErrandRef:  ref,
		Attachment: errand.Attachment{Name: "plan.pdf", Category: "PLAN"},
	})
	if err != nil {
		t.Fatalf("AddAttachment: %v", err)
	}
	if att.ID == 0 {
		t.Fatalf("attachment id not assigned")
	}

	cur := f.reload(t, e.ID)
	if cur.Version != e.Version+1 {
		t.Fatalf("version: want=%d got=%d", e.Version+1, cur.Version)
	}
	if cur.UpdatedByClient != "c2" || cur.UpdatedBy != "u2" {
		t.Fatalf("updated stamps: got client=%s user=%s", cur.UpdatedByClient, cur.UpdatedBy)
	}
	if !cur.Updated.After(e.Updated) {
		t.Fatalf("updated not advanced: before=%s after=%s", e.Updated, cur.Updated)
	}
	if cur.CreatedByClient != "c1" || cur.CreatedBy != "u1" {
		t.Fatalf("created stamps changed: client=%s user=%s", cur.CreatedByClient, cur.CreatedBy)
	}

	if err := f.agg.RemoveAttachment(context.Background(), domainagg.RemoveChildInput{ErrandRef: ref, ChildID: att.ID}); err != nil {
		t.Fatalf("RemoveAttachment: %v", err)
	}
	cur = f.reload(t, e.ID)
	if len(cur.Attachments) != 0 {
		t.Fatalf("attachments after remove: want=0 got=%d", len(cur.Attachments))
	}
	if cur.Version != e.Version+2 {
		t.Fatalf("version after remove: want=%d got=%d", e.Version+2, cur.Version)
	}
}

func TestErrandRemoveMissingChildIsNotFound(t *testing.T) {
	f := newErrandFixture(t)
	e := f.create(t, ctxutil.NewAttribution("c", "u"))
	other := f.create(t, ctxutil.NewAttribution("c", "u"))

	err := f.agg.RemoveStakeholder(context.Background(), domainagg.RemoveChildInput{
		ErrandRef: domainagg.ErrandRef{ErrandID: e.ID},
		ChildID:   other.Stakeholders[0].ID,
	})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("foreign child: want=%s got=%s", domainagg.CodeNotFound, domainagg.CodeOf(err))
	}
	if cur := f.reload(t, e.ID); cur.Version != e.Version {
		t.Fatalf("version changed on failed remove: want=%d got=%d", e.Version, cur.Version)
	}
	if cur := f.reload(t, other.ID); len(cur.Stakeholders) != 1 {
		t.Fatalf("other errand lost its stakeholder")
	}
}

func TestErrandNoteStampsAndUpdate(t *testing.T) {
	f := newErrandFixture(t)
	e := f.create(t, ctxutil.NewAttribution("c", "author"))

	note, err := f.agg.AddNote(context.Background(), domainagg.AddNoteInput{
		ErrandRef: domainagg.ErrandRef{ErrandID: e.ID, Actor: ctxutil.NewAttribution("c", "author")},
		Note:      errand.Note{Title: "Call", Text: "Called applicant"},
	})
	if err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	if note.CreatedBy != "author" || note.UpdatedBy != "author" {
		t.Fatalf("note stamps: created=%s updated=%s", note.CreatedBy, note.UpdatedBy)
	}

	text := "Called applicant twice"
	updated, err := f.agg.UpdateNote(context.Background(), domainagg.UpdateNoteInput{
		ErrandRef: domainagg.ErrandRef{ErrandID: e.ID, Actor: ctxutil.NewAttribution("c", "editor")},
		NoteID:    note.ID,
		Patch:     errand.NotePatch{Text: &text},
	})
	if err != nil {
		t.Fatalf("UpdateNote: %v", err)
	}
	if updated.CreatedBy != "author" || updated.UpdatedBy != "editor" || updated.Text != text {
		t.Fatalf("updated note: %+v", updated)
	}
	if cur := f.reload(t, e.ID); cur.UpdatedBy != "editor" {
		t.Fatalf("root updatedBy: want=editor got=%s", cur.UpdatedBy)
	}
}

func TestErrandReplaceStakeholdersAndStatuses(t *testing.T) {
	f := newErrandFixture(t)
	e := f.create(t, ctxutil.NewAttribution("c", "u"))
	ref := domainagg.ErrandRef{ErrandID: e.ID}

	out, err := f.agg.ReplaceStakeholders(context.Background(), domainagg.ReplaceStakeholdersInput{
		ErrandRef: ref,
		Stakeholders: []errand.Stakeholder{
			{Type: errand.StakeholderOrganization, OrganizationName: "Bolaget AB"},
			{Type: errand.StakeholderPerson, FirstName: "Alex"},
		},
	})
	if err != nil {
		t.Fatalf("ReplaceStakeholders: %v", err)
	}
	if len(out.Stakeholders) != 2 || out.Stakeholders[0].OrganizationName != "Bolaget AB" {
		t.Fatalf("stakeholders after replace: %+v", out.Stakeholders)
	}

	out, err = f.agg.ReplaceStatuses(context.Background(), domainagg.ReplaceStatusesInput{
		ErrandRef: ref,
		Statuses:  []errand.Status{{StatusType: "Ärende inkommit"}, {StatusType: "Under granskning"}},
	})
	if err != nil {
		t.Fatalf("ReplaceStatuses: %v", err)
	}
	if len(out.Statuses) != 2 || out.Statuses[1].StatusType != "Under granskning" {
		t.Fatalf("statuses after replace: %+v", out.Statuses)
	}
	if out.Version != e.Version+2 {
		t.Fatalf("version: want=%d got=%d", e.Version+2, out.Version)
	}
}

func TestErrandPatchRecordsHistory(t *testing.T) {
	f := newErrandFixture(t)
	e := f.create(t, ctxutil.NewAttribution("c", "u"))

	phase := "Utredning"
	if _, err := f.agg.Patch(context.Background(), domainagg.PatchErrandInput{
		ErrandRef: domainagg.ErrandRef{ErrandID: e.ID, Actor: ctxutil.NewAttribution("c", "handler")},
		Patch:     errand.Patch{Phase: &phase},
	}); err != nil {
		t.Fatalf("Patch: %v", err)
	}

	changes, err := f.history.ListByEntity(dbctx.Context{Ctx: context.Background()}, history.EntityErrand, e.ID)
	if err != nil {
		t.Fatalf("ListByEntity: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("changes: want=2 got=%d", len(changes))
	}
	last := changes[1]
	if last.ChangeType != history.ChangeUpdated || last.Commit == nil || last.Commit.Author != "handler" {
		t.Fatalf("last change: %+v", last)
	}
	found := false
	for _, p := range last.Properties {
		if history.IsExcluded(p.Property) {
			t.Fatalf("excluded property recorded: %s", p.Property)
		}
		if p.Property == "phase" {
			found = true
		}
	}
	if !found {
		t.Fatalf("phase change not recorded: %+v", last.Properties)
	}
}

func TestErrandAttachProcessIsNotAudited(t *testing.T) {
	f := newErrandFixture(t)
	e := f.create(t, ctxutil.NewAttribution("c", "u"))

	out, err := f.agg.AttachProcess(context.Background(), domainagg.AttachProcessInput{
		ErrandRef: domainagg.ErrandRef{ErrandID: e.ID},
		ProcessID: "run-1",
	})
	if err != nil {
		t.Fatalf("AttachProcess: %v", err)
	}
	if out.ProcessID != "run-1" {
		t.Fatalf("process id: want=run-1 got=%s", out.ProcessID)
	}
	changes, err := f.history.ListByEntity(dbctx.Context{Ctx: context.Background()}, history.EntityErrand, e.ID)
	if err != nil {
		t.Fatalf("ListByEntity: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("changes: want=1 (creation only) got=%d", len(changes))
	}
}

func TestErrandDeleteRemovesAggregate(t *testing.T) {
	f := newErrandFixture(t)
	e := f.create(t, ctxutil.NewAttribution("c", "u"))

	if err := f.agg.Delete(context.Background(), domainagg.ErrandRef{ErrandID: e.ID}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err := f.errands.GetByID(dbctx.Context{Ctx: context.Background()}, e.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Fatalf("errand still present after delete")
	}
	var stakeholders int64
	if err := f.db.Model(&errand.Stakeholder{}).Where("errand_id = ?", e.ID).Count(&stakeholders).Error; err != nil {
		t.Fatalf("count stakeholders: %v", err)
	}
	if stakeholders != 0 {
		t.Fatalf("stakeholders left: %d", stakeholders)
	}

	changes, err := f.history.ListByEntity(dbctx.Context{Ctx: context.Background()}, history.EntityErrand, e.ID)
	if err != nil {
		t.Fatalf("ListByEntity: %v", err)
	}
	if n := len(changes); n != 2 || changes[n-1].ChangeType != history.ChangeRemoved {
		t.Fatalf("delete history: %d changes", n)
	}
}

func TestErrandAppendMessageIDs(t *testing.T) {
	f := newErrandFixture(t)
	e := f.create(t, ctxutil.NewAttribution("c", "u"))
	ref := domainagg.ErrandRef{ErrandID: e.ID}

	if _, err := f.agg.AppendMessageIDs(context.Background(), domainagg.AppendMessageIDsInput{ErrandRef: ref, MessageIDs: []string{"m1"}}); err != nil {
		t.Fatalf("AppendMessageIDs: %v", err)
	}
	out, err := f.agg.AppendMessageIDs(context.Background(), domainagg.AppendMessageIDsInput{ErrandRef: ref, MessageIDs: []string{"m2", " "}})
	if err != nil {
		t.Fatalf("AppendMessageIDs: %v", err)
	}
	if len(out.MessageIDs) != 2 || out.MessageIDs[0] != "m1" || out.MessageIDs[1] != "m2" {
		t.Fatalf("message ids: %v", out.MessageIDs)
	}

	_, err = f.agg.AppendMessageIDs(context.Background(), domainagg.AppendMessageIDsInput{ErrandRef: ref})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("empty append: want=%s got=%s", domainagg.CodeValidation, domainagg.CodeOf(err))
	}
}

type fixedNumbers struct{ number string }

func (n fixedNumbers) Generate(dbctx.Context, errand.CaseType) (string, error) { return n.number, nil }

func TestErrandCreateReportsConflictWhenNumberStaysTaken(t *testing.T) {
	f := newErrandFixture(t)
	taken := fmt.Sprintf("PRH-%d-000001", f.now.Year())
	agg := aggregates.NewErrandAggregate(aggregates.ErrandAggregateDeps{
		Base:    aggregates.BaseDeps{DB: f.db, Hooks: f.hooks},
		Errands: f.errands,
		History: f.history,
		Numbers: fixedNumbers{number: taken},
		Retry:   aggregates.RetryPolicy{MaxAttempts: aggregates.DefaultMaxAttempts},
		Clock:   func() time.Time { return f.now },
	})
	newErrand := func() *errand.Errand { return &errand.Errand{CaseType: errand.CaseParkingPermit} }

	if _, err := agg.Create(context.Background(), domainagg.CreateErrandInput{Errand: newErrand()}); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	_, err := agg.Create(context.Background(), domainagg.CreateErrandInput{Errand: newErrand()})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("error code: want=%s got=%s (%v)", domainagg.CodeConflict, domainagg.CodeOf(err), err)
	}
	if got := f.hooks.Retries("CaseData.Errand.Create"); got != aggregates.DefaultMaxAttempts-1 {
		t.Fatalf("retries: want=%d got=%d", aggregates.DefaultMaxAttempts-1, got)
	}
}
