package services

import (
	"testing"

	domainagg "github.com/OpenSundsvall/api-service-case-data/internal/domain/aggregates"
	"github.com/OpenSundsvall/api-service-case-data/internal/domain/errand"
)

func TestErrandServiceChildUpdateStampsRoot(t *testing.T) {
	f := newServiceFixture(t)
	created, err := f.svc.CreateErrand(actorCtx("c", "creator"), newParkingErrand())
	if err != nil {
		t.Fatalf("CreateErrand: %v", err)
	}
	stakeholderID := created.Stakeholders[0].ID

	name := "Robin"
	ctx := actorCtx("c2", "editor")
	st, err := f.svc.UpdateStakeholder(ctx, created.ID, stakeholderID, errand.StakeholderPatch{
		FirstName: &name,
		Roles:     []string{errand.RoleApplicant},
	})
	if err != nil {
		t.Fatalf("UpdateStakeholder: %v", err)
	}
	if st.FirstName != name {
		t.Fatalf("first name: want=%s got=%s", name, st.FirstName)
	}

	cur, err := f.svc.GetErrand(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetErrand: %v", err)
	}
	if cur.Version != created.Version+1 {
		t.Fatalf("root version: want=%d got=%d", created.Version+1, cur.Version)
	}
	if cur.UpdatedBy != "editor" || cur.UpdatedByClient != "c2" {
		t.Fatalf("root stamps: updatedBy=%s client=%s", cur.UpdatedBy, cur.UpdatedByClient)
	}
	if f.process.updateCalls != 1 {
		t.Fatalf("update calls: want=1 got=%d", f.process.updateCalls)
	}

	byRole, err := f.svc.GetStakeholders(ctx, created.ID, errand.RoleApplicant)
	if err != nil {
		t.Fatalf("GetStakeholders: %v", err)
	}
	if len(byRole) != 1 || byRole[0].ID != stakeholderID {
		t.Fatalf("stakeholders by role: %+v", byRole)
	}
	if _, err := f.svc.GetStakeholders(ctx, created.ID, "INVOICE_RECIPIENT"); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("unknown role: want=%s got=%s", domainagg.CodeNotFound, domainagg.CodeOf(err))
	}
}

func TestErrandServiceDeletedChildIsNotFound(t *testing.T) {
	f := newServiceFixture(t)
	ctx := actorCtx("c", "u")
	created, err := f.svc.CreateErrand(ctx, newParkingErrand())
	if err != nil {
		t.Fatalf("CreateErrand: %v", err)
	}
	note, err := f.svc.AddNote(ctx, created.ID, errand.Note{Title: "t", Text: "x"})
	if err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	got, err := f.svc.GetNote(ctx, created.ID, note.ID)
	if err != nil || got.ID != note.ID {
		t.Fatalf("GetNote: %v %v", got, err)
	}

	if err := f.svc.DeleteNote(ctx, created.ID, note.ID); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if _, err := f.svc.GetNote(ctx, created.ID, note.ID); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("deleted note: want=%s got=%s", domainagg.CodeNotFound, domainagg.CodeOf(err))
	}

	other, err := f.svc.CreateErrand(ctx, newParkingErrand())
	if err != nil {
		t.Fatalf("CreateErrand: %v", err)
	}
	foreign := created.Stakeholders[0].ID
	if _, err := f.svc.GetStakeholder(ctx, other.ID, foreign); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("foreign stakeholder: want=%s got=%s", domainagg.CodeNotFound, domainagg.CodeOf(err))
	}
	if _, err := f.svc.ReplaceNote(ctx, created.ID, note.ID, errand.Note{Title: "again"}); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("replace deleted note: want=%s got=%s", domainagg.CodeNotFound, domainagg.CodeOf(err))
	}
}
