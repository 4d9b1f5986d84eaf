package history

import (
	"context"
	"testing"
	"time"

	"github.com/OpenSundsvall/api-service-case-data/internal/data/repos/testutil"
	"github.com/OpenSundsvall/api-service-case-data/internal/domain/history"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/dbctx"
)

func TestHistoryRepoAppendAndList(t *testing.T) {
	db := testutil.DB(t)
	repo := NewHistoryRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	first := &history.Commit{Author: "alice", Client: "app", CommittedAt: now}
	if err := repo.AppendCommit(dbc, first, []history.Change{{
		EntityType: history.EntityErrand, EntityID: 7, ChangeType: history.ChangeCreated,
		Properties: []history.PropertyChange{{Property: "phase", Right: "Aktualisering"}},
	}}); err != nil {
		t.Fatalf("AppendCommit first: %v", err)
	}
	second := &history.Commit{Author: "bob", Client: "app", CommittedAt: now.Add(time.Minute)}
	if err := repo.AppendCommit(dbc, second, []history.Change{
		{EntityType: history.EntityErrand, EntityID: 7, ChangeType: history.ChangeUpdated,
			Properties: []history.PropertyChange{{Property: "phase", Left: "Aktualisering", Right: "Beslut"}}},
		{EntityType: history.EntityNote, EntityID: 3, ChangeType: history.ChangeCreated},
	}); err != nil {
		t.Fatalf("AppendCommit second: %v", err)
	}
	if second.ID <= first.ID {
		t.Fatalf("commit ids: want increasing got=%d then %d", first.ID, second.ID)
	}

	got, err := repo.ListByEntity(dbc, history.EntityErrand, 7)
	if err != nil {
		t.Fatalf("ListByEntity: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListByEntity: want=2 got=%d", len(got))
	}
	if got[0].ChangeType != history.ChangeCreated || got[1].ChangeType != history.ChangeUpdated {
		t.Fatalf("order: got=%s,%s", got[0].ChangeType, got[1].ChangeType)
	}
	if got[1].Commit == nil || got[1].Commit.Author != "bob" {
		t.Fatalf("commit metadata not loaded: %+v", got[1].Commit)
	}
	if len(got[1].Properties) != 1 || got[1].Properties[0].Right != "Beslut" {
		t.Fatalf("properties: %+v", got[1].Properties)
	}

	none, err := repo.ListByEntity(dbc, history.EntityErrand, 8)
	if err != nil || len(none) != 0 {
		t.Fatalf("ListByEntity unknown: want empty got=%v,%v", none, err)
	}
}
