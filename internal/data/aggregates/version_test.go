package aggregates

import (
	"context"
	"testing"

	"github.com/OpenSundsvall/api-service-case-data/internal/data/repos/testutil"
	domainagg "github.com/OpenSundsvall/api-service-case-data/internal/domain/aggregates"
	"github.com/OpenSundsvall/api-service-case-data/internal/domain/errand"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/dbctx"
)

func TestRequireCASSuccess(t *testing.T) {
	if err := RequireCASSuccess(true, "errand 1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	err := MapError("op", RequireCASSuccess(false, "errand 1"))
	if !domainagg.IsCode(err, domainagg.CodeOptimisticConflict) {
		t.Fatalf("code: want=%s got=%s", domainagg.CodeOptimisticConflict, domainagg.CodeOf(err))
	}
}

func TestUpdateByVersionBumpsVersionOnlyWhenCurrent(t *testing.T) {
	db := testutil.DB(t)
	row := &errand.Errand{ErrandNumber: "PRH-2024-000001", CaseType: errand.CaseParkingPermit}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	guard := NewCASGuard(db)
	dbc := dbctx.Context{Ctx: context.Background()}

	ok, err := guard.UpdateByVersion(dbc, errandTable, row.ID, 0, map[string]any{"phase": "Utredning"})
	if err != nil || !ok {
		t.Fatalf("current version: want true,nil got=%v,%v", ok, err)
	}
	ok, err = guard.UpdateByVersion(dbc, errandTable, row.ID, 0, map[string]any{"phase": "Beslut"})
	if err != nil || ok {
		t.Fatalf("stale version: want false,nil got=%v,%v", ok, err)
	}

	var got errand.Errand
	if err := db.First(&got, row.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Version != 1 || got.Phase != "Utredning" {
		t.Fatalf("after CAS: want version=1 phase=Utredning got version=%d phase=%s", got.Version, got.Phase)
	}
}

func TestUpdateByVersionRejectsBadArguments(t *testing.T) {
	guard := NewCASGuard(nil)
	dbc := dbctx.Context{Ctx: context.Background()}
	for _, tc := range []struct {
		table  string
		id     int64
		loaded int
	}{
		{"", 1, 0},
		{errandTable, 0, 0},
		{errandTable, 1, -1},
		{errandTable, 1, 0},
	} {
		_, err := guard.UpdateByVersion(dbc, tc.table, tc.id, tc.loaded, nil)
		if !domainagg.IsCode(MapError("op", err), domainagg.CodeValidation) {
			t.Fatalf("%+v: want validation got=%v", tc, err)
		}
	}
}
