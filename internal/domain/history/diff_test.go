package history

import (
	"reflect"
	"testing"
)

func TestDiffSkipsBookkeepingProperties(t *testing.T) {
	before := Snapshot{"id": int64(1), "version": int64(1), "updated": "a", "updatedBy": "x", "phase": "Aktualisering"}
	after := Snapshot{"id": int64(1), "version": int64(2), "updated": "b", "updatedBy": "y", "phase": "Utredning"}

	got := Diff(before, after)
	want := []PropertyChange{{Property: "phase", Left: "Aktualisering", Right: "Utredning"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Diff: want=%v got=%v", want, got)
	}
}

func TestDiffRecursesIntoNestedValues(t *testing.T) {
	before := Snapshot{"address": map[string]any{"city": "Sundsvall", "location": map[string]any{"latitude": 62.39}}}
	after := Snapshot{"address": map[string]any{"city": "Timrå", "location": map[string]any{"latitude": 62.48}}}

	got := Diff(before, after)
	if len(got) != 2 {
		t.Fatalf("Diff: want=2 changes got=%v", got)
	}
	if got[0].Property != "address.city" || got[1].Property != "address.location.latitude" {
		t.Fatalf("Diff paths: got=%s,%s", got[0].Property, got[1].Property)
	}
}

func TestDiffComparesListsWhole(t *testing.T) {
	before := Snapshot{"roles": []any{"APPLICANT"}}
	after := Snapshot{"roles": []any{"APPLICANT", "DOCTOR"}}
	got := Diff(before, after)
	if len(got) != 1 || got[0].Property != "roles" {
		t.Fatalf("Diff: want one roles change got=%v", got)
	}
	if !reflect.DeepEqual(got[0].Right, []any{"APPLICANT", "DOCTOR"}) {
		t.Fatalf("Diff right: got=%v", got[0].Right)
	}
}

func TestDiffTreatsBlankAsAbsent(t *testing.T) {
	if got := Diff(Snapshot{"description": ""}, Snapshot{}); len(got) != 0 {
		t.Fatalf("Diff: want none got=%v", got)
	}
}

func TestCompareClassifiesEntities(t *testing.T) {
	errandKey := Key{Type: EntityErrand, ID: 1}
	oldAttachment := Key{Type: EntityAttachment, ID: 4}
	newAttachment := Key{Type: EntityAttachment, ID: 5}
	note := Key{Type: EntityNote, ID: 9}

	before := map[Key]Snapshot{
		errandKey:     {"version": int64(1), "attachments": []any{int64(4)}},
		oldAttachment: {"name": "a.pdf"},
		note:          {"text": "same"},
	}
	after := map[Key]Snapshot{
		errandKey:     {"version": int64(2), "attachments": []any{int64(5)}},
		newAttachment: {"name": "b.pdf"},
		note:          {"text": "same"},
	}

	got := Compare(before, after)
	if len(got) != 3 {
		t.Fatalf("Compare: want=3 got=%d (%v)", len(got), got)
	}
	if got[0].EntityType != EntityErrand || got[0].ChangeType != ChangeUpdated {
		t.Fatalf("first change: want errand updated got=%s %s", got[0].EntityType, got[0].ChangeType)
	}
	if got[1].EntityID != 4 || got[1].ChangeType != ChangeRemoved {
		t.Fatalf("second change: want attachment 4 removed got=%d %s", got[1].EntityID, got[1].ChangeType)
	}
	if got[2].EntityID != 5 || got[2].ChangeType != ChangeCreated {
		t.Fatalf("third change: want attachment 5 created got=%d %s", got[2].EntityID, got[2].ChangeType)
	}
	if len(got[2].Properties) != 1 || got[2].Properties[0].Right != "b.pdf" {
		t.Fatalf("created properties: got=%v", got[2].Properties)
	}
}

func TestParseEntityType(t *testing.T) {
	for in, want := range map[string]EntityType{"errands": EntityErrand, "Notes": EntityNote, "stakeholder": EntityStakeholder, "facilities": EntityFacility} {
		got, ok := ParseEntityType(in)
		if !ok || got != want {
			t.Fatalf("ParseEntityType(%q): want=%s got=%s ok=%v", in, want, got, ok)
		}
	}
	if _, ok := ParseEntityType("appeals"); ok {
		t.Fatalf("ParseEntityType(appeals): want not ok")
	}
}
