package testutil

import (
	"sync"
	"testing"
	"time"
)

func TestHooksRecorderCountsPerOperation(t *testing.T) {
	h := &HooksRecorder{}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.ObserveOperation("CaseData.Errand.Patch", "optimistic_conflict", time.Millisecond)
			h.IncConflict("CaseData.Errand.Patch")
			h.IncRetry("CaseData.Errand.Patch")
		}()
	}
	wg.Wait()
	h.ObserveOperation("CaseData.Errand.Patch", "success", time.Millisecond)

	if got := h.Status("CaseData.Errand.Patch", "optimistic_conflict"); got != 8 {
		t.Fatalf("conflict status: want=8 got=%d", got)
	}
	if got := h.Status("CaseData.Errand.Patch", "success"); got != 1 {
		t.Fatalf("success status: want=1 got=%d", got)
	}
	if h.Conflicts("CaseData.Errand.Patch") != 8 || h.Retries("CaseData.Errand.Patch") != 8 {
		t.Fatalf("counters: conflicts=%d retries=%d", h.Conflicts("CaseData.Errand.Patch"), h.Retries("CaseData.Errand.Patch"))
	}
	if h.Status("CaseData.Errand.Create", "success") != 0 {
		t.Fatalf("unknown op should read zero")
	}
}
