package testutil

import (
	"sync"
	"time"

	"github.com/OpenSundsvall/api-service-case-data/internal/data/aggregates"
)

// HooksRecorder counts aggregate hook signals per operation. It is safe for
// concurrent writers.
type HooksRecorder struct {
	mu        sync.Mutex
	statuses  map[string]map[string]int
	conflicts map[string]int
	retries   map[string]int
}

var _ aggregates.Hooks = (*HooksRecorder)(nil)

func (h *HooksRecorder) ObserveOperation(op, status string, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.statuses == nil {
		h.statuses = map[string]map[string]int{}
	}
	if h.statuses[op] == nil {
		h.statuses[op] = map[string]int{}
	}
	h.statuses[op][status]++
}

func (h *HooksRecorder) IncConflict(op string) { h.bump(&h.conflicts, op) }
func (h *HooksRecorder) IncRetry(op string)    { h.bump(&h.retries, op) }

func (h *HooksRecorder) bump(m *map[string]int, op string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if *m == nil {
		*m = map[string]int{}
	}
	(*m)[op]++
}

// Status is how many attempts of op ended with status.
func (h *HooksRecorder) Status(op, status string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.statuses[op][status]
}

func (h *HooksRecorder) Conflicts(op string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.conflicts[op]
}

func (h *HooksRecorder) Retries(op string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.retries[op]
}
