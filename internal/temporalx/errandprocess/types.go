package errandprocess

import (
	"fmt"
	"time"
)

const (
	WorkflowName        = "errand_process"
	ActivitySync        = "errand_process_sync"
	SignalErrandUpdated = "errand_updated"

	defaultSignalLimit = 500
)

func WorkflowID(errandID int64) string {
	return fmt.Sprintf("errand-process-%d", errandID)
}

type StartInput struct {
	ErrandID int64 `json:"errand_id"`
	// SignalLimit bounds how many update signals one run handles before it
	// continues as new. Zero uses the default.
	SignalLimit int `json:"signal_limit,omitempty"`
}

type ErrandUpdated struct {
	ErrandID  int64     `json:"errand_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SyncResult struct {
	ErrandID     int64  `json:"errand_id"`
	ErrandNumber string `json:"errand_number,omitempty"`
	Phase        string `json:"phase,omitempty"`
	Status       string `json:"status,omitempty"`
	Closed       bool   `json:"closed"`
	// Missing is set when the errand no longer exists, e.g. after a
	// compensated creation.
	Missing bool `json:"missing"`
}
