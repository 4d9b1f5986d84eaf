package errandprocess

import (
	"context"
	"fmt"

	"github.com/OpenSundsvall/api-service-case-data/internal/data/repos"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/dbctx"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/logger"
)

type Activities struct {
	Log     *logger.Logger
	Errands repos.ErrandRepo
}

// Sync reads the errand's current state for the running process.
func (a *Activities) Sync(ctx context.Context, errandID int64) (SyncResult, error) {
	res := SyncResult{ErrandID: errandID}
	if a == nil || a.Errands == nil {
		return res, fmt.Errorf("errandprocess: activity not configured")
	}
	e, err := a.Errands.GetByID(dbctx.Context{Ctx: ctx}, errandID)
	if err != nil {
		return res, err
	}
	if e == nil {
		res.Missing = true
		return res, nil
	}
	res.ErrandNumber = e.ErrandNumber
	res.Phase = e.Phase
	if n := len(e.Statuses); n > 0 {
		res.Status = e.Statuses[n-1].StatusType
	}
	res.Closed = e.IsClosed()
	if a.Log != nil {
		a.Log.Debug("Synced errand process", "errand_id", errandID, "errand_number", res.ErrandNumber, "phase", res.Phase, "status", res.Status, "closed", res.Closed)
	}
	return res, nil
}
