package aggregates

import (
	"time"

	"github.com/OpenSundsvall/api-service-case-data/internal/data/repos"
	"github.com/OpenSundsvall/api-service-case-data/internal/domain/history"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/ctxutil"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/dbctx"
)

// errandAudit writes one commit per persisted mutation, in the mutation's
// transaction, so a rolled back attempt leaves no audit trace.
type errandAudit struct {
	history repos.HistoryRepo
}

func (a errandAudit) record(dbc dbctx.Context, before, after map[history.Key]history.Snapshot, actor ctxutil.Attribution, now time.Time) error {
	changes := history.Compare(before, after)
	if len(changes) == 0 {
		return nil
	}
	commit := &history.Commit{
		Author:      actor.User,
		Client:      actor.Client,
		CommittedAt: now,
	}
	return a.history.AppendCommit(dbc, commit, changes)
}
