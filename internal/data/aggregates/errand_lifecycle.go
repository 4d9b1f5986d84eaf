package aggregates

import (
	"context"
	"time"

	types "github.com/OpenSundsvall/api-service-case-data/internal/domain"
	"github.com/OpenSundsvall/api-service-case-data/internal/domain/errand"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/ctxutil"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/dbctx"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/logger"
)

// NumberGenerator assigns the next errand number for a case type. It is
// called inside the create transaction, before the insert.
type NumberGenerator interface {
	Generate(dbc dbctx.Context, caseType errand.CaseType) (string, error)
}

// NumberLocker serializes number assignment per case type and year across
// service instances. release must be called once the create has committed.
type NumberLocker interface {
	LockNumber(ctx context.Context, caseType errand.CaseType) (release func(), err error)
}

// errandLifecycle stamps the aggregate around persistence: numbering and
// creation attribution before the first insert, touch before every update.
type errandLifecycle struct {
	numbers NumberGenerator
	log     *logger.Logger
}

func (l errandLifecycle) beforeInsert(dbc dbctx.Context, e *types.Errand, actor ctxutil.Attribution, now time.Time) error {
	number, err := l.numbers.Generate(dbc, e.CaseType)
	if err != nil {
		return err
	}
	e.ErrandNumber = number
	errand.StampNewErrand(e, actor.User, now)
	errand.StampCreated(e, actor.Client, actor.User, now)
	errand.Touch(e, actor.Client, actor.User, now)
	return nil
}

func (l errandLifecycle) afterInsert(e *types.Errand) {
	l.log.Info("Created errand with errandNumber", "errand_number", e.ErrandNumber, "errand_id", e.ID)
}

func (l errandLifecycle) beforeUpdate(e *types.Errand, actor ctxutil.Attribution, now time.Time) {
	errand.Touch(e, actor.Client, actor.User, now)
}
