package app

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/OpenSundsvall/api-service-case-data/internal/data/aggregates"
	"github.com/OpenSundsvall/api-service-case-data/internal/data/repos"
	domainagg "github.com/OpenSundsvall/api-service-case-data/internal/domain/aggregates"
	"github.com/OpenSundsvall/api-service-case-data/internal/observability"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/logger"
	"github.com/OpenSundsvall/api-service-case-data/internal/services"
	"github.com/OpenSundsvall/api-service-case-data/internal/temporalx/errandprocess"
	"github.com/OpenSundsvall/api-service-case-data/internal/temporalx/temporalworker"
)

type Repos struct {
	Errands repos.ErrandRepo
	History repos.HistoryRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Errands: repos.NewErrandRepo(db, log),
		History: repos.NewHistoryRepo(db, log),
	}
}

type Services struct {
	Errands services.ErrandService
	History services.HistoryService
	Process services.ProcessSync

	// TemporalWorker is nil when no workflow engine is configured or the
	// worker runs elsewhere.
	TemporalWorker *temporalworker.Runner
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	clock := func() time.Time { return time.Now().UTC() }
	deps := aggregates.ErrandAggregateDeps{
		Base:    aggregates.BaseDeps{DB: db, Log: log, Hooks: aggregates.NewObservabilityHooks(metrics)},
		Errands: reposet.Errands,
		History: reposet.History,
		Numbers: services.NewErrandNumberGenerator(log, reposet.Errands, clock),
		Retry:   cfg.Retry,
		Clock:   clock,
	}
	if clients.NumberLock != nil {
		deps.NumberLock = clients.NumberLock
	}
	var agg domainagg.ErrandAggregate = aggregates.NewErrandAggregate(deps)
	contract := agg.Contract()
	log.Debug("Aggregate wired", "aggregate", contract.Name, "root", contract.Root, "owned", contract.Owned)

	var process services.ProcessSync
	if clients.Temporal != nil {
		process = errandprocess.NewAdapter(log, clients.Temporal, cfg.Temporal)
	} else {
		log.Warn("TEMPORAL_ADDRESS not set; errand process sync disabled")
		process = services.NewDisabledProcessSync(log)
	}
	process = services.InstrumentProcessSync(process, metrics)

	var runner *temporalworker.Runner
	if clients.Temporal != nil && cfg.RunWorker {
		r, err := temporalworker.NewRunner(log, cfg.Temporal, clients.Temporal, reposet.Errands)
		if err != nil {
			return Services{}, fmt.Errorf("init temporal worker: %w", err)
		}
		runner = r
	}

	return Services{
		Errands:        services.NewErrandService(log, reposet.Errands, agg, process, metrics),
		History:        services.NewHistoryService(log, reposet.History),
		Process:        process,
		TemporalWorker: runner,
	}, nil
}
