package app

import (
	apphttp "github.com/OpenSundsvall/api-service-case-data/internal/http"
	httpH "github.com/OpenSundsvall/api-service-case-data/internal/http/handlers"
	"github.com/OpenSundsvall/api-service-case-data/internal/observability"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/logger"
)

type Handlers struct {
	Health  *httpH.HealthHandler
	Errand  *httpH.ErrandHandler
	History *httpH.HistoryHandler
}

func wireHandlers(log *logger.Logger, services Services, clients Clients, db dbPinger) Handlers {
	log.Info("Wiring handlers...")
	checks := map[string]httpH.Pinger{"database": db}
	if clients.NumberLock != nil {
		checks["redis"] = clients.NumberLock
	}
	return Handlers{
		Health:  httpH.NewHealthHandler(checks),
		Errand:  httpH.NewErrandHandler(services.Errands),
		History: httpH.NewHistoryHandler(services.History),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *apphttp.Server {
	return apphttp.NewServer(log, apphttp.RouterConfig{
		Metrics:        metrics,
		ServiceName:    cfg.ServiceName,
		CORSOrigins:    cfg.CORSOrigins,
		ErrandHandler:  handlers.Errand,
		HistoryHandler: handlers.History,
		HealthHandler:  handlers.Health,
	})
}
