package app

import (
	"strings"

	"github.com/OpenSundsvall/api-service-case-data/internal/clients/redis"
	"github.com/OpenSundsvall/api-service-case-data/internal/data/aggregates"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/logger"
	"github.com/OpenSundsvall/api-service-case-data/internal/temporalx"
	"github.com/OpenSundsvall/api-service-case-data/internal/utils"
)

type Config struct {
	ServiceName string
	Environment string
	Version     string

	HTTPAddr      string
	MetricsAddr   string
	CORSOrigins   []string
	CaseTypesFile string

	// RunWorker starts the errand process worker in this process.
	RunWorker bool

	Retry      aggregates.RetryPolicy
	NumberLock redis.NumberLockConfig
	Temporal   temporalx.Config
}

func LoadConfig(log *logger.Logger) Config {
	retry := aggregates.DefaultRetryPolicy()
	retry.MaxAttempts = utils.GetEnvAsInt("AGGREGATE_RETRY_MAX_ATTEMPTS", aggregates.DefaultMaxAttempts, log)
	retry.Backoff = utils.GetEnvAsMillis("AGGREGATE_RETRY_BACKOFF_MS", retry.Backoff, log)
	retry.MaxBackoff = utils.GetEnvAsMillis("AGGREGATE_RETRY_MAX_BACKOFF_MS", retry.MaxBackoff, log)
	retry.Deadline = utils.GetEnvAsMillis("AGGREGATE_RETRY_DEADLINE_MS", 0, log)

	port := utils.GetEnv("PORT", "8080", log)
	return Config{
		ServiceName: utils.GetEnv("SERVICE_NAME", "api-service-case-data", log),
		Environment: utils.GetEnv("ENVIRONMENT", "development", log),
		Version:     utils.GetEnv("SERVICE_VERSION", "dev", log),

		HTTPAddr:      ":" + strings.TrimPrefix(port, ":"),
		MetricsAddr:   utils.GetEnv("METRICS_ADDR", "", log),
		CORSOrigins:   utils.GetEnvAsList("CORS_ALLOWED_ORIGINS", log),
		CaseTypesFile: utils.GetEnv("CASE_TYPES_FILE", "", log),

		RunWorker: utils.GetEnvAsBool("TEMPORAL_RUN_WORKER", true, log),

		Retry:      retry,
		NumberLock: redis.NumberLockConfigFromEnv(),
		Temporal:   temporalx.LoadConfig(),
	}
}
