package db

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/OpenSundsvall/api-service-case-data/internal/platform/logger"
	"github.com/OpenSundsvall/api-service-case-data/internal/utils"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Store owns the gorm handle of the errand database.
type Store struct {
	db     *gorm.DB
	log    *logger.Logger
	driver string
}

// Open connects using DB_DRIVER. Postgres is the default; sqlite (SQLITE_PATH,
// in-memory unless set) is meant for local runs.
func Open(log *logger.Logger) (*Store, error) {
	log = log.With("service", "Store")
	driver := strings.ToLower(utils.GetEnv("DB_DRIVER", DriverPostgres, log))

	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(postgresDSN(log))
	case DriverSQLite:
		dialector = sqlite.Open(utils.GetEnv("SQLITE_PATH", "file:casedata?mode=memory&cache=shared", log))
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger: gormLogger.New(gormWriter{log}, gormLogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("%s pool: %w", driver, err)
	}
	maxOpen := utils.GetEnvAsInt("DB_MAX_OPEN_CONNS", 20, log)
	if driver == DriverSQLite {
		// One writer at a time, or sqlite answers SQLITE_BUSY.
		maxOpen = 1
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(utils.GetEnvAsInt("DB_MAX_IDLE_CONNS", 5, log))
	sqlDB.SetConnMaxLifetime(utils.GetEnvAsMillis("DB_CONN_MAX_LIFETIME_MS", 30*time.Minute, log))

	log.Info("Database connected", "driver", driver)
	return &Store{db: gdb, log: log, driver: driver}, nil
}

// postgresDSN builds a URL DSN from the POSTGRES_* variables, escaping the
// credentials.
func postgresDSN(log *logger.Logger) string {
	u := url.URL{
		Scheme: "postgres",
		User: url.UserPassword(
			utils.GetEnv("POSTGRES_USER", "postgres", log),
			utils.GetEnv("POSTGRES_PASSWORD", "", log),
		),
		Host: utils.GetEnv("POSTGRES_HOST", "localhost", log) + ":" + utils.GetEnv("POSTGRES_PORT", "5432", log),
		Path: "/" + utils.GetEnv("POSTGRES_NAME", "casedata", log),
	}
	u.RawQuery = url.Values{"sslmode": {utils.GetEnv("POSTGRES_SSLMODE", "disable", log)}}.Encode()
	return u.String()
}

// gormWriter routes gorm's slow query and error lines to the service logger.
type gormWriter struct{ log *logger.Logger }

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Warn("gorm", "detail", strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Driver() string { return s.driver }

func (s *Store) Migrate() error {
	s.log.Info("Running migrations")
	return AutoMigrateAll(s.db)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
