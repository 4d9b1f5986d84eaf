package db

import (
	"net/url"
	"testing"

	"github.com/OpenSundsvall/api-service-case-data/internal/platform/logger"
)

func TestPostgresDSNEscapesCredentials(t *testing.T) {
	t.Setenv("POSTGRES_USER", "case data")
	t.Setenv("POSTGRES_PASSWORD", "p@ss/word")
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_PORT", "6432")
	t.Setenv("POSTGRES_NAME", "")
	t.Setenv("POSTGRES_SSLMODE", "require")

	dsn := postgresDSN(logger.Nop())
	u, err := url.Parse(dsn)
	if err != nil {
		t.Fatalf("parse %q: %v", dsn, err)
	}
	pw, _ := u.User.Password()
	if u.User.Username() != "case data" || pw != "p@ss/word" {
		t.Fatalf("credentials: user=%q password=%q", u.User.Username(), pw)
	}
	if u.Host != "db.internal:6432" || u.Path != "/casedata" || u.Query().Get("sslmode") != "require" {
		t.Fatalf("dsn: %s", dsn)
	}
}

func TestOpenSQLiteAndMigrate(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "file:store_test?mode=memory&cache=shared")

	s, err := Open(logger.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if s.Driver() != DriverSQLite {
		t.Fatalf("driver: want=%s got=%s", DriverSQLite, s.Driver())
	}
	if err := s.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if !s.DB().Migrator().HasTable("errand") {
		t.Fatalf("errand table missing after migrate")
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")
	if _, err := Open(logger.Nop()); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
