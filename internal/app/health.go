package app

import (
	"context"

	"gorm.io/gorm"

	httpH "github.com/OpenSundsvall/api-service-case-data/internal/http/handlers"
)

type dbPinger = httpH.Pinger

type gormPinger struct {
	db *gorm.DB
}

func (p gormPinger) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
