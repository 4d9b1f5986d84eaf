package repos

import (
	"github.com/OpenSundsvall/api-service-case-data/internal/data/repos/errands"
	"github.com/OpenSundsvall/api-service-case-data/internal/data/repos/history"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/logger"
	"gorm.io/gorm"
)

type ErrandRepo = errands.ErrandRepo
type HistoryRepo = history.HistoryRepo

func NewErrandRepo(db *gorm.DB, log *logger.Logger) ErrandRepo {
	return errands.NewErrandRepo(db, log)
}

func NewHistoryRepo(db *gorm.DB, log *logger.Logger) HistoryRepo {
	return history.NewHistoryRepo(db, log)
}
