package services

import (
	"context"
	"fmt"

	"github.com/OpenSundsvall/api-service-case-data/internal/data/repos"
	domainagg "github.com/OpenSundsvall/api-service-case-data/internal/domain/aggregates"
	"github.com/OpenSundsvall/api-service-case-data/internal/domain/history"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/dbctx"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/logger"
)

type HistoryService interface {
	// GetHistory returns the recorded changes of one entity, oldest first.
	// An entity without any recorded change is reported as not found.
	GetHistory(ctx context.Context, entityType string, id int64) ([]*history.Change, error)
}

type historyService struct {
	log     *logger.Logger
	history repos.HistoryRepo
}

func NewHistoryService(baseLog *logger.Logger, historyRepo repos.HistoryRepo) HistoryService {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &historyService{log: baseLog.With("service", "HistoryService"), history: historyRepo}
}

func (s *historyService) GetHistory(ctx context.Context, entityType string, id int64) ([]*history.Change, error) {
	const op = "CaseData.History.Get"
	if s == nil || s.history == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "history service not configured", nil)
	}
	et, ok := history.ParseEntityType(entityType)
	if !ok {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("unknown entity type %q", entityType), nil)
	}
	changes, err := s.history.ListByEntity(dbctx.Context{Ctx: ctx}, et, id)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if len(changes) == 0 {
		return nil, domainagg.NotFound(op, "no history found for %s with id %d", et, id)
	}
	return changes, nil
}
