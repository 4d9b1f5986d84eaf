package history

import (
	"gorm.io/gorm"

	types "github.com/OpenSundsvall/api-service-case-data/internal/domain"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/dbctx"
	"github.com/OpenSundsvall/api-service-case-data/internal/platform/logger"
)

type HistoryRepo interface {
	// AppendCommit inserts the commit and its changes. The log is append only;
	// there is no update or delete.
	AppendCommit(dbc dbctx.Context, commit *types.HistoryCommit, changes []types.HistoryChange) error

	// ListByEntity returns the changes of one entity with their commit,
	// oldest first.
	ListByEntity(dbc dbctx.Context, entityType types.HistoryEntityType, entityID int64) ([]*types.HistoryChange, error)
}

type historyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHistoryRepo(db *gorm.DB, baseLog *logger.Logger) HistoryRepo {
	return &historyRepo{db: db, log: baseLog.With("repo", "HistoryRepo")}
}

func (r *historyRepo) AppendCommit(dbc dbctx.Context, commit *types.HistoryCommit, changes []types.HistoryChange) error {
	if commit == nil || len(changes) == 0 {
		return nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	t = t.WithContext(dbc.Ctx)
	commit.Changes = nil
	if err := t.Omit("Changes").Create(commit).Error; err != nil {
		return err
	}
	rows := make([]types.HistoryChange, len(changes))
	for i := range changes {
		rows[i] = changes[i]
		rows[i].ID = 0
		rows[i].CommitID = commit.ID
		rows[i].Commit = nil
	}
	if err := t.Omit("Commit").Create(&rows).Error; err != nil {
		return err
	}
	commit.Changes = rows
	return nil
}

func (r *historyRepo) ListByEntity(dbc dbctx.Context, entityType types.HistoryEntityType, entityID int64) ([]*types.HistoryChange, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.HistoryChange
	err := t.WithContext(dbc.Ctx).
		Preload("Commit").
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("commit_id ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
