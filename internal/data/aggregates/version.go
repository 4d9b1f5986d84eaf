package aggregates

import (
	"strings"

	"github.com/OpenSundsvall/api-service-case-data/internal/platform/dbctx"
	"gorm.io/gorm"
)

// CASGuard writes root rows under optimistic locking: an update only lands
// when the row still carries the version the writer loaded.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) CASGuard { return CASGuard{db: db} }

// UpdateByVersion applies columns to table row id when its version equals
// loaded, and sets the version to loaded+1 in the same statement. ok is false
// when another writer got there first.
func (g CASGuard) UpdateByVersion(dbc dbctx.Context, table string, id int64, loaded int, columns map[string]any) (ok bool, err error) {
	table = strings.TrimSpace(table)
	switch {
	case table == "" || id <= 0:
		return false, ValidationError("versioned update needs a table and a positive id")
	case loaded < 0:
		return false, ValidationError("loaded version cannot be negative")
	}

	tx := dbc.Tx
	if tx == nil {
		tx = g.db
	}
	if tx == nil {
		return false, ValidationError("versioned update outside a transaction")
	}

	set := make(map[string]any, len(columns)+1)
	for col, v := range columns {
		set[col] = v
	}
	set["version"] = loaded + 1

	res := tx.WithContext(dbc.Ctx).Table(table).Where("id = ? AND version = ?", id, loaded).Updates(set)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RequireCASSuccess turns a lost version check into an optimistic conflict,
// the only error executeWithRetry starts a write again for.
func RequireCASSuccess(ok bool, what string) error {
	if ok {
		return nil
	}
	return OptimisticConflictError(strings.TrimSpace(what))
}
