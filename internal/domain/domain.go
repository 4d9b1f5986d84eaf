package domain

import (
	"github.com/OpenSundsvall/api-service-case-data/internal/domain/errand"
	"github.com/OpenSundsvall/api-service-case-data/internal/domain/history"
)

type Errand = errand.Errand
type Stakeholder = errand.Stakeholder
type Facility = errand.Facility
type Attachment = errand.Attachment
type Decision = errand.Decision
type Appeal = errand.Appeal
type Note = errand.Note
type Status = errand.Status
type CaseType = errand.CaseType

type HistoryCommit = history.Commit
type HistoryChange = history.Change
type HistoryEntityType = history.EntityType

// Models lists every persisted type, in migration order.
func Models() []any {
	return []any{
		&Errand{},
		&Stakeholder{},
		&Facility{},
		&Attachment{},
		&Decision{},
		&Appeal{},
		&Note{},
		&HistoryCommit{},
		&HistoryChange{},
	}
}
