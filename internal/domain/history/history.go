// Package history holds the audit log model and the snapshot diff that
// produces it. Snapshots are plain maps built by the owning entity; the diff
// never reflects over struct tags.
package history

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

type EntityType string

const (
	EntityErrand      EntityType = "errand"
	EntityAttachment  EntityType = "attachment"
	EntityDecision    EntityType = "decision"
	EntityNote        EntityType = "note"
	EntityStakeholder EntityType = "stakeholder"
	EntityFacility    EntityType = "facility"
)

var entityOrder = map[EntityType]int{
	EntityErrand:      0,
	EntityStakeholder: 1,
	EntityFacility:    2,
	EntityAttachment:  3,
	EntityDecision:    4,
	EntityNote:        5,
}

// ParseEntityType accepts singular or plural names in any case.
func ParseEntityType(s string) (EntityType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasSuffix(s, "ies"):
		s = strings.TrimSuffix(s, "ies") + "y"
	default:
		s = strings.TrimSuffix(s, "s")
	}
	t := EntityType(s)
	_, ok := entityOrder[t]
	return t, ok
}

type ChangeType string

const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeRemoved ChangeType = "removed"
)

// Key identifies one tracked entity.
type Key struct {
	Type EntityType
	ID   int64
}

// Snapshot is the comparable state of one entity. Values are limited to
// nil, string, bool, int64, float64, []any and map[string]any.
type Snapshot map[string]any

// PropertyChange is one property level difference. Nested value objects use
// dotted paths, e.g. "address.city".
type PropertyChange struct {
	Property string `json:"property"`
	Left     any    `json:"left"`
	Right    any    `json:"right"`
}

// Commit groups every change written by one persisted mutation. IDs are
// assigned by the store and increase monotonically.
type Commit struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Author      string    `gorm:"column:author;not null" json:"author"`
	Client      string    `gorm:"column:client" json:"client,omitempty"`
	CommittedAt time.Time `gorm:"column:committed_at;not null;index" json:"committedAt"`
	Changes     []Change  `gorm:"foreignKey:CommitID" json:"-"`
}

func (Commit) TableName() string { return "history_commit" }

// Change is the immutable audit record of one entity within a commit.
type Change struct {
	ID         int64                               `gorm:"primaryKey;autoIncrement" json:"id"`
	CommitID   int64                               `gorm:"column:commit_id;not null;index" json:"-"`
	Commit     *Commit                             `gorm:"foreignKey:CommitID" json:"commit,omitempty"`
	EntityType EntityType                          `gorm:"column:entity_type;not null;index:idx_history_change_entity,priority:1" json:"entityType"`
	EntityID   int64                               `gorm:"column:entity_id;not null;index:idx_history_change_entity,priority:2" json:"entityId"`
	ChangeType ChangeType                          `gorm:"column:change_type;not null" json:"changeType"`
	Properties datatypes.JSONSlice[PropertyChange] `gorm:"column:properties" json:"properties"`
}

func (Change) TableName() string { return "history_change" }
