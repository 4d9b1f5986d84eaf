package db

import (
	"fmt"

	types "github.com/OpenSundsvall/api-service-case-data/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureErrandIndexes(db)
}

// EnsureErrandIndexes adds the lookup indexes that gorm tags do not express.
// Both statements are valid on Postgres and SQLite.
func EnsureErrandIndexes(db *gorm.DB) error {
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_decision_decided_by ON decision(decided_by_id);`).Error; err != nil {
		return fmt.Errorf("create idx_decision_decided_by: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_history_change_commit_entity ON history_change(entity_type, entity_id, commit_id);`).Error; err != nil {
		return fmt.Errorf("create idx_history_change_commit_entity: %w", err)
	}
	return nil
}
