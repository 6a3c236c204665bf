package database

import (
	"fmt"
	"log"

	"gorm.io/gorm"
)

// taskIndexes back the store's list queries: by owner, by assignee, and the
// unscoped admin listing, each ordered by creation time.
var taskIndexes = []struct {
	table   string
	name    string
	columns string
}{
	{"tasks", "idx_tasks_owner_created", "owner_id, created_at"},
	{"tasks", "idx_tasks_assignee_created", "assigned_to, created_at"},
	{"tasks", "idx_tasks_created_at", "created_at"},
	{"tasks", "idx_tasks_status", "status"},
	{"tasks", "idx_tasks_due_date", "due_date"},
	{"users", "idx_users_role", "role"},
}

// AddIndexes creates the list indexes that are missing.
func AddIndexes(db *gorm.DB) error {
	migrator := db.Migrator()

	for _, idx := range taskIndexes {
		if migrator.HasIndex(idx.table, idx.name) {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Printf("Created index %s on %s(%s)", idx.name, idx.table, idx.columns)
	}

	return nil
}
