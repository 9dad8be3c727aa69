package database

import (
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"
)

// compositeIndex is an index spanning several columns. Single column
// indexes live in the model tags.
type compositeIndex struct {
	table   string
	columns []string
}

func (i compositeIndex) name() string {
	return "idx_" + i.table + "_" + strings.Join(i.columns, "_")
}

var compositeIndexes = []compositeIndex{
	// task listing inside an organization, newest first
	{"tasks", []string{"organization_id", "created_at"}},
	{"tasks", []string{"project_id", "column_id"}},

	// recovery listing and the expiry sweep
	{"tasks", []string{"deleted_by", "deleted_at"}},
	{"projects", []string{"organization_id", "deleted_at"}},
	{"projects", []string{"deleted_by", "deleted_at"}},
	{"organizations", []string{"deleted_by", "deleted_at"}},

	{"organization_members", []string{"user_id", "organization_id"}},
	{"task_assignments", []string{"user_id", "task_id"}},
}

// AddCompositeIndexes creates the composite indexes that are missing.
func AddCompositeIndexes(db *gorm.DB) error {
	m := db.Migrator()
	for _, idx := range compositeIndexes {
		name := idx.name()
		if m.HasIndex(idx.table, name) {
			continue
		}

		stmt := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", name, idx.table, strings.Join(idx.columns, ", "))
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index %s: %w", name, err)
		}
		slog.Info("created index", "index", name)
	}
	return nil
}

// MigrateSchema brings db up to date with the models and their indexes.
func MigrateSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return AddCompositeIndexes(db)
}
