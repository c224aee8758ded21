package db

import (
	"fmt"

	"floodmap/internal/auth"
	"floodmap/internal/jobs"
	"floodmap/internal/need"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	// Tables
	if err := gdb.AutoMigrate(
		&need.Need{},
		&jobs.Job{},
		&auth.User{},
	); err != nil {
		return err
	}

	// Helpful indexes
	stmts := []string{
		// dashboard: HELP pins by status, newest first
		`create index if not exists idx_needs_kind_status_created on needs(kind, status, created_at desc);`,
		// "mine" subscriptions
		`create index if not exists idx_needs_owner_created on needs(owner_id, created_at desc);`,
		// name-prefix search keyset
		`create index if not exists idx_needs_name on needs(name, id);`,
		`create index if not exists idx_jobs_due on jobs(status, run_at);`,
		`create index if not exists idx_jobs_lock on jobs(status, locked_at);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
