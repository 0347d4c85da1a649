package store

import (
	"fmt"
	"time"

	"github.com/xy-planning-network/switchyard"
	"gorm.io/gorm"
)

const migrationsTable = "migrations"

// Migration is used to hold the database key and function for creating the migration.
type Migration struct {
	Executor func(*gorm.DB) error
	Key      string
}

func (m Migration) execute(db *gorm.DB) error {
	// Start transaction
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	// Run migration logic
	if err := m.Executor(tx); err != nil {
		tx.Rollback()
		return err
	}

	// There was no error, so create a record for the migration
	err := tx.Exec(`INSERT INTO migrations (key, ran_at) VALUES (?, ?)`, m.Key, time.Now().Unix()).Error
	if err != nil {
		tx.Rollback()
		return err
	}

	// Commit transaction
	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return err
	}

	return nil
}

// MigrateUp runs each of migrations not yet recorded in the migrations table, in order.
//
// For PostgreSQL, schema is created if it does not exist.
// SQLite has no schemas, so schema is ignored.
func MigrateUp(db *gorm.DB, schema string, migrations []Migration) error {
	if db.Dialector.Name() != SQLite.String() {
		if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)).Error; err != nil {
			return fmt.Errorf("%w: failed creating %s schema: %s", switchyard.ErrUnexpected, schema, err)
		}
	}

	if err := ensureMigrationsTable(db); err != nil {
		return err
	}

	toRun, err := determineMigrationsToRun(db, migrations)
	if err != nil {
		return err
	}

	for _, m := range toRun {
		if err := m.execute(db); err != nil {
			return fmt.Errorf("%w: migration %s: %s", switchyard.ErrUnexpected, m.Key, err)
		}
	}

	return nil
}

func ensureMigrationsTable(db *gorm.DB) error {
	pk := "id SERIAL PRIMARY KEY"
	if db.Dialector.Name() == SQLite.String() {
		pk = "id INTEGER PRIMARY KEY AUTOINCREMENT"
	}

	err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			` + pk + `,
			ran_at bigint,
			key text,
			CONSTRAINT migrations_key UNIQUE (key)
		)
	`).Error
	if err != nil {
		return fmt.Errorf("%w: failed creating migrations table: %s", switchyard.ErrUnexpected, err)
	}

	return nil
}

func determineMigrationsToRun(db *gorm.DB, all []Migration) ([]Migration, error) {
	var ran []string
	if err := db.Raw("SELECT key FROM migrations").Scan(&ran).Error; err != nil {
		return nil, fmt.Errorf("%w: failed fetching ran migrations: %s", switchyard.ErrUnexpected, err)
	}

	done := make(map[string]bool, len(ran))
	for _, key := range ran {
		done[key] = true
	}

	var toRun []Migration
	for _, m := range all {
		if !done[m.Key] {
			toRun = append(toRun, m)
		}
	}

	return toRun, nil
}
