package storage

import (
	"database/sql"
	"fmt"

	"github.com/okian/passlog/internal/domain/model"
)

// baseColumns is the original event schema shared by both working
// partitions and the archive.
const baseColumns = `
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	uid TEXT NOT NULL DEFAULT '',
	date TEXT NOT NULL DEFAULT '',
	member_id TEXT NOT NULL DEFAULT '',
	member_name TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	actor_name TEXT NOT NULL DEFAULT '',
	time_out TEXT NOT NULL DEFAULT '',
	time_back TEXT NOT NULL DEFAULT ''
`

// upgradeColumns were added after the original rollout. They are applied
// additively so existing rows survive a restart on the new schema.
var upgradeColumns = []struct {
	name string
	ddl  string
}{
	{name: "period", ddl: "TEXT NOT NULL DEFAULT ''"},
	{name: "notes", ddl: "TEXT NOT NULL DEFAULT ''"},
}

// tables lists every event table the store manages.
var tables = []model.Partition{
	model.PartitionFirstHalf,
	model.PartitionSecondHalf,
	model.PartitionArchive,
}

// ensureSchema creates missing tables and applies additive column
// upgrades. Safe to run on every open.
func ensureSchema(db *sql.DB) error {
	for _, t := range tables {
		create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", t, baseColumns)
		if _, err := db.Exec(create); err != nil {
			return fmt.Errorf("create table %s: %w", t, err)
		}
		for _, col := range upgradeColumns {
			if err := ensureColumn(db, string(t), col.name, col.ddl); err != nil {
				return err
			}
		}
	}
	return nil
}

// ensureColumn adds a column to table if it is absent. Existing rows and
// columns are left untouched.
func ensureColumn(db *sql.DB, table, column, ddl string) error {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("inspect table %s: %w", table, err)
	}
	defer rows.Close()

	found := false
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return fmt.Errorf("inspect table %s: %w", table, err)
		}
		if name == column {
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("inspect table %s: %w", table, err)
	}
	if found {
		return nil
	}

	alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, ddl)
	if _, err := db.Exec(alter); err != nil {
		return fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	return nil
}
