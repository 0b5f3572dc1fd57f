package database

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// PureSQLiteDialect implements Dialect for SQLite through the cgo-free
// modernc.org/sqlite driver. Schema and SQL are shared with SQLiteDialect.
type PureSQLiteDialect struct {
	SQLiteDialect
}

// NewPureSQLiteDialect creates a new cgo-free SQLite dialect
func NewPureSQLiteDialect() *PureSQLiteDialect {
	return &PureSQLiteDialect{}
}

func (d *PureSQLiteDialect) Name() string {
	return "sqlite-go"
}

func (d *PureSQLiteDialect) DriverName() string {
	return "sqlite"
}

// ConfigureConnection pins the pool to one connection: modernc opens a
// separate database per connection for ":memory:" paths.
func (d *PureSQLiteDialect) ConfigureConnection(db *sql.DB) error {
	return configureSQLite(db, 1)
}
