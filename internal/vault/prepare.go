package vault

import "database/sql"

// prepare runs once after migrations and before the vault accepts ordinary
// work. It refreshes the query planner statistics so the root-sequence and
// chronological indexes are actually used from the first query on.
func prepare(db *sql.DB) error {
	if _, err := db.Exec("ANALYZE"); err != nil {
		return err
	}
	_, err := db.Exec("PRAGMA optimize")
	return err
}
