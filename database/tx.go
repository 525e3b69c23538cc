package database

import "database/sql"

// WithinTx runs fn inside a single transaction and rolls everything
// back if fn fails. Ledger entry points use it to guarantee no partial
// writes survive an error.
func WithinTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
