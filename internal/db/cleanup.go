package db

import (
	"context"
	"fmt"
	"log"
)

// PruneRuns deletes every run except the newest keep. keep < 1 keeps one.
func (db *DB) PruneRuns(ctx context.Context, keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}

	db.LockWrite()
	defer db.UnlockWrite()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stale := fmt.Sprintf(
		"SELECT run_id FROM runs ORDER BY generated_at DESC, run_id LIMIT -1 OFFSET %d", keep)

	for _, name := range childTables() {
		q := fmt.Sprintf("DELETE FROM %s WHERE run_id IN (%s)", name, stale)
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return 0, fmt.Errorf("failed to cleanup %s: %w", name, err)
		}
	}

	result, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM runs WHERE run_id IN (%s)", stale))
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup runs: %w", err)
	}
	deleted, _ := result.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit cleanup: %w", err)
	}

	if deleted > 0 {
		log.Printf("Cleanup: deleted %d runs, kept newest %d", deleted, keep)
	}
	return int(deleted), nil
}
