package db

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewRunID returns a fresh run identifier
func NewRunID() string {
	return uuid.New().String()
}

// SaveRun writes a snapshot and all its rows in one transaction
func (db *DB) SaveRun(ctx context.Context, snap *Snapshot) error {
	if snap.RunID == "" {
		snap.RunID = NewRunID()
	}

	db.LockWrite()
	defer db.UnlockWrite()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, generated_at, feed_count, stop_count, route_count, output_bytes, output_valid)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runRow(snap)...,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	total := 0
	for _, t := range runTables {
		rows := t.rows(snap)
		if len(rows) == 0 {
			continue
		}
		stmt, err := tx.PrepareContext(ctx, insertSQL(t))
		if err != nil {
			return fmt.Errorf("failed to prepare %s insert: %w", t.name, err)
		}
		for _, row := range rows {
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				stmt.Close()
				return fmt.Errorf("failed to insert into %s: %w", t.name, err)
			}
		}
		stmt.Close()
		total += len(rows)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	log.Printf("Saved run %s (%d rows)", snap.RunID, total)
	return nil
}

// Runs lists stored runs, newest first
func (db *DB) Runs(ctx context.Context) ([]RunInfo, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT run_id, generated_at, feed_count, stop_count, route_count, output_bytes, output_valid
		 FROM runs ORDER BY generated_at DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var r RunInfo
		var generatedAt string
		if err := rows.Scan(&r.RunID, &generatedAt, &r.FeedCount, &r.StopCount, &r.RouteCount, &r.OutputBytes, &r.OutputValid); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.GeneratedAt, err = time.Parse(time.RFC3339, generatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse generated_at %q: %w", generatedAt, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func insertSQL(t table) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.name, strings.Join(t.columns, ", "), placeholders)
}
