package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore writes runs to PostgreSQL, bulk-loading rows with COPY
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// ConnectPostgres opens a connection pool and ensures the schema exists
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	log.Println("Connected to PostgreSQL database")
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// SaveRun inserts the run row and copies every child table in one transaction
func (s *PostgresStore) SaveRun(ctx context.Context, snap *Snapshot) error {
	if snap.RunID == "" {
		snap.RunID = NewRunID()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO runs (run_id, generated_at, feed_count, stop_count, route_count, output_bytes, output_valid)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		runRow(snap)...,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	var total int64
	for _, t := range runTables {
		rows := t.rows(snap)
		if len(rows) == 0 {
			continue
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{t.name}, t.columns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("failed to copy into %s: %w", t.name, err)
		}
		total += n
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	log.Printf("Saved run %s to PostgreSQL (%d rows)", snap.RunID, total)
	return nil
}

// PruneRuns deletes every run except the newest keep
func (s *PostgresStore) PruneRuns(ctx context.Context, keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const stale = "SELECT run_id FROM runs ORDER BY generated_at DESC, run_id OFFSET $1"
	for _, name := range childTables() {
		q := fmt.Sprintf("DELETE FROM %s WHERE run_id IN (%s)", pgx.Identifier{name}.Sanitize(), stale)
		if _, err := tx.Exec(ctx, q, keep); err != nil {
			return 0, fmt.Errorf("failed to cleanup %s: %w", name, err)
		}
	}

	tag, err := tx.Exec(ctx, "DELETE FROM runs WHERE run_id IN ("+stale+")", keep)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup runs: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit cleanup: %w", err)
	}

	deleted := int(tag.RowsAffected())
	if deleted > 0 {
		log.Printf("Cleanup: deleted %d runs, kept newest %d", deleted, keep)
	}
	return deleted, nil
}

// Runs lists stored runs, newest first
func (s *PostgresStore) Runs(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.pool.Query(ctx,
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
