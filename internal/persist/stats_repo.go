package persist

import (
	"context"
	"fmt"
	"time"
)

// PoolSnapshot is one prefab's pool counters at a given frame.
type PoolSnapshot struct {
	Frame    uint64
	Prefab   string
	Live     int
	Created  int // objects alive in the pool's bookkeeping (active + inactive)
	Active   int
	Inactive int
	Max      int
	TakenAt  time.Time
}

type StatsRepo struct {
	db    *DB
	runID string
}

// NewStatsRepo writes snapshots tagged with runID so separate runs can be told
// apart.
func NewStatsRepo(db *DB, runID string) *StatsRepo {
	return &StatsRepo{db: db, runID: runID}
}

// WriteSnapshot inserts a batch of snapshots in a single transaction.
func (r *StatsRepo) WriteSnapshot(ctx context.Context, snaps []PoolSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("snapshot begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, s := range snaps {
		if _, err := tx.Exec(ctx,
			`INSERT INTO pool_snapshots (run_id, frame, prefab, live, created, active, inactive, max_size, taken_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			r.runID, int64(s.Frame), s.Prefab, s.Live, s.Created, s.Active, s.Inactive, s.Max, s.TakenAt,
		); err != nil {
			return fmt.Errorf("snapshot insert %s: %w", s.Prefab, err)
		}
	}

	return tx.Commit(ctx)
}

// LatestFrame returns the highest frame recorded for this run, or 0.
func (r *StatsRepo) LatestFrame(ctx context.Context) (uint64, error) {
	var frame int64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(frame), 0) FROM pool_snapshots WHERE run_id = $1`, r.runID,
	).Scan(&frame)
	if err != nil {
		return 0, fmt.Errorf("latest frame: %w", err)
	}
	return uint64(frame), nil
}
