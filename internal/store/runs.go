package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"scoutpost/backend/internal/models"
)

// CreateRun inserts a pending run for the scout. The partial unique index on
// active runs backstops the advisory pre-check in the engine; a conflict maps
// to ErrActiveRun.
func (s *Store) CreateRun(ctx context.Context, scoutID string, startedAt int64) (*models.Run, error) {
	var run models.Run
	err := s.db.GetContext(ctx, &run, `
		INSERT INTO runs (scout_id, status, started_at)
		VALUES ($1, $2, $3)
		RETURNING *
	`, scoutID, models.StatusPending, startedAt)
	if err != nil {
		if strings.Contains(err.Error(), "idx_runs_one_active") {
			return nil, ErrActiveRun
		}
		return nil, err
	}
	return &run, nil
}

// ActiveRun returns the most recent run still in pending or running.
func (s *Store) ActiveRun(ctx context.Context, scoutID string) (*models.Run, error) {
	var run models.Run
	err := s.db.GetContext(ctx, &run, `
		SELECT * FROM runs
		WHERE scout_id = $1 AND status IN ($2, $3)
		ORDER BY created_at DESC LIMIT 1
	`, scoutID, models.StatusPending, models.StatusRunning)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *Store) ListRuns(ctx context.Context, scoutID string) ([]models.Run, error) {
	var runs []models.Run
	err := s.db.SelectContext(ctx, &runs, `
		SELECT * FROM runs WHERE scout_id = $1 ORDER BY created_at DESC LIMIT 100
	`, scoutID)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []models.Run{}
	}
	return runs, nil
}

// CompleteActiveRun closes whatever run is currently active for the scout.
// Closing an already-closed run is a no-op.
func (s *Store) CompleteActiveRun(ctx context.Context, scoutID, status string, result, errText *string, completedAt int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET status = $1, result = $2, error = $3, completed_at = $4
		WHERE scout_id = $5 AND status IN ($6, $7)
	`, status, result, errText, completedAt, scoutID,
		models.StatusPending, models.StatusRunning)
	return err
}

// MarkRunRunning mirrors the scout transition for the active run.
func (s *Store) MarkRunRunning(ctx context.Context, scoutID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = $1 WHERE scout_id = $2 AND status = $3
	`, models.StatusRunning, scoutID, models.StatusPending)
	return err
}
