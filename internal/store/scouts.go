package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"scoutpost/backend/internal/models"
)

func (s *Store) CreateScout(ctx context.Context, sc *models.Scout) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scouts (id, wallet_address, name, instructions, result_action,
			status, session_id, live_url, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, sc.ID, sc.WalletAddress, sc.Name, sc.Instructions, sc.ResultAction,
		sc.Status, sc.SessionID, sc.LiveURL, sc.StartedAt)
	return err
}

func (s *Store) GetScout(ctx context.Context, id string) (*models.Scout, error) {
	var sc models.Scout
	err := s.db.GetContext(ctx, &sc, `SELECT * FROM scouts WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

// MarkRunning flips a pending scout to running. Returns false when the scout
// was not pending (already running or terminal), which callers treat as a
// no-op rather than an error.
func (s *Store) MarkRunning(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE scouts SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, models.StatusRunning, id, models.StatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// CompleteScout writes the terminal state with a compare-and-swap on status:
// only an active scout can be completed, so concurrent refreshers land at
// most one terminal write. Returns false when another writer won.
func (s *Store) CompleteScout(ctx context.Context, id, status string, result, errText, screenshots *string, completedAt int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE scouts
		SET status = $1, result = $2, error = $3, screenshots = $4,
			completed_at = $5, updated_at = NOW()
		WHERE id = $6 AND status IN ($7, $8)
	`, status, result, errText, screenshots, completedAt, id,
		models.StatusPending, models.StatusRunning)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *Store) ListScoutsByStatus(ctx context.Context, statuses ...string) ([]models.Scout, error) {
	query := `SELECT * FROM scouts WHERE status = ANY($1) ORDER BY created_at DESC LIMIT 200`
	var scouts []models.Scout
	if err := s.db.SelectContext(ctx, &scouts, query, pq.Array(statuses)); err != nil {
		return nil, err
	}
	if scouts == nil {
		scouts = []models.Scout{}
	}
	return scouts, nil
}
