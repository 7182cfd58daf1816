package store

import (
	"context"
	"database/sql"
	"errors"

	"scoutpost/backend/internal/models"
)

func (s *Store) GetOperatorByName(ctx context.Context, name string) (*models.Operator, error) {
	var op models.Operator
	err := s.db.GetContext(ctx, &op, `SELECT * FROM operators WHERE name = $1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &op, nil
}

func (s *Store) CreateOperator(ctx context.Context, name, apiKeyHash string, isAdmin bool) (*models.Operator, error) {
	var op models.Operator
	err := s.db.GetContext(ctx, &op, `
		INSERT INTO operators (name, api_key_hash, is_admin)
		VALUES ($1, $2, $3)
		RETURNING *
	`, name, apiKeyHash, isAdmin)
	if err != nil {
		return nil, err
	}
	return &op, nil
}
