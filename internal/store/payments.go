package store

import (
	"context"
	"strings"
)

// BurnPayment records a settlement signature as spent. The primary key on
// signature makes the burn at-most-once: a second caller presenting the same
// proof gets ErrAlreadySettled.
func (s *Store) BurnPayment(ctx context.Context, signature, walletAddress string, amount int64, purpose string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payments (signature, wallet_address, amount, purpose)
		VALUES ($1, $2, $3, $4)
	`, signature, walletAddress, amount, purpose)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrAlreadySettled
		}
		return err
	}
	return nil
}
