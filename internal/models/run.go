package models

import (
	"time"

	"github.com/google/uuid"
)

type Run struct {
	ID          uuid.UUID `db:"id" json:"runId"`
	ScoutID     string    `db:"scout_id" json:"scoutId"`
	Status      string    `db:"status" json:"status"`
	StartedAt   int64     `db:"started_at" json:"startedAt"`
	CompletedAt *int64    `db:"completed_at" json:"completedAt,omitempty"`
	Result      *string   `db:"result" json:"result,omitempty"`
	Error       *string   `db:"error" json:"error,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}
