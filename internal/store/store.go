package store

import (
	"errors"

	"scoutpost/backend/internal/database"
)

var (
	ErrNotFound       = errors.New("store: not found")
	ErrAlreadySettled = errors.New("store: payment signature already used")
	ErrActiveRun      = errors.New("store: scout already has an active run")
)

// Store owns all record access for scouts, runs, payments and operators.
// It does field mapping only; lifecycle decisions live in the engine.
type Store struct {
	db *database.DB
}

func New(db *database.DB) *Store {
	return &Store{db: db}
}
