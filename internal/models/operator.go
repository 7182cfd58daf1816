package models

import (
	"time"

	"github.com/google/uuid"
)

// Operator is an MCP-surface credential holder. The API key is stored
// bcrypt-hashed; the plaintext is only seen at creation time.
type Operator struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	APIKeyHash string    `db:"api_key_hash" json:"-"`
	IsAdmin    bool      `db:"is_admin" json:"is_admin"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
