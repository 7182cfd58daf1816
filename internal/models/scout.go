package models

import (
	"encoding/json"
	"time"
)

// Scout statuses. pending and running are active; completed and error are
// terminal and never transition further.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusError     = "error"
)

func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusError
}

type Scout struct {
	ID            string    `db:"id" json:"scoutId"`
	WalletAddress string    `db:"wallet_address" json:"walletAddress"`
	Name          string    `db:"name" json:"name"`
	Instructions  string    `db:"instructions" json:"instructions"`
	ResultAction  *string   `db:"result_action" json:"resultAction,omitempty"`
	Status        string    `db:"status" json:"status"`
	SessionID     *string   `db:"session_id" json:"sessionId,omitempty"`
	LiveURL       *string   `db:"live_url" json:"liveUrl,omitempty"`
	Result        *string   `db:"result" json:"result,omitempty"`
	Error         *string   `db:"error" json:"error,omitempty"`
	Screenshots   *string   `db:"screenshots" json:"-"`
	StartedAt     int64     `db:"started_at" json:"startedAt"`
	CompletedAt   *int64    `db:"completed_at" json:"completedAt,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"-"`
	UpdatedAt     time.Time `db:"updated_at" json:"-"`
}

// ScreenshotURLs decodes the JSON-encoded screenshots column. A missing or
// malformed column yields an empty list.
func (s *Scout) ScreenshotURLs() []string {
	if s.Screenshots == nil || *s.Screenshots == "" {
		return []string{}
	}
	var urls []string
	if err := json.Unmarshal([]byte(*s.Screenshots), &urls); err != nil {
		return []string{}
	}
	return urls
}

// Projection is the scout shape returned by the API, with screenshots
// decoded into a list.
type Projection struct {
	ScoutID      string   `json:"scoutId"`
	Name         string   `json:"name"`
	Instructions string   `json:"instructions"`
	ResultAction *string  `json:"resultAction,omitempty"`
	Status       string   `json:"status"`
	SessionID    *string  `json:"sessionId,omitempty"`
	LiveURL      *string  `json:"liveUrl,omitempty"`
	Result       *string  `json:"result,omitempty"`
	Error        *string  `json:"error,omitempty"`
	Screenshots  []string `json:"screenshots"`
	StartedAt    int64    `json:"startedAt"`
	CompletedAt  *int64   `json:"completedAt,omitempty"`
}

func (s *Scout) Project() *Projection {
	return &Projection{
		ScoutID:      s.ID,
		Name:         s.Name,
		Instructions: s.Instructions,
		ResultAction: s.ResultAction,
		Status:       s.Status,
		SessionID:    s.SessionID,
		LiveURL:      s.LiveURL,
		Result:       s.Result,
		Error:        s.Error,
		Screenshots:  s.ScreenshotURLs(),
		StartedAt:    s.StartedAt,
		CompletedAt:  s.CompletedAt,
	}
}
