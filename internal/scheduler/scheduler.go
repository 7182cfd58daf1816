package scheduler

import (
	"context"
	"log"
	"time"

	"scoutpost/backend/internal/models"
)

// RefreshStore lists scouts the sweeper should advance.
type RefreshStore interface {
	ListScoutsByStatus(ctx context.Context, statuses ...string) ([]models.Scout, error)
}

// Refresher is the lifecycle engine's idempotent poll operation.
type Refresher interface {
	Refresh(ctx context.Context, scoutID string) (*models.Scout, error)
}

// Scheduler optionally sweeps active scouts through Refresh on a fixed
// interval. Core progress stays client-polled; this only re-runs the same
// idempotent path for deployments that want server-side advancement.
type Scheduler struct {
	store    RefreshStore
	engine   Refresher
	interval time.Duration
	stop     chan struct{}
}

func New(store RefreshStore, engine Refresher, intervalSeconds int) *Scheduler {
	if intervalSeconds < 1 {
		intervalSeconds = 60
	}
	return &Scheduler{
		store:    store,
		engine:   engine,
		interval: time.Duration(intervalSeconds) * time.Second,
		stop:     make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	go s.run()
}

func (s *Scheduler) Stop() {
	close(s.stop)
}

func (s *Scheduler) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
	defer cancel()

	scouts, err := s.store.ListScoutsByStatus(ctx, models.StatusPending, models.StatusRunning)
	if err != nil {
		log.Printf("Sweep failed to list active scouts: %v", err)
		return
	}

	for _, sc := range scouts {
		if _, err := s.engine.Refresh(ctx, sc.ID); err != nil {
			log.Printf("Sweep refresh failed for scout %s: %v", sc.ID, err)
		}
	}
}
