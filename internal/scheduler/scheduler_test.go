package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"scoutpost/backend/internal/models"
)

type listFunc func(ctx context.Context, statuses ...string) ([]models.Scout, error)

func (f listFunc) ListScoutsByStatus(ctx context.Context, statuses ...string) ([]models.Scout, error) {
	return f(ctx, statuses...)
}

type recordingRefresher struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (r *recordingRefresher) Refresh(ctx context.Context, scoutID string) (*models.Scout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, scoutID)
	return nil, r.err
}

func TestSweepRefreshesActiveScouts(t *testing.T) {
	var gotStatuses []string
	store := listFunc(func(ctx context.Context, statuses ...string) ([]models.Scout, error) {
		gotStatuses = statuses
		return []models.Scout{{ID: "scout_1"}, {ID: "scout_2"}}, nil
	})
	ref := &recordingRefresher{}

	New(store, ref, 60).sweep()

	if len(gotStatuses) != 2 || gotStatuses[0] != models.StatusPending || gotStatuses[1] != models.StatusRunning {
		t.Errorf("statuses = %v", gotStatuses)
	}
	if len(ref.ids) != 2 || ref.ids[0] != "scout_1" || ref.ids[1] != "scout_2" {
		t.Errorf("refreshed = %v", ref.ids)
	}
}

func TestSweepContinuesPastRefreshErrors(t *testing.T) {
	store := listFunc(func(ctx context.Context, statuses ...string) ([]models.Scout, error) {
		return []models.Scout{{ID: "a"}, {ID: "b"}}, nil
	})
	ref := &recordingRefresher{err: errors.New("provider down")}

	New(store, ref, 60).sweep()

	if len(ref.ids) != 2 {
		t.Errorf("refreshed = %v, want both despite errors", ref.ids)
	}
}

func TestSweepSkipsOnListError(t *testing.T) {
	store := listFunc(func(ctx context.Context, statuses ...string) ([]models.Scout, error) {
		return nil, errors.New("db down")
	})
	ref := &recordingRefresher{}

	New(store, ref, 60).sweep()

	if len(ref.ids) != 0 {
		t.Errorf("refreshed = %v, want none", ref.ids)
	}
}

func TestStartStop(t *testing.T) {
	store := listFunc(func(ctx context.Context, statuses ...string) ([]models.Scout, error) {
		return nil, nil
	})
	s := New(store, &recordingRefresher{}, 1)
	s.Start()
	time.Sleep(10 * time.Millisecond)
	s.Stop()
}
