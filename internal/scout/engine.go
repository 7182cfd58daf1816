package scout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"scoutpost/backend/internal/audit"
	"scoutpost/backend/internal/browser"
	"scoutpost/backend/internal/models"
	"scoutpost/backend/internal/store"
)

// ErrNotFound mirrors the store sentinel so handlers can match either.
var ErrNotFound = store.ErrNotFound

// ErrNotImplemented marks operations that are deliberately stubs.
var ErrNotImplemented = errors.New("not implemented")

// ValidationError is a caller mistake; handlers map it to a 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Store is the record access the engine needs. *store.Store satisfies it;
// tests swap in fakes.
type Store interface {
	CreateScout(ctx context.Context, sc *models.Scout) error
	GetScout(ctx context.Context, id string) (*models.Scout, error)
	MarkRunning(ctx context.Context, id string) (bool, error)
	CompleteScout(ctx context.Context, id, status string, result, errText, screenshots *string, completedAt int64) (bool, error)
	CreateRun(ctx context.Context, scoutID string, startedAt int64) (*models.Run, error)
	ActiveRun(ctx context.Context, scoutID string) (*models.Run, error)
	ListRuns(ctx context.Context, scoutID string) ([]models.Run, error)
	CompleteActiveRun(ctx context.Context, scoutID, status string, result, errText *string, completedAt int64) error
	MarkRunRunning(ctx context.Context, scoutID string) error
}

// Browser is the provider surface the engine polls.
type Browser interface {
	CreateSession(ctx context.Context) (*browser.Session, error)
	CreateTask(ctx context.Context, sessionID, prompt string) (*browser.Task, error)
	SessionStatus(ctx context.Context, sessionID string) (*browser.SessionStatus, error)
	TaskDetail(ctx context.Context, taskID string) (*browser.TaskDetail, error)
	ReleaseSession(ctx context.Context, sessionID string) error
}

// ResultProcessor post-processes a completed task's output.
type ResultProcessor interface {
	Process(ctx context.Context, rawOutput, resultAction string) (string, error)
}

// Engine drives the scout state machine:
// pending -> running -> completed | error. It holds no scout state across
// requests; every operation re-reads before mutating.
type Engine struct {
	store     Store
	browser   Browser
	processor ResultProcessor
}

func NewEngine(st Store, br Browser, processor ResultProcessor) *Engine {
	return &Engine{store: st, browser: br, processor: processor}
}

type CreateRequest struct {
	Name          string
	Instructions  string
	ResultAction  *string
	WalletAddress string
}

// Create starts a provider session and task, then persists the pending
// scout. Any failure before the insert leaves no scout behind; a task
// failure releases the session best-effort.
func (e *Engine) Create(ctx context.Context, req CreateRequest) (*models.Scout, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, &ValidationError{Message: "name is required"}
	}
	if len(req.Name) > 100 {
		return nil, &ValidationError{Message: "name must be 100 characters or less"}
	}
	if strings.TrimSpace(req.Instructions) == "" {
		return nil, &ValidationError{Message: "instructions are required"}
	}
	if req.WalletAddress == "" {
		return nil, &ValidationError{Message: "wallet address is required"}
	}

	session, err := e.browser.CreateSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create browser session: %w", err)
	}

	prompt := buildTaskPrompt(req.Instructions, req.ResultAction)
	if _, err := e.browser.CreateTask(ctx, session.ID, prompt); err != nil {
		if relErr := e.browser.ReleaseSession(ctx, session.ID); relErr != nil {
			log.Printf("Failed to release orphaned session %s: %v", session.ID, relErr)
		}
		return nil, fmt.Errorf("failed to create browser task: %w", err)
	}

	now := time.Now().Unix()
	sc := &models.Scout{
		ID:            newScoutID(),
		WalletAddress: req.WalletAddress,
		Name:          req.Name,
		Instructions:  req.Instructions,
		ResultAction:  req.ResultAction,
		Status:        models.StatusPending,
		SessionID:     &session.ID,
		LiveURL:       &session.LiveURL,
		StartedAt:     now,
	}
	if err := e.store.CreateScout(ctx, sc); err != nil {
		return nil, fmt.Errorf("failed to persist scout: %w", err)
	}

	// The first run record tracks this execution; run history is
	// best-effort alongside the scout row.
	if _, err := e.store.CreateRun(ctx, sc.ID, now); err != nil {
		log.Printf("Failed to create initial run for scout %s: %v", sc.ID, err)
	}

	audit.Log(audit.EventScoutCreated, req.WalletAddress, sc.ID, nil)
	return sc, nil
}

// Refresh advances the scout by polling the provider. It is idempotent and
// safe under concurrent callers: terminal scouts are returned verbatim with
// no provider call, and the terminal write is a compare-and-swap.
func (e *Engine) Refresh(ctx context.Context, scoutID string) (*models.Scout, error) {
	sc, err := e.store.GetScout(ctx, scoutID)
	if err != nil {
		return nil, err
	}

	if sc.SessionID == nil || models.IsTerminal(sc.Status) {
		return sc, nil
	}

	status, err := e.browser.SessionStatus(ctx, *sc.SessionID)
	if err != nil {
		// A flaky provider must not hide the last known state.
		log.Printf("Provider status check failed for scout %s: %v", scoutID, err)
		return sc, nil
	}

	if len(status.Tasks) == 0 || status.Tasks[0].FinishedAt == nil {
		changed, err := e.store.MarkRunning(ctx, scoutID)
		if err != nil {
			return nil, fmt.Errorf("failed to persist running state: %w", err)
		}
		if changed {
			if err := e.store.MarkRunRunning(ctx, scoutID); err != nil {
				log.Printf("Failed to mark run running for scout %s: %v", scoutID, err)
			}
		}
		sc.Status = models.StatusRunning
		return sc, nil
	}

	task := status.Tasks[0]
	finalStatus := models.StatusCompleted
	if task.Status == "failed" || task.Status == "error" {
		finalStatus = models.StatusError
	}

	screenshots := e.fetchScreenshots(ctx, task.ID)

	var result, errText *string
	if finalStatus == models.StatusCompleted {
		text := task.Output
		if e.processor != nil && sc.ResultAction != nil && strings.TrimSpace(*sc.ResultAction) != "" {
			processed, perr := e.processor.Process(ctx, task.Output, *sc.ResultAction)
			if perr != nil {
				log.Printf("Result processing failed for scout %s, falling back to raw output: %v", scoutID, perr)
			} else {
				text = processed
			}
		}
		result = &text
	} else {
		msg := task.Output
		if msg == "" {
			msg = "Task failed"
		}
		errText = &msg
	}

	var screenshotsJSON *string
	if len(screenshots) > 0 {
		raw, _ := json.Marshal(screenshots)
		s := string(raw)
		screenshotsJSON = &s
	}

	completedAt := time.Now().Unix()
	won, err := e.store.CompleteScout(ctx, scoutID, finalStatus, result, errText, screenshotsJSON, completedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to persist terminal state: %w", err)
	}
	if !won {
		// Another refresher landed the terminal write first; serve theirs.
		return e.store.GetScout(ctx, scoutID)
	}

	if err := e.store.CompleteActiveRun(ctx, scoutID, finalStatus, result, errText, completedAt); err != nil {
		log.Printf("Failed to close run for scout %s: %v", scoutID, err)
	}

	if finalStatus == models.StatusCompleted {
		audit.Log(audit.EventScoutCompleted, sc.WalletAddress, scoutID, nil)
	} else {
		audit.Log(audit.EventScoutErrored, sc.WalletAddress, scoutID, nil)
	}

	sc.Status = finalStatus
	sc.Result = result
	sc.Error = errText
	sc.Screenshots = screenshotsJSON
	sc.CompletedAt = &completedAt
	return sc, nil
}

// StartRun begins a fresh execution record for an existing scout. At most
// one run may be active per scout; the unique index backstops the check.
func (e *Engine) StartRun(ctx context.Context, scoutID string) (*models.Run, error) {
	if _, err := e.store.GetScout(ctx, scoutID); err != nil {
		return nil, err
	}
	if _, err := e.store.ActiveRun(ctx, scoutID); err == nil {
		return nil, &ValidationError{Message: "scout already has an active run"}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	run, err := e.store.CreateRun(ctx, scoutID, time.Now().Unix())
	if errors.Is(err, store.ErrActiveRun) {
		return nil, &ValidationError{Message: "scout already has an active run"}
	}
	if err == nil {
		audit.Log(audit.EventRunStarted, scoutID, run.ID.String(), nil)
	}
	return run, err
}

func (e *Engine) ListRuns(ctx context.Context, scoutID string) ([]models.Run, error) {
	if _, err := e.store.GetScout(ctx, scoutID); err != nil {
		return nil, err
	}
	return e.store.ListRuns(ctx, scoutID)
}

// StopRun is an explicit stub: the provider offers no task cancellation.
func (e *Engine) StopRun(ctx context.Context, scoutID string) error {
	return ErrNotImplemented
}

func (e *Engine) fetchScreenshots(ctx context.Context, taskID string) []string {
	detail, err := e.browser.TaskDetail(ctx, taskID)
	if err != nil {
		log.Printf("Failed to fetch task detail for %s: %v", taskID, err)
		return nil
	}
	var urls []string
	for _, step := range detail.Steps {
		if step.ScreenshotURL != "" {
			urls = append(urls, step.ScreenshotURL)
		}
	}
	return urls
}

func newScoutID() string {
	suffix := strings.Split(uuid.New().String(), "-")[0]
	return fmt.Sprintf("scout_%d_%s", time.Now().UnixMilli(), suffix)
}
