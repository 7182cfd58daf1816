package scout

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"scoutpost/backend/internal/browser"
	"scoutpost/backend/internal/models"
	"scoutpost/backend/internal/store"
)

type fakeStore struct {
	scouts map[string]*models.Scout
	runs   []*models.Run

	createScoutCalls int
	completeCalls    int
	failCreate       bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{scouts: map[string]*models.Scout{}}
}

func (f *fakeStore) CreateScout(ctx context.Context, sc *models.Scout) error {
	f.createScoutCalls++
	if f.failCreate {
		return errors.New("insert failed")
	}
	cp := *sc
	f.scouts[sc.ID] = &cp
	return nil
}

func (f *fakeStore) GetScout(ctx context.Context, id string) (*models.Scout, error) {
	sc, ok := f.scouts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *sc
	return &cp, nil
}

func (f *fakeStore) MarkRunning(ctx context.Context, id string) (bool, error) {
	sc, ok := f.scouts[id]
	if !ok || sc.Status != models.StatusPending {
		return false, nil
	}
	sc.Status = models.StatusRunning
	return true, nil
}

func (f *fakeStore) CompleteScout(ctx context.Context, id, status string, result, errText, screenshots *string, completedAt int64) (bool, error) {
	f.completeCalls++
	sc, ok := f.scouts[id]
	if !ok || models.IsTerminal(sc.Status) {
		return false, nil
	}
	sc.Status = status
	sc.Result = result
	sc.Error = errText
	sc.Screenshots = screenshots
	sc.CompletedAt = &completedAt
	return true, nil
}

func (f *fakeStore) CreateRun(ctx context.Context, scoutID string, startedAt int64) (*models.Run, error) {
	for _, r := range f.runs {
		if r.ScoutID == scoutID && !models.IsTerminal(r.Status) {
			return nil, store.ErrActiveRun
		}
	}
	run := &models.Run{ID: uuid.New(), ScoutID: scoutID, Status: models.StatusPending, StartedAt: startedAt, CreatedAt: time.Now()}
	f.runs = append(f.runs, run)
	return run, nil
}

func (f *fakeStore) ActiveRun(ctx context.Context, scoutID string) (*models.Run, error) {
	for i := len(f.runs) - 1; i >= 0; i-- {
		if f.runs[i].ScoutID == scoutID && !models.IsTerminal(f.runs[i].Status) {
			return f.runs[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) ListRuns(ctx context.Context, scoutID string) ([]models.Run, error) {
	var out []models.Run
	for i := len(f.runs) - 1; i >= 0; i-- {
		if f.runs[i].ScoutID == scoutID {
			out = append(out, *f.runs[i])
		}
	}
	if out == nil {
		out = []models.Run{}
	}
	return out, nil
}

func (f *fakeStore) CompleteActiveRun(ctx context.Context, scoutID, status string, result, errText *string, completedAt int64) error {
	for _, r := range f.runs {
		if r.ScoutID == scoutID && !models.IsTerminal(r.Status) {
			r.Status = status
			r.Result = result
			r.Error = errText
			r.CompletedAt = &completedAt
		}
	}
	return nil
}

func (f *fakeStore) MarkRunRunning(ctx context.Context, scoutID string) error {
	for _, r := range f.runs {
		if r.ScoutID == scoutID && r.Status == models.StatusPending {
			r.Status = models.StatusRunning
		}
	}
	return nil
}

type fakeBrowser struct {
	session       *browser.Session
	sessionErr    error
	taskErr       error
	status        *browser.SessionStatus
	statusErr     error
	detail        *browser.TaskDetail
	detailErr     error
	releaseErr    error
	lastPrompt    string
	statusCalls   int
	releaseCalls  int
	createdTasks  int
}

func (f *fakeBrowser) CreateSession(ctx context.Context) (*browser.Session, error) {
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	return f.session, nil
}

func (f *fakeBrowser) CreateTask(ctx context.Context, sessionID, prompt string) (*browser.Task, error) {
	f.lastPrompt = prompt
	if f.taskErr != nil {
		return nil, f.taskErr
	}
	f.createdTasks++
	return &browser.Task{ID: "task-1", Status: "running"}, nil
}

func (f *fakeBrowser) SessionStatus(ctx context.Context, sessionID string) (*browser.SessionStatus, error) {
	f.statusCalls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.status, nil
}

func (f *fakeBrowser) TaskDetail(ctx context.Context, taskID string) (*browser.TaskDetail, error) {
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	if f.detail == nil {
		// The real client never returns (nil, nil); mirror that contract.
		return &browser.TaskDetail{}, nil
	}
	return f.detail, nil
}

func (f *fakeBrowser) ReleaseSession(ctx context.Context, sessionID string) error {
	f.releaseCalls++
	return f.releaseErr
}

type fakeProcessor struct {
	out   string
	err   error
	calls int
}

func (f *fakeProcessor) Process(ctx context.Context, rawOutput, resultAction string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.out, nil
}

func workingBrowser() *fakeBrowser {
	return &fakeBrowser{
		session: &browser.Session{ID: "sess-1", LiveURL: "https://live.example/sess-1"},
	}
}

func strptr(s string) *string { return &s }

func seedScout(st *fakeStore, status string) *models.Scout {
	sc := &models.Scout{
		ID:            "scout_1_abc",
		WalletAddress: "wallet123",
		Name:          "Price Watch",
		Instructions:  "check iphone price on amazon",
		Status:        status,
		SessionID:     strptr("sess-1"),
		LiveURL:       strptr("https://live.example/sess-1"),
		StartedAt:     time.Now().Unix(),
	}
	st.scouts[sc.ID] = sc
	return sc
}

func TestCreate_Success(t *testing.T) {
	st := newFakeStore()
	br := workingBrowser()
	engine := NewEngine(st, br, nil)

	before := time.Now().Unix()
	sc, err := engine.Create(context.Background(), CreateRequest{
		Name:          "Price Watch",
		Instructions:  "check iphone price on amazon",
		WalletAddress: "wallet123",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if sc.Status != models.StatusPending {
		t.Errorf("status = %q, want pending", sc.Status)
	}
	if sc.SessionID == nil || *sc.SessionID != "sess-1" {
		t.Errorf("sessionId not set")
	}
	if sc.LiveURL == nil || *sc.LiveURL == "" {
		t.Errorf("liveUrl not set")
	}
	if sc.StartedAt < before || sc.StartedAt > time.Now().Unix()+5 {
		t.Errorf("startedAt %d not near now", sc.StartedAt)
	}
	if sc.ID == "" {
		t.Errorf("scout id empty")
	}
	if _, ok := st.scouts[sc.ID]; !ok {
		t.Errorf("scout not persisted")
	}
}

func TestCreate_PromptCarriesFutureStepDirective(t *testing.T) {
	st := newFakeStore()
	br := workingBrowser()
	engine := NewEngine(st, br, nil)

	_, err := engine.Create(context.Background(), CreateRequest{
		Name:          "Price Watch",
		Instructions:  "check iphone price",
		ResultAction:  strptr("email me the price"),
		WalletAddress: "wallet123",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if !strings.Contains(br.lastPrompt, "check iphone price") {
		t.Errorf("prompt missing instructions: %q", br.lastPrompt)
	}
	if !strings.Contains(br.lastPrompt, "email me the price") {
		t.Errorf("prompt missing result action: %q", br.lastPrompt)
	}
	if !strings.Contains(br.lastPrompt, "Do NOT perform that step yourself") {
		t.Errorf("prompt missing future-step directive: %q", br.lastPrompt)
	}
}

func TestCreate_Validation(t *testing.T) {
	engine := NewEngine(newFakeStore(), workingBrowser(), nil)
	ctx := context.Background()

	cases := []CreateRequest{
		{Name: "", Instructions: "x", WalletAddress: "w"},
		{Name: strings.Repeat("a", 101), Instructions: "x", WalletAddress: "w"},
		{Name: "ok", Instructions: "", WalletAddress: "w"},
		{Name: "ok", Instructions: "x", WalletAddress: ""},
	}
	for i, req := range cases {
		_, err := engine.Create(ctx, req)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestCreate_TaskFailureLeavesNoScout(t *testing.T) {
	st := newFakeStore()
	br := workingBrowser()
	br.taskErr = errors.New("provider rejected task")
	engine := NewEngine(st, br, nil)

	_, err := engine.Create(context.Background(), CreateRequest{
		Name: "Price Watch", Instructions: "check", WalletAddress: "w",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if st.createScoutCalls != 0 {
		t.Errorf("scout was persisted despite task failure")
	}
	if br.releaseCalls != 1 {
		t.Errorf("expected best-effort session release, got %d calls", br.releaseCalls)
	}
}

func TestCreate_SessionFailure(t *testing.T) {
	st := newFakeStore()
	br := workingBrowser()
	br.sessionErr = errors.New("provider down")
	engine := NewEngine(st, br, nil)

	_, err := engine.Create(context.Background(), CreateRequest{
		Name: "Price Watch", Instructions: "check", WalletAddress: "w",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if st.createScoutCalls != 0 {
		t.Errorf("scout persisted despite session failure")
	}
}

func TestRefresh_NotFound(t *testing.T) {
	engine := NewEngine(newFakeStore(), workingBrowser(), nil)
	_, err := engine.Refresh(context.Background(), "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRefresh_TerminalNeverRepolls(t *testing.T) {
	st := newFakeStore()
	br := workingBrowser()
	sc := seedScout(st, models.StatusCompleted)
	sc.Result = strptr("Price: $799")
	done := time.Now().Unix()
	sc.CompletedAt = &done
	engine := NewEngine(st, br, nil)

	for i := 0; i < 3; i++ {
		got, err := engine.Refresh(context.Background(), sc.ID)
		if err != nil {
			t.Fatalf("Refresh failed: %v", err)
		}
		if got.Status != models.StatusCompleted || got.Result == nil || *got.Result != "Price: $799" {
			t.Errorf("terminal scout changed on refresh %d", i)
		}
		if got.CompletedAt == nil || *got.CompletedAt != done {
			t.Errorf("completedAt changed on refresh %d", i)
		}
	}
	if br.statusCalls != 0 {
		t.Errorf("terminal refresh hit the provider %d times", br.statusCalls)
	}
}

func TestRefresh_NoSessionReturnsVerbatim(t *testing.T) {
	st := newFakeStore()
	sc := seedScout(st, models.StatusPending)
	sc.SessionID = nil
	br := workingBrowser()
	engine := NewEngine(st, br, nil)

	got, err := engine.Refresh(context.Background(), sc.ID)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if got.Status != models.StatusPending {
		t.Errorf("status = %q, want pending", got.Status)
	}
	if br.statusCalls != 0 {
		t.Errorf("provider was called with no session")
	}
}

func TestRefresh_ProviderFailureDegrades(t *testing.T) {
	st := newFakeStore()
	sc := seedScout(st, models.StatusRunning)
	br := workingBrowser()
	br.statusErr = errors.New("provider timeout")
	engine := NewEngine(st, br, nil)

	got, err := engine.Refresh(context.Background(), sc.ID)
	if err != nil {
		t.Fatalf("Refresh should degrade, not fail: %v", err)
	}
	if got.Status != models.StatusRunning {
		t.Errorf("status = %q, want running (unchanged)", got.Status)
	}
	if got.Error != nil {
		t.Errorf("degraded refresh must not mark the scout errored")
	}
}

func TestRefresh_UnfinishedTaskGoesRunning(t *testing.T) {
	st := newFakeStore()
	sc := seedScout(st, models.StatusPending)
	br := workingBrowser()
	br.status = &browser.SessionStatus{Tasks: []browser.Task{{ID: "task-1", Status: "running"}}}
	engine := NewEngine(st, br, nil)

	got, err := engine.Refresh(context.Background(), sc.ID)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if got.Status != models.StatusRunning {
		t.Errorf("status = %q, want running", got.Status)
	}
	if got.Result != nil || got.Error != nil {
		t.Errorf("running scout must have no result/error")
	}
	if st.scouts[sc.ID].Status != models.StatusRunning {
		t.Errorf("running transition not persisted")
	}
}

func TestRefresh_CompletedTask(t *testing.T) {
	st := newFakeStore()
	sc := seedScout(st, models.StatusRunning)
	br := workingBrowser()
	br.status = &browser.SessionStatus{Tasks: []browser.Task{{
		ID: "task-1", Status: "completed", Output: "Price: $799", FinishedAt: strptr("2026-08-27T10:00:00Z"),
	}}}
	br.detail = &browser.TaskDetail{Steps: []browser.TaskStep{
		{Number: 1, ScreenshotURL: "https://shots/1.png"},
		{Number: 2, ScreenshotURL: "https://shots/2.png"},
	}}
	engine := NewEngine(st, br, nil)

	got, err := engine.Refresh(context.Background(), sc.ID)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.Result == nil || *got.Result != "Price: $799" {
		t.Errorf("result = %v, want Price: $799", got.Result)
	}
	if got.Error != nil {
		t.Errorf("completed scout must have no error")
	}
	shots := got.ScreenshotURLs()
	if len(shots) != 2 || shots[0] != "https://shots/1.png" {
		t.Errorf("screenshots = %v", shots)
	}
	if got.CompletedAt == nil {
		t.Errorf("completedAt not set")
	}
}

func TestRefresh_FailedTask(t *testing.T) {
	st := newFakeStore()
	sc := seedScout(st, models.StatusRunning)
	br := workingBrowser()
	br.status = &browser.SessionStatus{Tasks: []browser.Task{{
		ID: "task-1", Status: "failed", Output: "site unreachable", FinishedAt: strptr("2026-08-27T10:00:00Z"),
	}}}
	engine := NewEngine(st, br, nil)

	got, err := engine.Refresh(context.Background(), sc.ID)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if got.Status != models.StatusError {
		t.Errorf("status = %q, want error", got.Status)
	}
	if got.Error == nil || *got.Error != "site unreachable" {
		t.Errorf("error = %v, want site unreachable", got.Error)
	}
	if got.Result != nil {
		t.Errorf("errored scout must have no result")
	}
}

func TestRefresh_FailedTaskWithoutOutput(t *testing.T) {
	st := newFakeStore()
	sc := seedScout(st, models.StatusRunning)
	br := workingBrowser()
	br.status = &browser.SessionStatus{Tasks: []browser.Task{{
		ID: "task-1", Status: "failed", FinishedAt: strptr("2026-08-27T10:00:00Z"),
	}}}
	engine := NewEngine(st, br, nil)

	got, err := engine.Refresh(context.Background(), sc.ID)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if got.Error == nil || *got.Error != "Task failed" {
		t.Errorf("error = %v, want Task failed default", got.Error)
	}
}

func TestRefresh_EmptyOutputStillCompletes(t *testing.T) {
	st := newFakeStore()
	sc := seedScout(st, models.StatusRunning)
	br := workingBrowser()
	br.status = &browser.SessionStatus{Tasks: []browser.Task{{
		ID: "task-1", Status: "finished", Output: "", FinishedAt: strptr("2026-08-27T10:00:00Z"),
	}}}
	engine := NewEngine(st, br, nil)

	got, err := engine.Refresh(context.Background(), sc.ID)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.Result == nil || *got.Result != "" {
		t.Errorf("result = %v, want empty string", got.Result)
	}
}

func TestRefresh_ProcessorTransformsResult(t *testing.T) {
	st := newFakeStore()
	sc := seedScout(st, models.StatusRunning)
	sc.ResultAction = strptr("email me the price")
	proc := &fakeProcessor{out: "Task Output:\nPrice: $799\n\n---\n\nResult Action:\nEmailed."}
	br := workingBrowser()
	br.status = &browser.SessionStatus{Tasks: []browser.Task{{
		ID: "task-1", Status: "completed", Output: "Price: $799", FinishedAt: strptr("2026-08-27T10:00:00Z"),
	}}}
	engine := NewEngine(st, br, proc)

	got, err := engine.Refresh(context.Background(), sc.ID)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if proc.calls != 1 {
		t.Errorf("processor called %d times, want 1", proc.calls)
	}
	if got.Result == nil || !strings.Contains(*got.Result, "Emailed.") {
		t.Errorf("result = %v, want processed text", got.Result)
	}
}

func TestRefresh_ProcessorErrorFallsBackToRawOutput(t *testing.T) {
	st := newFakeStore()
	sc := seedScout(st, models.StatusRunning)
	sc.ResultAction = strptr("email me the price")
	proc := &fakeProcessor{err: errors.New("llm unavailable")}
	br := workingBrowser()
	br.status = &browser.SessionStatus{Tasks: []browser.Task{{
		ID: "task-1", Status: "completed", Output: "Price: $799", FinishedAt: strptr("2026-08-27T10:00:00Z"),
	}}}
	engine := NewEngine(st, br, proc)

	got, err := engine.Refresh(context.Background(), sc.ID)
	if err != nil {
		t.Fatalf("Refresh must succeed despite processor failure: %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.Result == nil || *got.Result != "Price: $799" {
		t.Errorf("result = %v, want raw output fallback", got.Result)
	}
}

func TestRefresh_ProcessorSkippedOnFailure(t *testing.T) {
	st := newFakeStore()
	sc := seedScout(st, models.StatusRunning)
	sc.ResultAction = strptr("email me the price")
	proc := &fakeProcessor{out: "should not appear"}
	br := workingBrowser()
	br.status = &browser.SessionStatus{Tasks: []browser.Task{{
		ID: "task-1", Status: "failed", Output: "boom", FinishedAt: strptr("2026-08-27T10:00:00Z"),
	}}}
	engine := NewEngine(st, br, proc)

	if _, err := engine.Refresh(context.Background(), sc.ID); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if proc.calls != 0 {
		t.Errorf("processor must not run for failed tasks")
	}
}

func TestRefresh_ScreenshotFetchFailureNonFatal(t *testing.T) {
	st := newFakeStore()
	sc := seedScout(st, models.StatusRunning)
	br := workingBrowser()
	br.status = &browser.SessionStatus{Tasks: []browser.Task{{
		ID: "task-1", Status: "completed", Output: "ok", FinishedAt: strptr("2026-08-27T10:00:00Z"),
	}}}
	br.detailErr = errors.New("detail unavailable")
	engine := NewEngine(st, br, nil)

	got, err := engine.Refresh(context.Background(), sc.ID)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if len(got.ScreenshotURLs()) != 0 {
		t.Errorf("expected empty screenshots on detail failure")
	}
}

func TestRefresh_ConcurrentTerminalWriteIsRaceSafe(t *testing.T) {
	st := newFakeStore()
	sc := seedScout(st, models.StatusRunning)
	br := workingBrowser()
	br.status = &browser.SessionStatus{Tasks: []browser.Task{{
		ID: "task-1", Status: "completed", Output: "Price: $799", FinishedAt: strptr("2026-08-27T10:00:00Z"),
	}}}
	engine := NewEngine(st, br, nil)

	first, err := engine.Refresh(context.Background(), sc.ID)
	if err != nil {
		t.Fatalf("first refresh failed: %v", err)
	}
	// A second caller must observe the winner's result unchanged.
	second, err := engine.Refresh(context.Background(), sc.ID)
	if err != nil {
		t.Fatalf("second refresh failed: %v", err)
	}
	if first.Status != models.StatusCompleted || second.Status != models.StatusCompleted {
		t.Errorf("statuses = %q, %q, want completed", first.Status, second.Status)
	}
	if *first.Result != *second.Result {
		t.Errorf("results diverged: %q vs %q", *first.Result, *second.Result)
	}
	if st.completeCalls != 1 {
		t.Errorf("terminal write landed %d times, want 1", st.completeCalls)
	}
}

func TestStateMachineMonotonicity(t *testing.T) {
	st := newFakeStore()
	sc := seedScout(st, models.StatusPending)
	br := workingBrowser()
	engine := NewEngine(st, br, nil)

	// pending -> running
	br.status = &browser.SessionStatus{Tasks: []browser.Task{{ID: "task-1"}}}
	got, _ := engine.Refresh(context.Background(), sc.ID)
	if got.Status != models.StatusRunning {
		t.Fatalf("status = %q, want running", got.Status)
	}

	// running -> completed
	br.status = &browser.SessionStatus{Tasks: []browser.Task{{
		ID: "task-1", Status: "completed", Output: "done", FinishedAt: strptr("2026-08-27T10:00:00Z"),
	}}}
	got, _ = engine.Refresh(context.Background(), sc.ID)
	if got.Status != models.StatusCompleted {
		t.Fatalf("status = %q, want completed", got.Status)
	}

	// completed stays completed even if the provider would now report failure
	br.status = &browser.SessionStatus{Tasks: []browser.Task{{
		ID: "task-1", Status: "failed", Output: "late failure", FinishedAt: strptr("2026-08-27T11:00:00Z"),
	}}}
	got, _ = engine.Refresh(context.Background(), sc.ID)
	if got.Status != models.StatusCompleted {
		t.Errorf("terminal scout moved backward to %q", got.Status)
	}
}

func TestStartRun_RejectsSecondActiveRun(t *testing.T) {
	st := newFakeStore()
	sc := seedScout(st, models.StatusRunning)
	engine := NewEngine(st, workingBrowser(), nil)

	if _, err := engine.StartRun(context.Background(), sc.ID); err != nil {
		t.Fatalf("first StartRun failed: %v", err)
	}
	_, err := engine.StartRun(context.Background(), sc.ID)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("expected validation error on second active run, got %v", err)
	}
}

func TestListRuns_NewestFirst(t *testing.T) {
	st := newFakeStore()
	sc := seedScout(st, models.StatusRunning)
	engine := NewEngine(st, workingBrowser(), nil)

	run, err := engine.StartRun(context.Background(), sc.ID)
	if err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	runs, err := engine.ListRuns(context.Background(), sc.ID)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != run.ID {
		t.Errorf("runs = %v", runs)
	}
}

func TestStopRun_NotImplemented(t *testing.T) {
	engine := NewEngine(newFakeStore(), workingBrowser(), nil)
	if err := engine.StopRun(context.Background(), "any"); !errors.Is(err, ErrNotImplemented) {
		t.Errorf("expected ErrNotImplemented, got %v", err)
	}
}

func TestScoutIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := newScoutID()
		if seen[id] {
			t.Fatalf("duplicate scout id %s", id)
		}
		seen[id] = true
	}
}
