package browser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client wraps the browser-automation provider's session and task API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

type Session struct {
	ID      string `json:"id"`
	LiveURL string `json:"liveUrl"`
}

type Task struct {
	ID         string  `json:"id"`
	Status     string  `json:"status"`
	Output     string  `json:"output"`
	FinishedAt *string `json:"finishedAt"`
}

type SessionStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Tasks  []Task `json:"tasks"`
}

type TaskStep struct {
	Number        int    `json:"number"`
	ScreenshotURL string `json:"screenshotUrl"`
}

type TaskDetail struct {
	ID     string     `json:"id"`
	Status string     `json:"status"`
	Output string     `json:"output"`
	Steps  []TaskStep `json:"steps"`
}

func (c *Client) doRequest(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("provider returned status %d on %s %s: %s", resp.StatusCode, method, path, msg)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode provider response: %w", err)
		}
	}
	return nil
}

// CreateSession starts a fresh browser session.
func (c *Client) CreateSession(ctx context.Context) (*Session, error) {
	var session Session
	if err := c.doRequest(ctx, "POST", "/v1/sessions", map[string]any{}, &session); err != nil {
		return nil, err
	}
	if session.ID == "" {
		return nil, fmt.Errorf("provider returned session without id")
	}
	return &session, nil
}

// CreateTask queues a task prompt inside a session.
func (c *Client) CreateTask(ctx context.Context, sessionID, prompt string) (*Task, error) {
	var task Task
	err := c.doRequest(ctx, "POST", "/v1/sessions/"+sessionID+"/tasks",
		map[string]string{"prompt": prompt}, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// SessionStatus fetches the session with its tasks.
func (c *Client) SessionStatus(ctx context.Context, sessionID string) (*SessionStatus, error) {
	var status SessionStatus
	if err := c.doRequest(ctx, "GET", "/v1/sessions/"+sessionID, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// TaskDetail fetches step-level detail, including screenshots.
func (c *Client) TaskDetail(ctx context.Context, taskID string) (*TaskDetail, error) {
	var detail TaskDetail
	if err := c.doRequest(ctx, "GET", "/v1/tasks/"+taskID, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ReleaseSession tears a session down. Best-effort; callers may ignore the
// error.
func (c *Client) ReleaseSession(ctx context.Context, sessionID string) error {
	return c.doRequest(ctx, "DELETE", "/v1/sessions/"+sessionID, nil, nil)
}
