package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

const defaultAnthropicURL = "https://api.anthropic.com/v1/messages"

// AnthropicClient talks to the Anthropic messages API over plain HTTP.
type AnthropicClient struct {
	APIKey  string
	Model   string
	BaseURL string

	client *http.Client
}

func NewAnthropicClient(apiKey, model string) *AnthropicClient {
	return &AnthropicClient{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: defaultAnthropicURL,
		client:  &http.Client{Timeout: 2 * time.Minute},
	}
}

type anthropicContent struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     map[string]any  `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicResponse struct {
	Content    []anthropicContent `json:"content"`
	StopReason string             `json:"stop_reason"`
}

func (c *AnthropicClient) GenerateWithTools(ctx context.Context, prompt string, tools []ToolDef, handlers map[string]ToolHandler, maxSteps int) (string, error) {
	if maxSteps < 1 {
		maxSteps = 1
	}

	apiTools := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		schema := t.InputSchema
		if schema == nil {
			schema = map[string]any{"type": "object"}
		}
		apiTools = append(apiTools, map[string]any{
			"name":         t.Name,
			"description":  t.Description,
			"input_schema": schema,
		})
	}

	messages := []anthropicMessage{{
		Role:    "user",
		Content: []anthropicContent{{Type: "text", Text: prompt}},
	}}

	var last *anthropicResponse
	for step := 0; step < maxSteps; step++ {
		resp, err := c.send(ctx, messages, apiTools)
		if err != nil {
			return "", err
		}
		last = resp

		if resp.StopReason != "tool_use" {
			break
		}

		messages = append(messages, anthropicMessage{Role: "assistant", Content: resp.Content})

		var results []anthropicContent
		for _, block := range resp.Content {
			if block.Type != "tool_use" {
				continue
			}
			handler, ok := handlers[block.Name]
			if !ok {
				results = append(results, anthropicContent{
					Type:      "tool_result",
					ToolUseID: block.ID,
					Content:   fmt.Sprintf("unknown tool: %s", block.Name),
					IsError:   true,
				})
				continue
			}
			out, err := handler(ctx, block.Input)
			if err != nil {
				results = append(results, anthropicContent{
					Type:      "tool_result",
					ToolUseID: block.ID,
					Content:   err.Error(),
					IsError:   true,
				})
				continue
			}
			results = append(results, anthropicContent{
				Type:      "tool_result",
				ToolUseID: block.ID,
				Content:   out,
			})
		}
		messages = append(messages, anthropicMessage{Role: "user", Content: results})
	}

	if last == nil {
		return "", errors.New("no content")
	}
	return collectText(last.Content), nil
}

func (c *AnthropicClient) send(ctx context.Context, messages []anthropicMessage, tools []map[string]any) (*anthropicResponse, error) {
	body := map[string]any{
		"model":      c.Model,
		"max_tokens": 2048,
		"messages":   messages,
	}
	if len(tools) > 0 {
		body["tools"] = tools
	}

	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	url := c.BaseURL
	if url == "" {
		url = defaultAnthropicURL
	}

	httpClient := c.client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		req.Header.Set("x-api-key", c.APIKey)
		req.Header.Set("anthropic-version", "2023-06-01")
		req.Header.Set("content-type", "application/json")

		res, err := httpClient.Do(req)
		if err != nil {
			lastErr = err
			if isTimeout(err) {
				time.Sleep(backoff(attempt))
				continue
			}
			return nil, err
		}

		if res.StatusCode >= 200 && res.StatusCode < 300 {
			var out anthropicResponse
			err := json.NewDecoder(res.Body).Decode(&out)
			res.Body.Close()
			if err != nil {
				return nil, err
			}
			return &out, nil
		}

		var eresp map[string]any
		_ = json.NewDecoder(res.Body).Decode(&eresp)
		res.Body.Close()
		lastErr = fmt.Errorf("anthropic status %d: %v", res.StatusCode, eresp)
		if res.StatusCode == 408 || res.StatusCode == 429 || (res.StatusCode >= 500 && res.StatusCode <= 599) {
			time.Sleep(backoff(attempt))
			continue
		}
		return nil, lastErr
	}
	return nil, lastErr
}

func collectText(blocks []anthropicContent) string {
	var parts []string
	for _, b := range blocks {
		if b.Type == "text" && b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func isTimeout(err error) bool {
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}

func backoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * 500 * time.Millisecond
}
