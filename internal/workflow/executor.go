// Package workflow calls named external no-code workflows over their
// webhook endpoints. Failures, including timeouts, are typed results;
// a workflow call never hangs and never panics the caller.
package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/whyhi/wos/internal/logger"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Executor runs a named workflow with a JSON payload and a bounded
// response timeout.
type Executor interface {
	Execute(ctx context.Context, workflowName string, payload map[string]any, timeout time.Duration) Result
}

// Result is the uniform workflow outcome.
type Result struct {
	Status          string
	Result          map[string]any
	Error           string
	ExecutionTimeMs int64
	WorkflowName    string
}

// Client executes workflows on an n8n-style host: POST
// <base>/webhook/<name> with bearer auth.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

func (c *Client) Execute(ctx context.Context, workflowName string, payload map[string]any, timeout time.Duration) Result {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	start := time.Now()
	fail := func(msg string) Result {
		return Result{
			Status:          StatusFailed,
			Error:           msg,
			ExecutionTimeMs: time.Since(start).Milliseconds(),
			WorkflowName:    workflowName,
		}
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fail(err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/webhook/"+workflowName, bytes.NewReader(jsonBody))
	if err != nil {
		return fail(err.Error())
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	logger.Info("executing workflow", "workflow", workflowName)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			logger.Error("workflow timeout", "workflow", workflowName, "timeout", timeout)
			return fail(fmt.Sprintf("workflow execution timeout (%s)", timeout))
		}
		logger.Error("workflow call failed", "workflow", workflowName, "error", err)
		return fail(err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(err.Error())
	}

	elapsed := time.Since(start).Milliseconds()

	if resp.StatusCode >= 400 {
		msg := string(body)
		if len(msg) > 200 {
			msg = msg[:200]
		}
		logger.Error("workflow failed", "workflow", workflowName, "status_code", resp.StatusCode)
		return Result{
			Status:          StatusFailed,
			Error:           fmt.Sprintf("HTTP %d: %s", resp.StatusCode, msg),
			ExecutionTimeMs: elapsed,
			WorkflowName:    workflowName,
		}
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		// workflows are allowed to answer with plain text
		result = map[string]any{"raw": string(body)}
	}

	logger.Info("workflow succeeded", "workflow", workflowName, "elapsed_ms", elapsed)

	return Result{
		Status:          StatusSuccess,
		Result:          result,
		ExecutionTimeMs: elapsed,
		WorkflowName:    workflowName,
	}
}
