package brain

import (
	"context"
	"time"

	"github.com/whyhi/wos/internal/approval"
	"github.com/whyhi/wos/internal/registry"
)

// Request statuses. Paused and PendingApproval are policy blocks, not
// errors: the request is well-formed but not yet actionable.
const (
	StatusCompleted       = "Completed"
	StatusFailed          = "Failed"
	StatusPaused          = "Paused"
	StatusPendingApproval = "PendingApproval"
)

// Dispatcher error codes.
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeIntentNotFound  = "INTENT_NOT_FOUND"
	CodeHandlerNotFound = "HANDLER_NOT_FOUND"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeExecutionFailed = "EXECUTION_FAILED"
	CodeBrainError      = "BRAIN_ERROR"
)

// Request is the single entry payload. RequestID is filled with a fresh
// id when absent; Mode and WBStage drive the workflow-builder policy
// gate.
type Request struct {
	RequestID string         `json:"request_id"`
	Intent    string         `json:"intent"`
	Input     map[string]any `json:"input"`
	Mode      string         `json:"mode,omitempty"`
	WBStage   string         `json:"wb_stage,omitempty"`
}

// Response is the uniform envelope every path through the dispatcher
// returns. No request is dropped without one.
type Response struct {
	OK             bool                  `json:"ok"`
	Status         string                `json:"status"`
	RequestID      string                `json:"request_id"`
	ExecutionID    string                `json:"execution_id,omitempty"`
	IntentID       string                `json:"intent_id,omitempty"`
	ResolvedIntent string                `json:"resolved_intent,omitempty"`
	Result         map[string]any        `json:"result,omitempty"`
	Approval       *approval.CheckResult `json:"approval,omitempty"`
	Errors         []ResponseError       `json:"errors"`
	Timestamp      time.Time             `json:"timestamp"`
}

type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Stage   string `json:"stage"`
}

// HandlerRequest is what a handler receives per execution.
type HandlerRequest struct {
	RequestID   string
	ExecutionID string
	Input       map[string]any
	Intent      *registry.Intent
}

// HandlerResult is a handler's uniform outcome. Failures are encoded
// here, never raised: Status anything but "success" fails the request
// with ErrorCode (default EXECUTION_FAILED).
type HandlerResult struct {
	Status          string
	Result          map[string]any
	Error           string
	ErrorCode       string
	ExecutionTimeMs int64
}

// Handler executes one intent's business logic.
type Handler interface {
	Execute(ctx context.Context, req HandlerRequest) *HandlerResult
}

// InputValidator is an optional handler capability; handlers without it
// accept any input.
type InputValidator interface {
	ValidateInput(input map[string]any) bool
}

// HandlerFactory resolves a handler for a registry handler reference.
type HandlerFactory func(handlerRef string) (Handler, error)

// IntentStore is the registry surface the dispatcher needs.
type IntentStore interface {
	GetIntent(ctx context.Context, name string) (*registry.Intent, error)
	LogExecution(ctx context.Context, rec registry.ExecutionRecord) bool
}

// ApprovalChecker is the advisory gate surface the dispatcher needs.
type ApprovalChecker interface {
	Check(requestID, intentID string, intentInput map[string]any) approval.CheckResult
}
