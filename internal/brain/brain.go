// Package brain is the dispatcher: it normalizes requests, enforces
// policy ordering, routes to intent handlers and always answers with a
// uniform response envelope.
package brain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/whyhi/wos/internal/approval"
	"github.com/whyhi/wos/internal/logger"
	"github.com/whyhi/wos/internal/registry"
)

// Brain routes intents. All collaborators are injected once at
// construction; there is no ambient global state.
type Brain struct {
	intents IntentStore
	gate    ApprovalChecker
	factory HandlerFactory
}

func New(intents IntentStore, gate ApprovalChecker, factory HandlerFactory) *Brain {
	return &Brain{
		intents: intents,
		gate:    gate,
		factory: factory,
	}
}

// ProcessRequest runs the full dispatch sequence. Every outcome,
// including a panicking handler, is converted into an envelope; the
// dispatcher never propagates a failure to its caller.
func (b *Brain) ProcessRequest(ctx context.Context, req Request) (resp Response) {
	normalized := normalize(req)
	requestID := normalized.RequestID

	defer func() {
		if r := recover(); r != nil {
			logger.Error("brain panic", "request_id", requestID, "panic", r)
			resp = b.errorResponse(requestID, CodeBrainError, fmt.Sprintf("%v", r))
		}
	}()

	if normalized.RequestID == "" || normalized.Intent == "" {
		return b.errorResponse(requestID, CodeInvalidRequest, "Request validation failed")
	}

	resolvedIntent := strings.ToLower(strings.TrimSpace(normalized.Intent))
	intent, err := b.intents.GetIntent(ctx, resolvedIntent)
	if err != nil {
		logger.Error("intent lookup failed", "intent", resolvedIntent, "error", err)
		return b.errorResponse(requestID, CodeBrainError, err.Error())
	}
	if intent == nil {
		logger.Warn("intent not found", "intent", resolvedIntent)
		return b.errorResponse(requestID, CodeIntentNotFound,
			fmt.Sprintf("No intent registered for '%s'", resolvedIntent))
	}

	// The deploy stage always pauses for out-of-band sign-off,
	// regardless of the intent's own approval policy. This gate runs
	// before the approval check.
	if normalized.Mode == "workflow_builder" && normalized.WBStage == "deploy" {
		logger.Info("workflow-builder deploy gate triggered", "request_id", requestID)
		return b.pausedResponse(requestID, intent.IntentID,
			"Workflow builder deploy requires founder approval")
	}

	if intent.ApprovalRequired {
		check := b.checkApproval(requestID, intent.IntentID, normalized.Input)
		if !check.Approved {
			logger.Info("approval required", "intent_id", intent.IntentID, "request_id", requestID)
			return b.pendingApprovalResponse(requestID, intent.IntentID, check)
		}
	}

	handler := b.resolveHandler(intent)
	if handler == nil {
		return b.errorResponse(requestID, CodeHandlerNotFound,
			fmt.Sprintf("Handler not available for %s", intent.IntentID))
	}

	if validator, ok := handler.(InputValidator); ok {
		if !validator.ValidateInput(normalized.Input) {
			return b.errorResponse(requestID, CodeInvalidInput,
				"Input validation failed for intent")
		}
	}

	executionID := uuid.New().String()

	result := handler.Execute(ctx, HandlerRequest{
		RequestID:   requestID,
		ExecutionID: executionID,
		Input:       normalized.Input,
		Intent:      intent,
	})
	if result == nil {
		result = &HandlerResult{Status: "failed", Error: "handler returned no result"}
	}

	// audit is best-effort; a failed write never changes the response
	b.intents.LogExecution(ctx, registry.ExecutionRecord{
		ExecutionID:     executionID,
		RequestID:       requestID,
		IntentID:        intent.IntentID,
		Status:          result.Status,
		Result:          result.Result,
		Error:           result.Error,
		ExecutionTimeMs: result.ExecutionTimeMs,
	})

	if result.Status == "success" {
		return Response{
			OK:             true,
			Status:         StatusCompleted,
			RequestID:      requestID,
			ExecutionID:    executionID,
			IntentID:       intent.IntentID,
			ResolvedIntent: resolvedIntent,
			Result:         result.Result,
			Errors:         []ResponseError{},
			Timestamp:      time.Now().UTC(),
		}
	}

	code := result.ErrorCode
	if code == "" {
		code = CodeExecutionFailed
	}
	message := result.Error
	if message == "" {
		message = "Intent execution failed"
	}

	return b.errorResponse(requestID, code, message)
}

// checkApproval answers the advisory gate question. Without a
// configured gate an approval-required intent stays pending.
func (b *Brain) checkApproval(requestID, intentID string, input map[string]any) approval.CheckResult {
	if b.gate == nil {
		return approval.CheckResult{
			Approved:         false,
			ApprovalRequired: true,
			Reason:           "Approval gate not configured",
			IntentInput:      input,
			CreatedAt:        time.Now().UTC(),
		}
	}
	return b.gate.Check(requestID, intentID, input)
}

func (b *Brain) resolveHandler(intent *registry.Intent) Handler {
	if b.factory == nil {
		logger.Error("handler factory not configured")
		return nil
	}

	handler, err := b.factory(intent.HandlerReference)
	if err != nil {
		logger.Error("handler resolution failed", "intent_id", intent.IntentID, "handler", intent.HandlerReference, "error", err)
		return nil
	}

	return handler
}

func normalize(req Request) Request {
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}
	req.Intent = strings.TrimSpace(req.Intent)
	if req.Input == nil {
		req.Input = map[string]any{}
	}
	return req
}

func (b *Brain) errorResponse(requestID, code, message string) Response {
	return Response{
		OK:        false,
		Status:    StatusFailed,
		RequestID: requestID,
		Errors: []ResponseError{{
			Code:    code,
			Message: message,
			Stage:   "brain",
		}},
		Timestamp: time.Now().UTC(),
	}
}

func (b *Brain) pausedResponse(requestID, intentID, reason string) Response {
	return Response{
		OK:        false,
		Status:    StatusPaused,
		RequestID: requestID,
		IntentID:  intentID,
		Approval: &approval.CheckResult{
			ApprovalRequired: true,
			Reason:           reason,
		},
		Errors:    []ResponseError{},
		Timestamp: time.Now().UTC(),
	}
}

func (b *Brain) pendingApprovalResponse(requestID, intentID string, check approval.CheckResult) Response {
	return Response{
		OK:        false,
		Status:    StatusPendingApproval,
		RequestID: requestID,
		IntentID:  intentID,
		Approval:  &check,
		Errors:    []ResponseError{},
		Timestamp: time.Now().UTC(),
	}
}
