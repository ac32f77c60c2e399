package approval

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/whyhi/wos/internal/logger"
)

// Most workspace tools cap a single content block around 2000 chars;
// drafts are head-truncated rather than failing the request.
const maxContentLen = 2000

var ErrNoMedium = errors.New("approval gate requires a configured medium")

// Notifier announces a newly created approval request to the operator.
// Optional; nil means no announcement.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Gate is the human-in-the-loop checkpoint. It creates approval records
// in an external medium and polls them until a human decides or the
// caller's deadline passes.
type Gate struct {
	medium   Medium
	notifier Notifier
}

// Approval is the receipt for a created approval request.
type Approval struct {
	ApprovalID  string
	Status      string
	ExternalURL string
	CreatedAt   time.Time
}

// StatusInfo is a point-in-time read of an approval record.
type StatusInfo struct {
	ApprovalID  string
	Status      string
	ExternalURL string
	ReviewedAt  *time.Time
}

// Result is the outcome of a blocking wait.
type Result struct {
	Approved   bool
	Status     string // approved, rejected or timeout
	ReviewedAt *time.Time
}

// CheckResult is the advisory (non-blocking) gate answer used by the
// dispatcher's approval policy step.
type CheckResult struct {
	Approved         bool           `json:"approved"`
	ApprovalRequired bool           `json:"approval_required"`
	ApprovalID       string         `json:"approval_id"`
	Reason           string         `json:"reason"`
	IntentInput      map[string]any `json:"intent_input,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

// NewGate fails when no medium is configured: a gate that cannot reach
// its medium would silently never fulfill an approval contract, so this
// is the one loud configuration error in the package.
func NewGate(medium Medium, notifier Notifier) (*Gate, error) {
	if medium == nil {
		return nil, ErrNoMedium
	}

	return &Gate{medium: medium, notifier: notifier}, nil
}

// RequestApproval creates a pending record in the external medium.
// Content beyond the medium's block limit is head-truncated.
func (g *Gate) RequestApproval(ctx context.Context, requestID, intentID, content, title string, metadata map[string]any) (*Approval, error) {
	if title == "" {
		title = "Approval required: " + intentID
	}

	if len(content) > maxContentLen {
		content = content[:maxContentLen]
	}

	id, url, err := g.medium.CreateRecord(ctx, Record{
		Title:     title,
		RequestID: requestID,
		IntentID:  intentID,
		Content:   content,
		Metadata:  metadata,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("approval requested", "approval_id", id, "intent_id", intentID, "request_id", requestID)

	if g.notifier != nil {
		msg := "Approval needed: " + title + "\n" + url
		if err := g.notifier.Notify(ctx, msg); err != nil {
			logger.Warn("approval notification failed", "approval_id", id, "error", err)
		}
	}

	return &Approval{
		ApprovalID:  id,
		Status:      StatusPending,
		ExternalURL: url,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Status reads and canonicalizes the record's current state. Transport
// and lookup failures come back as errors so pollers can retry; they
// are never an approval decision.
func (g *Gate) Status(ctx context.Context, approvalID string) (*StatusInfo, error) {
	rec, err := g.medium.GetRecord(ctx, approvalID)
	if err != nil {
		logger.Warn("approval status lookup failed", "approval_id", approvalID, "error", err)
		return nil, err
	}

	return &StatusInfo{
		ApprovalID:  approvalID,
		Status:      CanonicalStatus(rec.Status),
		ExternalURL: rec.URL,
		ReviewedAt:  rec.ReviewedAt,
	}, nil
}

// Wait polls the record until a human decides, the timeout elapses, or
// ctx is cancelled. A failed lookup just sleeps and retries; only the
// wall clock bounds the wait. Each call runs in the caller's goroutine
// and holds no locks, so one pending approval never stalls others.
func (g *Gate) Wait(ctx context.Context, approvalID string, timeout, pollInterval time.Duration) Result {
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		info, err := g.Status(ctx, approvalID)
		if err == nil && info.Status != StatusPending {
			logger.Info("approval resolved", "approval_id", approvalID, "status", info.Status)
			return Result{
				Approved:   info.Status == StatusApproved,
				Status:     info.Status,
				ReviewedAt: info.ReviewedAt,
			}
		}

		if time.Now().After(deadline) {
			logger.Info("approval wait timed out", "approval_id", approvalID, "timeout", timeout)
			return Result{Approved: false, Status: StatusTimeout}
		}

		select {
		case <-ctx.Done():
			logger.Info("approval wait cancelled", "approval_id", approvalID)
			return Result{Approved: false, Status: StatusTimeout}
		case <-ticker.C:
		}
	}
}

// Check is the dispatcher's advisory gate: it never consults the medium
// and always reports "approval required, not approved", pushing the
// request into the PendingApproval path. Handlers that truly block on a
// human decision call Wait themselves.
//
// Deprecated: kept for the dispatcher's policy step; new callers should
// use RequestApproval and Wait.
func (g *Gate) Check(requestID, intentID string, intentInput map[string]any) CheckResult {
	return CheckResult{
		Approved:         false,
		ApprovalRequired: true,
		ApprovalID:       uuid.New().String(),
		Reason:           "Awaiting human approval (HITL gate)",
		IntentInput:      intentInput,
		CreatedAt:        time.Now().UTC(),
	}
}
