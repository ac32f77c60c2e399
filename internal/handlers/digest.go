package handlers

import (
	"context"
	"time"

	"github.com/whyhi/wos/internal/brain"
	"github.com/whyhi/wos/internal/logger"
	"github.com/whyhi/wos/internal/workflow"
)

const digestWorkflowName = "Daily_Newsletter_Digest"

// digestTimeout is generous because the workflow runs email
// categorization through a model before replying.
const digestTimeout = 120 * time.Second

// digestHandler triggers the external daily newsletter digest workflow
// and summarizes its confirmation payload. The workflow itself fetches,
// categorizes and mails the digest; this handler only orchestrates.
type digestHandler struct {
	deps Deps
}

func (h *digestHandler) Execute(ctx context.Context, req brain.HandlerRequest) *brain.HandlerResult {
	start := time.Now()

	if h.deps.Workflows == nil {
		return failure("WORKFLOW_NOT_CONFIGURED", "no workflow executor configured", time.Since(start).Milliseconds())
	}

	logger.Info("executing daily digest", "request_id", req.RequestID, "execution_id", req.ExecutionID)

	payload := map[string]any{
		"request_id":   req.RequestID,
		"execution_id": req.ExecutionID,
		"triggered_by": "wos_brain",
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	}

	res := h.deps.Workflows.Execute(ctx, digestWorkflowName, payload, digestTimeout)
	elapsed := time.Since(start).Milliseconds()

	if res.Status == workflow.StatusFailed {
		logger.Error("digest workflow failed", "error", res.Error)
		return failure("WORKFLOW_EXECUTION_FAILED", res.Error, elapsed)
	}

	digestHTML, emailCount := parseDigestOutput(res.Result)

	logger.Info("daily digest completed", "execution_id", req.ExecutionID, "emails", emailCount)

	return &brain.HandlerResult{
		Status: "success",
		Result: map[string]any{
			"digest_generated":       true,
			"digest_html":            digestHTML,
			"total_emails_processed": emailCount,
			"execution_id":           req.ExecutionID,
			"request_id":             req.RequestID,
		},
		ExecutionTimeMs: elapsed,
	}
}

// parseDigestOutput does a best-effort read of the workflow response.
// The workflow mails the digest itself, so the response is confirmation
// metadata with loosely stable keys.
func parseDigestOutput(out map[string]any) (string, int) {
	if out == nil {
		return "", 0
	}

	html, _ := out["digest_html"].(string)
	if html == "" {
		html, _ = out["output"].(string)
	}

	count := intFromAny(out["packet_count"])
	if count == 0 {
		count = intFromAny(out["count"])
	}

	return html, count
}

func intFromAny(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}
