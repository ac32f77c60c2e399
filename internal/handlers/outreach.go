package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/whyhi/wos/internal/approval"
	"github.com/whyhi/wos/internal/brain"
	"github.com/whyhi/wos/internal/logger"
	"github.com/whyhi/wos/internal/publisher"
)

const (
	outreachApprovalTimeout = 10 * time.Minute
	outreachPollInterval    = 10 * time.Second
)

// outreachHandler drafts personalized outreach per target and routes
// every draft through the blocking approval gate before counting it as
// sent. Targets come from the request input; each one gets its own
// approval record so the operator can approve and reject individually.
type outreachHandler struct {
	deps Deps
}

type outreachTarget struct {
	Name          string
	URL           string
	Email         string
	ContactMethod string
	Platform      string
}

type outreachEntry struct {
	Creator     string
	Platform    string
	Status      string
	Message     string
	ApprovalURL string
	Err         string
}

// ValidateInput requires a non-empty targets list where every target
// has a name.
func (h *outreachHandler) ValidateInput(input map[string]any) bool {
	targets, err := parseTargets(input)
	if err != nil || len(targets) == 0 {
		return false
	}
	return true
}

func (h *outreachHandler) Execute(ctx context.Context, req brain.HandlerRequest) *brain.HandlerResult {
	start := time.Now()

	if h.deps.Gate == nil {
		return failure("APPROVAL_NOT_CONFIGURED", "no approval gate configured", time.Since(start).Milliseconds())
	}

	targets, err := parseTargets(req.Input)
	if err != nil {
		return failure("INVALID_INPUT", err.Error(), time.Since(start).Milliseconds())
	}

	dryRun, _ := req.Input["dry_run"].(bool)
	template, _ := req.Input["template"].(string)

	logger.Info("starting creator outreach", "request_id", req.RequestID, "targets", len(targets), "dry_run", dryRun)

	var entries []outreachEntry
	approvalsRequested := 0
	approvedCount := 0

	for _, target := range targets {
		message := draftOutreachMessage(target, template)
		title := fmt.Sprintf("Outreach to %s (%s)", target.Name, target.Platform)

		appr, err := h.deps.Gate.RequestApproval(ctx, req.RequestID, intentID(req), message, title, map[string]any{
			"creator_name":   target.Name,
			"creator_url":    target.URL,
			"platform":       target.Platform,
			"contact_method": target.ContactMethod,
		})
		if err != nil {
			logger.Error("approval request failed", "creator", target.Name, "error", err)
			entries = append(entries, outreachEntry{Creator: target.Name, Platform: target.Platform, Status: "error", Err: err.Error()})
			continue
		}

		approvalsRequested++
		logger.Info("approval requested", "creator", target.Name, "url", appr.ExternalURL)

		if dryRun {
			entries = append(entries, outreachEntry{
				Creator: target.Name, Platform: target.Platform,
				Status: "dry_run", Message: message, ApprovalURL: appr.ExternalURL,
			})
			continue
		}

		result := h.deps.Gate.Wait(ctx, appr.ApprovalID, outreachApprovalTimeout, outreachPollInterval)

		entry := outreachEntry{
			Creator: target.Name, Platform: target.Platform,
			Status: result.Status, ApprovalURL: appr.ExternalURL,
		}
		if result.Status == approval.StatusApproved {
			entry.Message = message
			approvedCount++
			logger.Info("outreach approved", "creator", target.Name)
		} else {
			logger.Info("outreach not approved", "creator", target.Name, "status", result.Status)
		}
		entries = append(entries, entry)
	}

	artifactURI := h.publishLog(ctx, req, entries, approvalsRequested, approvedCount, dryRun)

	logger.Info("creator outreach complete", "approved", approvedCount, "requested", approvalsRequested)

	return &brain.HandlerResult{
		Status: "success",
		Result: map[string]any{
			"creators_contacted":  len(targets),
			"approvals_requested": approvalsRequested,
			"approved_count":      approvedCount,
			"artifact_uri":        artifactURI,
		},
		ExecutionTimeMs: time.Since(start).Milliseconds(),
	}
}

func (h *outreachHandler) publishLog(ctx context.Context, req brain.HandlerRequest, entries []outreachEntry, requested, approved int, dryRun bool) string {
	if h.deps.Publisher == nil {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**Date:** %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "**Targets Processed:** %d\n", len(entries))
	fmt.Fprintf(&sb, "**Approved:** %d/%d\n\n---\n\n", approved, requested)

	for _, e := range entries {
		fmt.Fprintf(&sb, "## %s (%s)\n\n**Status:** %s\n", e.Creator, e.Platform, e.Status)
		if e.ApprovalURL != "" {
			fmt.Fprintf(&sb, "**Approval URL:** %s\n", e.ApprovalURL)
		}
		if e.Message != "" {
			fmt.Fprintf(&sb, "\n**Message:**\n```\n%s\n```\n", e.Message)
		}
		if e.Err != "" {
			fmt.Fprintf(&sb, "\n**Error:** %s\n", e.Err)
		}
		sb.WriteString("\n---\n\n")
	}

	_, path, err := h.deps.Publisher.Publish(ctx, publisher.Doc{
		Title:        "Creator Outreach Log - " + time.Now().Format("2006-01-02"),
		Content:      sb.String(),
		Summary:      fmt.Sprintf("Outreach to %d creators, %d approved", len(entries), approved),
		Type:         "outreach_log",
		Category:     "outreach",
		Tags:         []string{"creator_outreach", "crm"},
		SourceIntent: intentID(req),
	})
	if err != nil {
		logger.Warn("outreach log publish failed", "error", err)
		return ""
	}
	return path
}

func parseTargets(input map[string]any) ([]outreachTarget, error) {
	raw, ok := input["targets"].([]any)
	if !ok {
		return nil, fmt.Errorf("targets must be a list")
	}

	var targets []outreachTarget
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("each target must be an object")
		}

		name, _ := m["name"].(string)
		if name == "" {
			return nil, fmt.Errorf("each target requires a name")
		}

		t := outreachTarget{Name: name}
		t.URL, _ = m["url"].(string)
		t.Email, _ = m["email"].(string)
		t.ContactMethod, _ = m["contact_method"].(string)
		t.Platform, _ = m["platform"].(string)
		if t.Platform == "" {
			if fields := strings.Fields(t.ContactMethod); len(fields) > 0 {
				t.Platform = fields[0]
			}
		}
		targets = append(targets, t)
	}

	return targets, nil
}

// draftOutreachMessage fills the custom template when given, otherwise
// picks a formal or casual default based on the contact method.
func draftOutreachMessage(t outreachTarget, template string) string {
	firstName := t.Name
	if i := strings.IndexByte(firstName, ' '); i > 0 {
		firstName = firstName[:i]
	}
	firstName = strings.TrimPrefix(firstName, "@")

	if template != "" {
		r := strings.NewReplacer(
			"{name}", t.Name,
			"{first_name}", firstName,
			"{url}", t.URL,
			"{platform}", t.Platform,
		)
		return r.Replace(template)
	}

	method := strings.ToLower(t.ContactMethod)
	if strings.Contains(method, "email") || strings.Contains(strings.ToLower(t.Platform), "article") {
		return fmt.Sprintf(`Subject: WhyHi - Voice-first social app launching March 2026

Hi %s,

I came across your article: %s

I'm Tom, founder of WhyHi - we're launching a voice-first social app in March that eliminates feeds, likes, and text-first engagement in favor of authentic voice conversations.

Given your coverage of social/tech products, I thought you might be interested in an early look before we go live.

Would you be open to a brief chat or early access?

Best,
Tom Wynn
Founder, WhyHi
tom@whyhi.app`, firstName, t.URL)
	}

	return fmt.Sprintf(`Hey %s!

I saw your post: %s

I'm building WhyHi - a voice-first social app launching in March (no feeds, no likes, just real conversations).

Thought you might vibe with what we're doing. Would love to get your thoughts or have you try it early.

Interested?

- Tom
Founder @ WhyHi`, firstName, t.URL)
}

func intentID(req brain.HandlerRequest) string {
	if req.Intent != nil {
		return req.Intent.IntentID
	}
	return ""
}
