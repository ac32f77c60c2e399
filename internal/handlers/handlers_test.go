package handlers

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/whyhi/wos/internal/approval"
	"github.com/whyhi/wos/internal/brain"
	"github.com/whyhi/wos/internal/canon"
	"github.com/whyhi/wos/internal/registry"
	"github.com/whyhi/wos/internal/workflow"
)

func TestFactoryResolvesHandlers(t *testing.T) {
	factory := Factory(Deps{})

	for _, ref := range []string{
		"handlers.daily_newsletter_digest",
		"handlers.creator_outreach",
		"handlers.content_idea_miner",
	} {
		h, err := factory(ref)
		if err != nil {
			t.Errorf("expected handler for %s, got error %v", ref, err)
		}
		if h == nil {
			t.Errorf("expected handler for %s, got nil", ref)
		}
	}

	if _, err := factory("handlers.unknown"); err == nil {
		t.Error("expected error for unknown handler reference")
	}
}

// --- digest ---

type fakeExecutor struct {
	result   workflow.Result
	gotName  string
	gotBound time.Duration
}

func (f *fakeExecutor) Execute(_ context.Context, name string, _ map[string]any, timeout time.Duration) workflow.Result {
	f.gotName = name
	f.gotBound = timeout
	return f.result
}

func TestDigestHandlerSuccess(t *testing.T) {
	exec := &fakeExecutor{result: workflow.Result{
		Status: workflow.StatusSuccess,
		Result: map[string]any{"digest_html": "<p>hi</p>", "packet_count": float64(4)},
	}}
	h := &digestHandler{deps: Deps{Workflows: exec}}

	res := h.Execute(context.Background(), brain.HandlerRequest{
		RequestID:   "req-1",
		ExecutionID: "exec-1",
		Input:       map[string]any{},
	})

	if res.Status != "success" {
		t.Fatalf("expected success, got %+v", res)
	}
	if exec.gotName != digestWorkflowName {
		t.Errorf("expected %s, got %s", digestWorkflowName, exec.gotName)
	}
	if exec.gotBound != digestTimeout {
		t.Errorf("expected %v timeout, got %v", digestTimeout, exec.gotBound)
	}
	if res.Result["digest_html"] != "<p>hi</p>" {
		t.Errorf("unexpected digest result %v", res.Result)
	}
	if res.Result["total_emails_processed"] != 4 {
		t.Errorf("expected 4 emails, got %v", res.Result["total_emails_processed"])
	}
}

func TestDigestHandlerWorkflowFailure(t *testing.T) {
	exec := &fakeExecutor{result: workflow.Result{
		Status: workflow.StatusFailed,
		Error:  "webhook unreachable",
	}}
	h := &digestHandler{deps: Deps{Workflows: exec}}

	res := h.Execute(context.Background(), brain.HandlerRequest{RequestID: "req-1", Input: map[string]any{}})

	if res.Status != "failed" {
		t.Fatalf("expected failed, got %s", res.Status)
	}
	if res.ErrorCode != "WORKFLOW_EXECUTION_FAILED" {
		t.Errorf("expected WORKFLOW_EXECUTION_FAILED, got %s", res.ErrorCode)
	}
	if res.Error != "webhook unreachable" {
		t.Errorf("unexpected error %q", res.Error)
	}
}

func TestDigestHandlerNoExecutor(t *testing.T) {
	h := &digestHandler{deps: Deps{}}

	res := h.Execute(context.Background(), brain.HandlerRequest{Input: map[string]any{}})
	if res.Status != "failed" || res.ErrorCode != "WORKFLOW_NOT_CONFIGURED" {
		t.Fatalf("expected WORKFLOW_NOT_CONFIGURED failure, got %+v", res)
	}
}

func TestParseDigestOutput(t *testing.T) {
	html, count := parseDigestOutput(map[string]any{"output": "<p>alt key</p>", "count": float64(2)})
	if html != "<p>alt key</p>" || count != 2 {
		t.Errorf("fallback keys not read: %q %d", html, count)
	}

	html, count = parseDigestOutput(nil)
	if html != "" || count != 0 {
		t.Errorf("expected zero values for nil output")
	}
}

// --- outreach ---

type scriptedMedium struct {
	status  string
	created []approval.Record
}

func (m *scriptedMedium) CreateRecord(_ context.Context, rec approval.Record) (string, string, error) {
	m.created = append(m.created, rec)
	return "rec-1", "https://workspace.test/rec-1", nil
}

func (m *scriptedMedium) GetRecord(_ context.Context, id string) (*approval.RecordStatus, error) {
	return &approval.RecordStatus{ID: id, Status: m.status}, nil
}

func targetInput(names ...string) map[string]any {
	targets := make([]any, 0, len(names))
	for _, n := range names {
		targets = append(targets, map[string]any{
			"name":           n,
			"url":            "https://example.com/post",
			"contact_method": "Twitter DM",
		})
	}
	return map[string]any{"targets": targets}
}

func TestOutreachValidateInput(t *testing.T) {
	h := &outreachHandler{}

	if h.ValidateInput(map[string]any{}) {
		t.Error("expected rejection without targets")
	}
	if h.ValidateInput(map[string]any{"targets": "not a list"}) {
		t.Error("expected rejection for non-list targets")
	}
	if h.ValidateInput(map[string]any{"targets": []any{map[string]any{"url": "x"}}}) {
		t.Error("expected rejection for target without name")
	}
	if !h.ValidateInput(targetInput("Sam Writer")) {
		t.Error("expected valid targets to pass")
	}
}

func TestOutreachDryRun(t *testing.T) {
	medium := &scriptedMedium{status: "Pending"}
	gate, err := approval.NewGate(medium, nil)
	if err != nil {
		t.Fatalf("failed to create gate: %v", err)
	}

	h := &outreachHandler{deps: Deps{Gate: gate}}

	input := targetInput("Sam Writer", "Jo Creator")
	input["dry_run"] = true

	res := h.Execute(context.Background(), brain.HandlerRequest{
		RequestID: "req-1",
		Input:     input,
		Intent:    &registry.Intent{IntentID: "intent_outreach"},
	})

	if res.Status != "success" {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Result["approvals_requested"] != 2 {
		t.Errorf("expected 2 approvals requested, got %v", res.Result["approvals_requested"])
	}
	if res.Result["approved_count"] != 0 {
		t.Errorf("expected 0 approved in dry run, got %v", res.Result["approved_count"])
	}
	if len(medium.created) != 2 {
		t.Errorf("expected 2 approval records, got %d", len(medium.created))
	}
}

func TestOutreachApproved(t *testing.T) {
	// The record is already approved, so the blocking wait resolves on
	// its first poll.
	medium := &scriptedMedium{status: "Approved"}
	gate, _ := approval.NewGate(medium, nil)

	h := &outreachHandler{deps: Deps{Gate: gate}}

	res := h.Execute(context.Background(), brain.HandlerRequest{
		RequestID: "req-1",
		Input:     targetInput("Sam Writer"),
		Intent:    &registry.Intent{IntentID: "intent_outreach"},
	})

	if res.Status != "success" {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Result["approved_count"] != 1 {
		t.Errorf("expected 1 approved, got %v", res.Result["approved_count"])
	}
}

func TestOutreachNoGate(t *testing.T) {
	h := &outreachHandler{deps: Deps{}}

	res := h.Execute(context.Background(), brain.HandlerRequest{Input: targetInput("Sam")})
	if res.Status != "failed" || res.ErrorCode != "APPROVAL_NOT_CONFIGURED" {
		t.Fatalf("expected APPROVAL_NOT_CONFIGURED, got %+v", res)
	}
}

func TestDraftOutreachMessage(t *testing.T) {
	journalist := outreachTarget{
		Name:          "Sam Writer",
		URL:           "https://blog.example.com/social-apps",
		ContactMethod: "Email",
		Platform:      "Email",
	}
	msg := draftOutreachMessage(journalist, "")
	if !strings.Contains(msg, "Subject:") {
		t.Error("expected formal template for email contact")
	}
	if !strings.Contains(msg, "Hi Sam,") {
		t.Errorf("expected first-name greeting, got %q", msg[:60])
	}

	creator := outreachTarget{
		Name:          "@jo_creates",
		URL:           "https://social.example.com/post/1",
		ContactMethod: "Twitter DM",
		Platform:      "Twitter",
	}
	msg = draftOutreachMessage(creator, "")
	if strings.Contains(msg, "Subject:") {
		t.Error("expected casual template for DM contact")
	}
	if !strings.Contains(msg, "Hey jo_creates!") {
		t.Errorf("expected @ stripped from greeting, got %q", msg[:40])
	}

	msg = draftOutreachMessage(journalist, "Hello {first_name}, loved {url}")
	if msg != "Hello Sam, loved https://blog.example.com/social-apps" {
		t.Errorf("custom template not filled: %q", msg)
	}
}

func TestParseTargetsPlatformFallback(t *testing.T) {
	targets, err := parseTargets(map[string]any{
		"targets": []any{map[string]any{"name": "Sam", "contact_method": "Instagram DM"}},
	})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if targets[0].Platform != "Instagram" {
		t.Errorf("expected platform from contact method, got %q", targets[0].Platform)
	}

	// A whitespace-only contact method has no first word to borrow.
	targets, err = parseTargets(map[string]any{
		"targets": []any{map[string]any{"name": "Sam", "contact_method": "   "}},
	})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if targets[0].Platform != "" {
		t.Errorf("expected empty platform, got %q", targets[0].Platform)
	}
}

// --- idea miner ---

type scriptedLLM struct {
	response string
	prompts  []string
}

func (l *scriptedLLM) Complete(_ context.Context, _ string, prompt string) (string, error) {
	l.prompts = append(l.prompts, prompt)
	return l.response, nil
}

func TestIdeaMinerMissingDeps(t *testing.T) {
	h := &ideaMinerHandler{deps: Deps{}}
	res := h.Execute(context.Background(), brain.HandlerRequest{Input: map[string]any{}})
	if res.ErrorCode != "CANON_NOT_CONFIGURED" {
		t.Fatalf("expected CANON_NOT_CONFIGURED, got %+v", res)
	}
}

func TestIdeaMinerGeneratesAndStoresIdeas(t *testing.T) {
	store, err := canon.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open canon: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	store.StoreArtifact(ctx, canon.ArtifactInput{
		ArtifactID: "capture_1",
		Title:      "Viral post about phone anxiety",
		Content:    "captured social post discussing telephobia",
		Type:       "content_capture",
		SourceURL:  "https://social.example.com/p/1",
		Tags:       []string{"telephobia"},
	})

	model := &scriptedLLM{response: "Here are the ideas:\n" + `[
		{"title": "When Texting Is Not Enough", "angle": "Hidden Cost", "target_audience": "Busy Professionals",
		 "content_hook": "You text all day but feel more alone.", "platform": "LinkedIn", "format": "Text post",
		 "why_it_works": "Relatable contrast."}
	]`}

	h := &ideaMinerHandler{deps: Deps{Canon: store, LLM: model}}

	res := h.Execute(ctx, brain.HandlerRequest{
		RequestID:   "req-1",
		ExecutionID: "exec-1",
		Input:       map[string]any{"query": "phone anxiety"},
		Intent:      &registry.Intent{IntentID: "intent_miner"},
	})

	if res.Status != "success" {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Result["entries_processed"] != 1 {
		t.Errorf("expected 1 entry, got %v", res.Result["entries_processed"])
	}
	if res.Result["ideas_generated"] != 1 {
		t.Errorf("expected 1 idea, got %v", res.Result["ideas_generated"])
	}
	if len(model.prompts) != 1 || !strings.Contains(model.prompts[0], "Viral post about phone anxiety") {
		t.Error("expected captured content in prompt")
	}

	ideas, err := store.ListArtifacts(ctx, "content_idea", "", 10)
	if err != nil {
		t.Fatalf("failed to list ideas: %v", err)
	}
	if len(ideas) != 1 {
		t.Fatalf("expected 1 stored idea, got %d", len(ideas))
	}

	related, _ := store.RelatedArtifacts(ctx, ideas[0].ArtifactID)
	if len(related) != 1 || related[0].ArtifactID != "capture_1" {
		t.Errorf("expected idea linked to capture, got %+v", related)
	}
}

func TestIdeaMinerNoEntries(t *testing.T) {
	store, err := canon.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open canon: %v", err)
	}
	defer store.Close()

	h := &ideaMinerHandler{deps: Deps{Canon: store, LLM: &scriptedLLM{}}}

	res := h.Execute(context.Background(), brain.HandlerRequest{RequestID: "req-1", Input: map[string]any{}})
	if res.Status != "success" {
		t.Fatalf("expected success on empty corpus, got %+v", res)
	}
	if res.Result["entries_processed"] != 0 {
		t.Errorf("expected 0 entries, got %v", res.Result["entries_processed"])
	}
}
