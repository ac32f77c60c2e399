package canon

import (
	"context"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenAndClose(t *testing.T) {
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()
}

func TestStoreAndGetArtifact(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	ok := store.StoreArtifact(ctx, ArtifactInput{
		ArtifactID: "artifact_test_1",
		Title:      "Launch Plan",
		Content:    "Voice-first launch checklist for March.",
		Type:       "plan",
		Category:   "growth",
		Summary:    "March launch checklist",
		Tags:       []string{"launch", "growth"},
		Metadata:   map[string]any{"quarter": "Q1"},
	})
	if !ok {
		t.Fatal("expected store to succeed")
	}

	got, err := store.GetArtifact(ctx, "artifact_test_1", Retrieval{NoLog: true})
	if err != nil {
		t.Fatalf("failed to get artifact: %v", err)
	}
	if got == nil {
		t.Fatal("expected artifact, got nil")
	}

	if got.Title != "Launch Plan" {
		t.Errorf("expected 'Launch Plan', got '%s'", got.Title)
	}
	if got.Type != "plan" {
		t.Errorf("expected 'plan', got '%s'", got.Type)
	}
	if got.ApprovalStatus != "draft" {
		t.Errorf("expected 'draft', got '%s'", got.ApprovalStatus)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "launch" {
		t.Errorf("unexpected tags: %v", got.Tags)
	}
	if got.Checksum == "" {
		t.Error("expected checksum to be set")
	}
}

func TestStoreArtifactDefaultsType(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	store.StoreArtifact(ctx, ArtifactInput{
		ArtifactID: "artifact_no_type",
		Title:      "Untyped",
		Content:    "body",
	})

	got, _ := store.GetArtifact(ctx, "artifact_no_type", Retrieval{NoLog: true})
	if got == nil || got.Type != "document" {
		t.Fatalf("expected type 'document', got %+v", got)
	}
}

func TestStoreArtifactRejectsMissingFields(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if store.StoreArtifact(ctx, ArtifactInput{ArtifactID: "x", Title: "t"}) {
		t.Error("expected rejection without content")
	}
	if store.StoreArtifact(ctx, ArtifactInput{Title: "t", Content: "c"}) {
		t.Error("expected rejection without artifact id")
	}
}

func TestStoreArtifactUpsert(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	store.StoreArtifact(ctx, ArtifactInput{
		ArtifactID: "artifact_up",
		Title:      "v1",
		Content:    "first",
	})

	first, _ := store.GetArtifact(ctx, "artifact_up", Retrieval{NoLog: true})

	ok := store.StoreArtifact(ctx, ArtifactInput{
		ArtifactID: "artifact_up",
		Title:      "v2",
		Content:    "second",
	})
	if !ok {
		t.Fatal("expected upsert to succeed")
	}

	second, _ := store.GetArtifact(ctx, "artifact_up", Retrieval{NoLog: true})
	if second.Title != "v2" || second.Content != "second" {
		t.Errorf("expected updated fields, got %+v", second)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("expected created_at preserved: %v vs %v", first.CreatedAt, second.CreatedAt)
	}
	if second.Checksum == first.Checksum {
		t.Error("expected checksum to change with content")
	}

	var count int
	store.DB().QueryRow("SELECT COUNT(*) FROM artifacts WHERE artifact_id = 'artifact_up'").Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}
}

func TestGetArtifactNotFound(t *testing.T) {
	store := openTestStore(t)

	got, err := store.GetArtifact(context.Background(), "missing", Retrieval{NoLog: true})
	if err != nil {
		t.Fatalf("expected no error for missing artifact, got %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestGetArtifactLogsRetrieval(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	store.StoreArtifact(ctx, ArtifactInput{
		ArtifactID: "artifact_logged",
		Title:      "Logged",
		Content:    "body",
	})

	store.GetArtifact(ctx, "artifact_logged", Retrieval{RequestID: "req-1", IntentID: "intent-1"})

	var count int
	store.DB().QueryRow(
		"SELECT COUNT(*) FROM retrieval_log WHERE artifact_id = 'artifact_logged' AND request_id = 'req-1' AND retrieval_type = 'get'").Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 retrieval log row, got %d", count)
	}
}

func TestGetArtifactNoLog(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	store.StoreArtifact(ctx, ArtifactInput{
		ArtifactID: "artifact_quiet",
		Title:      "Quiet",
		Content:    "body",
	})

	store.GetArtifact(ctx, "artifact_quiet", Retrieval{RequestID: "req-1", NoLog: true})

	var count int
	store.DB().QueryRow("SELECT COUNT(*) FROM retrieval_log WHERE artifact_id = 'artifact_quiet'").Scan(&count)
	if count != 0 {
		t.Errorf("expected no retrieval log rows, got %d", count)
	}
}

func TestApproveArtifact(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	store.StoreArtifact(ctx, ArtifactInput{
		ArtifactID: "artifact_appr",
		Title:      "Pending",
		Content:    "body",
	})

	if !store.ApproveArtifact(ctx, "artifact_appr", "tom") {
		t.Fatal("expected approve to succeed")
	}

	got, _ := store.GetArtifact(ctx, "artifact_appr", Retrieval{NoLog: true})
	if got.ApprovalStatus != "approved" {
		t.Errorf("expected 'approved', got '%s'", got.ApprovalStatus)
	}
}

func TestApproveArtifactMissing(t *testing.T) {
	store := openTestStore(t)

	if store.ApproveArtifact(context.Background(), "missing", "tom") {
		t.Error("expected approve of missing artifact to fail")
	}
}

func TestListArtifactsFiltered(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	store.StoreArtifact(ctx, ArtifactInput{ArtifactID: "a1", Title: "One", Content: "c", Type: "plan"})
	store.StoreArtifact(ctx, ArtifactInput{ArtifactID: "a2", Title: "Two", Content: "c", Type: "log"})
	store.StoreArtifact(ctx, ArtifactInput{ArtifactID: "a3", Title: "Three", Content: "c", Type: "plan"})

	plans, err := store.ListArtifacts(ctx, "plan", "", 10)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(plans) != 2 {
		t.Fatalf("expected 2 plans, got %d", len(plans))
	}
	for _, p := range plans {
		if p.Type != "plan" {
			t.Errorf("unexpected type %s", p.Type)
		}
	}
}

func TestSearchOrdersByRecencyNotScore(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	// Older artifact mentions the query often; newer one only once.
	store.StoreArtifact(ctx, ArtifactInput{
		ArtifactID: "artifact_old",
		Title:      "launch launch launch",
		Content:    "launch launch launch launch",
	})
	store.StoreArtifact(ctx, ArtifactInput{
		ArtifactID: "artifact_new",
		Title:      "launch notes",
		Content:    "one mention only",
	})

	store.DB().Exec("UPDATE artifacts SET created_at = datetime('now', '-1 day') WHERE artifact_id = 'artifact_old'")

	results := store.SearchArtifacts(ctx, "launch", SearchOptions{})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ArtifactID != "artifact_new" {
		t.Errorf("expected newest first, got %s", results[0].ArtifactID)
	}
	if results[0].RelevanceScore >= results[1].RelevanceScore {
		t.Errorf("expected lower score first: %f vs %f", results[0].RelevanceScore, results[1].RelevanceScore)
	}
}

func TestSearchRelevanceScoreCapped(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	store.StoreArtifact(ctx, ArtifactInput{
		ArtifactID: "artifact_hot",
		Title:      "go go go go go go",
		Content:    "go go go go go go go go",
	})

	results := store.SearchArtifacts(ctx, "go", SearchOptions{})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].RelevanceScore != 10 {
		t.Errorf("expected capped score 10, got %f", results[0].RelevanceScore)
	}
}

func TestSearchSummaryFallback(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	long := ""
	for range 30 {
		long += "retention notes "
	}

	store.StoreArtifact(ctx, ArtifactInput{
		ArtifactID: "artifact_nosummary",
		Title:      "retention",
		Content:    long,
	})

	results := store.SearchArtifacts(ctx, "retention", SearchOptions{})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Summary == "" {
		t.Error("expected summary fallback from content")
	}
	if len(results[0].Summary) > 200 {
		t.Errorf("expected summary capped at 200 chars, got %d", len(results[0].Summary))
	}
}

func TestSearchNoResults(t *testing.T) {
	store := openTestStore(t)

	results := store.SearchArtifacts(context.Background(), "nothing here", SearchOptions{})
	if results == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestLinkAndRelatedArtifacts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	store.StoreArtifact(ctx, ArtifactInput{ArtifactID: "src", Title: "Source", Content: "c"})
	store.StoreArtifact(ctx, ArtifactInput{ArtifactID: "dst", Title: "Target", Content: "c"})

	if !store.LinkArtifacts(ctx, "src", "dst", "derived_from") {
		t.Fatal("expected link to succeed")
	}
	// Linking the same pair again is an upsert, not an error.
	if !store.LinkArtifacts(ctx, "src", "dst", "references") {
		t.Fatal("expected relink to succeed")
	}

	related, err := store.RelatedArtifacts(ctx, "src")
	if err != nil {
		t.Fatalf("failed to get related: %v", err)
	}
	if len(related) != 1 {
		t.Fatalf("expected 1 relationship, got %d", len(related))
	}
	if related[0].RelationshipType != "references" {
		t.Errorf("expected updated relationship type, got '%s'", related[0].RelationshipType)
	}
}

func TestGetStats(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	store.StoreArtifact(ctx, ArtifactInput{ArtifactID: "s1", Title: "A", Content: "c", Type: "plan", Category: "growth"})
	store.StoreArtifact(ctx, ArtifactInput{ArtifactID: "s2", Title: "B", Content: "c", Type: "log", Category: "growth"})

	stats, err := store.GetStats(ctx)
	if err != nil {
		t.Fatalf("failed to get stats: %v", err)
	}
	if stats.TotalArtifacts != 2 {
		t.Errorf("expected 2 artifacts, got %d", stats.TotalArtifacts)
	}
	if stats.ByType["plan"] != 1 {
		t.Errorf("expected 1 plan, got %d", stats.ByType["plan"])
	}
	if stats.ByCategory["growth"] != 2 {
		t.Errorf("expected 2 growth artifacts, got %d", stats.ByCategory["growth"])
	}
}
