package workspace

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/whyhi/wos/internal/approval"
)

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient(Config{Token: "tok"}); err == nil {
		t.Error("expected error without database id")
	}
	if _, err := NewClient(Config{DatabaseID: "db"}); err == nil {
		t.Error("expected error without token")
	}
	if _, err := NewClient(Config{Token: "tok", DatabaseID: "db"}); err != nil {
		t.Errorf("expected valid config to pass, got %v", err)
	}
}

func TestCreateRecord(t *testing.T) {
	var gotBody map[string]any
	var gotAuth, gotVersion string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/pages" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotVersion = r.Header.Get("Notion-Version")

		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)

		json.NewEncoder(w).Encode(map[string]any{
			"id":  "page-1",
			"url": "https://workspace.test/page-1",
		})
	}))
	defer server.Close()

	client, _ := NewClient(Config{Token: "tok", DatabaseID: "db-1", BaseURL: server.URL})

	id, url, err := client.CreateRecord(context.Background(), approval.Record{
		Title:     "Outreach to Sam",
		RequestID: "req-1",
		IntentID:  "intent_outreach",
		Content:   "draft message body",
		Metadata:  map[string]any{"platform": "Twitter"},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if id != "page-1" || url != "https://workspace.test/page-1" {
		t.Errorf("unexpected id/url: %s %s", id, url)
	}

	if gotAuth != "Bearer tok" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if gotVersion == "" {
		t.Error("expected Notion-Version header")
	}

	parent, _ := gotBody["parent"].(map[string]any)
	if parent["database_id"] != "db-1" {
		t.Errorf("expected database parent, got %v", parent)
	}

	// Status starts Pending; the reviewer flips it by hand.
	props, _ := gotBody["properties"].(map[string]any)
	raw, _ := json.Marshal(props["Status"])
	if !strings.Contains(string(raw), "Pending") {
		t.Errorf("expected Pending status property, got %s", raw)
	}

	// Content paragraph plus metadata code block.
	children, _ := gotBody["children"].([]any)
	if len(children) != 2 {
		t.Fatalf("expected 2 child blocks, got %d", len(children))
	}
}

func TestGetRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" || r.URL.Path != "/pages/page-1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":               "page-1",
			"url":              "https://workspace.test/page-1",
			"last_edited_time": "2026-03-01T10:00:00Z",
			"properties": map[string]any{
				"Status": map[string]any{
					"select": map[string]any{"name": "Approved"},
				},
			},
		})
	}))
	defer server.Close()

	client, _ := NewClient(Config{Token: "tok", DatabaseID: "db-1", BaseURL: server.URL})

	status, err := client.GetRecord(context.Background(), "page-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if status.Status != "Approved" {
		t.Errorf("expected raw Approved label, got %q", status.Status)
	}
	if status.ReviewedAt == nil || status.ReviewedAt.Hour() != 10 {
		t.Errorf("expected last edited time parsed, got %v", status.ReviewedAt)
	}
}

func TestGetRecordPendingHasNoReviewTime(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id":               "page-1",
			"url":              "https://workspace.test/page-1",
			"last_edited_time": "2026-03-01T10:00:00Z",
			"properties": map[string]any{
				"Status": map[string]any{
					"select": map[string]any{"name": "Pending"},
				},
			},
		})
	}))
	defer server.Close()

	client, _ := NewClient(Config{Token: "tok", DatabaseID: "db-1", BaseURL: server.URL})

	status, err := client.GetRecord(context.Background(), "page-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if status.ReviewedAt != nil {
		t.Errorf("pending record must not carry a review time, got %v", status.ReviewedAt)
	}
}

func TestErrorStatusSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "page not found"}`))
	}))
	defer server.Close()

	client, _ := NewClient(Config{Token: "tok", DatabaseID: "db-1", BaseURL: server.URL})

	_, err := client.GetRecord(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("expected status code in error, got %v", err)
	}
}
