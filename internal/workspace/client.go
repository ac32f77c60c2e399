// Package workspace implements the approval medium against a
// Notion-compatible workspace API: approval records are pages in a
// database with a Status select property the reviewer flips by hand.
package workspace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/whyhi/wos/internal/approval"
)

type Config struct {
	Token      string
	DatabaseID string
	BaseURL    string // default https://api.notion.com/v1
}

type Client struct {
	token      string
	databaseID string
	baseURL    string
	client     *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" || cfg.DatabaseID == "" {
		return nil, fmt.Errorf("workspace requires token and database id")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.notion.com/v1"
	}

	return &Client{
		token:      cfg.Token,
		databaseID: cfg.DatabaseID,
		baseURL:    baseURL,
		client:     &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type createPageRequest struct {
	Parent     map[string]string `json:"parent"`
	Properties map[string]any    `json:"properties"`
	Children   []map[string]any  `json:"children,omitempty"`
}

type pageResponse struct {
	ID             string `json:"id"`
	URL            string `json:"url"`
	LastEditedTime string `json:"last_edited_time"`
	Properties     struct {
		Status struct {
			Select struct {
				Name string `json:"name"`
			} `json:"select"`
		} `json:"Status"`
	} `json:"properties"`
}

func (c *Client) CreateRecord(ctx context.Context, rec approval.Record) (string, string, error) {
	children := []map[string]any{
		paragraphBlock(rec.Content),
	}

	if len(rec.Metadata) > 0 {
		meta, err := json.MarshalIndent(rec.Metadata, "", "  ")
		if err == nil {
			children = append(children, codeBlock(string(meta)))
		}
	}

	reqBody := createPageRequest{
		Parent: map[string]string{"database_id": c.databaseID},
		Properties: map[string]any{
			"Name":       titleProperty(rec.Title),
			"Status":     map[string]any{"select": map[string]string{"name": "Pending"}},
			"Request ID": richTextProperty(rec.RequestID),
			"Intent":     richTextProperty(rec.IntentID),
		},
		Children: children,
	}

	var page pageResponse
	if err := c.do(ctx, "POST", "/pages", reqBody, &page); err != nil {
		return "", "", err
	}

	return page.ID, page.URL, nil
}

func (c *Client) GetRecord(ctx context.Context, id string) (*approval.RecordStatus, error) {
	var page pageResponse
	if err := c.do(ctx, "GET", "/pages/"+id, nil, &page); err != nil {
		return nil, err
	}

	status := &approval.RecordStatus{
		ID:     page.ID,
		Status: page.Properties.Status.Select.Name,
		URL:    page.URL,
	}

	// last_edited_time only means "reviewed" once the status has left
	// pending; before that it is just the page's creation time.
	if approval.CanonicalStatus(status.Status) != approval.StatusPending {
		if t, err := time.Parse(time.RFC3339, page.LastEditedTime); err == nil {
			status.ReviewedAt = &t
		}
	}

	return status, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", "2022-06-28")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("workspace error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		return json.Unmarshal(respBody, out)
	}

	return nil
}

func titleProperty(text string) map[string]any {
	return map[string]any{
		"title": []map[string]any{
			{"text": map[string]string{"content": text}},
		},
	}
}

func richTextProperty(text string) map[string]any {
	return map[string]any{
		"rich_text": []map[string]any{
			{"text": map[string]string{"content": text}},
		},
	}
}

func paragraphBlock(text string) map[string]any {
	return map[string]any{
		"object": "block",
		"type":   "paragraph",
		"paragraph": map[string]any{
			"rich_text": []map[string]any{
				{"type": "text", "text": map[string]string{"content": text}},
			},
		},
	}
}

func codeBlock(text string) map[string]any {
	return map[string]any{
		"object": "block",
		"type":   "code",
		"code": map[string]any{
			"language": "json",
			"rich_text": []map[string]any{
				{"type": "text", "text": map[string]string{"content": text}},
			},
		},
	}
}
