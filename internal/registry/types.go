package registry

import (
	"database/sql"
	"time"
)

// Execution modes: how an intent is triggered.
const (
	ModeWOSManaged        = "wos_managed"
	ModeAutonomousCron    = "autonomous_cron"
	ModeAutonomousWebhook = "autonomous_webhook"
	ModeManual            = "manual"
)

// Store is the durable intent catalog plus execution audit trail.
type Store struct {
	db *sql.DB
}

type Intent struct {
	IntentID         string
	Name             string
	Version          string
	Description      string
	HandlerReference string
	Status           string
	ApprovalRequired bool
	TimeoutSeconds   int
	MaxRetries       int
	ExecutionMode    string
	Schedule         string
	Notes            string
	Owner            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IntentInput is the registration payload. IntentID, Name, Version and
// HandlerReference are required.
type IntentInput struct {
	IntentID         string
	Name             string
	Version          string
	Description      string
	HandlerReference string
	ApprovalRequired bool
	TimeoutSeconds   int    // default 30
	MaxRetries       int    // default 2
	ExecutionMode    string // default wos_managed
	Schedule         string // cron expression, autonomous_cron only
	Notes            string
}

// ExecutionRecord is one append-only audit row per dispatched execution.
type ExecutionRecord struct {
	ExecutionID     string
	RequestID       string
	IntentID        string
	Status          string
	Result          map[string]any
	Error           string
	ExecutionTimeMs int64
	Timestamp       time.Time
}

// Workflow maps an intent to a named external workflow.
type Workflow struct {
	WorkflowID string
	IntentID   string
	Name       string
	WebhookURL string
	Active     bool
	CreatedAt  time.Time
}
