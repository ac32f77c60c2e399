package registry

import (
	"context"
	"database/sql"
	"encoding/json"

	_ "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	_ "github.com/ncruces/go-sqlite3/driver"

	"github.com/whyhi/wos/internal/logger"
)

// Open creates or opens the intent registry database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}

	return nil
}

func (s *Store) DB() *sql.DB {
	return s.db
}

// Register adds an intent to the catalog. A uniqueness violation on
// intent_id or name returns false: idempotent bootstrap re-registers
// the same catalog on every start and treats this as normal.
func (s *Store) Register(ctx context.Context, in IntentInput) bool {
	if in.IntentID == "" || in.Name == "" || in.Version == "" || in.HandlerReference == "" {
		logger.Error("register intent rejected", "intent_id", in.IntentID, "reason", "missing required field")
		return false
	}

	timeout := in.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}

	maxRetries := in.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 2
	}

	mode := in.ExecutionMode
	if mode == "" {
		mode = ModeWOSManaged
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO intents (intent_id, name, version, description, handler_reference,
			approval_required, timeout_seconds, max_retries, execution_mode, schedule, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.IntentID, in.Name, in.Version, in.Description, in.HandlerReference,
		in.ApprovalRequired, timeout, maxRetries, mode, in.Schedule, in.Notes)
	if err != nil {
		logger.Warn("register intent failed", "intent_id", in.IntentID, "name", in.Name, "error", err)
		return false
	}

	logger.Info("intent registered", "intent_id", in.IntentID, "name", in.Name, "mode", mode)
	return true
}

const intentColumns = `intent_id, name, version, description, handler_reference, status,
	approval_required, timeout_seconds, max_retries, execution_mode, schedule, notes, owner,
	created_at, updated_at`

// GetIntent looks up an intent by its registered name. Returns
// (nil, nil) when no intent matches.
func (s *Store) GetIntent(ctx context.Context, name string) (*Intent, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+intentColumns+` FROM intents WHERE name = ?`, name)
	return scanIntent(row)
}

func (s *Store) GetIntentByID(ctx context.Context, intentID string) (*Intent, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+intentColumns+` FROM intents WHERE intent_id = ?`, intentID)
	return scanIntent(row)
}

// ListIntents returns the catalog, newest registration first.
func (s *Store) ListIntents(ctx context.Context) ([]*Intent, error) {
	return s.queryIntents(ctx, `SELECT `+intentColumns+` FROM intents ORDER BY created_at DESC`)
}

func (s *Store) ListIntentsByMode(ctx context.Context, mode string) ([]*Intent, error) {
	return s.queryIntents(ctx, `SELECT `+intentColumns+` FROM intents WHERE execution_mode = ? ORDER BY created_at DESC`, mode)
}

func (s *Store) queryIntents(ctx context.Context, query string, args ...any) ([]*Intent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var intents []*Intent
	for rows.Next() {
		intent, err := scanIntent(rows)
		if err != nil {
			return nil, err
		}
		intents = append(intents, intent)
	}

	return intents, rows.Err()
}

// RequiresApproval reports the intent's approval policy; unknown intents
// default to no approval.
func (s *Store) RequiresApproval(ctx context.Context, intentID string) bool {
	intent, err := s.GetIntentByID(ctx, intentID)
	if err != nil || intent == nil {
		return false
	}
	return intent.ApprovalRequired
}

// LogExecution appends an audit row. Audit durability is best-effort:
// callers log-and-continue on false.
func (s *Store) LogExecution(ctx context.Context, rec ExecutionRecord) bool {
	var resultJSON any
	if len(rec.Result) > 0 {
		b, err := json.Marshal(rec.Result)
		if err != nil {
			logger.Warn("execution log write failed", "execution_id", rec.ExecutionID, "error", err)
			return false
		}
		resultJSON = string(b)
	}

	var errVal any
	if rec.Error != "" {
		errVal = rec.Error
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO intent_executions (execution_id, request_id, intent_id, status, result, error, execution_time_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ExecutionID, rec.RequestID, rec.IntentID, rec.Status, resultJSON, errVal, rec.ExecutionTimeMs)
	if err != nil {
		logger.Warn("execution log write failed", "execution_id", rec.ExecutionID, "error", err)
		return false
	}

	return true
}

// MapWorkflow binds an external workflow name to an intent.
func (s *Store) MapWorkflow(ctx context.Context, workflowID, intentID, name, webhookURL string) bool {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workflows (workflow_id, intent_id, name, webhook_url)
		VALUES (?, ?, ?, ?)`,
		workflowID, intentID, name, nullString(webhookURL))
	if err != nil {
		logger.Warn("map workflow failed", "workflow_id", workflowID, "intent_id", intentID, "error", err)
		return false
	}

	logger.Info("workflow mapped", "workflow_id", workflowID, "intent_id", intentID, "name", name)
	return true
}

// WorkflowsForIntent returns the active workflows bound to an intent.
func (s *Store) WorkflowsForIntent(ctx context.Context, intentID string) ([]*Workflow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT workflow_id, intent_id, name, webhook_url, active, created_at
		FROM workflows WHERE intent_id = ? AND active = 1`, intentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workflows []*Workflow
	for rows.Next() {
		var w Workflow
		var webhookURL sql.NullString
		if err := rows.Scan(&w.WorkflowID, &w.IntentID, &w.Name, &webhookURL, &w.Active, &w.CreatedAt); err != nil {
			return nil, err
		}
		w.WebhookURL = webhookURL.String
		workflows = append(workflows, &w)
	}

	return workflows, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIntent(row rowScanner) (*Intent, error) {
	var i Intent
	var description, schedule, notes, owner sql.NullString

	err := row.Scan(&i.IntentID, &i.Name, &i.Version, &description, &i.HandlerReference,
		&i.Status, &i.ApprovalRequired, &i.TimeoutSeconds, &i.MaxRetries, &i.ExecutionMode,
		&schedule, &notes, &owner, &i.CreatedAt, &i.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	i.Description = description.String
	i.Schedule = schedule.String
	i.Notes = notes.String
	i.Owner = owner.String

	return &i, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
