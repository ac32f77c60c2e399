package registry

const schema = `
CREATE TABLE IF NOT EXISTS intents (
    intent_id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    version TEXT NOT NULL,
    description TEXT,
    handler_reference TEXT NOT NULL,
    status TEXT DEFAULT 'draft',
    approval_required INTEGER DEFAULT 0,
    timeout_seconds INTEGER DEFAULT 30,
    max_retries INTEGER DEFAULT 2,
    execution_mode TEXT DEFAULT 'wos_managed',
    schedule TEXT,
    notes TEXT,
    owner TEXT DEFAULT 'wos',
    created_at DATETIME DEFAULT (datetime('now')),
    updated_at DATETIME DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_intents_mode ON intents(execution_mode);

CREATE TABLE IF NOT EXISTS workflows (
    workflow_id TEXT PRIMARY KEY,
    intent_id TEXT NOT NULL REFERENCES intents(intent_id),
    name TEXT NOT NULL,
    webhook_url TEXT,
    active INTEGER DEFAULT 1,
    created_at DATETIME DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_workflows_intent ON workflows(intent_id);

CREATE TABLE IF NOT EXISTS intent_executions (
    execution_id TEXT PRIMARY KEY,
    request_id TEXT,
    intent_id TEXT NOT NULL REFERENCES intents(intent_id),
    status TEXT,
    result TEXT,
    error TEXT,
    execution_time_ms INTEGER,
    timestamp DATETIME DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_executions_intent ON intent_executions(intent_id);
CREATE INDEX IF NOT EXISTS idx_executions_request ON intent_executions(request_id);
`
