package approval

import (
	"context"
	"time"
)

// Medium is the external workspace holding approval records. A human
// reviewer flips the record's status there; this system only creates
// and polls records.
type Medium interface {
	// CreateRecord creates a pending approval record and returns its id
	// and a human-facing URL.
	CreateRecord(ctx context.Context, rec Record) (id, url string, err error)

	// GetRecord reads the record's current raw status label.
	GetRecord(ctx context.Context, id string) (*RecordStatus, error)
}

// Record is the content handed to the external medium.
type Record struct {
	Title     string
	RequestID string
	IntentID  string
	Content   string
	Metadata  map[string]any
}

// RecordStatus is the raw state read back from the medium. Status is
// the medium's own label, canonicalized by the gate.
type RecordStatus struct {
	ID         string
	Status     string
	URL        string
	ReviewedAt *time.Time
}
