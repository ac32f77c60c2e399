package approval

import "strings"

// Canonical approval statuses. Timeout is synthesized locally by Wait;
// the external record itself stays pending.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusTimeout  = "timeout"
)

// statusLabels maps every raw label the medium is known to emit to the
// canonical three-value status. Reviewers type (or pick) these by hand,
// so casing and emoji variants all appear in the wild. Anything not in
// the table is treated as still pending: an unrecognized label must
// never pass for an approval.
var statusLabels = map[string]string{
	"pending":    StatusPending,
	"⏳ pending": StatusPending,
	"⏳":          StatusPending,
	"in review":  StatusPending,
	"approved":   StatusApproved,
	"✅ approved": StatusApproved,
	"✅":          StatusApproved,
	"approve":    StatusApproved,
	"yes":        StatusApproved,
	"rejected":   StatusRejected,
	"❌ rejected": StatusRejected,
	"❌":          StatusRejected,
	"reject":     StatusRejected,
	"denied":     StatusRejected,
	"no":         StatusRejected,
}

// CanonicalStatus normalizes a raw medium label, case-insensitive.
func CanonicalStatus(raw string) string {
	label := strings.ToLower(strings.TrimSpace(raw))
	if status, ok := statusLabels[label]; ok {
		return status
	}
	return StatusPending
}
