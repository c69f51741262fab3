package workflow

import (
	"fmt"
	"time"
)

type OpType string

const (
	OpExtraction    OpType = "extraction"
	OpLookup        OpType = "lookup"
	OpHearing       OpType = "hearing"
	OpUpdate        OpType = "update"
	OpCreate        OpType = "create"
	OpClose         OpType = "close"
	OpSchedule      OpType = "schedule"
	OpNotify        OpType = "notify"
	OpDuplicate     OpType = "duplicate"
	OpClarification OpType = "clarification"
	OpError         OpType = "error"
)

// LogEntry is one audit-trail line for a workflow run.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Type      OpType    `json:"type"`
	Message   string    `json:"message"`
	Actor     string    `json:"actor"`
}

// OperationLog is the append-only audit trail for a single run. It is owned
// by exactly one workflow instance and is never shared across runs.
type OperationLog struct {
	actor   string
	now     func() time.Time
	entries []LogEntry
}

func NewOperationLog(actorName string, now func() time.Time) *OperationLog {
	if now == nil {
		now = time.Now
	}
	return &OperationLog{actor: actorName, now: now}
}

func (l *OperationLog) Record(t OpType, format string, args ...any) {
	l.entries = append(l.entries, LogEntry{
		Timestamp: l.now(),
		Type:      t,
		Message:   fmt.Sprintf(format, args...),
		Actor:     l.actor,
	})
}

// Entries returns a copy; the log itself stays append-only.
func (l *OperationLog) Entries() []LogEntry {
	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
