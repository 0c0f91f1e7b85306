package types

import (
	"time"

	"github.com/google/uuid"

	"github.com/sokohub/sokohub-backend/pkg/enums"
)

// TimelineEntry records one status transition on an order.
type TimelineEntry struct {
	Status    enums.OrderStatus `json:"status"`
	ChangedAt time.Time         `json:"changed_at"`
	Note      string            `json:"note,omitempty"`
}

// Timeline is the append-only transition history, oldest first.
type Timeline []TimelineEntry

// Append returns a new timeline with the entry added; the receiver is not mutated.
func (t Timeline) Append(entry TimelineEntry) Timeline {
	next := make(Timeline, 0, len(t)+1)
	next = append(next, t...)
	return append(next, entry)
}

// Last returns the most recent entry, or a zero entry when empty.
func (t Timeline) Last() TimelineEntry {
	if len(t) == 0 {
		return TimelineEntry{}
	}
	return t[len(t)-1]
}

// ActivityEntry is one audit-trail record; a superset of timeline events.
type ActivityEntry struct {
	Action    string    `json:"action"`
	Actor     uuid.UUID `json:"actor"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityLog is the append-only audit trail, oldest first.
type ActivityLog []ActivityEntry

// Append returns a new log with the entry added; the receiver is not mutated.
func (l ActivityLog) Append(entry ActivityEntry) ActivityLog {
	next := make(ActivityLog, 0, len(l)+1)
	next = append(next, l...)
	return append(next, entry)
}

// OrderNote is a free-form comment outside the state machine.
type OrderNote struct {
	Author    uuid.UUID `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderNotes is the ordered note list, oldest first.
type OrderNotes []OrderNote
