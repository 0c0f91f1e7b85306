package enums

// OutboxEventType names the domain events queued for notification dispatch.
type OutboxEventType string

const (
	EventOrderCreated       OutboxEventType = "order.created"
	EventOrderStatusChanged OutboxEventType = "order.status_changed"
	EventOrderPaid          OutboxEventType = "order.paid"
	EventOrderCancelled     OutboxEventType = "order.cancelled"
)

// OutboxStatus tracks dispatch progress of a queued event.
type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "pending"
	OutboxStatusSent    OutboxStatus = "sent"
	OutboxStatusFailed  OutboxStatus = "failed"
)
