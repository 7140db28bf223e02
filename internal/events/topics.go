package events

// Topic constants for domain events emitted by the platform.
const (
	TopicLeadCaptured       = "lead.captured"
	TopicOrderCreated       = "order.created"
	TopicOrderStatusChanged = "order.status_changed"
	TopicKitUpdated         = "kit.updated"
)

// DefaultTopics returns the canonical list of topics endpoints may subscribe to.
func DefaultTopics() []string {
	return []string{
		TopicLeadCaptured,
		TopicOrderCreated,
		TopicOrderStatusChanged,
		TopicKitUpdated,
	}
}
