// Package bus is the event bus adapter: topology declaration, a reconnecting
// consumer, and a publisher for the book_events topic exchange.
package bus

// Topology shared by every producer and consumer of catalog events.
// The exchange and queue are durable; bindings are per routing key.
const (
	Exchange = "book_events"
	Queue    = "notification_queue"

	RoutingKeyBookCreated = "book.created"
)

// Action is the consumer's verdict on a single delivery.
type Action int

const (
	// Ack acknowledges the message: processed, or deliberately dropped
	// (unknown event type, empty interest set).
	Ack Action = iota
	// Reject discards the message without requeue. Poison-message policy:
	// an unparseable payload would fail identically on every redelivery.
	Reject
	// Requeue negatively acknowledges with requeue so another attempt can
	// occur after a transient failure. Bounded retry is the bus's concern,
	// not this adapter's.
	Requeue
)
