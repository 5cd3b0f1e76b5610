package domain

import "errors"

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function;
// the consumer translates them to ack/reject/requeue decisions.
var (
	ErrNotFound         = errors.New("notification not found")
	ErrDuplicate        = errors.New("notification already exists for this event and user")
	ErrInvalidEvent     = errors.New("malformed event payload")
	ErrUnknownEventType = errors.New("unknown event type")
	ErrUnauthorized     = errors.New("missing or invalid access token")
	ErrForbidden        = errors.New("insufficient permissions")
)
