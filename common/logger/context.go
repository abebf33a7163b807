package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within
// a context. Fields flow through context enrichment so pipeline context
// (demozone, event name, booking) shows up in every log statement without
// threading it by hand.
type LogFields struct {
	Demozone  *string // tenant identifier
	EventName *string // canonical event name (e.g. "CHECKIN")
	BookingID *int64  // booking the event refers to, when known
	MessageID *string // broker stream message ID
	Component string  // component name (e.g. "eventhub.dispatch")
}

// WithLogFields enriches context with structured log fields. Multiple calls
// merge fields, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	merged := mergeFields(GetLogFields(ctx), fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context, empty if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing
	if next.Demozone != nil {
		result.Demozone = next.Demozone
	}
	if next.EventName != nil {
		result.EventName = next.EventName
	}
	if next.BookingID != nil {
		result.BookingID = next.BookingID
	}
	if next.MessageID != nil {
		result.MessageID = next.MessageID
	}
	if next.Component != "" {
		result.Component = next.Component
	}
	return result
}

// Ptr is a helper to create a pointer from a value, for setting LogFields
// inline.
func Ptr[T any](v T) *T {
	return &v
}
