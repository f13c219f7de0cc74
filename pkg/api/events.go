package api

type (
	// EventType identifies a session lifecycle event on the feed
	EventType string

	// SessionEvent is published on the event feed whenever the engine
	// creates, advances, repeats, or completes a session
	SessionEvent struct {
		Type      EventType `json:"type"`
		SessionID SessionID `json:"session_id"`
		UserID    UserID    `json:"user_id"`
		FlowID    FlowID    `json:"flow_id"`
		StepID    StepID    `json:"step_id,omitempty"`
		Timestamp int64     `json:"timestamp"`
	}

	// SubscribeRequest is sent by WebSocket clients to narrow the events
	// they receive. Empty filters receive everything
	SubscribeRequest struct {
		Type       string      `json:"type"`
		EventTypes []EventType `json:"event_types,omitempty"`
		UserID     UserID      `json:"user_id,omitempty"`
	}
)

const (
	// EventSessionStarted fires when a new session is created
	EventSessionStarted EventType = "session_started"

	// EventSessionAdvanced fires when a session moves to a new step
	EventSessionAdvanced EventType = "session_advanced"

	// EventSessionRepeated fires when unrecognized input re-delivers the
	// current step
	EventSessionRepeated EventType = "session_repeated"

	// EventSessionCompleted fires when a session reaches a terminal step
	EventSessionCompleted EventType = "session_completed"
)

// Matches reports whether an event passes the subscription's filters
func (r *SubscribeRequest) Matches(ev *SessionEvent) bool {
	if r.UserID != "" && r.UserID != ev.UserID {
		return false
	}
	if len(r.EventTypes) == 0 {
		return true
	}
	for _, et := range r.EventTypes {
		if et == ev.Type {
			return true
		}
	}
	return false
}
