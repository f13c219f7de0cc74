package api

import "regexp"

type (
	// ChannelID identifies an inbound messaging endpoint, e.g. a WhatsApp
	// phone number ID
	ChannelID string

	// FlowID is a unique identifier for a conversation flow
	FlowID string

	// StepID is a unique identifier for a step within a flow
	StepID string

	// SessionID is a unique identifier for a session
	SessionID string

	// UserID is a unique identifier for a user
	UserID string
)

// AddressPattern matches valid channel addresses: an optional plus sign
// followed by digits, as providers report phone-style sender addresses
var AddressPattern = regexp.MustCompile(`^\+?[0-9]{4,20}$`)

// ValidAddress reports whether addr is a well-formed channel address
func ValidAddress(addr string) bool {
	return AddressPattern.MatchString(addr)
}
