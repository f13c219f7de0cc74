// Package engine is the Convoflow conversational flow session engine. It
// advances per-user sessions through channel-bound conversation flows, one
// inbound message at a time.
package engine

const (
	// Name is the service name reported in logs and health responses
	Name = "convoflow"

	// Version is the service version reported in logs and health responses
	Version = "1.0.0"
)
