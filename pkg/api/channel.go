package api

import "errors"

type (
	// ChannelConfig binds an inbound messaging endpoint to a default flow.
	// Read-only to the engine; deleted channels are retained but ignored
	ChannelConfig struct {
		ID            ChannelID `json:"id"`
		Name          string    `json:"name,omitempty"`
		DefaultFlowID FlowID    `json:"default_flow_id,omitempty"`
		Deleted       bool      `json:"deleted,omitempty"`
	}

	// User is a channel-address-identified actor. Users pre-exist; the
	// engine never creates them
	User struct {
		ID      UserID `json:"id"`
		Address string `json:"address"`
		Name    string `json:"name,omitempty"`
	}

	// InboundMessage is one message received from a channel webhook
	InboundMessage struct {
		FromAddress string    `json:"from_address"`
		Text        string    `json:"text"`
		ChannelID   ChannelID `json:"channel_id"`
	}
)

var (
	ErrChannelIDEmpty  = errors.New("channel ID empty")
	ErrUserIDEmpty     = errors.New("user ID empty")
	ErrUserAddrEmpty   = errors.New("user address empty")
	ErrUserAddrInvalid = errors.New("user address invalid")
	ErrFromAddrEmpty   = errors.New("message from address empty")
	ErrMsgChannelEmpty = errors.New("message channel ID empty")
)

// Validate checks that a channel configuration is well formed
func (c *ChannelConfig) Validate() error {
	if c.ID == "" {
		return ErrChannelIDEmpty
	}
	return nil
}

// Validate checks that a user record is well formed
func (u *User) Validate() error {
	if u.ID == "" {
		return ErrUserIDEmpty
	}
	if u.Address == "" {
		return ErrUserAddrEmpty
	}
	if !ValidAddress(u.Address) {
		return ErrUserAddrInvalid
	}
	return nil
}

// Validate checks that an inbound message carries the required routing
// fields. Empty text is allowed
func (m *InboundMessage) Validate() error {
	if m.FromAddress == "" {
		return ErrFromAddrEmpty
	}
	if m.ChannelID == "" {
		return ErrMsgChannelEmpty
	}
	return nil
}
