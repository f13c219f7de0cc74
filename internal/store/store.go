// Package store defines the record-store contracts the engine depends on.
// Implementations are external collaborators; the engine holds no state of
// its own between invocations.
package store

import (
	"context"
	"errors"

	"github.com/convoflow/engine/pkg/api"
)

type (
	// ChannelStore provides channel configuration lookup
	ChannelStore interface {
		GetChannel(context.Context, api.ChannelID) (*api.ChannelConfig, error)
		PutChannel(context.Context, *api.ChannelConfig) error
	}

	// UserStore provides user lookup by channel address. The engine never
	// creates users; PutUser exists for provisioning
	UserStore interface {
		FindUserByAddress(context.Context, string) (*api.User, error)
		PutUser(context.Context, *api.User) error
	}

	// FlowStore provides flow definition lookup. Flows are immutable from
	// the engine's perspective; PutFlow replaces a definition wholesale
	FlowStore interface {
		GetFlow(context.Context, api.FlowID) (*api.Flow, error)
		ListFlows(context.Context) ([]*api.Flow, error)
		PutFlow(context.Context, *api.Flow) error
	}

	// SessionStore provides session persistence. It is the serialization
	// point for concurrent messages from one user: CreateSession must fail
	// with ErrSessionExists when the user already has an active session,
	// and UpdateSession must fail with ErrSessionConflict when the caller
	// holds a stale revision. Sessions are never physically deleted
	SessionStore interface {
		FindActiveSession(context.Context, api.UserID) (*api.Session, error)
		GetSession(context.Context, api.SessionID) (*api.Session, error)
		CreateSession(context.Context, *api.Session) error
		UpdateSession(context.Context, *api.Session) error
	}
)

var (
	ErrChannelNotFound = errors.New("channel not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrFlowNotFound    = errors.New("flow not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("user already has an active session")
	ErrSessionConflict = errors.New("session modified concurrently")
)
