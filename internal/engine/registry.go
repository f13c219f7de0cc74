package engine

import (
	"context"

	"github.com/convoflow/engine/pkg/api"
)

// RegisterFlow validates and stores a flow definition, replacing any
// previous version. Sessions already bound to the flow keep advancing
// against the new definition on their next message
func (e *Engine) RegisterFlow(ctx context.Context, flow *api.Flow) error {
	if err := flow.Validate(); err != nil {
		return err
	}
	return e.flows.PutFlow(ctx, flow)
}

// RegisterChannel validates and stores a channel configuration
func (e *Engine) RegisterChannel(
	ctx context.Context, channel *api.ChannelConfig,
) error {
	if err := channel.Validate(); err != nil {
		return err
	}
	return e.channels.PutChannel(ctx, channel)
}

// RegisterUser validates and stores a user record
func (e *Engine) RegisterUser(ctx context.Context, user *api.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	return e.users.PutUser(ctx, user)
}

// GetFlow retrieves a flow definition
func (e *Engine) GetFlow(
	ctx context.Context, id api.FlowID,
) (*api.Flow, error) {
	return e.flows.GetFlow(ctx, id)
}

// ListFlows returns all registered flow definitions
func (e *Engine) ListFlows(ctx context.Context) ([]*api.Flow, error) {
	return e.flows.ListFlows(ctx)
}

// GetSessionForAddress resolves a user's active session and its current
// step for inspection endpoints
func (e *Engine) GetSessionForAddress(
	ctx context.Context, address string,
) (*api.Session, *api.Step, error) {
	user, err := e.users.FindUserByAddress(ctx, address)
	if err != nil {
		return nil, nil, err
	}

	sess, err := e.sessions.FindActiveSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	if sess.CurrentStepID == "" {
		return sess, nil, nil
	}

	flow, err := e.flows.GetFlow(ctx, sess.FlowID)
	if err != nil {
		return nil, nil, err
	}
	return sess, flow.StepByID(sess.CurrentStepID), nil
}
