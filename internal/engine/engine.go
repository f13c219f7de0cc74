// Package engine implements the flow session engine: it advances one
// user session by at most one step per inbound message, delegating state
// to the session store and message delivery to the sender.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/convoflow/engine/internal/archive"
	"github.com/convoflow/engine/internal/delivery"
	"github.com/convoflow/engine/internal/events"
	"github.com/convoflow/engine/internal/store"
	"github.com/convoflow/engine/pkg/api"
	"github.com/convoflow/engine/pkg/log"
)

type (
	// Engine orchestrates inbound messages against the stores, step
	// navigation, and delivery. It is stateless between invocations; all
	// session state lives in the session store, which also serializes
	// concurrent messages from the same user
	Engine struct {
		channels store.ChannelStore
		users    store.UserStore
		flows    store.FlowStore
		sessions store.SessionStore
		sender   delivery.Sender
		feed     events.Publisher
		archiver *archive.Archiver
		now      func() time.Time
	}

	// Dependencies holds the engine's collaborators. Feed and Archiver
	// are optional
	Dependencies struct {
		Channels store.ChannelStore
		Users    store.UserStore
		Flows    store.FlowStore
		Sessions store.SessionStore
		Sender   delivery.Sender
		Feed     events.Publisher
		Archiver *archive.Archiver
	}
)

const (
	// SessionCreatedBy marks sessions created by the engine itself
	SessionCreatedBy = "system"

	archiveTimeout = 10 * time.Second
)

// New creates an engine with the specified collaborators
func New(deps Dependencies) *Engine {
	return &Engine{
		channels: deps.Channels,
		users:    deps.Users,
		flows:    deps.Flows,
		sessions: deps.Sessions,
		sender:   deps.Sender,
		feed:     deps.Feed,
		archiver: deps.Archiver,
		now:      time.Now,
	}
}

// ProcessIncomingMessage advances the sender's session by at most one step.
// Unknown channels and channels without a default flow are dropped silently
// since the webhook origin is untrusted; an unknown user fails the
// invocation; store errors propagate to the caller. At most one session
// create-or-update and at most one delivery happen per call
func (e *Engine) ProcessIncomingMessage(
	ctx context.Context, msg api.InboundMessage,
) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	channel, err := e.channels.GetChannel(ctx, msg.ChannelID)
	if err != nil {
		if errors.Is(err, store.ErrChannelNotFound) {
			slog.Warn("Channel not registered",
				log.ChannelID(msg.ChannelID))
			return nil
		}
		return err
	}
	if channel.Deleted {
		slog.Warn("Message for deleted channel",
			log.ChannelID(msg.ChannelID))
		return nil
	}

	user, err := e.users.FindUserByAddress(ctx, msg.FromAddress)
	if err != nil {
		return err
	}

	sess, err := e.sessions.FindActiveSession(ctx, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return e.startSession(ctx, channel, user)
		}
		return err
	}

	return e.advanceSession(ctx, channel, user, sess, msg.Text)
}

// startSession creates a session on the channel's default flow and delivers
// its first step. The triggering message is not consumed as step input
func (e *Engine) startSession(
	ctx context.Context, channel *api.ChannelConfig, user *api.User,
) error {
	if channel.DefaultFlowID == "" {
		slog.Warn("No default flow for channel",
			log.ChannelID(channel.ID))
		return nil
	}

	flow, err := e.flows.GetFlow(ctx, channel.DefaultFlowID)
	if err != nil {
		return err
	}

	first := FirstStep(flow)

	sess := &api.Session{
		ID:        api.SessionID(uuid.New().String()),
		UserID:    user.ID,
		FlowID:    flow.ID,
		CreatedBy: SessionCreatedBy,
		CreatedAt: e.now().UTC(),
	}
	if first != nil {
		sess.CurrentStepID = first.ID
	}

	if err := e.sessions.CreateSession(ctx, sess); err != nil {
		if errors.Is(err, store.ErrSessionExists) {
			// Lost the create race to a concurrent message from the same
			// user; that invocation owns the session and the delivery
			slog.Warn("Concurrent session create lost",
				log.UserID(user.ID),
				log.FlowID(flow.ID))
			return nil
		}
		return err
	}

	e.publish(ctx, api.EventSessionStarted, sess, sess.CurrentStepID)
	e.deliver(ctx, user, sess, first, channel)
	return nil
}

// advanceSession resolves the next step for the inbound text. Unrecognized
// input repeats the current prompt without mutating the session
func (e *Engine) advanceSession(
	ctx context.Context, channel *api.ChannelConfig, user *api.User,
	sess *api.Session, text string,
) error {
	if sess.CurrentStepID == "" {
		slog.Error("Active session has no current step",
			log.SessionID(sess.ID),
			log.UserID(user.ID))
		return nil
	}

	flow, err := e.flows.GetFlow(ctx, sess.FlowID)
	if err != nil {
		return err
	}

	current := flow.StepByID(sess.CurrentStepID)
	if current == nil {
		slog.Error("Session current step missing from flow",
			log.SessionID(sess.ID),
			log.FlowID(flow.ID),
			log.StepID(sess.CurrentStepID))
		return nil
	}

	next := NextStep(flow, current, text)
	if next == nil {
		e.publish(ctx, api.EventSessionRepeated, sess, current.ID)
		e.deliver(ctx, user, sess, current, channel)
		return nil
	}

	if err := sess.AdvanceTo(next, e.now().UTC()); err != nil {
		return err
	}
	if err := e.sessions.UpdateSession(ctx, sess); err != nil {
		if errors.Is(err, store.ErrSessionConflict) {
			// A concurrent message already advanced this session; it owns
			// the delivery for the new step
			slog.Warn("Concurrent session update lost",
				log.SessionID(sess.ID),
				log.UserID(user.ID))
			return nil
		}
		return err
	}

	if sess.Completed {
		e.publish(ctx, api.EventSessionCompleted, sess, next.ID)
		e.archiveSession(sess)
	} else {
		e.publish(ctx, api.EventSessionAdvanced, sess, next.ID)
	}

	e.deliver(ctx, user, sess, next, channel)
	return nil
}

// deliver sends a step to the user. Failures are logged, not retried
func (e *Engine) deliver(
	ctx context.Context, user *api.User, sess *api.Session, step *api.Step,
	channel *api.ChannelConfig,
) {
	if err := e.sender.SendStep(ctx, user, sess, step, channel); err != nil {
		slog.Error("Failed to deliver step",
			log.SessionID(sess.ID),
			log.UserID(user.ID),
			log.Error(err))
	}
}

func (e *Engine) publish(
	ctx context.Context, eventType api.EventType, sess *api.Session,
	stepID api.StepID,
) {
	if e.feed == nil {
		return
	}
	e.feed.Publish(ctx, &api.SessionEvent{
		Type:      eventType,
		SessionID: sess.ID,
		UserID:    sess.UserID,
		FlowID:    sess.FlowID,
		StepID:    stepID,
		Timestamp: e.now().UnixMilli(),
	})
}

// archiveSession writes a completed session to the archive off the webhook
// path
func (e *Engine) archiveSession(sess *api.Session) {
	if e.archiver == nil {
		return
	}

	archived := *sess
	go func() {
		ctx, cancel := context.WithTimeout(
			context.Background(), archiveTimeout,
		)
		defer cancel()

		if err := e.archiver.Put(ctx, &archived); err != nil {
			slog.Error("Failed to archive session",
				log.SessionID(archived.ID),
				log.Error(err))
			return
		}
		slog.Info("Session archived",
			log.SessionID(archived.ID))
	}()
}
