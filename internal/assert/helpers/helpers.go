// Package helpers provides shared fixtures for engine and store tests: a
// miniredis-backed environment, a capturing delivery sender, and canned
// flow definitions.
package helpers

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/convoflow/engine/internal/config"
	"github.com/convoflow/engine/internal/delivery"
	"github.com/convoflow/engine/internal/engine"
	"github.com/convoflow/engine/internal/events"
	redisstore "github.com/convoflow/engine/internal/store/redis"
	"github.com/convoflow/engine/pkg/api"
	"github.com/convoflow/engine/pkg/builder"
)

type (
	// TestEnv holds all the components needed for engine testing
	TestEnv struct {
		Engine  *engine.Engine
		Redis   *miniredis.Miniredis
		Client  *redis.Client
		Store   *redisstore.Store
		Sender  *CaptureSender
		Feed    *events.Feed
		Cleanup func()
	}

	// CaptureSender records delivery calls for assertions
	CaptureSender struct {
		deliveries []Delivery
		err        error
		mu         sync.Mutex
	}

	// Delivery is one recorded SendStep call
	Delivery struct {
		User    *api.User
		Session *api.Session
		Step    *api.Step
		Channel *api.ChannelConfig
	}
)

var _ delivery.Sender = (*CaptureSender)(nil)

// NewTestEnv creates an engine wired to miniredis-backed stores and a
// capturing sender
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	store := redisstore.New(client, "test")
	sender := NewCaptureSender()
	feed := events.NewFeed(client, "test:events")

	eng := engine.New(engine.Dependencies{
		Channels: store,
		Users:    store,
		Flows:    store,
		Sessions: store,
		Sender:   sender,
		Feed:     feed,
	})

	cleanup := func() {
		_ = client.Close()
		server.Close()
	}

	return &TestEnv{
		Engine:  eng,
		Redis:   server,
		Client:  client,
		Store:   store,
		Sender:  sender,
		Feed:    feed,
		Cleanup: cleanup,
	}
}

// Seed stores a channel, user, and flow in one call
func (env *TestEnv) Seed(
	t *testing.T, channel *api.ChannelConfig, user *api.User, flow *api.Flow,
) {
	t.Helper()
	ctx := context.Background()

	if channel != nil {
		require.NoError(t, env.Store.PutChannel(ctx, channel))
	}
	if user != nil {
		require.NoError(t, env.Store.PutUser(ctx, user))
	}
	if flow != nil {
		require.NoError(t, env.Store.PutFlow(ctx, flow))
	}
}

// NewCaptureSender creates a sender that records all deliveries
func NewCaptureSender() *CaptureSender {
	return &CaptureSender{}
}

// SendStep records the delivery and returns the configured error, if any
func (s *CaptureSender) SendStep(
	_ context.Context, user *api.User, session *api.Session, step *api.Step,
	channel *api.ChannelConfig,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveries = append(s.deliveries, Delivery{
		User:    user,
		Session: session,
		Step:    step,
		Channel: channel,
	})
	return s.err
}

// SetError makes subsequent deliveries fail with err
func (s *CaptureSender) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Deliveries returns a copy of all recorded deliveries
func (s *CaptureSender) Deliveries() []Delivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]Delivery, len(s.deliveries))
	copy(res, s.deliveries)
	return res
}

// Last returns the most recent delivery, or nil if none were recorded
func (s *CaptureSender) Last() *Delivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.deliveries) == 0 {
		return nil
	}
	d := s.deliveries[len(s.deliveries)-1]
	return &d
}

// Count returns the number of recorded deliveries
func (s *CaptureSender) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.deliveries)
}

// NewTestChannel creates a channel bound to the given default flow
func NewTestChannel(id api.ChannelID, flowID api.FlowID) *api.ChannelConfig {
	return &api.ChannelConfig{
		ID:            id,
		Name:          "Test Channel",
		DefaultFlowID: flowID,
	}
}

// NewTestUser creates a user with the given ID and address
func NewTestUser(id api.UserID, address string) *api.User {
	return &api.User{
		ID:      id,
		Address: address,
		Name:    "Test User",
	}
}

// NewLanguageFlow builds a small menu flow: S1 asks for a language choice,
// "1" reaches terminal S2, "2" reaches terminal S3
func NewLanguageFlow(id api.FlowID) *api.Flow {
	return builder.NewFlow(id, "Language Selection").
		WithStep(builder.NewStep("S1", "Reply 1 for English, 2 for Urdu").
			OnExact("1", "S2").
			OnExact("2", "S3").
			AsEntry()).
		WithStep(builder.NewStep("S2", "You chose English. Goodbye!").
			AsTerminal()).
		WithStep(builder.NewStep("S3", "Aap ne Urdu chuni. Khuda hafiz!").
			AsTerminal()).
		Build()
}

// NewTestConfig creates a basic configuration for testing
func NewTestConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.LogLevel = "debug"
	cfg.VerifyToken = "test-verify-token"
	return cfg
}
