package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/convoflow/engine/internal/assert"
	"github.com/convoflow/engine/internal/assert/helpers"
	"github.com/convoflow/engine/internal/store"
	redisstore "github.com/convoflow/engine/internal/store/redis"
	"github.com/convoflow/engine/pkg/api"
)

func newTestStore(t *testing.T) (*redisstore.Store, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	client := goredis.NewClient(&goredis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})
	return redisstore.New(client, "test"), server
}

func TestChannelRoundTrip(t *testing.T) {
	as := assert.New(t)
	s, _ := newTestStore(t)
	ctx := context.Background()

	ch := helpers.NewTestChannel("C1", "F1")
	as.NoError(s.PutChannel(ctx, ch))

	got, err := s.GetChannel(ctx, "C1")
	as.Require.NoError(err)
	as.Equal(ch.ID, got.ID)
	as.Equal(ch.DefaultFlowID, got.DefaultFlowID)

	_, err = s.GetChannel(ctx, "missing")
	as.ErrorIs(err, store.ErrChannelNotFound)
}

func TestUserAddressIndex(t *testing.T) {
	as := assert.New(t)
	s, _ := newTestStore(t)
	ctx := context.Background()

	user := helpers.NewTestUser("U1", "+15551234567")
	as.NoError(s.PutUser(ctx, user))

	got, err := s.FindUserByAddress(ctx, "+15551234567")
	as.Require.NoError(err)
	as.Equal(user.ID, got.ID)
	as.Equal(user.Name, got.Name)

	_, err = s.FindUserByAddress(ctx, "+19998887766")
	as.ErrorIs(err, store.ErrUserNotFound)
}

func TestFlowRoundTrip(t *testing.T) {
	as := assert.New(t)
	s, _ := newTestStore(t)
	ctx := context.Background()

	flow := helpers.NewLanguageFlow("F1")
	as.NoError(s.PutFlow(ctx, flow))

	got, err := s.GetFlow(ctx, "F1")
	as.Require.NoError(err)
	as.Equal(flow.ID, got.ID)
	as.Len(got.Steps, 3)
	as.True(flow.Steps[0].Equal(got.Steps[0]))

	_, err = s.GetFlow(ctx, "missing")
	as.ErrorIs(err, store.ErrFlowNotFound)
}

func TestListFlows(t *testing.T) {
	as := assert.New(t)
	s, _ := newTestStore(t)
	ctx := context.Background()

	flows, err := s.ListFlows(ctx)
	as.NoError(err)
	as.Empty(flows)

	as.NoError(s.PutFlow(ctx, helpers.NewLanguageFlow("F1")))
	as.NoError(s.PutFlow(ctx, helpers.NewLanguageFlow("F2")))

	flows, err = s.ListFlows(ctx)
	as.Require.NoError(err)
	as.Len(flows, 2)

	ids := map[api.FlowID]bool{}
	for _, f := range flows {
		ids[f.ID] = true
	}
	as.True(ids["F1"])
	as.True(ids["F2"])
}

func TestCreateSessionClaimsActiveSlot(t *testing.T) {
	as := assert.New(t)
	s, _ := newTestStore(t)
	ctx := context.Background()

	sess := &api.Session{
		ID: "X1", UserID: "U1", FlowID: "F1", CurrentStepID: "S1",
	}
	as.NoError(s.CreateSession(ctx, sess))
	as.Equal(int64(1), sess.Revision)

	got, err := s.FindActiveSession(ctx, "U1")
	as.Require.NoError(err)
	as.Equal(api.SessionID("X1"), got.ID)

	// A second create for the same user loses the slot
	second := &api.Session{
		ID: "X2", UserID: "U1", FlowID: "F1", CurrentStepID: "S1",
	}
	as.ErrorIs(s.CreateSession(ctx, second), store.ErrSessionExists)

	got, err = s.FindActiveSession(ctx, "U1")
	as.Require.NoError(err)
	as.Equal(api.SessionID("X1"), got.ID)
}

func TestFindActiveSessionHealsDanglingPointer(t *testing.T) {
	as := assert.New(t)
	s, server := newTestStore(t)
	ctx := context.Background()

	// An active pointer whose session record is gone
	as.Require.NoError(server.Set("test:session:active:U1", "ghost"))

	_, err := s.FindActiveSession(ctx, "U1")
	as.ErrorIs(err, store.ErrSessionNotFound)
	as.False(server.Exists("test:session:active:U1"))

	// The slot is usable again
	sess := &api.Session{
		ID: "X1", UserID: "U1", FlowID: "F1", CurrentStepID: "S1",
	}
	as.NoError(s.CreateSession(ctx, sess))

	got, err := s.FindActiveSession(ctx, "U1")
	as.Require.NoError(err)
	as.Equal(api.SessionID("X1"), got.ID)
}

func TestFindActiveSessionNone(t *testing.T) {
	as := assert.New(t)
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.FindActiveSession(ctx, "U1")
	as.ErrorIs(err, store.ErrSessionNotFound)

	_, err = s.GetSession(ctx, "missing")
	as.ErrorIs(err, store.ErrSessionNotFound)
}

func TestUpdateSessionBumpsRevision(t *testing.T) {
	as := assert.New(t)
	s, _ := newTestStore(t)
	ctx := context.Background()

	sess := &api.Session{
		ID: "X1", UserID: "U1", FlowID: "F1", CurrentStepID: "S1",
	}
	as.Require.NoError(s.CreateSession(ctx, sess))

	sess.CurrentStepID = "S2"
	as.NoError(s.UpdateSession(ctx, sess))
	as.Equal(int64(2), sess.Revision)

	got, err := s.GetSession(ctx, "X1")
	as.Require.NoError(err)
	as.SessionAt(got, "S2", false)
	as.Equal(int64(2), got.Revision)
}

func TestUpdateSessionStaleRevision(t *testing.T) {
	as := assert.New(t)
	s, _ := newTestStore(t)
	ctx := context.Background()

	sess := &api.Session{
		ID: "X1", UserID: "U1", FlowID: "F1", CurrentStepID: "S1",
	}
	as.Require.NoError(s.CreateSession(ctx, sess))

	// Two readers pick up revision 1; only the first write lands
	stale := *sess
	sess.CurrentStepID = "S2"
	as.NoError(s.UpdateSession(ctx, sess))

	stale.CurrentStepID = "S3"
	as.ErrorIs(s.UpdateSession(ctx, &stale), store.ErrSessionConflict)

	got, err := s.GetSession(ctx, "X1")
	as.Require.NoError(err)
	as.SessionAt(got, "S2", false)
}

func TestCompletionReleasesActiveSlot(t *testing.T) {
	as := assert.New(t)
	s, _ := newTestStore(t)
	ctx := context.Background()

	sess := &api.Session{
		ID: "X1", UserID: "U1", FlowID: "F1", CurrentStepID: "S1",
	}
	as.Require.NoError(s.CreateSession(ctx, sess))

	sess.CurrentStepID = "S2"
	sess.Completed = true
	as.NoError(s.UpdateSession(ctx, sess))

	// Completed sessions remain readable but no longer hold the slot
	_, err := s.FindActiveSession(ctx, "U1")
	as.ErrorIs(err, store.ErrSessionNotFound)

	got, err := s.GetSession(ctx, "X1")
	as.Require.NoError(err)
	as.True(got.Completed)

	// The slot is free for the user's next session
	next := &api.Session{
		ID: "X2", UserID: "U1", FlowID: "F1", CurrentStepID: "S1",
	}
	as.NoError(s.CreateSession(ctx, next))
}

func TestUpdateMissingSession(t *testing.T) {
	as := assert.New(t)
	s, _ := newTestStore(t)
	ctx := context.Background()

	sess := &api.Session{
		ID: "missing", UserID: "U1", FlowID: "F1", Revision: 1,
	}
	as.ErrorIs(s.UpdateSession(ctx, sess), store.ErrSessionNotFound)
}

func TestCreateSessionValidates(t *testing.T) {
	as := assert.New(t)
	s, _ := newTestStore(t)
	ctx := context.Background()

	err := s.CreateSession(ctx, &api.Session{ID: "X1", FlowID: "F1"})
	as.ErrorIs(err, api.ErrSessionUserEmpty)
}
