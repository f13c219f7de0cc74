// Package redis implements the engine's record stores on Redis. Records are
// stored as JSON values; sessions carry an active-session pointer per user
// so that concurrent webhook deliveries serialize on the store rather than
// on in-process locks.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/convoflow/engine/internal/store"
	"github.com/convoflow/engine/pkg/api"
	"github.com/convoflow/engine/pkg/log"
)

// Store implements the channel, user, flow, and session stores on a shared
// Redis client. All keys are namespaced under the configured prefix
type Store struct {
	rdb    *redis.Client
	prefix string
}

var (
	_ store.ChannelStore = (*Store)(nil)
	_ store.UserStore    = (*Store)(nil)
	_ store.FlowStore    = (*Store)(nil)
	_ store.SessionStore = (*Store)(nil)
)

// New creates a Store namespaced under prefix on the given client
func New(rdb *redis.Client, prefix string) *Store {
	return &Store{rdb: rdb, prefix: prefix}
}

// GetChannel retrieves a channel configuration by ID
func (s *Store) GetChannel(
	ctx context.Context, id api.ChannelID,
) (*api.ChannelConfig, error) {
	var ch api.ChannelConfig
	if err := s.getJSON(ctx, s.channelKey(id), &ch); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", store.ErrChannelNotFound, id)
		}
		return nil, err
	}
	return &ch, nil
}

// PutChannel stores a channel configuration
func (s *Store) PutChannel(ctx context.Context, ch *api.ChannelConfig) error {
	return s.setJSON(ctx, s.channelKey(ch.ID), ch)
}

// FindUserByAddress retrieves a user via the address index
func (s *Store) FindUserByAddress(
	ctx context.Context, address string,
) (*api.User, error) {
	id, err := s.rdb.Get(ctx, s.addrKey(address)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, address)
		}
		return nil, err
	}

	var user api.User
	if err := s.getJSON(ctx, s.userKey(api.UserID(id)), &user); err != nil {
		if errors.Is(err, redis.Nil) {
			slog.Warn("User index points at missing record",
				log.Address(address),
				log.UserID(api.UserID(id)))
			return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, address)
		}
		return nil, err
	}
	return &user, nil
}

// PutUser stores a user record and its address index entry
func (s *Store) PutUser(ctx context.Context, user *api.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.userKey(user.ID), data, 0)
		pipe.Set(ctx, s.addrKey(user.Address), string(user.ID), 0)
		return nil
	})
	return err
}

// GetFlow retrieves a flow definition by ID
func (s *Store) GetFlow(
	ctx context.Context, id api.FlowID,
) (*api.Flow, error) {
	var flow api.Flow
	if err := s.getJSON(ctx, s.flowKey(id), &flow); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", store.ErrFlowNotFound, id)
		}
		return nil, err
	}
	return &flow, nil
}

// ListFlows returns all stored flow definitions
func (s *Store) ListFlows(ctx context.Context) ([]*api.Flow, error) {
	var flows []*api.Flow

	iter := s.rdb.Scan(ctx, 0, s.flowKey("*"), 0).Iterator()
	for iter.Next(ctx) {
		var flow api.Flow
		if err := s.getJSON(ctx, iter.Val(), &flow); err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, err
		}
		flows = append(flows, &flow)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return flows, nil
}

// PutFlow stores a flow definition, replacing any previous version
func (s *Store) PutFlow(ctx context.Context, flow *api.Flow) error {
	return s.setJSON(ctx, s.flowKey(flow.ID), flow)
}

// FindActiveSession retrieves the user's single non-completed session
func (s *Store) FindActiveSession(
	ctx context.Context, userID api.UserID,
) (*api.Session, error) {
	id, err := s.rdb.Get(ctx, s.activeKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: user %s",
				store.ErrSessionNotFound, userID)
		}
		return nil, err
	}

	sess, err := s.GetSession(ctx, api.SessionID(id))
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			// A pointer without its record would wedge the user: no session
			// to advance, and the claimed slot blocks creating one. Drop it
			// so the next message starts fresh
			slog.Warn("Dropping active pointer to missing session",
				log.UserID(userID),
				log.SessionID(api.SessionID(id)))
			if err := s.rdb.Del(ctx, s.activeKey(userID)).Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: user %s",
				store.ErrSessionNotFound, userID)
		}
		return nil, err
	}
	return sess, nil
}

// GetSession retrieves a session by ID
func (s *Store) GetSession(
	ctx context.Context, id api.SessionID,
) (*api.Session, error) {
	var sess api.Session
	if err := s.getJSON(ctx, s.sessionKey(id), &sess); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", store.ErrSessionNotFound, id)
		}
		return nil, err
	}
	return &sess, nil
}

// CreateSession stores a new session and claims the user's active-session
// slot. The SETNX on the pointer is what guarantees at most one active
// session per user under concurrent creates
func (s *Store) CreateSession(ctx context.Context, sess *api.Session) error {
	if err := sess.Validate(); err != nil {
		return err
	}

	sess.Revision = 1
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	claimed, err := s.rdb.SetNX(
		ctx, s.activeKey(sess.UserID), string(sess.ID), 0,
	).Result()
	if err != nil {
		return err
	}
	if !claimed {
		return fmt.Errorf("%w: user %s", store.ErrSessionExists, sess.UserID)
	}

	if err := s.rdb.Set(ctx, s.sessionKey(sess.ID), data, 0).Err(); err != nil {
		// The claim must not outlive a failed record write
		if delErr := s.rdb.Del(ctx, s.activeKey(sess.UserID)).Err(); delErr != nil {
			slog.Error("Failed to release active pointer",
				log.UserID(sess.UserID),
				log.SessionID(sess.ID),
				log.Error(delErr))
		}
		return err
	}
	return nil
}

// UpdateSession persists a session mutation under an optimistic revision
// check. Completing a session releases the user's active-session slot in
// the same transaction, so step-advance and completion are one visible
// update
func (s *Store) UpdateSession(ctx context.Context, sess *api.Session) error {
	key := s.sessionKey(sess.ID)
	next := sess.Revision + 1

	update := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return fmt.Errorf("%w: %s", store.ErrSessionNotFound, sess.ID)
			}
			return err
		}

		var current api.Session
		if err := json.Unmarshal([]byte(data), &current); err != nil {
			return err
		}
		if current.Revision != sess.Revision {
			return fmt.Errorf("%w: %s", store.ErrSessionConflict, sess.ID)
		}

		updated := *sess
		updated.Revision = next
		buf, err := json.Marshal(&updated)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, buf, 0)
			if updated.Completed {
				pipe.Del(ctx, s.activeKey(updated.UserID))
			}
			return nil
		})
		return err
	}

	if err := s.rdb.Watch(ctx, update, key); err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return fmt.Errorf("%w: %s", store.ErrSessionConflict, sess.ID)
		}
		return err
	}

	sess.Revision = next
	return nil
}

func (s *Store) getJSON(ctx context.Context, key string, dst any) error {
	data, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dst)
}

func (s *Store) setJSON(ctx context.Context, key string, src any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, data, 0).Err()
}

func (s *Store) channelKey(id api.ChannelID) string {
	return fmt.Sprintf("%s:channel:%s", s.prefix, id)
}

func (s *Store) userKey(id api.UserID) string {
	return fmt.Sprintf("%s:user:%s", s.prefix, id)
}

func (s *Store) addrKey(address string) string {
	return fmt.Sprintf("%s:user:addr:%s", s.prefix, address)
}

func (s *Store) flowKey(id api.FlowID) string {
	return fmt.Sprintf("%s:flow:%s", s.prefix, id)
}

func (s *Store) sessionKey(id api.SessionID) string {
	return fmt.Sprintf("%s:session:%s", s.prefix, id)
}

func (s *Store) activeKey(userID api.UserID) string {
	return fmt.Sprintf("%s:session:active:%s", s.prefix, userID)
}
