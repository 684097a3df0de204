package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the hot tier for session state. Keys are namespaced per session:
//
//	session:<id>:count         integer question counter
//	session:<id>:history       bounded list of formatted turns, newest first
//	session:<id>:msg:<unix_ts> hash holding one turn awaiting durable write
//	session:<id>:pending_msgs  set of msg keys awaiting durable write
//
// Every mutation refreshes the TTL, so an idle session drops out of the hot
// path after one retention window regardless of its durable row.
type Store struct {
	rdb          *redis.Client
	ttl          time.Duration
	historyLimit int
}

// Turn is one question/answer exchange staged for reconciliation.
type Turn struct {
	UserID    uint64
	Question  string
	Answer    string
	Timestamp string
}

func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func New(rdb *redis.Client, ttl time.Duration, historyLimit int) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if historyLimit <= 0 {
		historyLimit = 10
	}
	return &Store{rdb: rdb, ttl: ttl, historyLimit: historyLimit}
}

func countKey(sessionID string) string   { return "session:" + sessionID + ":count" }
func historyKey(sessionID string) string { return "session:" + sessionID + ":history" }
func pendingKey(sessionID string) string { return "session:" + sessionID + ":pending_msgs" }

func turnKey(sessionID string, ts int64) string {
	return fmt.Sprintf("session:%s:msg:%d", sessionID, ts)
}

// SessionIDFromKey extracts the session id from any key in the namespace.
func SessionIDFromKey(key string) string {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) < 3 {
		return ""
	}
	return parts[1]
}

// SetCount overwrites the counter and resets its TTL.
func (s *Store) SetCount(ctx context.Context, sessionID string, count int) error {
	return s.rdb.Set(ctx, countKey(sessionID), count, s.ttl).Err()
}

// Count returns the cached counter. ok is false on a cache miss.
func (s *Store) Count(ctx context.Context, sessionID string) (count int, ok bool, err error) {
	v, err := s.rdb.Get(ctx, countKey(sessionID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("redisstore: bad counter %q: %w", v, err)
	}
	return n, true, nil
}

// IncrCount increments the counter and refreshes its TTL. Returns the
// post-increment value.
func (s *Store) IncrCount(ctx context.Context, sessionID string) (int, error) {
	n, err := s.rdb.Incr(ctx, countKey(sessionID)).Result()
	if err != nil {
		return 0, err
	}
	if err := s.rdb.Expire(ctx, countKey(sessionID), s.ttl).Err(); err != nil {
		return 0, err
	}
	return int(n), nil
}

// History returns the bounded recent history, newest entry first.
func (s *Store) History(ctx context.Context, sessionID string) ([]string, error) {
	return s.rdb.LRange(ctx, historyKey(sessionID), 0, -1).Result()
}

// PushHistory prepends one formatted turn and trims to the retention window.
func (s *Store) PushHistory(ctx context.Context, sessionID, entry string) error {
	key := historyKey(sessionID)
	if err := s.rdb.LPush(ctx, key, entry).Err(); err != nil {
		return err
	}
	if err := s.rdb.LTrim(ctx, key, 0, int64(s.historyLimit-1)).Err(); err != nil {
		return err
	}
	return s.rdb.Expire(ctx, key, s.ttl).Err()
}

// StageTurn writes the per-turn hash and registers it in the session's
// pending set. The key embeds the write time in nanoseconds so two turns in
// the same second still register two pending records.
func (s *Store) StageTurn(ctx context.Context, sessionID string, t Turn) (string, error) {
	key := turnKey(sessionID, time.Now().UnixNano())
	fields := map[string]any{
		"user_id":   strconv.FormatUint(t.UserID, 10),
		"question":  t.Question,
		"answer":    t.Answer,
		"timestamp": t.Timestamp,
	}
	if err := s.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return "", err
	}
	if err := s.rdb.Expire(ctx, key, s.ttl).Err(); err != nil {
		return "", err
	}
	if err := s.rdb.SAdd(ctx, pendingKey(sessionID), key).Err(); err != nil {
		return "", err
	}
	if err := s.rdb.Expire(ctx, pendingKey(sessionID), s.ttl).Err(); err != nil {
		return "", err
	}
	return key, nil
}

// Turn reads one staged turn back. ok is false when the hash expired.
func (s *Store) Turn(ctx context.Context, key string) (t Turn, ok bool, err error) {
	fields, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return Turn{}, false, err
	}
	if len(fields) == 0 {
		return Turn{}, false, nil
	}
	uid, _ := strconv.ParseUint(fields["user_id"], 10, 64)
	return Turn{
		UserID:    uid,
		Question:  fields["question"],
		Answer:    fields["answer"],
		Timestamp: fields["timestamp"],
	}, true, nil
}

// PendingTurnKeys lists the turn keys awaiting durable write for a session.
func (s *Store) PendingTurnKeys(ctx context.Context, sessionID string) ([]string, error) {
	return s.rdb.SMembers(ctx, pendingKey(sessionID)).Result()
}

// RemovePending drops one turn key from the pending set. Callers must only
// do this after the durable insert committed.
func (s *Store) RemovePending(ctx context.Context, sessionID, key string) error {
	return s.rdb.SRem(ctx, pendingKey(sessionID), key).Err()
}

// CounterSessions scans for every session with a live cache counter.
func (s *Store) CounterSessions(ctx context.Context) ([]string, error) {
	return s.scanSessions(ctx, "session:*:count")
}

// PendingSessions scans for every session with outstanding turns.
func (s *Store) PendingSessions(ctx context.Context) ([]string, error) {
	return s.scanSessions(ctx, "session:*:pending_msgs")
}

func (s *Store) scanSessions(ctx context.Context, pattern string) ([]string, error) {
	var ids []string
	iter := s.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if id := SessionIDFromKey(iter.Val()); id != "" {
			ids = append(ids, id)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
