package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/poorehouse/twotruths/internal/logging"
	"github.com/poorehouse/twotruths/internal/types"
)

const (
	sessionKeyPrefix    = "twotruths:session:"
	statementsKeyPrefix = "twotruths:statements:"
	roundCountField     = "round_count"
)

func sessionKey(id string) string    { return sessionKeyPrefix + id }
func statementsKey(id string) string { return statementsKeyPrefix + id }
func promptsKey(id string) string    { return sessionKeyPrefix + id + ":prompts" }
func responsesKey(id string) string  { return sessionKeyPrefix + id + ":responses" }

// RedisBackend stores sessions as a hash (the counter) plus three
// capped lists (rounds, prompts, responses). Every write refreshes the
// TTL, so Redis retires idle sessions on its own.
type RedisBackend struct {
	rdb  *redis.Client
	opts Options
}

func NewRedisBackend(addr, password string, db int, opts Options) (*RedisBackend, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	return &RedisBackend{rdb: rdb, opts: opts.withDefaults()}, nil
}

func (r *RedisBackend) History(ctx context.Context, sessionID string) (types.History, error) {
	data, err := r.rdb.HGetAll(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return types.History{}, fmt.Errorf("redis hgetall: %w", err)
	}

	count := 0
	if len(data) == 0 {
		if err := r.rdb.HSet(ctx, sessionKey(sessionID), roundCountField, "0").Err(); err != nil {
			return types.History{}, fmt.Errorf("redis hset: %w", err)
		}
		r.rdb.Expire(ctx, sessionKey(sessionID), r.opts.TTL)
	} else if raw, ok := data[roundCountField]; ok {
		count, _ = strconv.Atoi(raw)
	}

	items, err := r.rdb.LRange(ctx, statementsKey(sessionID), 0, int64(r.opts.MaxRounds-1)).Result()
	if err != nil {
		return types.History{}, fmt.Errorf("redis lrange: %w", err)
	}

	rounds := make([]types.Round, 0, len(items))
	for _, item := range items {
		var round types.Round
		if err := json.Unmarshal([]byte(item), &round); err != nil {
			logging.Warnf("store: skipping unreadable round in session %s: %v", sessionID, err)
			continue
		}
		rounds = append(rounds, round)
	}

	return types.History{RoundCount: count, Rounds: rounds}, nil
}

func (r *RedisBackend) Append(ctx context.Context, sessionID string, round types.Round) error {
	if err := r.rdb.HIncrBy(ctx, sessionKey(sessionID), roundCountField, 1).Err(); err != nil {
		return fmt.Errorf("redis hincrby: %w", err)
	}
	r.rdb.Expire(ctx, sessionKey(sessionID), r.opts.TTL)

	data, err := json.Marshal(round)
	if err != nil {
		return fmt.Errorf("marshal round: %w", err)
	}
	return r.pushCapped(ctx, statementsKey(sessionID), data)
}

func (r *RedisBackend) Reset(ctx context.Context, sessionID string) (int, error) {
	count := 0
	if raw, err := r.rdb.HGet(ctx, sessionKey(sessionID), roundCountField).Result(); err == nil {
		count, _ = strconv.Atoi(raw)
	} else if err != redis.Nil {
		return 0, fmt.Errorf("redis hget: %w", err)
	}

	keys := []string{
		sessionKey(sessionID),
		statementsKey(sessionID),
		promptsKey(sessionID),
		responsesKey(sessionID),
	}
	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		return 0, fmt.Errorf("redis del: %w", err)
	}

	if err := r.rdb.HSet(ctx, sessionKey(sessionID), roundCountField, "0").Err(); err != nil {
		return 0, fmt.Errorf("redis hset: %w", err)
	}
	r.rdb.Expire(ctx, sessionKey(sessionID), r.opts.TTL)

	return count, nil
}

func (r *RedisBackend) LogPrompt(ctx context.Context, sessionID string, entry types.PromptLog) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal prompt log: %w", err)
	}
	return r.pushCapped(ctx, promptsKey(sessionID), data)
}

func (r *RedisBackend) LogResponse(ctx context.Context, sessionID string, entry types.ResponseLog) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal response log: %w", err)
	}
	return r.pushCapped(ctx, responsesKey(sessionID), data)
}

func (r *RedisBackend) Prompts(ctx context.Context, sessionID string) ([]types.PromptLog, error) {
	items, err := r.rdb.LRange(ctx, promptsKey(sessionID), 0, int64(r.opts.MaxRounds-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}
	out := make([]types.PromptLog, 0, len(items))
	for _, item := range items {
		var entry types.PromptLog
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func (r *RedisBackend) Responses(ctx context.Context, sessionID string) ([]types.ResponseLog, error) {
	items, err := r.rdb.LRange(ctx, responsesKey(sessionID), 0, int64(r.opts.MaxRounds-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}
	out := make([]types.ResponseLog, 0, len(items))
	for _, item := range items {
		var entry types.ResponseLog
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

// Purge is a no-op: key TTLs already retire idle sessions.
func (r *RedisBackend) Purge(ctx context.Context) (int, error) {
	return 0, nil
}

func (r *RedisBackend) Close() error {
	return r.rdb.Close()
}

// pushCapped prepends to a list, trims it to the retention cap, and
// refreshes its TTL.
func (r *RedisBackend) pushCapped(ctx context.Context, key string, data []byte) error {
	if err := r.rdb.LPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("redis lpush: %w", err)
	}
	if err := r.rdb.LTrim(ctx, key, 0, int64(r.opts.MaxRounds-1)).Err(); err != nil {
		return fmt.Errorf("redis ltrim: %w", err)
	}
	r.rdb.Expire(ctx, key, r.opts.TTL)
	return nil
}
