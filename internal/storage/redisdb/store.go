package redisdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/storage"
)

const (
	workspaceKeyPrefix  = "dgbp:workspace:"  // dgbp:workspace:{id}
	projectKeyPrefix    = "dgbp:project:"    // dgbp:project:{id}
	versionKeyPrefix    = "dgbp:version:"    // dgbp:version:{id}
	deploymentKeyPrefix = "dgbp:deployment:" // dgbp:deployment:{build_id}
	ledgerKeyPrefix     = "dgbp:ledger:"     // dgbp:ledger:{entry_id}
	userKeyPrefix       = "dgbp:user:"       // hash dgbp:user:{uid}, indexes dgbp:user:{uid}:{kind}

	activeDeploymentSet = "dgbp:deployments:active"

	defaultMaxRetries = 8
)

// Store keeps every document as JSON under its own key, except users
// which are hashes so balances can move with HINCRBY. Per-user listings are
// sorted sets scored by creation time in microseconds.
type Store struct {
	client     *redis.Client
	maxRetries int
}

func New(client *redis.Client) *Store {
	return &Store{client: client, maxRetries: defaultMaxRetries}
}

func (s *Store) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *Store) Close() error { return s.client.Close() }

// reader is the read subset shared by *redis.Client and *redis.Tx.
type reader interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	ZRevRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
}

func userIndexKey(userID, kind string) string { return userKeyPrefix + userID + ":" + kind }

func getJSON[T any](ctx context.Context, c reader, key string) (*T, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return &v, nil
}

// mgetJSON loads keys in order, skipping ones that no longer exist.
func mgetJSON[T any](ctx context.Context, c reader, keys []string) ([]T, error) {
	if len(keys) == 0 {
		return []T{}, nil
	}
	vals, err := c.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to mget: %w", err)
	}
	out := make([]T, 0, len(vals))
	for i, raw := range vals {
		str, ok := raw.(string)
		if !ok {
			continue
		}
		var v T
		if err := json.Unmarshal([]byte(str), &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", keys[i], err)
		}
		out = append(out, v)
	}
	return out, nil
}

// listIndex returns the documents referenced by a sorted-set index,
// highest score first.
func listIndex[T any](ctx context.Context, c reader, index, prefix string, limit int) ([]T, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := c.ZRevRange(ctx, index, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read index %s: %w", index, err)
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = prefix + id
	}
	return mgetJSON[T](ctx, c, keys)
}

// updateJSON runs fn on the stored document under WATCH and writes the
// result in MULTI/EXEC. after may queue further commands in the same
// transaction. Returning storage.ErrNoChange from fn skips the write.
func updateJSON[T any](ctx context.Context, s *Store, key string, fn func(*T) error, after func(redis.Pipeliner, *T)) (*T, error) {
	var result *T
	txf := func(tx *redis.Tx) error {
		cur, err := getJSON[T](ctx, tx, key)
		if err != nil {
			return err
		}
		if err := fn(cur); err != nil {
			if errors.Is(err, storage.ErrNoChange) {
				result = cur
				return nil
			}
			return err
		}
		data, err := json.Marshal(cur)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", key, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			if after != nil {
				after(pipe, cur)
			}
			return nil
		})
		if err != nil {
			return err
		}
		result = cur
		return nil
	}

	for i := 0; i < s.maxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, fmt.Errorf("%w: %s", storage.ErrConflict, key)
}

func sortedMembers(ctx context.Context, c reader, key string) ([]string, error) {
	ids, err := c.SMembers(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}
