package redisdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/ledger"
	"github.com/GoSim-25-26J-441/dgbp-backend/internal/storage"
)

// AppendLedgerEntry stores the entry and moves the owner's balances with
// HINCRBY in one MULTI/EXEC. The user hash must already exist.
func (s *Store) AppendLedgerEntry(ctx context.Context, e *ledger.Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger entry: %w", err)
	}
	userKey := userKeyPrefix + e.UserID

	txf := func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, userKey).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: user %s", storage.ErrNotFound, e.UserID)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, ledgerKeyPrefix+e.ID, data, 0)
			pipe.ZAdd(ctx, userIndexKey(e.UserID, "ledger"), redis.Z{Score: float64(e.CreatedAt.UnixMicro()), Member: e.ID})
			pipe.HIncrBy(ctx, userKey, fieldTokensRemaining, -e.TotalTokens)
			pipe.HIncrBy(ctx, userKey, fieldTokensUsed, e.TotalTokens)
			return nil
		})
		return err
	}

	for i := 0; i < s.maxRetries; i++ {
		err := s.client.Watch(ctx, txf, userKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to append ledger entry: %w", err)
		}
		return nil
	}
	return fmt.Errorf("%w: %s", storage.ErrConflict, userKey)
}

func (s *Store) ListLedgerEntries(ctx context.Context, userID string, limit int) ([]ledger.Entry, error) {
	return listIndex[ledger.Entry](ctx, s.client, userIndexKey(userID, "ledger"), ledgerKeyPrefix, limit)
}
