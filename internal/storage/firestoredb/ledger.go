package firestoredb

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/ledger"
)

// AppendLedgerEntry creates the entry and increments the owner's balances
// in one transaction. Balances only move through firestore.Increment.
func (s *Store) AppendLedgerEntry(ctx context.Context, e *ledger.Entry) error {
	entryRef := s.client.Collection(colLedger).Doc(e.ID)
	userRef := s.client.Collection(colUsers).Doc(e.UserID)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(userRef); err != nil {
			return err
		}
		if err := tx.Create(entryRef, e); err != nil {
			return err
		}
		return tx.Update(userRef, []firestore.Update{
			{Path: "tokensRemaining", Value: firestore.Increment(-e.TotalTokens)},
			{Path: "tokensUsed", Value: firestore.Increment(e.TotalTokens)},
		})
	})
	if err != nil {
		return mapErr(err, fmt.Sprintf("append ledger entry for %s", e.UserID))
	}
	return nil
}

func (s *Store) ListLedgerEntries(ctx context.Context, userID string, limit int) ([]ledger.Entry, error) {
	q := s.client.Collection(colLedger).Where("userId", "==", userID).OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	return all[ledger.Entry](ctx, q)
}
