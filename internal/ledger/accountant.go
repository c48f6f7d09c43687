package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrAccountingFailure = errors.New("usage accounting failed")

// Store appends the entry and moves the owner's balances by TotalTokens in
// one atomic write, using store-side increments.
type Store interface {
	AppendLedgerEntry(ctx context.Context, entry *Entry) error
	ListLedgerEntries(ctx context.Context, userID string, limit int) ([]Entry, error)
}

type Usage struct {
	CallerID     string
	ProjectID    string
	ModelID      string
	InputTokens  int
	OutputTokens int
}

type Accountant struct {
	store Store
	rates RateTable
	now   func() time.Time
}

func NewAccountant(store Store, rates RateTable) *Accountant {
	return &Accountant{store: store, rates: rates, now: time.Now}
}

// Record prices the usage and writes it. Every failure wraps
// ErrAccountingFailure.
func (a *Accountant) Record(ctx context.Context, u Usage) (*Entry, error) {
	if strings.TrimSpace(u.CallerID) == "" {
		return nil, fmt.Errorf("%w: caller id is empty", ErrAccountingFailure)
	}
	if u.InputTokens < 0 || u.OutputTokens < 0 {
		return nil, fmt.Errorf("%w: negative token count %d/%d", ErrAccountingFailure, u.InputTokens, u.OutputTokens)
	}

	total := int64(u.InputTokens) + int64(u.OutputTokens)
	entry := &Entry{
		ID:              uuid.NewString(),
		UserID:          u.CallerID,
		ProjectID:       u.ProjectID,
		ModelID:         u.ModelID,
		Tier:            a.rates.TierOf(u.ModelID),
		InputTokens:     int64(u.InputTokens),
		OutputTokens:    int64(u.OutputTokens),
		TotalTokens:     total,
		ProviderCostUSD: a.rates.Cost(u.ModelID, total),
		ChargedTokens:   total,
		CreatedAt:       a.now().UTC(),
	}
	if err := a.store.AppendLedgerEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAccountingFailure, err)
	}
	return entry, nil
}

// History returns the caller's most recent entries, newest first.
func (a *Accountant) History(ctx context.Context, callerID string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return a.store.ListLedgerEntries(ctx, callerID, limit)
}
