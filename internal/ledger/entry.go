package ledger

import (
	"time"

	"github.com/GoSim-25-26J-441/dgbp-backend/internal/pipeline/domain"
)

// Entry is one immutable usage record.
type Entry struct {
	ID              string      `json:"id" firestore:"id"`
	UserID          string      `json:"userId" firestore:"userId"`
	ProjectID       string      `json:"projectId" firestore:"projectId"`
	ModelID         string      `json:"modelId" firestore:"modelId"`
	Tier            domain.Tier `json:"tier" firestore:"tier"`
	InputTokens     int64       `json:"inputTokens" firestore:"inputTokens"`
	OutputTokens    int64       `json:"outputTokens" firestore:"outputTokens"`
	TotalTokens     int64       `json:"totalTokens" firestore:"totalTokens"`
	ProviderCostUSD float64     `json:"providerCostUSD" firestore:"providerCostUSD"`
	ChargedTokens   int64       `json:"chargedTokens" firestore:"chargedTokens"`
	CreatedAt       time.Time   `json:"createdAt" firestore:"createdAt"`
}
