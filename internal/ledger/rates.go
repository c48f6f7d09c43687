package ledger

import "github.com/GoSim-25-26J-441/dgbp-backend/internal/pipeline/domain"

// Default USD prices per million tokens.
const (
	DefaultReasoningRate = 3.5
	DefaultStandardRate  = 0.075
)

// RateTable prices tokens by the tier of the model that produced them.
type RateTable struct {
	rates  map[domain.Tier]float64
	models map[string]domain.Tier
}

// NewRateTable builds a table. models maps exact model ids to their tier;
// ids not listed are priced as standard.
func NewRateTable(rates map[domain.Tier]float64, models map[string]domain.Tier) RateTable {
	t := RateTable{
		rates:  make(map[domain.Tier]float64, len(rates)),
		models: make(map[string]domain.Tier, len(models)),
	}
	for k, v := range rates {
		t.rates[k] = v
	}
	for k, v := range models {
		t.models[k] = v
	}
	return t
}

func (t RateTable) TierOf(modelID string) domain.Tier {
	if tier, ok := t.models[modelID]; ok {
		return tier
	}
	return domain.TierStandard
}

func (t RateTable) Rate(tier domain.Tier) float64 { return t.rates[tier] }

// Cost is totalTokens / 1e6 * rate of the model's tier.
func (t RateTable) Cost(modelID string, totalTokens int64) float64 {
	return float64(totalTokens) / 1_000_000 * t.rates[t.TierOf(modelID)]
}
