package providers

import (
	"context"

	"github.com/supply-map/backend/internal/domain/entities"
)

// StoreSignals carries crowd-sourced side-channel data handed to the
// ranking oracle, keyed by store ID.
type StoreSignals struct {
	InStock map[string]bool
	Prices  map[string]float64
}

// RankOutcome is the oracle's (possibly partial) reordering of stores.
type RankOutcome struct {
	OrderedIDs []string
	Reasons    map[string]string
}

// RankingProvider is the external ranking oracle. Every call is
// best-effort: failures and nil results must never propagate as a
// search failure, the caller keeps its naive ranking instead.
type RankingProvider interface {
	// RankStores returns store IDs in best-to-worst order
	RankStores(ctx context.Context, item string, stores []entities.RankedStore, signals StoreSignals) (*RankOutcome, error)

	// SummarizeBestOption returns a short natural-language explanation of
	// why best is a good option
	SummarizeBestOption(ctx context.Context, item string, best entities.RankedStore, all []entities.RankedStore) (string, error)

	// SuggestAlternatives returns substitute items to try when a search
	// produced no or few results
	SuggestAlternatives(ctx context.Context, item string) ([]string, error)
}
