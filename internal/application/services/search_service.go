package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/supply-map/backend/internal/domain/entities"
	"github.com/supply-map/backend/internal/domain/geo"
	"github.com/supply-map/backend/internal/domain/providers"
	"github.com/supply-map/backend/pkg/config"
	"github.com/supply-map/backend/pkg/utils"
)

const (
	// Acceptance band for a road distance against its straight-line
	// counterpart. Outside the band the pair is treated as no-route.
	plausibilityMinRatio = 0.5
	plausibilityMaxRatio = 15

	// Assumed speed when a provider returns a duration but no distance.
	imputedSpeedKmh = 50
)

// SearchFilters are the caller-supplied constraints on a search.
type SearchFilters struct {
	MaxDistanceKm *float64
}

// SearchService runs the store search pipeline: candidate discovery,
// multi-source road distance resolution, plausibility reconciliation,
// ranking and enrichment.
type SearchService struct {
	poi      providers.POIProvider
	resolver *DistanceResolver
	feedback providers.FeedbackProvider
	oracle   providers.RankingProvider
	cfg      config.SearchConfig
}

// NewSearchService creates a new search service. oracle may be nil, in
// which case the naive closest-first ranking is final.
func NewSearchService(
	poi providers.POIProvider,
	resolver *DistanceResolver,
	feedback providers.FeedbackProvider,
	oracle providers.RankingProvider,
	cfg config.SearchConfig,
) *SearchService {
	return &SearchService{poi: poi, resolver: resolver, feedback: feedback, oracle: oracle, cfg: cfg}
}

// Search finds stores near origin likely to carry item, ranked by road
// distance. Provider failures degrade the result set, they never fail
// the request; the only hard rule is that a store is shown with a road
// distance or not at all.
func (s *SearchService) Search(ctx context.Context, item string, origin geo.Point, filters SearchFilters) (*entities.SearchOutcome, error) {
	item = utils.NormalizeItem(item)

	candidates := s.fetchCandidates(ctx, origin, filters)
	if len(candidates) > s.cfg.MaxStoresForRoad {
		candidates = candidates[:s.cfg.MaxStoresForRoad]
	}

	destinations := make([]geo.Point, len(candidates))
	for i, c := range candidates {
		destinations[i] = c.Location
	}

	resolved := s.resolver.Resolve(ctx, origin, destinations)

	outcome := &entities.SearchOutcome{
		Stores:         []entities.RankedStore{},
		DistanceSource: resolved.Source,
	}
	if resolved.ProviderError != "" {
		outcome.Diagnostics = &entities.SearchDiagnostics{ProviderError: resolved.ProviderError}
	}

	// No road distance source at all means no results. Straight-line
	// distances are never shown in their place.
	if resolved.Source == entities.DistanceSourceNone || len(resolved.Values) != len(candidates) {
		outcome.Summary = "No nearby stores found."
		return outcome, nil
	}

	ranked := s.reconcile(origin, candidates, resolved.Values)

	if filters.MaxDistanceKm != nil {
		ranked = filterByDistance(ranked, *filters.MaxDistanceKm)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})
	if len(ranked) > s.cfg.MaxResults {
		ranked = ranked[:s.cfg.MaxResults]
	}

	s.attachPrices(ctx, item, ranked)

	outcome.Stores = ranked
	if len(ranked) == 0 {
		outcome.Summary = "No nearby stores found."
	} else {
		outcome.BestID = ranked[0].ID
		outcome.Summary = fmt.Sprintf("%s is the closest option (%s away).",
			ranked[0].Name, geo.FormatMiles(ranked[0].DistanceKm))
	}

	s.applyOracle(ctx, item, outcome)
	s.suggestAlternatives(ctx, item, outcome)

	return outcome, nil
}

// fetchCandidates queries the POI index with a radius derived from the
// caller's distance filter. A POI failure means zero candidates.
func (s *SearchService) fetchCandidates(ctx context.Context, origin geo.Point, filters SearchFilters) []entities.Store {
	radius := s.cfg.DefaultRadiusMeters
	if filters.MaxDistanceKm != nil {
		radius = *filters.MaxDistanceKm * 1000
		if radius > s.cfg.MaxRadiusMeters {
			radius = s.cfg.MaxRadiusMeters
		}
	}

	candidates, err := s.poi.FetchNearby(ctx, origin, radius)
	if err != nil {
		log.Warn().Err(err).Msg("poi lookup failed, continuing with zero candidates")
		return nil
	}

	if filters.MaxDistanceKm != nil {
		kept := candidates[:0]
		for _, c := range candidates {
			if c.StraightLineKm <= *filters.MaxDistanceKm {
				kept = append(kept, c)
			}
		}
		candidates = kept
	}
	return candidates
}

// reconcile pairs candidates with their resolved road distances and
// drops every pair whose distance is missing or implausible. A missing
// distance with a known duration is imputed at a fixed average speed
// before the plausibility check.
func (s *SearchService) reconcile(origin geo.Point, candidates []entities.Store, values []providers.RoadDistance) []entities.RankedStore {
	ranked := make([]entities.RankedStore, 0, len(candidates))
	for i, store := range candidates {
		road := values[i]
		if !road.HasRoute() && road.DurationMinutes != nil && *road.DurationMinutes > 0 {
			road.DistanceKm = geo.RoundKm(*road.DurationMinutes / 60 * imputedSpeedKmh)
		}
		if !road.HasRoute() {
			continue
		}

		straight := geo.HaversineKm(origin, store.Location)
		if road.DistanceKm < plausibilityMinRatio*straight || road.DistanceKm > plausibilityMaxRatio*straight {
			log.Debug().
				Str("store", store.ID).
				Float64("roadKm", road.DistanceKm).
				Float64("straightKm", straight).
				Msg("dropping implausible road distance")
			continue
		}

		ranked = append(ranked, entities.RankedStore{
			Store:           store,
			DistanceKm:      road.DistanceKm,
			DurationMinutes: road.DurationMinutes,
		})
	}
	return ranked
}

func filterByDistance(stores []entities.RankedStore, maxKm float64) []entities.RankedStore {
	kept := stores[:0]
	for _, s := range stores {
		if s.DistanceKm <= maxKm {
			kept = append(kept, s)
		}
	}
	return kept
}

// attachPrices joins crowd-sourced price reports onto the results.
// Feedback reads are best-effort.
func (s *SearchService) attachPrices(ctx context.Context, item string, stores []entities.RankedStore) {
	if s.feedback == nil || len(stores) == 0 {
		return
	}
	ids := storeIDs(stores)
	prices, err := s.feedback.PricesForStores(ctx, item, ids)
	if err != nil {
		log.Warn().Err(err).Msg("price lookup failed")
		return
	}
	for i := range stores {
		if price, ok := prices[stores[i].ID]; ok {
			p := price
			stores[i].ReportedPrice = &p
		}
	}
}

// applyOracle asks the ranking oracle to reorder the results and
// rewrite the summary. Any oracle failure leaves the naive ranking in
// place.
func (s *SearchService) applyOracle(ctx context.Context, item string, outcome *entities.SearchOutcome) {
	if s.oracle == nil || len(outcome.Stores) == 0 {
		return
	}

	signals := s.collectSignals(ctx, item, outcome.Stores)

	rank, err := s.oracle.RankStores(ctx, item, outcome.Stores, signals)
	if err != nil {
		log.Warn().Err(err).Msg("ranking oracle failed, keeping naive order")
	} else if rank != nil && len(rank.OrderedIDs) > 0 {
		outcome.Stores = reorderStores(outcome.Stores, rank.OrderedIDs)
		outcome.BestID = outcome.Stores[0].ID
	}

	summary, err := s.oracle.SummarizeBestOption(ctx, item, outcome.Stores[0], outcome.Stores)
	if err != nil {
		log.Warn().Err(err).Msg("summary oracle failed, keeping naive summary")
		return
	}
	if summary != "" {
		outcome.Summary = summary
	}
}

func (s *SearchService) collectSignals(ctx context.Context, item string, stores []entities.RankedStore) providers.StoreSignals {
	signals := providers.StoreSignals{
		InStock: map[string]bool{},
		Prices:  map[string]float64{},
	}
	for _, st := range stores {
		if st.ReportedPrice != nil {
			signals.Prices[st.ID] = *st.ReportedPrice
		}
	}
	if s.feedback == nil {
		return signals
	}
	stock, err := s.feedback.StockForStores(ctx, item, storeIDs(stores))
	if err != nil {
		log.Warn().Err(err).Msg("stock lookup failed")
		return signals
	}
	signals.InStock = stock
	return signals
}

func (s *SearchService) suggestAlternatives(ctx context.Context, item string, outcome *entities.SearchOutcome) {
	if s.oracle == nil || len(outcome.Stores) >= s.cfg.AlternativesThreshold {
		return
	}
	alternatives, err := s.oracle.SuggestAlternatives(ctx, item)
	if err != nil {
		log.Warn().Err(err).Msg("alternatives oracle failed")
		return
	}
	outcome.Alternatives = alternatives
}

// reorderStores applies the oracle's ordering: stores it named come
// first in its order, stores it skipped follow in their existing order,
// unknown IDs are ignored.
func reorderStores(stores []entities.RankedStore, orderedIDs []string) []entities.RankedStore {
	byID := make(map[string]entities.RankedStore, len(stores))
	for _, s := range stores {
		byID[s.ID] = s
	}

	reordered := make([]entities.RankedStore, 0, len(stores))
	mentioned := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if s, ok := byID[id]; ok && !mentioned[id] {
			reordered = append(reordered, s)
			mentioned[id] = true
		}
	}
	for _, s := range stores {
		if !mentioned[s.ID] {
			reordered = append(reordered, s)
		}
	}
	return reordered
}

func storeIDs(stores []entities.RankedStore) []string {
	ids := make([]string, len(stores))
	for i, s := range stores {
		ids[i] = s.ID
	}
	return ids
}
