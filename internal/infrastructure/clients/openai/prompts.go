package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/supply-map/backend/internal/domain/entities"
	"github.com/supply-map/backend/internal/domain/geo"
	"github.com/supply-map/backend/internal/domain/providers"
)

const rankSystemPrompt = `You are a shopping assistant ranking nearby stores for a specific item. Rank by convenience, likely availability, and value when a price is reported. Return ONLY valid JSON with this schema:
{
  "orderedIds": string[] (store ids in best-to-worst order, using the exact id strings provided),
  "reasons": optional object mapping store id to a one-line reason
}
No markdown or extra text.`

const summarizeSystemPrompt = `You write one short recommendation for a shopper. Use miles for distance. Only mention prices that are explicitly provided; never invent prices. No markdown, no quotes.`

const alternativesSystemPrompt = `You suggest substitute products or store types for a shopper whose search came up empty. Return ONLY valid JSON with a single key "alternatives" whose value is an array of 2-3 short strings.`

type rankPayload struct {
	OrderedIDs []string          `json:"orderedIds"`
	Reasons    map[string]string `json:"reasons"`
}

type alternativesPayload struct {
	Alternatives []string `json:"alternatives"`
}

func buildRankUserPrompt(item string, stores []entities.RankedStore, signals providers.StoreSignals) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The user is looking for: %q.\n", item)

	if len(signals.InStock) > 0 {
		b.WriteString("User-reported stock: ")
		first := true
		for _, s := range stores {
			inStock, ok := signals.InStock[s.ID]
			if !ok {
				continue
			}
			if !first {
				b.WriteString("; ")
			}
			state := "in stock"
			if !inStock {
				state = "out of stock"
			}
			fmt.Fprintf(&b, "%s: %s", s.Name, state)
			first = false
		}
		b.WriteString(". Prefer stores reported in stock.\n")
	}

	b.WriteString("\nNearby stores:\n")
	for _, s := range stores {
		fmt.Fprintf(&b, "- id: %q, name: %q, distance: %s", s.ID, s.Name, geo.FormatMiles(s.DistanceKm))
		if s.ReportedPrice != nil {
			fmt.Fprintf(&b, ", reported price: $%.2f", *s.ReportedPrice)
		}
		if s.Address != "" {
			fmt.Fprintf(&b, ", address: %s", s.Address)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func buildSummarizeUserPrompt(item string, best entities.RankedStore, all []entities.RankedStore) string {
	var b strings.Builder
	fmt.Fprintf(&b, "In 1-2 short sentences, explain why %q (%s away) is a good option for someone looking for %q.",
		best.Name, geo.FormatMiles(best.DistanceKm), item)
	if best.ReportedPrice != nil {
		fmt.Fprintf(&b, " Reported price at this store: $%.2f.", *best.ReportedPrice)
	}

	var others []string
	for _, s := range all {
		if s.ID == best.ID || s.ReportedPrice == nil {
			continue
		}
		others = append(others, fmt.Sprintf("%s $%.2f", s.Name, *s.ReportedPrice))
	}
	if len(others) > 0 {
		fmt.Fprintf(&b, " Other reported prices: %s.", strings.Join(others, ", "))
	}
	return b.String()
}

func buildAlternativesUserPrompt(item string) string {
	return fmt.Sprintf("The user searched for %q but found no or very few nearby results. Suggest 2-3 substitute products or store types they could try instead.", item)
}

func parseRankPayload(data []byte) (*rankPayload, error) {
	var payload rankPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse rank payload: %w", err)
	}
	return &payload, nil
}

func parseAlternativesPayload(data []byte) (*alternativesPayload, error) {
	var payload alternativesPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse alternatives payload: %w", err)
	}
	return &payload, nil
}
