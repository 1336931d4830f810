package entities

import (
	"github.com/supply-map/backend/internal/domain/geo"
)

// Store is a point of interest returned by the POI source before any
// road distance is known. Immutable after creation; the ID is
// source-qualified (e.g. "node/123", "way/456") and stable across
// searches so feedback and prices can be joined onto it.
type Store struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Location       geo.Point         `json:"location"`
	Address        string            `json:"address"`
	StraightLineKm float64           `json:"straightLineKm"`
	Tags           map[string]string `json:"tags,omitempty"`
}
