// Package distance contains the road-distance provider adapters. Both
// adapters speak the uniform DistanceProvider contract: results match
// the destination order and length, destination lists above the batch
// limit are split into sequential sub-requests, and a failed chunk
// fails the whole call.
package distance

import (
	"context"
	"errors"
	"math"
	"net"

	"github.com/supply-map/backend/internal/domain/geo"
	apperrors "github.com/supply-map/backend/pkg/errors"
)

// Both providers accept at most 25 destinations per request (one origin
// row keeps Google under its 100-element cap; OSRM's demo server uses
// the same table limit).
const maxDestinationsPerRequest = 25

func chunkPoints(points []geo.Point, size int) [][]geo.Point {
	var chunks [][]geo.Point
	for start := 0; start < len(points); start += size {
		end := start + size
		if end > len(points) {
			end = len(points)
		}
		chunks = append(chunks, points[start:end])
	}
	return chunks
}

// roundMetersToKm normalizes a native meters value to km at two decimal
// places, the unit contract at the adapter boundary.
func roundMetersToKm(meters float64) float64 {
	return math.Round(meters/1000*100) / 100
}

func minutesFromSeconds(seconds float64) *float64 {
	minutes := math.Round(seconds / 60)
	return &minutes
}

func classifyTransportError(provider string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperrors.NewTimeoutError(provider+" request timed out", err)
	}
	return apperrors.NewSourceUnavailableError(provider+" request failed", err)
}
