package ports

import (
	"context"

	"homevisit-dispatch-service/internal/domain"
)

// Port: resolves free-text addresses to coordinates. Consumed only at the
// HTTP boundary; the core algorithms receive already-resolved coordinates.
type Geocoder interface {
	// Resolve an address. Returns invalid (zero) coordinates when the address
	// cannot be resolved; callers decide on a depot fallback.
	Geocode(ctx context.Context, address string) (domain.Coordinates, error)
}
