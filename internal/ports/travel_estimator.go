package ports

import (
	"context"
	"errors"

	"homevisit-dispatch-service/internal/domain"
)

// ErrEstimatorUnavailable signals that the travel-time backend errored or
// timed out. Core algorithms recover by substituting a configured fallback
// duration instead of propagating the failure.
var ErrEstimatorUnavailable = errors.New("travel estimator unavailable")

// Contract for estimating one-way travel time between two coordinates.
type TravelEstimator interface {
	// Return the estimated one-way travel duration in whole minutes.
	Estimate(ctx context.Context, from, to domain.Coordinates) (int, error)
}
