package travel

import (
	"context"
	"fmt"

	"homevisit-dispatch-service/internal/domain"
	"homevisit-dispatch-service/internal/ports"
)

type MockLeg struct {
	From, To domain.Coordinates
	Minutes  int
}

// MockTravelEstimator serves fixed travel times for tests.
type MockTravelEstimator struct {
	m map[[2]domain.Coordinates]int
}

func NewMockTravelEstimator(legs []MockLeg) *MockTravelEstimator {
	m := make(map[[2]domain.Coordinates]int, len(legs))
	for _, l := range legs {
		m[[2]domain.Coordinates{l.From, l.To}] = l.Minutes
	}
	return &MockTravelEstimator{m: m}
}

func (e *MockTravelEstimator) Estimate(ctx context.Context, from, to domain.Coordinates) (int, error) {
	minutes, ok := e.m[[2]domain.Coordinates{from, to}]
	if !ok {
		return 0, fmt.Errorf("missing leg %v -> %v: %w", from, to, ports.ErrEstimatorUnavailable)
	}
	return minutes, nil
}

// FailingTravelEstimator always reports the backend as unavailable, for
// exercising fallback paths.
type FailingTravelEstimator struct{}

func (FailingTravelEstimator) Estimate(ctx context.Context, from, to domain.Coordinates) (int, error) {
	return 0, ports.ErrEstimatorUnavailable
}
