package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"homevisit-dispatch-service/internal/domain"
	"homevisit-dispatch-service/internal/platform/obs"
	"homevisit-dispatch-service/internal/ports"
)

// DefaultFallbackTravelMinutes replaces an estimate when the travel backend
// fails mid-pass. Scheduling degrades instead of aborting.
const DefaultFallbackTravelMinutes = 15

// RouteOptimizer builds half-day visiting routes with a greedy
// nearest-neighbor walk.
//
// The algorithm minimizes immediate travel duration at each step. It does not
// attempt global route optimization (e.g., VRP solvers). The design
// prioritizes determinism and simplicity over optimality.
type RouteOptimizer struct {
	estimator       ports.TravelEstimator
	fallbackMinutes int
}

func NewRouteOptimizer(estimator ports.TravelEstimator, fallbackMinutes int) *RouteOptimizer {
	if fallbackMinutes <= 0 {
		fallbackMinutes = DefaultFallbackTravelMinutes
	}
	return &RouteOptimizer{estimator: estimator, fallbackMinutes: fallbackMinutes}
}

// Optimize assigns the pool into time-ordered AM and PM stop lists starting
// from the depot. Items whose half-day fills up are returned in Unscheduled
// rather than being moved to the other slot.
//
// The outer walk is strictly sequential (each step depends on the previous
// stop); travel lookups for the current step's candidates are issued
// concurrently and joined before selection.
func (o *RouteOptimizer) Optimize(
	ctx context.Context,
	pool []domain.VisitItem,
	depot domain.Coordinates,
) (_ *domain.DaySchedule, err error) {
	defer obs.Time(ctx, "optimizer.Optimize")(&err)

	if !depot.Valid() {
		return nil, errors.New("optimize: depot coordinates are required")
	}
	for _, item := range pool {
		if item.Duration < 0 {
			return nil, fmt.Errorf("optimize: item %q has negative duration", item.ID)
		}
	}

	schedule := &domain.DaySchedule{
		AM: []domain.ScheduledStop{},
		PM: []domain.ScheduledStop{},
	}

	// Items without a resolved location cannot be routed; report them
	// unscheduled instead of pretending they are zero minutes away.
	remaining := make([]domain.VisitItem, 0, len(pool))
	for _, item := range pool {
		if !item.Coord.Valid() {
			schedule.Unscheduled = append(schedule.Unscheduled, item)
			continue
		}
		remaining = append(remaining, item)
	}

	currentLoc := depot
	currentTime := domain.AMStart
	mode := domain.SlotAM

	for len(remaining) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("optimize: %w", err)
		}

		candidates := make([]domain.VisitItem, 0, len(remaining))
		for _, item := range remaining {
			if item.Slot == mode {
				candidates = append(candidates, item)
			}
		}

		if len(candidates) == 0 {
			if mode == domain.SlotAM {
				mode = domain.SlotPM
				currentTime = max(currentTime, domain.PMStart)
				continue
			}
			break
		}

		travel, err := o.travelTimes(ctx, currentLoc, candidates)
		if err != nil {
			return nil, fmt.Errorf("optimize: %w", err)
		}

		best := 0
		for i := 1; i < len(candidates); i++ {
			// Tie-breaker keeps ordering deterministic across runs.
			if travel[i] < travel[best] ||
				(travel[i] == travel[best] && candidates[i].ID < candidates[best].ID) {
				best = i
			}
		}

		chosen := candidates[best]
		arrival := currentTime + travel[best]
		finish := arrival + chosen.VisitDuration()

		// A visit that would run into lunch closes the morning. The item is
		// not reslotted to PM; if it required AM it stays unscheduled.
		if mode == domain.SlotAM && finish > domain.LunchCutoff {
			mode = domain.SlotPM
			currentTime = domain.PMStart
			continue
		}

		stop := domain.ScheduledStop{
			VisitItem:     chosen,
			ETA:           domain.FormatMinutes(arrival),
			TravelMinutes: travel[best],
		}
		if mode == domain.SlotAM {
			stop.Priority = len(schedule.AM) + 1
			schedule.AM = append(schedule.AM, stop)
		} else {
			stop.Priority = len(schedule.PM) + 1
			schedule.PM = append(schedule.PM, stop)
		}

		currentLoc = chosen.Coord
		currentTime = finish
		remaining = removeItem(remaining, chosen.ID)
	}

	schedule.Unscheduled = append(schedule.Unscheduled, remaining...)
	return schedule, nil
}

// travelTimes fans out one estimator call per candidate and joins, bounding
// the step's latency to the slowest single lookup. Failed lookups fall back
// to the configured duration.
func (o *RouteOptimizer) travelTimes(
	ctx context.Context,
	from domain.Coordinates,
	candidates []domain.VisitItem,
) ([]int, error) {
	out := make([]int, len(candidates))

	sem := make(chan struct{}, 5)
	var wg sync.WaitGroup

	for i, c := range candidates {
		wg.Add(1)
		go func(i int, to domain.Coordinates) {
			sem <- struct{}{}
			defer wg.Done()
			defer func() { <-sem }()

			minutes, err := o.estimator.Estimate(ctx, from, to)
			if err != nil {
				minutes = o.fallbackMinutes
			}
			out[i] = minutes
		}(i, c.Coord)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func removeItem(items []domain.VisitItem, id string) []domain.VisitItem {
	out := items[:0]
	for _, item := range items {
		if item.ID != id {
			out = append(out, item)
		}
	}
	return out
}
