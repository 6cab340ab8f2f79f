package services

import (
	"context"
	"errors"
	"fmt"

	"homevisit-dispatch-service/internal/domain"
	"homevisit-dispatch-service/internal/platform/obs"
)

// Resequence re-times an already-ordered list of visits without reordering
// it. Used after a manual drag-and-drop reorder to keep displayed ETAs
// consistent; the caller is trusted to have respected slot boundaries, so no
// lunch or half-day constraint is applied here.
func (o *RouteOptimizer) Resequence(
	ctx context.Context,
	orderedItems []domain.VisitItem,
	startTime string,
	depot domain.Coordinates,
) (_ []domain.ScheduledStop, err error) {
	defer obs.Time(ctx, "optimizer.Resequence")(&err)

	if !depot.Valid() {
		return nil, errors.New("resequence: depot coordinates are required")
	}

	currentLoc := depot
	currentTime := domain.ToMinutes(startTime)
	if currentTime == 0 {
		currentTime = domain.AMStart
	}

	stops := make([]domain.ScheduledStop, 0, len(orderedItems))
	for i, item := range orderedItems {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("resequence: %w", err)
		}
		if item.Duration < 0 {
			return nil, fmt.Errorf("resequence: item %q has negative duration", item.ID)
		}

		to := item.Coord
		if !to.Valid() {
			to = depot
		}

		minutes, err := o.estimator.Estimate(ctx, currentLoc, to)
		if err != nil {
			minutes = o.fallbackMinutes
		}

		arrival := currentTime + minutes
		stops = append(stops, domain.ScheduledStop{
			VisitItem:     item,
			ETA:           domain.FormatMinutes(arrival),
			TravelMinutes: minutes,
			Priority:      i + 1,
		})

		currentTime = arrival + item.VisitDuration()
		currentLoc = to
	}

	return stops, nil
}
