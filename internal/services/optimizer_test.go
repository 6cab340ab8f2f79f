package services

import (
	"context"
	"testing"

	"homevisit-dispatch-service/internal/adapters/travel"
	"homevisit-dispatch-service/internal/domain"
)

// constEstimator returns the same travel time for every leg.
type constEstimator int

func (c constEstimator) Estimate(ctx context.Context, from, to domain.Coordinates) (int, error) {
	return int(c), nil
}

func TestOptimizeNearestNeighborOrder(t *testing.T) {
	depot := domain.Coordinates{Lat: 24.129540, Lng: 120.682038}
	r1 := domain.Coordinates{Lat: 24.138260, Lng: 120.684192}
	r2 := domain.Coordinates{Lat: 24.151943, Lng: 120.664182}

	estimator := travel.NewMockTravelEstimator([]travel.MockLeg{
		{From: depot, To: r1, Minutes: 10},
		{From: depot, To: r2, Minutes: 15},
		{From: r1, To: r2, Minutes: 5},
	})

	pool := []domain.VisitItem{
		{ID: "R1", Kind: domain.KindNewRequest, Coord: r1, Slot: domain.SlotAM},
		{ID: "R2", Kind: domain.KindNewRequest, Coord: r2, Slot: domain.SlotAM},
	}

	opt := NewRouteOptimizer(estimator, 0)
	schedule, err := opt.Optimize(context.Background(), pool, depot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(schedule.AM) != 2 {
		t.Fatalf("expected 2 AM stops, got %d", len(schedule.AM))
	}
	if len(schedule.PM) != 0 || len(schedule.Unscheduled) != 0 {
		t.Fatalf("expected nothing in PM/unscheduled, got %d/%d", len(schedule.PM), len(schedule.Unscheduled))
	}

	first, second := schedule.AM[0], schedule.AM[1]
	if first.ID != "R1" || second.ID != "R2" {
		t.Fatalf("expected order [R1 R2], got [%s %s]", first.ID, second.ID)
	}
	if first.ETA != "09:10" {
		t.Errorf("R1 eta = %q, want 09:10", first.ETA)
	}
	if second.ETA != "09:45" {
		t.Errorf("R2 eta = %q, want 09:45", second.ETA)
	}
	if first.TravelMinutes != 10 || second.TravelMinutes != 5 {
		t.Errorf("travel = %d/%d, want 10/5", first.TravelMinutes, second.TravelMinutes)
	}
	if first.Priority != 1 || second.Priority != 2 {
		t.Errorf("priority = %d/%d, want 1/2", first.Priority, second.Priority)
	}
}

func TestOptimizeLunchCutoff(t *testing.T) {
	depot := domain.Coordinates{Lat: 24.1, Lng: 120.6}
	far := domain.Coordinates{Lat: 25.5, Lng: 121.5}
	near := domain.Coordinates{Lat: 24.2, Lng: 120.7}

	// The AM item's finish (09:00 + 160 + 30 = 12:10) crosses lunch; it must
	// stay unscheduled rather than being reslotted to PM.
	estimator := travel.NewMockTravelEstimator([]travel.MockLeg{
		{From: depot, To: far, Minutes: 160},
		{From: depot, To: near, Minutes: 20},
	})

	pool := []domain.VisitItem{
		{ID: "A1", Coord: far, Slot: domain.SlotAM},
		{ID: "P1", Coord: near, Slot: domain.SlotPM},
	}

	opt := NewRouteOptimizer(estimator, 0)
	schedule, err := opt.Optimize(context.Background(), pool, depot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(schedule.AM) != 0 {
		t.Fatalf("expected empty AM, got %d stops", len(schedule.AM))
	}
	if len(schedule.PM) != 1 || schedule.PM[0].ID != "P1" {
		t.Fatalf("expected PM = [P1], got %+v", schedule.PM)
	}
	if schedule.PM[0].ETA != "13:20" {
		t.Errorf("P1 eta = %q, want 13:20", schedule.PM[0].ETA)
	}
	if len(schedule.Unscheduled) != 1 || schedule.Unscheduled[0].ID != "A1" {
		t.Fatalf("expected A1 unscheduled, got %+v", schedule.Unscheduled)
	}
}

func TestOptimizeSlotPurityAndTiming(t *testing.T) {
	depot := domain.Coordinates{Lat: 24.0, Lng: 120.0}

	pool := []domain.VisitItem{
		{ID: "A2", Coord: domain.Coordinates{Lat: 24.01, Lng: 120.01}, Slot: domain.SlotAM},
		{ID: "A1", Coord: domain.Coordinates{Lat: 24.02, Lng: 120.02}, Slot: domain.SlotAM},
		{ID: "P2", Coord: domain.Coordinates{Lat: 24.03, Lng: 120.03}, Slot: domain.SlotPM},
		{ID: "A3", Coord: domain.Coordinates{Lat: 24.04, Lng: 120.04}, Slot: domain.SlotAM},
		{ID: "P1", Coord: domain.Coordinates{Lat: 24.05, Lng: 120.05}, Slot: domain.SlotPM},
	}

	opt := NewRouteOptimizer(constEstimator(7), 0)
	schedule, err := opt.Optimize(context.Background(), pool, depot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(schedule.AM) != 3 || len(schedule.PM) != 2 || len(schedule.Unscheduled) != 0 {
		t.Fatalf("unexpected partition: AM=%d PM=%d unscheduled=%d",
			len(schedule.AM), len(schedule.PM), len(schedule.Unscheduled))
	}

	for _, s := range schedule.AM {
		if s.Slot != domain.SlotAM {
			t.Errorf("AM list contains %s with slot %s", s.ID, s.Slot)
		}
	}
	for _, s := range schedule.PM {
		if s.Slot != domain.SlotPM {
			t.Errorf("PM list contains %s with slot %s", s.ID, s.Slot)
		}
	}

	// Equal travel times everywhere, so selection falls back to ID order.
	wantAM := []string{"A1", "A2", "A3"}
	for i, s := range schedule.AM {
		if s.ID != wantAM[i] {
			t.Errorf("AM[%d] = %s, want %s", i, s.ID, wantAM[i])
		}
	}

	for _, half := range [][]domain.ScheduledStop{schedule.AM, schedule.PM} {
		for i := 1; i < len(half); i++ {
			prevArrival := domain.ToMinutes(half[i-1].ETA)
			arrival := domain.ToMinutes(half[i].ETA)
			if arrival < prevArrival {
				t.Errorf("arrival times decrease: %s before %s", half[i-1].ETA, half[i].ETA)
			}
			finish := prevArrival + half[i-1].VisitDuration()
			if finish+half[i].TravelMinutes > arrival {
				t.Errorf("double booking between %s and %s", half[i-1].ID, half[i].ID)
			}
		}
	}
}

func TestOptimizeEstimatorFallback(t *testing.T) {
	depot := domain.Coordinates{Lat: 24.0, Lng: 120.0}
	pool := []domain.VisitItem{
		{ID: "A1", Coord: domain.Coordinates{Lat: 24.01, Lng: 120.01}, Slot: domain.SlotAM},
	}

	opt := NewRouteOptimizer(travel.FailingTravelEstimator{}, 15)
	schedule, err := opt.Optimize(context.Background(), pool, depot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(schedule.AM) != 1 || schedule.AM[0].TravelMinutes != 15 {
		t.Fatalf("expected fallback travel of 15 minutes, got %+v", schedule.AM)
	}
	if schedule.AM[0].ETA != "09:15" {
		t.Errorf("eta = %q, want 09:15", schedule.AM[0].ETA)
	}
}

func TestOptimizeUnknownLocationStaysUnscheduled(t *testing.T) {
	depot := domain.Coordinates{Lat: 24.0, Lng: 120.0}
	pool := []domain.VisitItem{
		{ID: "A1", Slot: domain.SlotAM}, // no coordinates
	}

	opt := NewRouteOptimizer(constEstimator(5), 0)
	schedule, err := opt.Optimize(context.Background(), pool, depot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(schedule.Unscheduled) != 1 || schedule.Unscheduled[0].ID != "A1" {
		t.Fatalf("expected A1 unscheduled, got %+v", schedule)
	}
}

func TestOptimizeEmptyPool(t *testing.T) {
	opt := NewRouteOptimizer(constEstimator(5), 0)
	schedule, err := opt.Optimize(context.Background(), nil, domain.Coordinates{Lat: 24.0, Lng: 120.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(schedule.AM) != 0 || len(schedule.PM) != 0 || len(schedule.Unscheduled) != 0 {
		t.Fatalf("expected empty schedule, got %+v", schedule)
	}
}

func TestOptimizeHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := []domain.VisitItem{
		{ID: "A1", Coord: domain.Coordinates{Lat: 24.01, Lng: 120.01}, Slot: domain.SlotAM},
	}

	opt := NewRouteOptimizer(constEstimator(5), 0)
	if _, err := opt.Optimize(ctx, pool, domain.Coordinates{Lat: 24.0, Lng: 120.0}); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestOptimizeRejectsNegativeDuration(t *testing.T) {
	pool := []domain.VisitItem{
		{ID: "A1", Coord: domain.Coordinates{Lat: 24.01, Lng: 120.01}, Slot: domain.SlotAM, Duration: -10},
	}

	opt := NewRouteOptimizer(constEstimator(5), 0)
	if _, err := opt.Optimize(context.Background(), pool, domain.Coordinates{Lat: 24.0, Lng: 120.0}); err == nil {
		t.Fatal("expected error for negative duration")
	}
}
