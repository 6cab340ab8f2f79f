package services

import (
	"context"
	"testing"

	"homevisit-dispatch-service/internal/adapters/travel"
	"homevisit-dispatch-service/internal/domain"
)

func TestResequenceKeepsGivenOrder(t *testing.T) {
	depot := domain.Coordinates{Lat: 24.0, Lng: 120.0}
	a := domain.Coordinates{Lat: 24.01, Lng: 120.01}
	b := domain.Coordinates{Lat: 24.02, Lng: 120.02}

	estimator := travel.NewMockTravelEstimator([]travel.MockLeg{
		{From: depot, To: b, Minutes: 25},
		{From: b, To: a, Minutes: 10},
	})

	// B deliberately before A: a manual reorder is re-timed, never reordered.
	items := []domain.VisitItem{
		{ID: "B", Coord: b},
		{ID: "A", Coord: a},
	}

	opt := NewRouteOptimizer(estimator, 0)
	stops, err := opt.Resequence(context.Background(), items, "09:00", depot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(stops) != 2 {
		t.Fatalf("expected 2 stops, got %d", len(stops))
	}
	if stops[0].ID != "B" || stops[1].ID != "A" {
		t.Fatalf("order changed: [%s %s]", stops[0].ID, stops[1].ID)
	}
	if stops[0].ETA != "09:25" {
		t.Errorf("B eta = %q, want 09:25", stops[0].ETA)
	}
	// 09:25 arrival + 30 visit + 10 travel.
	if stops[1].ETA != "10:05" {
		t.Errorf("A eta = %q, want 10:05", stops[1].ETA)
	}
	if stops[0].Priority != 1 || stops[1].Priority != 2 {
		t.Errorf("priorities = %d/%d, want 1/2", stops[0].Priority, stops[1].Priority)
	}
}

func TestResequenceIdempotent(t *testing.T) {
	depot := domain.Coordinates{Lat: 24.0, Lng: 120.0}
	items := []domain.VisitItem{
		{ID: "A", Coord: domain.Coordinates{Lat: 24.01, Lng: 120.01}},
		{ID: "B", Coord: domain.Coordinates{Lat: 24.02, Lng: 120.02}},
		{ID: "C", Coord: domain.Coordinates{Lat: 24.03, Lng: 120.03}},
	}

	opt := NewRouteOptimizer(constEstimator(9), 0)

	first, err := opt.Resequence(context.Background(), items, "10:00", depot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := opt.Resequence(context.Background(), items, "10:00", depot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range first {
		if first[i].ETA != second[i].ETA || first[i].TravelMinutes != second[i].TravelMinutes {
			t.Fatalf("run mismatch at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

// Feeding the optimizer's AM output back through Resequence with the same
// start time must reproduce the same arrival times.
func TestResequenceMatchesOptimizer(t *testing.T) {
	depot := domain.Coordinates{Lat: 24.129540, Lng: 120.682038}
	r1 := domain.Coordinates{Lat: 24.138260, Lng: 120.684192}
	r2 := domain.Coordinates{Lat: 24.151943, Lng: 120.664182}

	estimator := travel.NewMockTravelEstimator([]travel.MockLeg{
		{From: depot, To: r1, Minutes: 10},
		{From: depot, To: r2, Minutes: 15},
		{From: r1, To: r2, Minutes: 5},
	})

	pool := []domain.VisitItem{
		{ID: "R1", Coord: r1, Slot: domain.SlotAM},
		{ID: "R2", Coord: r2, Slot: domain.SlotAM},
	}

	opt := NewRouteOptimizer(estimator, 0)
	schedule, err := opt.Optimize(context.Background(), pool, depot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ordered := make([]domain.VisitItem, 0, len(schedule.AM))
	for _, s := range schedule.AM {
		ordered = append(ordered, s.VisitItem)
	}

	stops, err := opt.Resequence(context.Background(), ordered, "09:00", depot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range stops {
		if stops[i].ETA != schedule.AM[i].ETA {
			t.Errorf("stop %d eta = %q, optimizer said %q", i, stops[i].ETA, schedule.AM[i].ETA)
		}
	}
}
