package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"homevisit-dispatch-service/internal/domain"
	"homevisit-dispatch-service/internal/platform/obs"
	"homevisit-dispatch-service/internal/ports"
)

// FeasibilityMode selects the conflict-detection policy.
type FeasibilityMode string

const (
	// ModePrecise scans itinerary gaps and pads both boundaries with routed
	// travel times from the estimator.
	ModePrecise FeasibilityMode = "precise"
	// ModeApproximate converts great-circle distance to a travel buffer via a
	// fixed average speed and checks per-stop window overlap.
	ModeApproximate FeasibilityMode = "approximate"
)

// DefaultAvgSpeedKmPerMinute is the assumed driving speed for approximate
// buffers (roughly 40 km/h).
const DefaultAvgSpeedKmPerMinute = 0.67

// Candidate is the visit being tested against an existing itinerary.
type Candidate struct {
	Coord        domain.Coordinates
	StartMinutes int
	Duration     int // minutes
}

// FeasibilityChecker decides whether a candidate visit fits a doctor's
// existing itinerary. Both modes share one contract so callers never depend
// on the policy.
type FeasibilityChecker struct {
	mode            FeasibilityMode
	estimator       ports.TravelEstimator
	fallbackMinutes int
	avgSpeed        float64
}

func NewFeasibilityChecker(mode FeasibilityMode, estimator ports.TravelEstimator, fallbackMinutes int) *FeasibilityChecker {
	if fallbackMinutes <= 0 {
		fallbackMinutes = DefaultFallbackTravelMinutes
	}
	return &FeasibilityChecker{
		mode:            mode,
		estimator:       estimator,
		fallbackMinutes: fallbackMinutes,
		avgSpeed:        DefaultAvgSpeedKmPerMinute,
	}
}

// Check reports whether the candidate fits the itinerary. An exhausted search
// is a negative result with a reason, never an error; errors are reserved for
// contract violations (bad duration, cancelled context).
func (f *FeasibilityChecker) Check(
	ctx context.Context,
	itinerary []domain.Appointment,
	cand Candidate,
) (_ domain.CandidateAssignment, err error) {
	defer obs.Time(ctx, "feasibility.Check")(&err)

	if cand.Duration <= 0 {
		return domain.CandidateAssignment{}, fmt.Errorf("check feasibility: duration must be positive, got %d", cand.Duration)
	}
	if err := ctx.Err(); err != nil {
		return domain.CandidateAssignment{}, fmt.Errorf("check feasibility: %w", err)
	}

	// Unknown locations fail closed: without coordinates no travel buffer can
	// be computed, so the slot is not assumed safe.
	if !cand.Coord.Valid() {
		return domain.CandidateAssignment{Feasible: false, Reason: "patient location is unknown"}, nil
	}
	for _, appt := range itinerary {
		if !appt.Coord.Valid() {
			return domain.CandidateAssignment{
				Feasible: false,
				Reason:   fmt.Sprintf("scheduled visit %s has no known location", appt.ID),
			}, nil
		}
	}

	switch f.mode {
	case ModeApproximate:
		return f.checkApproximate(itinerary, cand), nil
	default:
		return f.checkPrecise(ctx, itinerary, cand)
	}
}

// checkPrecise scans the gaps between consecutive stops (including the
// virtual before-first and after-last gaps) in itinerary order; the first gap
// passing both the time-window and travel-padded tests wins.
func (f *FeasibilityChecker) checkPrecise(
	ctx context.Context,
	itinerary []domain.Appointment,
	cand Candidate,
) (domain.CandidateAssignment, error) {
	candEnd := cand.StartMinutes + cand.Duration

	for i := 0; i <= len(itinerary); i++ {
		if err := ctx.Err(); err != nil {
			return domain.CandidateAssignment{}, fmt.Errorf("check feasibility: %w", err)
		}

		var prev, next *domain.Appointment
		if i > 0 {
			prev = &itinerary[i-1]
		}
		if i < len(itinerary) {
			next = &itinerary[i]
		}

		prevEnd := math.MinInt32
		if prev != nil {
			prevEnd = prev.EndMinutes()
		}
		nextStart := math.MaxInt32
		if next != nil {
			nextStart = next.StartMinutes()
		}

		if cand.StartMinutes < prevEnd || candEnd > nextStart {
			continue
		}

		fromPrev, toNext := f.gapTravel(ctx, prev, next, cand.Coord)

		if prevEnd+fromPrev <= cand.StartMinutes && candEnd+toNext <= nextStart {
			return domain.CandidateAssignment{Feasible: true, TravelMinutes: fromPrev}, nil
		}
	}

	return domain.CandidateAssignment{
		Feasible: false,
		Reason:   "no gap in the itinerary fits the visit once travel time is added",
	}, nil
}

// gapTravel fetches both travel legs of a gap concurrently. Estimator
// failures degrade to the fallback duration.
func (f *FeasibilityChecker) gapTravel(
	ctx context.Context,
	prev, next *domain.Appointment,
	cand domain.Coordinates,
) (fromPrev, toNext int) {
	var wg sync.WaitGroup

	if prev != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := f.estimator.Estimate(ctx, prev.Coord, cand)
			if err != nil {
				m = f.fallbackMinutes
			}
			fromPrev = m
		}()
	}
	if next != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := f.estimator.Estimate(ctx, cand, next.Coord)
			if err != nil {
				m = f.fallbackMinutes
			}
			toNext = m
		}()
	}

	wg.Wait()
	return fromPrev, toNext
}

// checkApproximate pads every stop's window by a distance-derived buffer and
// reports the first overlap.
func (f *FeasibilityChecker) checkApproximate(
	itinerary []domain.Appointment,
	cand Candidate,
) domain.CandidateAssignment {
	candEnd := cand.StartMinutes + cand.Duration

	for _, appt := range itinerary {
		buffer := int(math.Ceil(cand.Coord.DistanceKm(appt.Coord) / f.avgSpeed))
		safeStart := appt.StartMinutes() - buffer
		safeEnd := appt.EndMinutes() + buffer

		if cand.StartMinutes < safeEnd && candEnd > safeStart {
			return domain.CandidateAssignment{
				Feasible: false,
				Reason:   fmt.Sprintf("time conflict: requires a %d minute travel buffer", buffer),
			}
		}
	}

	return domain.CandidateAssignment{Feasible: true}
}

// DoctorItinerary pairs a doctor with their booked visits for the search date.
type DoctorItinerary struct {
	Doctor    domain.Doctor
	Itinerary []domain.Appointment
}

// RankDoctors checks the candidate against every doctor's itinerary and
// returns the feasible ones ordered by insertion travel cost. Doctors with an
// empty itinerary cost zero and naturally rank first.
func (f *FeasibilityChecker) RankDoctors(
	ctx context.Context,
	doctors []DoctorItinerary,
	cand Candidate,
) ([]domain.CandidateAssignment, error) {
	if len(doctors) == 0 {
		return []domain.CandidateAssignment{}, nil
	}

	ranked := make([]domain.CandidateAssignment, 0, len(doctors))
	for _, d := range doctors {
		result, err := f.Check(ctx, d.Itinerary, cand)
		if err != nil {
			return nil, fmt.Errorf("rank doctors: doctor %s: %w", d.Doctor.ID, err)
		}
		if !result.Feasible {
			continue
		}
		result.DoctorID = d.Doctor.ID
		result.DoctorName = d.Doctor.Name
		ranked = append(ranked, result)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].TravelMinutes != ranked[j].TravelMinutes {
			return ranked[i].TravelMinutes < ranked[j].TravelMinutes
		}
		return ranked[i].DoctorID < ranked[j].DoctorID
	})

	return ranked, nil
}
