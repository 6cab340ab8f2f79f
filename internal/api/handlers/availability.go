package handlers

import (
	"log"
	"net/http"
	"strings"

	"homevisit-dispatch-service/internal/api/dto"
	"homevisit-dispatch-service/internal/domain"
	"homevisit-dispatch-service/internal/ports"
	"homevisit-dispatch-service/internal/services"
)

type AvailabilityHandler struct {
	Repo      ports.ScheduleRepository
	Estimator ports.TravelEstimator
	Geocoder  ports.Geocoder
	Fallback  int
}

// Check tests one visit against one doctor's itinerary. The mode field picks
// the conflict policy; approximate is the default because dispatchers call
// this on every drag in the scheduling UI.
func (h *AvailabilityHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req dto.AvailabilityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.DoctorID) == "" {
		writeError(w, r, http.StatusBadRequest, "doctor_id is required")
		return
	}
	if strings.TrimSpace(req.Date) == "" {
		writeError(w, r, http.StatusBadRequest, "date is required")
		return
	}

	start, err := domain.ParseClock(req.Time)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "time must be HH:MM")
		return
	}

	duration := req.Duration
	if duration == 0 {
		duration = domain.DefaultVisitDuration
	}
	if duration < 0 {
		writeError(w, r, http.StatusBadRequest, "duration must be positive")
		return
	}

	coord, err := h.resolveCoordinates(r, req.Lat, req.Lng, req.Address)
	if err != nil {
		log.Printf("check availability: geocode failed: %v", err)
		writeError(w, r, http.StatusBadGateway, "address could not be resolved")
		return
	}

	itinerary, err := h.Repo.Itinerary(r.Context(), req.DoctorID, req.Date)
	if err != nil {
		log.Printf("check availability failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	mode := services.ModeApproximate
	if req.Mode == string(services.ModePrecise) {
		mode = services.ModePrecise
	}

	checker := services.NewFeasibilityChecker(mode, h.Estimator, h.Fallback)
	result, err := checker.Check(r.Context(), itinerary, services.Candidate{
		Coord:        coord,
		StartMinutes: start,
		Duration:     duration,
	})
	if err != nil {
		log.Printf("check availability failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.AvailabilityResponse{
		Feasible:      result.Feasible,
		Reason:        result.Reason,
		TravelMinutes: result.TravelMinutes,
	})
}

// FindDoctors runs the precise checker against every doctor's itinerary and
// returns the feasible ones ordered by insertion travel cost.
func (h *AvailabilityHandler) FindDoctors(w http.ResponseWriter, r *http.Request) {
	var req dto.FindDoctorsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Date) == "" {
		writeError(w, r, http.StatusBadRequest, "date is required")
		return
	}

	start, err := domain.ParseClock(req.Time)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "time must be HH:MM")
		return
	}

	duration := req.Duration
	if duration == 0 {
		duration = domain.DefaultVisitDuration
	}
	if duration < 0 {
		writeError(w, r, http.StatusBadRequest, "duration must be positive")
		return
	}

	coord, err := h.resolveCoordinates(r, req.Lat, req.Lng, req.Address)
	if err != nil {
		log.Printf("find doctors: geocode failed: %v", err)
		writeError(w, r, http.StatusBadGateway, "address could not be resolved")
		return
	}

	doctors, err := h.Repo.ListDoctors(r.Context())
	if err != nil {
		log.Printf("find doctors failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	pool := make([]services.DoctorItinerary, 0, len(doctors))
	for _, doc := range doctors {
		if req.Specialty != "" && doc.Specialty != req.Specialty {
			continue
		}
		itinerary, err := h.Repo.Itinerary(r.Context(), doc.ID, req.Date)
		if err != nil {
			log.Printf("find doctors failed: %v", err)
			writeError(w, r, http.StatusInternalServerError, "internal server error")
			return
		}
		pool = append(pool, services.DoctorItinerary{Doctor: doc, Itinerary: itinerary})
	}

	checker := services.NewFeasibilityChecker(services.ModePrecise, h.Estimator, h.Fallback)
	ranked, err := checker.RankDoctors(r.Context(), pool, services.Candidate{
		Coord:        coord,
		StartMinutes: start,
		Duration:     duration,
	})
	if err != nil {
		log.Printf("find doctors failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.FindDoctorsResponse{Available: make([]dto.DoctorCandidateResponse, 0, len(ranked))}
	for _, c := range ranked {
		res.Available = append(res.Available, dto.DoctorCandidateResponse{
			DoctorID:      c.DoctorID,
			DoctorName:    c.DoctorName,
			TravelMinutes: c.TravelMinutes,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

// resolveCoordinates prefers explicit coordinates and falls back to geocoding
// the address. An unresolved address yields zero coordinates; the checker
// fails closed on those.
func (h *AvailabilityHandler) resolveCoordinates(r *http.Request, lat, lng float64, address string) (domain.Coordinates, error) {
	c := domain.Coordinates{Lat: lat, Lng: lng}
	if c.Valid() {
		return c, nil
	}
	if strings.TrimSpace(address) == "" {
		return domain.Coordinates{}, nil
	}
	return h.Geocoder.Geocode(r.Context(), address)
}
