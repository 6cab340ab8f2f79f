package handlers

import (
	"log"
	"net/http"
	"strings"

	"homevisit-dispatch-service/internal/api/dto"
	"homevisit-dispatch-service/internal/domain"
	"homevisit-dispatch-service/internal/events"
	"homevisit-dispatch-service/internal/ports"
	"homevisit-dispatch-service/internal/services"
)

type ScheduleHandler struct {
	Repo      ports.ScheduleRepository
	Optimizer *services.RouteOptimizer
	Geocoder  ports.Geocoder
	Broker    events.Broker
	Depot     domain.Coordinates
}

// Optimize builds a doctor's day from pending requests plus already-booked
// visits and returns the routed AM/PM lists. Nothing is persisted: the
// dispatcher reviews the proposal and commits it via batch-update.
func (h *ScheduleHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	var req dto.OptimizeScheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Date) == "" {
		writeError(w, r, http.StatusBadRequest, "date is required")
		return
	}

	pool, err := h.buildPool(r, req)
	if err != nil {
		log.Printf("optimize schedule failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	schedule, err := h.Optimizer.Optimize(r.Context(), pool, h.Depot)
	if err != nil {
		log.Printf("optimize schedule failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ScheduleResponse{
		AM:          stopsToDTO(schedule.AM),
		PM:          stopsToDTO(schedule.PM),
		Unscheduled: make([]dto.UnscheduledItemResponse, 0, len(schedule.Unscheduled)),
	}
	for _, item := range schedule.Unscheduled {
		res.Unscheduled = append(res.Unscheduled, dto.UnscheduledItemResponse{
			ID:      item.ID,
			Kind:    string(item.Kind),
			Name:    item.Name,
			Address: item.Address,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

// buildPool loads the day's schedulable items: pending requests for the date
// (optionally narrowed by specialty) and, when a doctor is given, their booked
// visits. Requests whose address never geocoded keep zero coordinates and
// surface as unscheduled.
func (h *ScheduleHandler) buildPool(r *http.Request, req dto.OptimizeScheduleRequest) ([]domain.VisitItem, error) {
	ctx := r.Context()

	pending, err := h.Repo.ListPendingRequests(ctx, req.Specialty)
	if err != nil {
		return nil, err
	}

	pool := make([]domain.VisitItem, 0, len(pending))
	for _, pr := range pending {
		if pr.Date != req.Date {
			continue
		}

		patient, err := h.Repo.GetPatient(ctx, pr.PatientID)
		if err != nil {
			log.Printf("optimize schedule: skip request %s: %v", pr.ID, err)
			continue
		}

		coord := patient.Coord
		if !coord.Valid() && strings.TrimSpace(patient.Address) != "" {
			coord, err = h.Geocoder.Geocode(ctx, patient.Address)
			if err != nil {
				log.Printf("optimize schedule: geocode %s: %v", pr.ID, err)
				coord = domain.Coordinates{}
			}
		}

		pool = append(pool, domain.VisitItem{
			ID:        pr.ID,
			Kind:      domain.KindNewRequest,
			PatientID: pr.PatientID,
			Name:      patient.Name,
			Address:   patient.Address,
			Coord:     coord,
			Slot:      pr.TimeSlot,
			Symptoms:  pr.Symptoms,
		})
	}

	if req.DoctorID != "" {
		appts, err := h.Repo.Itinerary(ctx, req.DoctorID, req.Date)
		if err != nil {
			return nil, err
		}
		for _, a := range appts {
			pool = append(pool, domain.VisitItem{
				ID:        a.ID,
				Kind:      domain.KindExistingVisit,
				PatientID: a.PatientID,
				Name:      a.PatientName,
				Coord:     a.Coord,
				Slot:      domain.SlotOf(a.StartMinutes()),
				Duration:  a.Duration,
				Symptoms:  a.Symptoms,
			})
		}
	}

	return pool, nil
}

// Recalculate re-times a manually reordered stop list without reordering it.
func (h *ScheduleHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	var req dto.RecalculateTimingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.StartTime != "" {
		if _, err := domain.ParseClock(req.StartTime); err != nil {
			writeError(w, r, http.StatusBadRequest, "start_time must be HH:MM")
			return
		}
	}

	items := make([]domain.VisitItem, 0, len(req.Items))
	for _, it := range req.Items {
		if strings.TrimSpace(it.ID) == "" {
			writeError(w, r, http.StatusBadRequest, "every item needs an id")
			return
		}
		items = append(items, domain.VisitItem{
			ID:       it.ID,
			Name:     it.Name,
			Duration: it.Duration,
			Coord:    domain.Coordinates{Lat: it.Lat, Lng: it.Lng},
		})
	}

	stops, err := h.Optimizer.Resequence(r.Context(), items, req.StartTime, h.Depot)
	if err != nil {
		log.Printf("recalculate timings failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.RecalculateTimingsResponse{Stops: stopsToDTO(stops)})
}

// BatchUpdate persists a reviewed schedule: new priorities and visit times.
func (h *ScheduleHandler) BatchUpdate(w http.ResponseWriter, r *http.Request) {
	var req dto.BatchUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if len(req.Updates) == 0 {
		writeError(w, r, http.StatusBadRequest, "updates are required")
		return
	}

	updates := make([]ports.ScheduleUpdate, 0, len(req.Updates))
	for _, u := range req.Updates {
		if strings.TrimSpace(u.AppointmentID) == "" {
			writeError(w, r, http.StatusBadRequest, "every update needs an appointment_id")
			return
		}
		if u.Time != "" {
			if _, err := domain.ParseClock(u.Time); err != nil {
				writeError(w, r, http.StatusBadRequest, "time must be YYYY-MM-DD HH:MM")
				return
			}
		}
		updates = append(updates, ports.ScheduleUpdate{
			AppointmentID: u.AppointmentID,
			Priority:      u.Priority,
			Time:          u.Time,
		})
	}

	if err := h.Repo.ApplySchedule(r.Context(), updates); err != nil {
		log.Printf("batch update failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	if h.Broker != nil {
		h.Broker.Publish("dispatch", events.Event{
			Type: "schedule-updated",
			Data: map[string]any{"count": len(updates)},
		})
	}

	writeJSON(w, r, http.StatusOK, dto.BatchUpdateResponse{Updated: len(updates)})
}

func stopsToDTO(stops []domain.ScheduledStop) []dto.ScheduledStopResponse {
	out := make([]dto.ScheduledStopResponse, 0, len(stops))
	for _, s := range stops {
		out = append(out, dto.ScheduledStopResponse{
			ID:            s.ID,
			Kind:          string(s.Kind),
			PatientID:     s.PatientID,
			Name:          s.Name,
			Address:       s.Address,
			ETA:           s.ETA,
			TravelMinutes: s.TravelMinutes,
			Priority:      s.Priority,
			Duration:      s.VisitDuration(),
		})
	}
	return out
}
