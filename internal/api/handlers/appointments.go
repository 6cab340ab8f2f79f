package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"homevisit-dispatch-service/internal/api/dto"
	"homevisit-dispatch-service/internal/domain"
	"homevisit-dispatch-service/internal/events"
	"homevisit-dispatch-service/internal/ports"
	"homevisit-dispatch-service/internal/services"
)

type AppointmentHandler struct {
	Repo   ports.ScheduleRepository
	Broker events.Broker
}

// List returns booked appointments, optionally filtered by date and doctor.
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	doctorID := r.URL.Query().Get("doctor_id")

	appts, err := h.Repo.ListAppointments(r.Context(), date, doctorID)
	if err != nil {
		log.Printf("list appointments failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListAppointmentsResponse{Appointments: make([]dto.AppointmentResponse, 0, len(appts))}
	for _, a := range appts {
		res.Appointments = append(res.Appointments, dto.AppointmentResponse{
			ID:          a.ID,
			PatientID:   a.PatientID,
			PatientName: a.PatientName,
			DoctorID:    a.DoctorID,
			Time:        a.Time,
			Duration:    a.Duration,
			Status:      a.Status,
			Priority:    a.Priority,
			Symptoms:    a.Symptoms,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

// Confirm books a pending request with a doctor and announces the new
// appointment on the event stream.
func (h *AppointmentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req dto.ConfirmAppointmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.RequestID) == "" || strings.TrimSpace(req.DoctorID) == "" {
		writeError(w, r, http.StatusBadRequest, "request_id and doctor_id are required")
		return
	}
	if strings.TrimSpace(req.Date) == "" {
		writeError(w, r, http.StatusBadRequest, "date is required")
		return
	}
	if _, err := domain.ParseClock(req.TimeSlot); err != nil {
		writeError(w, r, http.StatusBadRequest, "time_slot must be HH:MM")
		return
	}

	appointmentID, err := h.Repo.ConfirmAppointment(r.Context(), ports.ConfirmRequest{
		RequestID: req.RequestID,
		DoctorID:  req.DoctorID,
		Date:      req.Date,
		TimeSlot:  req.TimeSlot,
		Priority:  req.Priority,
	})
	switch {
	case errors.Is(err, ports.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "request not found")
		return
	case err != nil:
		log.Printf("confirm appointment failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	if h.Broker != nil {
		h.Broker.Publish("dispatch", events.Event{
			Type: "appointment-confirmed",
			Data: map[string]any{
				"appointment_id": appointmentID,
				"doctor_id":      req.DoctorID,
				"date":           req.Date,
			},
		})
	}

	writeJSON(w, r, http.StatusCreated, dto.ConfirmAppointmentResponse{AppointmentID: appointmentID})
}

// Alternatives ranks replacement doctors for an appointment by historical
// treatment affinity, within the original doctor's specialty.
func (h *AppointmentHandler) Alternatives(w http.ResponseWriter, r *http.Request) {
	appointmentID := r.PathValue("id")

	appt, err := h.Repo.GetAppointment(r.Context(), appointmentID)
	switch {
	case errors.Is(err, ports.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "appointment not found")
		return
	case err != nil:
		log.Printf("recommend alternatives failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	doctors, err := h.Repo.ListDoctors(r.Context())
	if err != nil {
		log.Printf("recommend alternatives failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	specialty := ""
	for _, doc := range doctors {
		if doc.ID == appt.DoctorID {
			specialty = doc.Specialty
			break
		}
	}

	candidates := doctors[:0:0]
	for _, doc := range doctors {
		if specialty == "" || doc.Specialty == specialty {
			candidates = append(candidates, doc)
		}
	}

	treated, err := h.Repo.TreatedDoctorIDs(r.Context(), appt.PatientID)
	if err != nil {
		log.Printf("recommend alternatives failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	entries := services.RecommendAlternatives(appt.DoctorID, candidates, treated)

	res := dto.ListRecommendationsResponse{Alternatives: make([]dto.RecommendationResponse, 0, len(entries))}
	for _, e := range entries {
		res.Alternatives = append(res.Alternatives, dto.RecommendationResponse{
			DoctorID:   e.Doctor.ID,
			DoctorName: e.Doctor.Name,
			Specialty:  e.Doctor.Specialty,
			Score:      e.Score,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
