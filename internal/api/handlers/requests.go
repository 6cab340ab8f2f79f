package handlers

import (
	"log"
	"net/http"
	"strings"

	"homevisit-dispatch-service/internal/api/dto"
	"homevisit-dispatch-service/internal/domain"
	"homevisit-dispatch-service/internal/events"
	"homevisit-dispatch-service/internal/ports"
)

type RequestHandler struct {
	Repo     ports.ScheduleRepository
	Geocoder ports.Geocoder
	Broker   events.Broker
}

// Create files a pending home-visit request. The patient's address is geocoded
// up front so later feasibility checks and optimizer runs never wait on the
// geocoder; an unresolvable address is stored without coordinates.
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRequestRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Patient.IDCardNumber) == "" || strings.TrimSpace(req.Patient.Name) == "" {
		writeError(w, r, http.StatusBadRequest, "patient id_card_number and name are required")
		return
	}
	if strings.TrimSpace(req.Date) == "" {
		writeError(w, r, http.StatusBadRequest, "date is required")
		return
	}

	slot := domain.Slot(strings.ToUpper(strings.TrimSpace(req.TimeSlot)))
	if slot != domain.SlotAM && slot != domain.SlotPM {
		writeError(w, r, http.StatusBadRequest, "time_slot must be AM or PM")
		return
	}

	patient := domain.Patient{
		IDCardNumber: req.Patient.IDCardNumber,
		Name:         req.Patient.Name,
		Age:          req.Patient.Age,
		Gender:       req.Patient.Gender,
		BloodType:    req.Patient.BloodType,
		RHType:       req.Patient.RHType,
		Address:      req.Patient.Address,
		Phone:        req.Patient.Phone,
	}

	if strings.TrimSpace(patient.Address) != "" {
		coord, err := h.Geocoder.Geocode(r.Context(), patient.Address)
		if err != nil {
			log.Printf("create request: geocode %q: %v", patient.Address, err)
		} else {
			patient.Coord = coord
		}
	}

	requestID, err := h.Repo.CreateRequest(r.Context(), patient, domain.AppointmentRequest{
		PatientID: patient.IDCardNumber,
		Date:      req.Date,
		TimeSlot:  slot,
		Specialty: req.Specialty,
		Symptoms:  req.Symptoms,
	})
	if err != nil {
		log.Printf("create request failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	if h.Broker != nil {
		h.Broker.Publish("dispatch", events.Event{
			Type: "new-request",
			Data: map[string]any{
				"request_id": requestID,
				"date":       req.Date,
				"time_slot":  string(slot),
				"specialty":  req.Specialty,
			},
		})
	}

	writeJSON(w, r, http.StatusCreated, dto.CreateRequestResponse{RequestID: requestID})
}

// List returns pending requests, optionally narrowed by specialty.
func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	specialty := r.URL.Query().Get("specialty")

	reqs, err := h.Repo.ListPendingRequests(r.Context(), specialty)
	if err != nil {
		log.Printf("list requests failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListPendingRequestsResponse{Requests: make([]dto.PendingRequestResponse, 0, len(reqs))}
	for _, pr := range reqs {
		res.Requests = append(res.Requests, dto.PendingRequestResponse{
			ID:        pr.ID,
			PatientID: pr.PatientID,
			Date:      pr.Date,
			TimeSlot:  string(pr.TimeSlot),
			Specialty: pr.Specialty,
			Symptoms:  pr.Symptoms,
			Status:    pr.Status,
			CreatedAt: pr.CreatedAt,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
