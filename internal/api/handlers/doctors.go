package handlers

import (
	"log"
	"net/http"

	"homevisit-dispatch-service/internal/api/dto"
	"homevisit-dispatch-service/internal/ports"
)

type DoctorHandler struct {
	Repo ports.ScheduleRepository
}

// List returns the doctor directory.
func (h *DoctorHandler) List(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.Repo.ListDoctors(r.Context())
	if err != nil {
		log.Printf("list doctors failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListDoctorsResponse{Doctors: make([]dto.DoctorResponse, 0, len(doctors))}
	for _, d := range doctors {
		res.Doctors = append(res.Doctors, dto.DoctorResponse{
			ID:        d.ID,
			Name:      d.Name,
			Specialty: d.Specialty,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
