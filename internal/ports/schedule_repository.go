package ports

import (
	"context"
	"errors"

	"homevisit-dispatch-service/internal/domain"
)

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = errors.New("not found")

// ScheduleUpdate carries one row of a manual reorder write-back.
type ScheduleUpdate struct {
	AppointmentID string
	Priority      int
	Time          string // "YYYY-MM-DD HH:MM"
}

// ConfirmRequest turns a pending request into a booked appointment.
type ConfirmRequest struct {
	RequestID string
	DoctorID  string
	Date      string
	TimeSlot  string // "HH:MM"
	Priority  int
}

// Port: the persistent store boundary. The core algorithms never touch it;
// handlers load entities through it, invoke the core, and persist results.
type ScheduleRepository interface {
	ListDoctors(ctx context.Context) ([]domain.Doctor, error)
	GetPatient(ctx context.Context, idCardNumber string) (*domain.Patient, error)

	// Itinerary returns a doctor's booked visits for one date, ordered by time.
	Itinerary(ctx context.Context, doctorID, date string) ([]domain.Appointment, error)

	ListAppointments(ctx context.Context, date, doctorID string) ([]domain.Appointment, error)
	GetAppointment(ctx context.Context, appointmentID string) (*domain.Appointment, error)

	ListPendingRequests(ctx context.Context, specialty string) ([]domain.AppointmentRequest, error)
	CreateRequest(ctx context.Context, patient domain.Patient, req domain.AppointmentRequest) (string, error)
	ConfirmAppointment(ctx context.Context, req ConfirmRequest) (string, error)

	// ApplySchedule persists priorities and times after a manual reorder.
	ApplySchedule(ctx context.Context, updates []ScheduleUpdate) error

	// TreatedDoctorIDs returns the doctors that historically treated a patient.
	TreatedDoctorIDs(ctx context.Context, patientID string) (map[string]struct{}, error)
}
