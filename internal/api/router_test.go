package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"homevisit-dispatch-service/internal/domain"
	"homevisit-dispatch-service/internal/events"
	"homevisit-dispatch-service/internal/ports"
)

type stubRepo struct {
	doctors      []domain.Doctor
	itineraries  map[string][]domain.Appointment
	appointments map[string]*domain.Appointment
	treated      map[string]map[string]struct{}
	patients     map[string]*domain.Patient
	requests     []domain.AppointmentRequest
	applied      []ports.ScheduleUpdate
}

func (s *stubRepo) ListDoctors(ctx context.Context) ([]domain.Doctor, error) {
	return s.doctors, nil
}

func (s *stubRepo) GetPatient(ctx context.Context, idCardNumber string) (*domain.Patient, error) {
	p, ok := s.patients[idCardNumber]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return p, nil
}

func (s *stubRepo) Itinerary(ctx context.Context, doctorID, date string) ([]domain.Appointment, error) {
	return s.itineraries[doctorID], nil
}

func (s *stubRepo) ListAppointments(ctx context.Context, date, doctorID string) ([]domain.Appointment, error) {
	return nil, nil
}

func (s *stubRepo) GetAppointment(ctx context.Context, appointmentID string) (*domain.Appointment, error) {
	a, ok := s.appointments[appointmentID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return a, nil
}

func (s *stubRepo) ListPendingRequests(ctx context.Context, specialty string) ([]domain.AppointmentRequest, error) {
	return s.requests, nil
}

func (s *stubRepo) CreateRequest(ctx context.Context, patient domain.Patient, req domain.AppointmentRequest) (string, error) {
	return "REQ-TEST", nil
}

func (s *stubRepo) ConfirmAppointment(ctx context.Context, req ports.ConfirmRequest) (string, error) {
	return "APP-TEST", nil
}

func (s *stubRepo) ApplySchedule(ctx context.Context, updates []ports.ScheduleUpdate) error {
	s.applied = updates
	return nil
}

func (s *stubRepo) TreatedDoctorIDs(ctx context.Context, patientID string) (map[string]struct{}, error) {
	return s.treated[patientID], nil
}

type stubEstimator int

func (e stubEstimator) Estimate(ctx context.Context, from, to domain.Coordinates) (int, error) {
	return int(e), nil
}

type stubGeocoder struct{}

func (stubGeocoder) Geocode(ctx context.Context, address string) (domain.Coordinates, error) {
	return domain.Coordinates{Lat: 24.14, Lng: 120.68}, nil
}

func newTestRouter(repo *stubRepo, broker events.Broker) http.Handler {
	if broker == nil {
		broker = events.NewMemoryBroker()
	}
	depot := domain.Coordinates{Lat: 24.1295, Lng: 120.6820}
	return NewRouter(repo, stubEstimator(10), stubGeocoder{}, broker, depot)
}

func TestHealthRoute(t *testing.T) {
	router := newTestRouter(&stubRepo{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestCheckAvailabilityFeasibleOnEmptyItinerary(t *testing.T) {
	repo := &stubRepo{itineraries: map[string][]domain.Appointment{}}
	router := newTestRouter(repo, nil)

	body := `{"doctor_id":"D1","date":"2026-09-01","time":"10:00","address":"somewhere"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/check-availability", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	var res struct {
		Feasible bool `json:"feasible"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !res.Feasible {
		t.Fatal("expected feasible=true for an empty itinerary")
	}
}

func TestCheckAvailabilityRejectsBadTime(t *testing.T) {
	router := newTestRouter(&stubRepo{}, nil)

	body := `{"doctor_id":"D1","date":"2026-09-01","time":"ten o'clock"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/check-availability", strings.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestFindAvailableDoctorsSkipsBusyDoctor(t *testing.T) {
	repo := &stubRepo{
		doctors: []domain.Doctor{
			{ID: "D1", Name: "陳志明", Specialty: "家醫科"},
			{ID: "D2", Name: "林美惠", Specialty: "家醫科"},
		},
		itineraries: map[string][]domain.Appointment{
			"D2": {{
				ID:       "APP-1",
				Time:     "2026-09-01 10:00",
				Duration: 30,
				Coord:    domain.Coordinates{Lat: 24.15, Lng: 120.66},
			}},
		},
	}
	router := newTestRouter(repo, nil)

	body := `{"date":"2026-09-01","time":"10:00","duration":30,"lat":24.14,"lng":120.68}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/find-available-doctors", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	var res struct {
		Available []struct {
			DoctorID string `json:"doctor_id"`
		} `json:"available"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(res.Available) != 1 || res.Available[0].DoctorID != "D1" {
		t.Fatalf("available = %+v, want only D1", res.Available)
	}
}

func TestAlternativesRanksTreatingDoctorFirst(t *testing.T) {
	repo := &stubRepo{
		doctors: []domain.Doctor{
			{ID: "D1", Name: "陳志明", Specialty: "家醫科"},
			{ID: "D2", Name: "林美惠", Specialty: "家醫科"},
			{ID: "D3", Name: "張文雄", Specialty: "家醫科"},
		},
		appointments: map[string]*domain.Appointment{
			"APP-1": {ID: "APP-1", PatientID: "P1", DoctorID: "D1"},
		},
		treated: map[string]map[string]struct{}{
			"P1": {"D3": {}},
		},
	}
	router := newTestRouter(repo, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/appointments/APP-1/alternatives", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	var res struct {
		Alternatives []struct {
			DoctorID string `json:"doctor_id"`
			Score    int    `json:"score"`
		} `json:"alternatives"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(res.Alternatives) != 2 {
		t.Fatalf("got %d alternatives, want 2 (original excluded)", len(res.Alternatives))
	}
	if res.Alternatives[0].DoctorID != "D3" || res.Alternatives[0].Score != 5 {
		t.Fatalf("first alternative = %+v, want D3 with score 5", res.Alternatives[0])
	}
}

func TestCreateRequestPublishesEvent(t *testing.T) {
	broker := events.NewMemoryBroker()
	ch := broker.Subscribe("dispatch")
	router := newTestRouter(&stubRepo{}, broker)

	body := `{
		"patient": {"id_card_number": "A123456789", "name": "王大明", "address": "臺中市中區綠川西街73號"},
		"date": "2026-09-01",
		"time_slot": "AM",
		"specialty": "家醫科"
	}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/appointment-requests", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}

	select {
	case evt := <-ch:
		if evt.Type != "new-request" {
			t.Fatalf("event type = %q, want new-request", evt.Type)
		}
		if evt.Data["request_id"] != "REQ-TEST" {
			t.Fatalf("bad event payload: %+v", evt.Data)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("no event published")
	}
}

func TestBatchUpdateRequiresUpdates(t *testing.T) {
	router := newTestRouter(&stubRepo{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/appointments/batch-update", strings.NewReader(`{"updates":[]}`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestBatchUpdateAppliesAndAnnounces(t *testing.T) {
	broker := events.NewMemoryBroker()
	ch := broker.Subscribe("dispatch")
	repo := &stubRepo{}
	router := newTestRouter(repo, broker)

	body := `{"updates":[{"appointment_id":"APP-1","priority":1,"time":"2026-09-01 09:30"}]}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/appointments/batch-update", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if len(repo.applied) != 1 || repo.applied[0].AppointmentID != "APP-1" {
		t.Fatalf("applied = %+v, want one update for APP-1", repo.applied)
	}

	select {
	case evt := <-ch:
		if evt.Type != "schedule-updated" {
			t.Fatalf("event type = %q, want schedule-updated", evt.Type)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("no event published")
	}
}
