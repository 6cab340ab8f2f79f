package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"homevisit-dispatch-service/internal/domain"
	"homevisit-dispatch-service/internal/ports"
)

// Postgres-backed implementation of the ScheduleRepository port.
type PostgresScheduleRepository struct{ DB *sql.DB }

func NewPostgresScheduleRepository(db *sql.DB) *PostgresScheduleRepository {
	return &PostgresScheduleRepository{DB: db}
}

func (s *PostgresScheduleRepository) ListDoctors(ctx context.Context) ([]domain.Doctor, error) {
	if s.DB == nil {
		return nil, errors.New("schedule repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, name, specialty
		FROM doctors
		ORDER BY id;`)
	if err != nil {
		return nil, fmt.Errorf("list doctors: query doctors table: %w", err)
	}
	defer rows.Close()

	doctors := make([]domain.Doctor, 0, 16)
	for rows.Next() {
		var d domain.Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Specialty); err != nil {
			return nil, fmt.Errorf("list doctors: scan row: %w", err)
		}
		doctors = append(doctors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list doctors: row iteration: %w", err)
	}

	return doctors, nil
}

func (s *PostgresScheduleRepository) GetPatient(ctx context.Context, idCardNumber string) (*domain.Patient, error) {
	if s.DB == nil {
		return nil, errors.New("schedule repository: DB is nil")
	}

	idCardNumber = strings.ToUpper(strings.TrimSpace(idCardNumber))

	var (
		p   domain.Patient
		age sql.NullInt64
		lat sql.NullFloat64
		lng sql.NullFloat64
	)
	err := s.DB.QueryRowContext(ctx, `
		SELECT id_card_number, name, age, gender, blood_type, rh_type, address, phone, lat, lng
		FROM patients
		WHERE id_card_number = $1;`, idCardNumber).
		Scan(&p.IDCardNumber, &p.Name, &age, &p.Gender, &p.BloodType, &p.RHType, &p.Address, &p.Phone, &lat, &lng)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("get patient %q: %w", idCardNumber, ports.ErrNotFound)
	case err != nil:
		return nil, fmt.Errorf("get patient %q: %w", idCardNumber, err)
	}

	p.Age = int(age.Int64)
	if lat.Valid && lng.Valid {
		p.Coord = domain.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
	}

	return &p, nil
}

const appointmentColumns = `
	a.id, a.patient_id, p.name, a.doctor_id, a.visit_time, a.duration,
	a.status, a.priority, a.symptoms, p.lat, p.lng`

func scanAppointment(rows interface{ Scan(...any) error }) (domain.Appointment, error) {
	var (
		a   domain.Appointment
		lat sql.NullFloat64
		lng sql.NullFloat64
	)
	err := rows.Scan(&a.ID, &a.PatientID, &a.PatientName, &a.DoctorID, &a.Time,
		&a.Duration, &a.Status, &a.Priority, &a.Symptoms, &lat, &lng)
	if err != nil {
		return domain.Appointment{}, err
	}
	if lat.Valid && lng.Valid {
		a.Coord = domain.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
	}
	return a, nil
}

// Itinerary returns a doctor's booked visits for one date, ordered by time.
func (s *PostgresScheduleRepository) Itinerary(ctx context.Context, doctorID, date string) ([]domain.Appointment, error) {
	if s.DB == nil {
		return nil, errors.New("schedule repository: DB is nil")
	}

	q := `
		SELECT ` + appointmentColumns + `
		FROM appointments a
		JOIN patients p ON p.id_card_number = a.patient_id
		WHERE a.doctor_id = $1`
	args := []any{doctorID}
	if date != "" {
		q += ` AND a.visit_time LIKE $2 || '%'`
		args = append(args, date)
	}
	q += ` ORDER BY a.visit_time;`

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("itinerary for doctor %q: %w", doctorID, err)
	}
	defer rows.Close()

	appts := make([]domain.Appointment, 0, 16)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("itinerary for doctor %q: scan row: %w", doctorID, err)
		}
		appts = append(appts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("itinerary for doctor %q: row iteration: %w", doctorID, err)
	}

	return appts, nil
}

func (s *PostgresScheduleRepository) ListAppointments(ctx context.Context, date, doctorID string) ([]domain.Appointment, error) {
	if s.DB == nil {
		return nil, errors.New("schedule repository: DB is nil")
	}

	q := `
		SELECT ` + appointmentColumns + `
		FROM appointments a
		JOIN patients p ON p.id_card_number = a.patient_id
		WHERE 1=1`
	args := []any{}
	if date != "" {
		args = append(args, date)
		q += fmt.Sprintf(` AND a.visit_time LIKE $%d || '%%'`, len(args))
	}
	if doctorID != "" {
		args = append(args, doctorID)
		q += fmt.Sprintf(` AND a.doctor_id = $%d`, len(args))
	}
	q += ` ORDER BY a.visit_time;`

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	appts := make([]domain.Appointment, 0, 32)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("list appointments: scan row: %w", err)
		}
		appts = append(appts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list appointments: row iteration: %w", err)
	}

	return appts, nil
}

func (s *PostgresScheduleRepository) GetAppointment(ctx context.Context, appointmentID string) (*domain.Appointment, error) {
	if s.DB == nil {
		return nil, errors.New("schedule repository: DB is nil")
	}

	row := s.DB.QueryRowContext(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		JOIN patients p ON p.id_card_number = a.patient_id
		WHERE a.id = $1;`, appointmentID)

	a, err := scanAppointment(row)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("get appointment %q: %w", appointmentID, ports.ErrNotFound)
	case err != nil:
		return nil, fmt.Errorf("get appointment %q: %w", appointmentID, err)
	}

	return &a, nil
}

func (s *PostgresScheduleRepository) ListPendingRequests(ctx context.Context, specialty string) ([]domain.AppointmentRequest, error) {
	if s.DB == nil {
		return nil, errors.New("schedule repository: DB is nil")
	}

	q := `
		SELECT id, patient_id, visit_date, time_slot, specialty, symptoms, status, created_at::text
		FROM appointment_requests
		WHERE status = 'PENDING'`
	args := []any{}
	if specialty != "" {
		args = append(args, specialty)
		q += ` AND specialty = $1`
	}
	q += ` ORDER BY created_at DESC;`

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	defer rows.Close()

	reqs := make([]domain.AppointmentRequest, 0, 16)
	for rows.Next() {
		var r domain.AppointmentRequest
		var slot string
		if err := rows.Scan(&r.ID, &r.PatientID, &r.Date, &slot, &r.Specialty, &r.Symptoms, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("list pending requests: scan row: %w", err)
		}
		r.TimeSlot = domain.Slot(slot)
		reqs = append(reqs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pending requests: row iteration: %w", err)
	}

	return reqs, nil
}

// CreateRequest upserts the patient record and files a pending request.
func (s *PostgresScheduleRepository) CreateRequest(ctx context.Context, patient domain.Patient, req domain.AppointmentRequest) (string, error) {
	if s.DB == nil {
		return "", errors.New("schedule repository: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("create request: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	patientID := strings.ToUpper(strings.TrimSpace(patient.IDCardNumber))

	var lat, lng any
	if patient.Coord.Valid() {
		lat, lng = patient.Coord.Lat, patient.Coord.Lng
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO patients (id_card_number, name, age, gender, blood_type, rh_type, address, phone, lat, lng)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id_card_number) DO UPDATE SET
			name = EXCLUDED.name, age = EXCLUDED.age, gender = EXCLUDED.gender,
			blood_type = EXCLUDED.blood_type, rh_type = EXCLUDED.rh_type,
			address = EXCLUDED.address, phone = EXCLUDED.phone,
			lat = EXCLUDED.lat, lng = EXCLUDED.lng;`,
		patientID, patient.Name, patient.Age, patient.Gender,
		patient.BloodType, patient.RHType, patient.Address, patient.Phone, lat, lng)
	if err != nil {
		return "", fmt.Errorf("create request: upsert patient %q: %w", patientID, err)
	}

	requestID := "REQ-" + uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO appointment_requests (id, patient_id, visit_date, time_slot, specialty, symptoms)
		VALUES ($1, $2, $3, $4, $5, $6);`,
		requestID, patientID, req.Date, string(req.TimeSlot), req.Specialty, req.Symptoms)
	if err != nil {
		return "", fmt.Errorf("create request: insert request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("create request: commit tx: %w", err)
	}

	return requestID, nil
}

// ConfirmAppointment books a pending request with a doctor and removes the
// request, mirroring the dispatcher's confirm action.
func (s *PostgresScheduleRepository) ConfirmAppointment(ctx context.Context, req ports.ConfirmRequest) (string, error) {
	if s.DB == nil {
		return "", errors.New("schedule repository: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("confirm appointment: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var patientID, symptoms string
	err = tx.QueryRowContext(ctx, `
		SELECT patient_id, symptoms
		FROM appointment_requests
		WHERE id = $1;`, req.RequestID).Scan(&patientID, &symptoms)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", fmt.Errorf("confirm appointment: request %q: %w", req.RequestID, ports.ErrNotFound)
	case err != nil:
		return "", fmt.Errorf("confirm appointment: load request %q: %w", req.RequestID, err)
	}

	priority := req.Priority
	if priority <= 0 {
		priority = 3
	}

	appointmentID := "APP-" + uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, visit_time, duration, status, priority, symptoms)
		VALUES ($1, $2, $3, $4, $5, 'Booked', $6, $7);`,
		appointmentID, patientID, req.DoctorID, req.Date+" "+req.TimeSlot,
		domain.DefaultVisitDuration, priority, symptoms)
	if err != nil {
		return "", fmt.Errorf("confirm appointment: insert appointment: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM appointment_requests WHERE id = $1;`, req.RequestID); err != nil {
		return "", fmt.Errorf("confirm appointment: delete request %q: %w", req.RequestID, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("confirm appointment: commit tx: %w", err)
	}

	return appointmentID, nil
}

// ApplySchedule persists priorities and times after a manual reorder.
func (s *PostgresScheduleRepository) ApplySchedule(ctx context.Context, updates []ports.ScheduleUpdate) error {
	if s.DB == nil {
		return errors.New("schedule repository: DB is nil")
	}
	if len(updates) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("apply schedule: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE appointments
		SET priority = $2, visit_time = $3
		WHERE id = $1;`)
	if err != nil {
		return fmt.Errorf("apply schedule: prepare update: %w", err)
	}
	defer stmt.Close()

	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, u.AppointmentID, u.Priority, u.Time); err != nil {
			return fmt.Errorf("apply schedule: update appointment %q: %w", u.AppointmentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("apply schedule: commit tx: %w", err)
	}

	return nil
}

// TreatedDoctorIDs returns the set of doctors that historically treated a
// patient.
func (s *PostgresScheduleRepository) TreatedDoctorIDs(ctx context.Context, patientID string) (map[string]struct{}, error) {
	if s.DB == nil {
		return nil, errors.New("schedule repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT doctor_id
		FROM treatment_history
		WHERE patient_id = $1;`, patientID)
	if err != nil {
		return nil, fmt.Errorf("treated doctors for %q: %w", patientID, err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("treated doctors for %q: scan row: %w", patientID, err)
		}
		out[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("treated doctors for %q: row iteration: %w", patientID, err)
	}

	return out, nil
}
