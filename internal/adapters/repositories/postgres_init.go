package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// InitSchema creates the dispatch tables when missing.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS doctors (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			specialty TEXT NOT NULL DEFAULT ''
		);`,

		`CREATE TABLE IF NOT EXISTS patients (
			id_card_number TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			age INTEGER,
			gender TEXT NOT NULL DEFAULT '',
			blood_type TEXT NOT NULL DEFAULT '',
			rh_type TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			lat DOUBLE PRECISION,
			lng DOUBLE PRECISION
		);`,

		`CREATE TABLE IF NOT EXISTS appointments (
			id TEXT PRIMARY KEY,
			patient_id TEXT NOT NULL REFERENCES patients(id_card_number),
			doctor_id TEXT NOT NULL REFERENCES doctors(id),
			visit_time TEXT NOT NULL,
			duration INTEGER NOT NULL DEFAULT 30,
			status TEXT NOT NULL DEFAULT 'Booked',
			priority INTEGER NOT NULL DEFAULT 99,
			symptoms TEXT NOT NULL DEFAULT ''
		);`,

		`CREATE TABLE IF NOT EXISTS appointment_requests (
			id TEXT PRIMARY KEY,
			patient_id TEXT NOT NULL REFERENCES patients(id_card_number),
			visit_date TEXT NOT NULL,
			time_slot TEXT NOT NULL,
			specialty TEXT NOT NULL,
			symptoms TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'PENDING',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,

		`CREATE TABLE IF NOT EXISTS treatment_history (
			patient_id TEXT NOT NULL REFERENCES patients(id_card_number),
			doctor_id TEXT NOT NULL REFERENCES doctors(id),
			PRIMARY KEY (patient_id, doctor_id)
		);`,

		`CREATE TABLE IF NOT EXISTS travel_cache (
			origin TEXT NOT NULL,
			destination TEXT NOT NULL,
			travel_minutes INTEGER NOT NULL,
			PRIMARY KEY (origin, destination)
		);`,

		`CREATE TABLE IF NOT EXISTS geocode_cache (
			address TEXT PRIMARY KEY,
			lat DOUBLE PRECISION NOT NULL,
			lng DOUBLE PRECISION NOT NULL
		);`,

		`CREATE INDEX IF NOT EXISTS idx_appointments_doctor_time
		ON appointments(doctor_id, visit_time);`,

		`CREATE INDEX IF NOT EXISTS idx_requests_status_specialty
		ON appointment_requests(status, specialty);`,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type doctorSeed struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

type patientSeed struct {
	IDCardNumber string  `json:"id_card_number"`
	Name         string  `json:"name"`
	Age          int     `json:"age"`
	Gender       string  `json:"gender"`
	BloodType    string  `json:"blood_type"`
	RHType       string  `json:"rh_type"`
	Address      string  `json:"address"`
	Phone        string  `json:"phone"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
}

type historySeed struct {
	PatientID string `json:"patient_id"`
	DoctorID  string `json:"doctor_id"`
}

type seedFile struct {
	Doctors  []doctorSeed  `json:"doctors"`
	Patients []patientSeed `json:"patients"`
	History  []historySeed `json:"treatment_history"`
}

// SeedFromJSON populates doctors, patients, and treatment history from a
// JSON file for local runs.
func SeedFromJSON(db *sql.DB, jsonPath string) error {
	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed dispatch data: read %q: %w", jsonPath, err)
	}

	var data seedFile
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("seed dispatch data: parse json: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed dispatch data: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, d := range data.Doctors {
		if strings.TrimSpace(d.ID) == "" || strings.TrimSpace(d.Name) == "" {
			return fmt.Errorf("seed dispatch data: doctor at index %d: id and name are required", i)
		}
		_, err := tx.Exec(`
			INSERT INTO doctors (id, name, specialty)
			VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, specialty = EXCLUDED.specialty;`,
			d.ID, d.Name, d.Specialty)
		if err != nil {
			return fmt.Errorf("seed dispatch data: insert doctor %q: %w", d.ID, err)
		}
	}

	for i, p := range data.Patients {
		if strings.TrimSpace(p.IDCardNumber) == "" {
			return fmt.Errorf("seed dispatch data: patient at index %d: id_card_number is required", i)
		}
		_, err := tx.Exec(`
			INSERT INTO patients (id_card_number, name, age, gender, blood_type, rh_type, address, phone, lat, lng)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id_card_number) DO UPDATE SET
				name = EXCLUDED.name, age = EXCLUDED.age, gender = EXCLUDED.gender,
				blood_type = EXCLUDED.blood_type, rh_type = EXCLUDED.rh_type,
				address = EXCLUDED.address, phone = EXCLUDED.phone,
				lat = EXCLUDED.lat, lng = EXCLUDED.lng;`,
			p.IDCardNumber, p.Name, p.Age, p.Gender, p.BloodType, p.RHType, p.Address, p.Phone, p.Lat, p.Lng)
		if err != nil {
			return fmt.Errorf("seed dispatch data: insert patient %q: %w", p.IDCardNumber, err)
		}
	}

	for _, h := range data.History {
		_, err := tx.Exec(`
			INSERT INTO treatment_history (patient_id, doctor_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING;`,
			h.PatientID, h.DoctorID)
		if err != nil {
			return fmt.Errorf("seed dispatch data: insert history %s -> %s: %w", h.PatientID, h.DoctorID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed dispatch data: commit tx: %w", err)
	}

	return nil
}
