package domain

// Doctor as stored: identity plus the specialty tag requests are matched on.
type Doctor struct {
	ID        string
	Name      string
	Specialty string
}

// Patient as stored. Coordinates may be zero when the address never geocoded.
type Patient struct {
	IDCardNumber string
	Name         string
	Age          int
	Gender       string
	BloodType    string
	RHType       string
	Address      string
	Phone        string
	Coord        Coordinates
}

// Appointment is a booked visit on a doctor's itinerary. Time is the stored
// clock string ("YYYY-MM-DD HH:MM"); Coord is the patient's visit location.
type Appointment struct {
	ID          string
	PatientID   string
	PatientName string
	DoctorID    string
	Time        string
	Duration    int
	Status      string
	Priority    int
	Symptoms    string
	Coord       Coordinates
}

// StartMinutes returns the appointment's start as minutes since midnight.
func (a Appointment) StartMinutes() int { return ToMinutes(a.Time) }

// EndMinutes returns the appointment's end as minutes since midnight.
func (a Appointment) EndMinutes() int {
	d := a.Duration
	if d <= 0 {
		d = DefaultVisitDuration
	}
	return a.StartMinutes() + d
}

// AppointmentRequest is a pending home-visit request awaiting dispatch.
type AppointmentRequest struct {
	ID        string
	PatientID string
	Date      string
	TimeSlot  Slot
	Specialty string
	Symptoms  string
	Status    string
	CreatedAt string
}

// CandidateAssignment is the feasibility checker's verdict for one doctor.
// TravelMinutes is the insertion cost used to rank doctors in a multi-doctor
// search; it is meaningful only when Feasible.
type CandidateAssignment struct {
	DoctorID      string
	DoctorName    string
	Feasible      bool
	Reason        string
	TravelMinutes int
}

// RecommendationEntry pairs a candidate doctor with a historical-treatment
// affinity score.
type RecommendationEntry struct {
	Doctor Doctor
	Score  int
}
