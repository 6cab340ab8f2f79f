package dto

type DoctorResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

type ListDoctorsResponse struct {
	Doctors []DoctorResponse `json:"doctors"`
}

type AppointmentResponse struct {
	ID          string `json:"id"`
	PatientID   string `json:"patient_id"`
	PatientName string `json:"patient_name"`
	DoctorID    string `json:"doctor_id"`
	Time        string `json:"time"`
	Duration    int    `json:"duration"`
	Status      string `json:"status"`
	Priority    int    `json:"priority"`
	Symptoms    string `json:"symptoms"`
}

type ListAppointmentsResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
}

type RecommendationResponse struct {
	DoctorID   string `json:"doctor_id"`
	DoctorName string `json:"doctor_name"`
	Specialty  string `json:"specialty"`
	Score      int    `json:"score"`
}

type ListRecommendationsResponse struct {
	Alternatives []RecommendationResponse `json:"alternatives"`
}

type PatientRequest struct {
	IDCardNumber string `json:"id_card_number"`
	Name         string `json:"name"`
	Age          int    `json:"age"`
	Gender       string `json:"gender"`
	BloodType    string `json:"blood_type"`
	RHType       string `json:"rh_type"`
	Address      string `json:"address"`
	Phone        string `json:"phone"`
}

type CreateRequestRequest struct {
	Patient   PatientRequest `json:"patient"`
	Date      string         `json:"date"`
	TimeSlot  string         `json:"time_slot"`
	Specialty string         `json:"specialty"`
	Symptoms  string         `json:"symptoms"`
}

type CreateRequestResponse struct {
	RequestID string `json:"request_id"`
}

type PendingRequestResponse struct {
	ID        string `json:"id"`
	PatientID string `json:"patient_id"`
	Date      string `json:"date"`
	TimeSlot  string `json:"time_slot"`
	Specialty string `json:"specialty"`
	Symptoms  string `json:"symptoms"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

type ListPendingRequestsResponse struct {
	Requests []PendingRequestResponse `json:"requests"`
}

type ConfirmAppointmentRequest struct {
	RequestID string `json:"request_id"`
	DoctorID  string `json:"doctor_id"`
	Date      string `json:"date"`
	TimeSlot  string `json:"time_slot"`
	Priority  int    `json:"priority"`
}

type ConfirmAppointmentResponse struct {
	AppointmentID string `json:"appointment_id"`
}
