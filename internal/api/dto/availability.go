package dto

type AvailabilityRequest struct {
	DoctorID string  `json:"doctor_id"`
	Date     string  `json:"date"`
	Time     string  `json:"time"`
	Duration int     `json:"duration"`
	Address  string  `json:"address"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Mode     string  `json:"mode"`
}

type AvailabilityResponse struct {
	Feasible      bool   `json:"feasible"`
	Reason        string `json:"reason,omitempty"`
	TravelMinutes int    `json:"travel_minutes"`
}

type FindDoctorsRequest struct {
	Date      string  `json:"date"`
	Time      string  `json:"time"`
	Duration  int     `json:"duration"`
	Address   string  `json:"address"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Specialty string  `json:"specialty"`
}

type DoctorCandidateResponse struct {
	DoctorID      string `json:"doctor_id"`
	DoctorName    string `json:"doctor_name"`
	TravelMinutes int    `json:"travel_minutes"`
}

type FindDoctorsResponse struct {
	Available []DoctorCandidateResponse `json:"available"`
}
