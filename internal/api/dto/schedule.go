package dto

type OptimizeScheduleRequest struct {
	DoctorID  string `json:"doctor_id"`
	Date      string `json:"date"`
	Specialty string `json:"specialty"`
}

type ScheduledStopResponse struct {
	ID            string `json:"id"`
	Kind          string `json:"kind"`
	PatientID     string `json:"patient_id"`
	Name          string `json:"name"`
	Address       string `json:"address"`
	ETA           string `json:"eta"`
	TravelMinutes int    `json:"travel_minutes"`
	Priority      int    `json:"priority"`
	Duration      int    `json:"duration"`
}

type UnscheduledItemResponse struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type ScheduleResponse struct {
	AM          []ScheduledStopResponse   `json:"am"`
	PM          []ScheduledStopResponse   `json:"pm"`
	Unscheduled []UnscheduledItemResponse `json:"unscheduled"`
}

type TimingItemRequest struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Duration int     `json:"duration"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

type RecalculateTimingsRequest struct {
	StartTime string              `json:"start_time"`
	Items     []TimingItemRequest `json:"items"`
}

type RecalculateTimingsResponse struct {
	Stops []ScheduledStopResponse `json:"stops"`
}

type ScheduleUpdateRequest struct {
	AppointmentID string `json:"appointment_id"`
	Priority      int    `json:"priority"`
	Time          string `json:"time"`
}

type BatchUpdateRequest struct {
	Updates []ScheduleUpdateRequest `json:"updates"`
}

type BatchUpdateResponse struct {
	Updated int `json:"updated"`
}
