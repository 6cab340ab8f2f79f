package api

import (
	"net/http"

	"homevisit-dispatch-service/internal/api/handlers"
	"homevisit-dispatch-service/internal/domain"
	"homevisit-dispatch-service/internal/events"
	"homevisit-dispatch-service/internal/ports"
	"homevisit-dispatch-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an
// http.Handler. This is the API composition root (handlers stay unaware of
// concrete adapters).
func NewRouter(
	repo ports.ScheduleRepository,
	estimator ports.TravelEstimator,
	geocoder ports.Geocoder,
	broker events.Broker,
	depot domain.Coordinates,
) http.Handler {
	mux := http.NewServeMux()

	optimizer := services.NewRouteOptimizer(estimator, services.DefaultFallbackTravelMinutes)

	availability := &handlers.AvailabilityHandler{
		Repo:      repo,
		Estimator: estimator,
		Geocoder:  geocoder,
		Fallback:  services.DefaultFallbackTravelMinutes,
	}
	schedule := &handlers.ScheduleHandler{
		Repo:      repo,
		Optimizer: optimizer,
		Geocoder:  geocoder,
		Broker:    broker,
		Depot:     depot,
	}
	appointments := &handlers.AppointmentHandler{Repo: repo, Broker: broker}
	requests := &handlers.RequestHandler{Repo: repo, Geocoder: geocoder, Broker: broker}
	doctors := &handlers.DoctorHandler{Repo: repo}
	eventStream := &handlers.EventsHandler{Broker: broker}

	mux.HandleFunc("GET /health", handlers.Health)
	mux.HandleFunc("GET /doctors", doctors.List)

	mux.HandleFunc("POST /check-availability", availability.Check)
	mux.HandleFunc("POST /find-available-doctors", availability.FindDoctors)

	mux.HandleFunc("POST /optimize-schedule", schedule.Optimize)
	mux.HandleFunc("POST /recalculate-timings", schedule.Recalculate)

	mux.HandleFunc("GET /appointments", appointments.List)
	mux.HandleFunc("GET /appointments/{id}/alternatives", appointments.Alternatives)
	mux.HandleFunc("POST /appointments/confirm", appointments.Confirm)
	mux.HandleFunc("POST /appointments/batch-update", schedule.BatchUpdate)

	mux.HandleFunc("POST /appointment-requests", requests.Create)
	mux.HandleFunc("GET /appointment-requests", requests.List)

	mux.HandleFunc("GET /events", eventStream.Stream)

	return loggingMiddleware(mux)
}
