package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"homevisit-dispatch-service/internal/adapters/cache"
	"homevisit-dispatch-service/internal/adapters/geocode"
	"homevisit-dispatch-service/internal/adapters/repositories"
	"homevisit-dispatch-service/internal/adapters/travel"
	"homevisit-dispatch-service/internal/api"
	"homevisit-dispatch-service/internal/domain"
	"homevisit-dispatch-service/internal/events"
	"homevisit-dispatch-service/internal/platform/db"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, OSRM, Nominatim, Redis) behind ports
// and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	port := getEnv("PORT", "8080")
	osrmURL := getEnv("OSRM_URL", "")
	nominatimURL := getEnv("NOMINATIM_URL", "")
	depot := domain.Coordinates{
		Lat: getEnvFloat("DEPOT_LAT", 24.12954082292789),
		Lng: getEnvFloat("DEPOT_LNG", 120.68203882648923),
	}

	ctx := context.Background()

	conn, err := db.Open(ctx, databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	// Schema init is idempotent; seeding stays in cmd/dbtool.
	if err := repositories.InitSchema(conn); err != nil {
		log.Fatal(err)
	}

	// Travel and geocode results persist across restarts to avoid repeated
	// external API calls.
	travelCache := cache.NewSQLTravelCache(conn)
	geocodeCache := cache.NewSQLGeocodeCache(conn)
	estimator := travel.NewOSRMTravelEstimator(osrmURL, travelCache)
	geocoder := geocode.NewNominatimGeocoder(nominatimURL, geocodeCache)

	broker := newBroker()
	repo := repositories.NewPostgresScheduleRepository(conn)
	router := api.NewRouter(repo, estimator, geocoder, broker, depot)

	// Write timeout leaves headroom for cold-cache optimizer runs; the SSE
	// stream needs it long as well.
	log.Printf("Server listening addr=:%s", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

// newBroker picks Redis pub/sub when REDIS_URL is set, otherwise the
// in-process broker.
func newBroker() events.Broker {
	redisURL := os.Getenv("REDIS_URL")
	if strings.TrimSpace(redisURL) == "" {
		return events.NewMemoryBroker()
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}
	log.Println("Using Redis event broker")
	return events.NewRedisBroker(redis.NewClient(opt))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return f
}
