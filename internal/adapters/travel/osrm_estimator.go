package travel

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"homevisit-dispatch-service/internal/adapters/cache"
	"homevisit-dispatch-service/internal/domain"
	"homevisit-dispatch-service/internal/platform/obs"
	"homevisit-dispatch-service/internal/ports"
)

// OSRMTravelEstimator implements TravelEstimator against an OSRM routing
// server.
//
// It coordinates:
//   - Persistent travel-time caching
//   - External API calls with retry/backoff
//
// The estimator is safe for concurrent use.
type OSRMTravelEstimator struct {
	session *http.Client
	baseURL string
	profile string
	cache   *cache.SQLTravelCache
}

func NewOSRMTravelEstimator(baseURL string, travelCache *cache.SQLTravelCache) *OSRMTravelEstimator {
	if baseURL == "" {
		baseURL = "https://router.project-osrm.org"
	}
	return &OSRMTravelEstimator{
		session: &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		profile: "driving",
		cache:   travelCache,
	}
}

type osrmRouteResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

// Estimate returns the one-way driving duration in whole minutes. An absent
// coordinate on either side yields zero without a backend call; the core
// algorithms filter unknown locations before asking for estimates, so this
// path only serves boundary callers that already accepted the depot fallback.
func (o *OSRMTravelEstimator) Estimate(ctx context.Context, from, to domain.Coordinates) (_ int, err error) {
	defer obs.Time(ctx, "osrm.Estimate")(&err)

	if !from.Valid() || !to.Valid() {
		return 0, nil
	}

	originKey := coordKey(from)
	destKey := coordKey(to)

	if o.cache != nil {
		minutes, ok, err := o.cache.Get(ctx, originKey, destKey)
		if err != nil {
			return 0, fmt.Errorf("osrm estimate: travel cache: %w", err)
		}
		if ok {
			return minutes, nil
		}
	}

	url := fmt.Sprintf("%s/route/v1/%s/%f,%f;%f,%f?overview=false",
		o.baseURL, o.profile, from.Lng, from.Lat, to.Lng, to.Lat)

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodGet, url)
	})
	if err != nil {
		return 0, fmt.Errorf("osrm estimate: %w: %w", ports.ErrEstimatorUnavailable, err)
	}
	defer resp.Body.Close()

	var decoded osrmRouteResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return 0, fmt.Errorf("osrm estimate: decode response: %w: %w", ports.ErrEstimatorUnavailable, err)
	}

	if decoded.Code != "Ok" || len(decoded.Routes) == 0 {
		return 0, fmt.Errorf("osrm estimate: code=%q routes=%d: %w",
			decoded.Code, len(decoded.Routes), ports.ErrEstimatorUnavailable)
	}

	minutes := int(math.Ceil(decoded.Routes[0].Duration / 60))

	if o.cache != nil {
		if err := o.cache.Put(ctx, originKey, destKey, minutes); err != nil {
			log.Printf("travel cache write failed: %v", err)
		}
	}

	return minutes, nil
}

func coordKey(c domain.Coordinates) string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}
