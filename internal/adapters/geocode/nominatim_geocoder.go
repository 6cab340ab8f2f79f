package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"homevisit-dispatch-service/internal/adapters/cache"
	"homevisit-dispatch-service/internal/domain"
	"homevisit-dispatch-service/internal/platform/obs"
)

// Clinic addresses that predate the geocoder and must resolve without a
// network round trip.
var knownLocations = map[string]domain.Coordinates{
	"臺中市中區綠川西街73號":      {Lat: 24.138260, Lng: 120.684192},
	"臺中市西區公益路68號":       {Lat: 24.151943, Lng: 120.664182},
	"臺中市南屯區文心南三路289號":   {Lat: 24.132826, Lng: 120.649256},
	"臺中市南屯區向上路二段168號4樓": {Lat: 24.148559, Lng: 120.646890},
	"臺中市南屯區文心南路511號":    {Lat: 24.124327, Lng: 120.648994},
	"臺中市西屯區中清路二段189巷57號": {Lat: 24.177206, Lng: 120.668013},
	"臺中市北區崇德路一段55號":     {Lat: 24.157793, Lng: 120.685618},
	"臺中市北區忠明路499號":      {Lat: 24.163232, Lng: 120.672338},
	"臺中市西屯區惠來路二段101號":   {Lat: 24.163199, Lng: 120.641905},
	"臺中市南屯區黎明路二段503號":   {Lat: 24.155306, Lng: 120.634099},
}

// NominatimGeocoder resolves free-text addresses via the OpenStreetMap
// Nominatim search API, backed by a persistent cache and a table of known
// clinic addresses. An unresolvable address is not an error: it returns zero
// coordinates and the caller decides on a depot fallback.
type NominatimGeocoder struct {
	session   *http.Client
	baseURL   string
	userAgent string
	cache     *cache.SQLGeocodeCache
}

func NewNominatimGeocoder(baseURL string, geocodeCache *cache.SQLGeocodeCache) *NominatimGeocoder {
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	return &NominatimGeocoder{
		session:   &http.Client{Timeout: 10 * time.Second},
		baseURL:   baseURL,
		userAgent: "homevisit-dispatch-service",
		cache:     geocodeCache,
	}
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (g *NominatimGeocoder) Geocode(ctx context.Context, address string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "nominatim.Geocode")(&err)

	address = strings.Join(strings.Fields(address), " ")
	if address == "" {
		return domain.Coordinates{}, nil
	}

	if c, ok := knownLocations[address]; ok {
		return c, nil
	}

	if g.cache != nil {
		c, ok, err := g.cache.Get(ctx, address)
		if err != nil {
			return domain.Coordinates{}, fmt.Errorf("geocode: cache: %w", err)
		}
		if ok {
			return c, nil
		}
	}

	endpoint := g.baseURL + "/search?format=json&limit=1&q=" + url.QueryEscape(address)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode: create request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.session.Do(req)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: unexpected status %d", address, resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: decode response: %w", address, err)
	}

	if len(results) == 0 {
		return domain.Coordinates{}, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: parse lat: %w", address, err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: parse lon: %w", address, err)
	}

	c := domain.Coordinates{Lat: lat, Lng: lng}

	if g.cache != nil {
		if err := g.cache.Put(ctx, address, c); err != nil {
			log.Printf("geocode cache write failed: %v", err)
		}
	}

	return c, nil
}
