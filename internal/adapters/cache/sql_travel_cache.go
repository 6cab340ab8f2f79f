package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"homevisit-dispatch-service/internal/platform/obs"
)

// SQLTravelCache is a SQL-backed cache for origin->destination travel times.
// Keys are "lat,lng" coordinate strings.
type SQLTravelCache struct {
	DB *sql.DB
}

func NewSQLTravelCache(db *sql.DB) *SQLTravelCache {
	return &SQLTravelCache{DB: db}
}

// Get fetches a cached travel time for one leg.
func (s *SQLTravelCache) Get(ctx context.Context, origin, destination string) (_ int, _ bool, err error) {
	defer obs.Time(ctx, "travel.cache.Get")(&err)

	if s.DB == nil {
		return 0, false, errors.New("travel cache: db is nil")
	}
	if origin == "" || destination == "" {
		return 0, false, errors.New("get travel cache: origin and destination must not be empty")
	}

	q := `
	SELECT travel_minutes
	FROM travel_cache
	WHERE origin = $1 AND destination = $2;
	`

	var minutes int
	switch err := s.DB.QueryRowContext(ctx, q, origin, destination).Scan(&minutes); {
	case errors.Is(err, sql.ErrNoRows):
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("get travel cache: query travel_cache table: %w", err)
	}

	return minutes, true, nil
}

// Put stores a travel time for one leg.
func (s *SQLTravelCache) Put(ctx context.Context, origin, destination string, minutes int) error {
	if s.DB == nil {
		return errors.New("travel cache: db is nil")
	}
	if origin == "" || destination == "" {
		return errors.New("insert travel cache: origin and destination must not be empty")
	}

	q := `
	INSERT INTO travel_cache (origin, destination, travel_minutes)
	VALUES ($1, $2, $3)
	ON CONFLICT (origin, destination) DO UPDATE
	SET travel_minutes = EXCLUDED.travel_minutes;
	`

	if _, err := s.DB.ExecContext(ctx, q, origin, destination, minutes); err != nil {
		return fmt.Errorf("insert travel cache %q -> %q: %w", origin, destination, err)
	}

	return nil
}
