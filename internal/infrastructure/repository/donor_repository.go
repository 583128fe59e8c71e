package repository

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lifelink/blood-donor-matching-backend/internal/domain/bloodtype"
	"github.com/lifelink/blood-donor-matching-backend/internal/domain/donor"
	"github.com/lifelink/blood-donor-matching-backend/internal/domain/geo"
	"github.com/lifelink/blood-donor-matching-backend/internal/service/matching"
)

// donorRepository implements matching.DonorRepository on PostgreSQL. The
// query applies the cheap predicates (blood type, availability, cooldown,
// responder exclusion) plus a bounding-box prefilter; the eligibility
// filter re-checks everything with exact Haversine distances.
type donorRepository struct {
	pool *pgxpool.Pool
}

func NewDonorRepository(pool *pgxpool.Pool) matching.DonorRepository {
	return &donorRepository{pool: pool}
}

const kmPerDegreeLat = 111.195

// boundingBox returns the lat/lon window that fully contains the search
// circle. Near the poles the longitude window degenerates to the full
// range.
func boundingBox(center geo.Coordinates, radiusKm float64) (minLat, maxLat, minLon, maxLon float64) {
	latDelta := radiusKm / kmPerDegreeLat

	minLat = math.Max(center.Latitude-latDelta, -90)
	maxLat = math.Min(center.Latitude+latDelta, 90)

	cosLat := math.Cos(center.Latitude * math.Pi / 180)
	if cosLat < 1e-6 {
		return minLat, maxLat, -180, 180
	}

	lonDelta := radiusKm / (kmPerDegreeLat * cosLat)
	if lonDelta >= 180 {
		return minLat, maxLat, -180, 180
	}
	return minLat, maxLat, center.Longitude - lonDelta, center.Longitude + lonDelta
}

func (r *donorRepository) QueryEligibleDonors(ctx context.Context, compatible []bloodtype.Type, hospital geo.Coordinates, radiusKm float64, excluded []uuid.UUID) ([]*donor.Candidate, error) {
	minLat, maxLat, minLon, maxLon := boundingBox(hospital, radiusKm)

	types := make([]string, len(compatible))
	for i, t := range compatible {
		types[i] = t.String()
	}

	query := `
		SELECT
			id, blood_type, longitude, latitude,
			last_donation_at, is_available, medically_cleared,
			notify_start_hour, notify_end_hour,
			channel_preferences, donation_count, response_rate
		FROM donors
		WHERE blood_type = ANY($1)
		  AND is_available = TRUE
		  AND medically_cleared = TRUE
		  AND latitude BETWEEN $2 AND $3
		  AND longitude BETWEEN $4 AND $5
		  AND (last_donation_at IS NULL OR last_donation_at <= $6)
		  AND NOT (id = ANY($7))
	`

	cooldownCutoff := time.Now().Add(-donor.DonationCooldown)
	if excluded == nil {
		excluded = []uuid.UUID{}
	}

	rows, err := r.pool.Query(ctx, query,
		types, minLat, maxLat, minLon, maxLon, cooldownCutoff, excluded)
	if err != nil {
		return nil, fmt.Errorf("querying eligible donors: %w", err)
	}
	defer rows.Close()

	var candidates []*donor.Candidate
	for rows.Next() {
		var (
			c         donor.Candidate
			bt        string
			startHour *int
			endHour   *int
			channels  []string
		)
		if err := rows.Scan(
			&c.DonorID, &bt, &c.Coordinates.Longitude, &c.Coordinates.Latitude,
			&c.LastDonationAt, &c.IsAvailable, &c.MedicallyCleared,
			&startHour, &endHour,
			&channels, &c.HistoricalDonationCount, &c.HistoricalResponseRate,
		); err != nil {
			return nil, fmt.Errorf("scanning donor row: %w", err)
		}

		parsed, err := bloodtype.Parse(bt)
		if err != nil {
			return nil, fmt.Errorf("donor %s: %w", c.DonorID, err)
		}
		c.BloodType = parsed
		c.ChannelPreferences = channels
		if startHour != nil && endHour != nil {
			c.NotificationWindow = &donor.NotificationWindow{
				StartHour: *startHour,
				EndHour:   *endHour,
			}
		}

		candidates = append(candidates, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating donor rows: %w", err)
	}

	return candidates, nil
}
