package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lifelink/blood-donor-matching-backend/internal/domain/bloodrequest"
	"github.com/lifelink/blood-donor-matching-backend/internal/domain/bloodtype"
	domainerrors "github.com/lifelink/blood-donor-matching-backend/internal/domain/errors"
	"github.com/lifelink/blood-donor-matching-backend/internal/service/matching"
)

// requestStore implements matching.RequestStore on PostgreSQL. Blood
// requests are owned by the hospital-facing service; the matching core
// only reads them and writes progress counters back.
type requestStore struct {
	pool *pgxpool.Pool
}

func NewRequestStore(pool *pgxpool.Pool) matching.RequestStore {
	return &requestStore{pool: pool}
}

func (s *requestStore) GetRequest(ctx context.Context, requestID uuid.UUID) (*bloodrequest.Request, error) {
	query := `
		SELECT
			id, patient_blood_type, hospital_name, longitude, latitude,
			units_needed, urgency, search_radius_km, status,
			needed_by, created_at
		FROM blood_requests
		WHERE id = $1
	`

	var (
		req     bloodrequest.Request
		bt      string
		urgency string
		status  string
	)
	err := s.pool.QueryRow(ctx, query, requestID).Scan(
		&req.ID, &bt, &req.HospitalName,
		&req.HospitalLocation.Longitude, &req.HospitalLocation.Latitude,
		&req.UnitsNeeded, &urgency, &req.SearchRadiusKm, &status,
		&req.NeededBy, &req.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domainerrors.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching blood request: %w", err)
	}

	parsed, err := bloodtype.Parse(bt)
	if err != nil {
		return nil, fmt.Errorf("blood request %s: %w", requestID, err)
	}
	req.PatientBloodType = parsed
	req.Urgency = bloodrequest.ParseUrgency(urgency)
	req.Status = bloodrequest.ParseStatus(status)

	return &req, nil
}

func (s *requestStore) GetRequestStatus(ctx context.Context, requestID uuid.UUID) (bloodrequest.Status, error) {
	var status string
	err := s.pool.QueryRow(ctx,
		`SELECT status FROM blood_requests WHERE id = $1`, requestID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domainerrors.ErrRequestNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("fetching blood request status: %w", err)
	}
	return bloodrequest.ParseStatus(status), nil
}

func (s *requestStore) GetResponderIDs(ctx context.Context, requestID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT donor_id FROM donor_responses WHERE request_id = $1`, requestID)
	if err != nil {
		return nil, fmt.Errorf("fetching responder set: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning responder row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating responder rows: %w", err)
	}
	return ids, nil
}

func (s *requestStore) UpdateMatchingCounters(ctx context.Context, requestID uuid.UUID, counters bloodrequest.MatchingCounters) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE blood_requests
		SET total_notified = $2,
		    last_notification_sent = $3,
		    notification_rounds = $4,
		    current_radius_km = $5,
		    updated_at = NOW()
		WHERE id = $1
	`, requestID, counters.TotalNotified, counters.LastNotificationSent,
		counters.NotificationRounds, counters.CurrentRadiusKm)
	if err != nil {
		return fmt.Errorf("updating matching counters: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainerrors.ErrRequestNotFound
	}
	return nil
}
