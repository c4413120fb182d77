package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/AbhishekkSaini/TheSafeVoice/internal/models"
)

var ErrSOSNotFound = errors.New("sos event not found")

// SOSRepository defines persistence for emergency alerts.
type SOSRepository interface {
	CreateSOS(ctx context.Context, userID *int, lat, lng, accuracyM *float64) (models.SOSEvent, error)
	GetSOS(ctx context.Context, id int) (models.SOSEvent, error)
}

// SOSRepo is a sqlx-backed repository.
type SOSRepo struct {
	db *sqlx.DB
}

// NewSOSRepo constructs SOSRepo.
func NewSOSRepo(db *sqlx.DB) *SOSRepo {
	return &SOSRepo{db: db}
}

// CreateSOS records an alert. Location fields stay nullable: an alert
// without a fix still goes out.
func (r *SOSRepo) CreateSOS(ctx context.Context, userID *int, lat, lng, accuracyM *float64) (models.SOSEvent, error) {
	var event models.SOSEvent
	err := r.db.QueryRowxContext(ctx, `INSERT INTO sos_events (user_id, lat, lng, accuracy_m)
        VALUES ($1, $2, $3, $4)
        RETURNING id, user_id, lat, lng, accuracy_m, created_at`,
		userID, lat, lng, accuracyM).
		Scan(&event.ID, &event.UserID, &event.Lat, &event.Lng, &event.AccuracyM, &event.CreatedAt)
	return event, err
}

// GetSOS fetches one alert by id.
func (r *SOSRepo) GetSOS(ctx context.Context, id int) (models.SOSEvent, error) {
	var event models.SOSEvent
	err := r.db.GetContext(ctx, &event, `SELECT id, user_id, lat, lng, accuracy_m, created_at
        FROM sos_events WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SOSEvent{}, ErrSOSNotFound
	}
	return event, err
}
