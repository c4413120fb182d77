package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/AbhishekkSaini/TheSafeVoice/internal/models"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrPhoneTaken      = errors.New("phone already registered")
	ErrUsernameTaken   = errors.New("username already taken")
)

const uniqueViolation = "23505"

// ProfileRepository defines persistence for user profiles.
type ProfileRepository interface {
	CreateProfile(ctx context.Context, email, username, phone, passwordHash string) (models.Profile, error)
	GetProfile(ctx context.Context, id int) (models.Profile, error)
	GetByEmail(ctx context.Context, email string) (models.Profile, string, error)
	BulkProfiles(ctx context.Context, ids []int) ([]models.Profile, error)
	SearchProfiles(ctx context.Context, query string, limit int) ([]models.Profile, error)
	PhoneExists(ctx context.Context, phone string) (bool, error)
}

// ProfileRepo is a sqlx-backed repository.
type ProfileRepo struct {
	db *sqlx.DB
}

// NewProfileRepo constructs ProfileRepo.
func NewProfileRepo(db *sqlx.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// CreateProfile inserts a new user. Email, username and phone uniqueness
// is enforced by the database; violations map to typed errors so handlers
// can answer without parsing driver messages.
func (r *ProfileRepo) CreateProfile(ctx context.Context, email, username, phone, passwordHash string) (models.Profile, error) {
	var p models.Profile
	err := r.db.QueryRowxContext(ctx, `INSERT INTO profiles (email, username, phone, password_hash)
        VALUES ($1, $2, $3, $4)
        RETURNING id, email, username, phone, profile_pic, bio, created_at`,
		email, username, phone, passwordHash).
		Scan(&p.ID, &p.Email, &p.Username, &p.Phone, &p.ProfilePic, &p.Bio, &p.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			switch pqErr.Constraint {
			case "profiles_email_key":
				return models.Profile{}, ErrEmailTaken
			case "profiles_phone_key":
				return models.Profile{}, ErrPhoneTaken
			case "profiles_username_key":
				return models.Profile{}, ErrUsernameTaken
			}
		}
		return models.Profile{}, err
	}
	return p, nil
}

// GetProfile fetches a profile by id.
func (r *ProfileRepo) GetProfile(ctx context.Context, id int) (models.Profile, error) {
	var p models.Profile
	err := r.db.GetContext(ctx, &p, `SELECT id, email, username, phone, profile_pic, bio, created_at
        FROM profiles WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrProfileNotFound
	}
	return p, err
}

// GetByEmail returns the profile and its password hash for login checks.
func (r *ProfileRepo) GetByEmail(ctx context.Context, email string) (models.Profile, string, error) {
	var row struct {
		models.Profile
		PasswordHash string `db:"password_hash"`
	}
	err := r.db.GetContext(ctx, &row, `SELECT id, email, username, phone, profile_pic, bio, created_at, password_hash
        FROM profiles WHERE email=$1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, "", ErrProfileNotFound
	}
	return row.Profile, row.PasswordHash, err
}

// BulkProfiles resolves many profiles in one query.
func (r *ProfileRepo) BulkProfiles(ctx context.Context, ids []int) ([]models.Profile, error) {
	if len(ids) == 0 {
		return []models.Profile{}, nil
	}
	query, args, err := sqlx.In(`SELECT id, email, username, phone, profile_pic, bio, created_at
        FROM profiles WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var profiles []models.Profile
	err = r.db.SelectContext(ctx, &profiles, r.db.Rebind(query), args...)
	return profiles, err
}

// SearchProfiles returns profiles whose username contains the query,
// exact matches first.
func (r *ProfileRepo) SearchProfiles(ctx context.Context, query string, limit int) ([]models.Profile, error) {
	var profiles []models.Profile
	like := "%" + query + "%"
	err := r.db.SelectContext(ctx, &profiles, `SELECT id, email, username, phone, profile_pic, bio, created_at
        FROM profiles WHERE username ILIKE $1
        ORDER BY (lower(username) = lower($2)) DESC, username ASC LIMIT $3`, like, query, limit)
	return profiles, err
}

// PhoneExists reports whether a phone number is already registered.
func (r *ProfileRepo) PhoneExists(ctx context.Context, phone string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM profiles WHERE phone=$1)`, phone)
	return exists, err
}
