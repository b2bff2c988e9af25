package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/wisdomcircle/circled/internal/models"
)

// Profile repository errors.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileRepository handles community directory persistence.
type ProfileRepository struct {
	db *DB
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `user_id, username, display_name, age, gender, city, bio, image_url`

// GetByUserID fetches the profile owned by a user.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID int64) (models.Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = ?`, userID)
	return scanProfile(row)
}

// Update replaces the mutable profile fields for a user.
func (r *ProfileRepository) Update(ctx context.Context, userID int64, upd models.ProfileUpdate) (models.Profile, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles
		SET display_name = ?, age = ?, gender = ?, city = ?, bio = ?, image_url = ?
		WHERE user_id = ?
	`, upd.DisplayName, upd.Age, upd.Gender, upd.City, upd.Bio, upd.ImageURL, userID)
	if err != nil {
		return models.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.Profile{}, ErrProfileNotFound
	}
	return r.GetByUserID(ctx, userID)
}

// List returns directory profiles matching the query, ordered by username
// ascending. Zero-valued filters are ignored.
func (r *ProfileRepository) List(ctx context.Context, q models.ProfileQuery) ([]models.Profile, error) {
	var (
		where []string
		args  []any
	)
	if q.City != "" {
		where = append(where, "city = ?")
		args = append(args, q.City)
	}
	if q.Gender != "" {
		where = append(where, "gender = ?")
		args = append(args, q.Gender)
	}
	if q.MinAge > 0 {
		where = append(where, "age >= ?")
		args = append(args, q.MinAge)
	}
	if q.MaxAge > 0 {
		where = append(where, "age <= ?")
		args = append(args, q.MaxAge)
	}

	query := `SELECT ` + profileColumns + ` FROM profiles`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY username ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.UserID, &p.Username, &p.DisplayName, &p.Age, &p.Gender, &p.City, &p.Bio, &p.ImageURL)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Profile{}, ErrProfileNotFound
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("scan profile: %w", err)
	}
	return p, nil
}
