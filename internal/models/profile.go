package models

import "time"

// User is an account row owned by the identity service. The password is
// stored only as a bcrypt hash.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile is a community directory entry. Every registered user owns
// exactly one profile, created empty at registration.
type Profile struct {
	UserID      int64  `json:"user_id,omitempty"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	Age         int    `json:"age,omitempty"`
	Gender      string `json:"gender,omitempty"`
	City        string `json:"city,omitempty"`
	Bio         string `json:"bio,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// ProfileQuery filters the community directory listing. Zero values mean
// no constraint. Results are always ordered by username ascending.
type ProfileQuery struct {
	City   string
	Gender string
	MinAge int
	MaxAge int
}

// ProfileUpdate carries the mutable profile fields.
type ProfileUpdate struct {
	DisplayName string `json:"display_name"`
	Age         int    `json:"age"`
	Gender      string `json:"gender"`
	City        string `json:"city"`
	Bio         string `json:"bio"`
	ImageURL    string `json:"image_url"`
}
