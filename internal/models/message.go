// Package models defines the core data types for circled.
package models

import "time"

// Message is a single chat message. Messages are immutable once created;
// the store assigns ID and CreatedAt on insert.
type Message struct {
	// ID is the store-assigned, monotonically increasing identifier.
	// Display order is ascending ID.
	ID int64 `json:"id"`

	// Username is the sender's username at the time of posting.
	Username string `json:"username"`

	// Body is the message text. It may contain @username mention tokens.
	Body string `json:"message"`

	// CreatedAt is the server-assigned insert timestamp.
	CreatedAt time.Time `json:"timestamp"`
}

// MentionToken returns the literal substring that marks a mention of the
// given username inside a message body.
func MentionToken(username string) string {
	return "@" + username
}

// Viewer identifies the authenticated viewer of a session. A zero Viewer
// means unauthenticated or not yet resolved.
type Viewer struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// IsResolved reports whether the viewer carries a usable identity.
func (v Viewer) IsResolved() bool {
	return v.Username != ""
}

// Permission is the platform notification permission state. It is owned
// by the surrounding platform and read-only to the core.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)
