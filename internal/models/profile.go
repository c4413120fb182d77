package models

import "time"

// Profile is a registered user as seen by other users.
type Profile struct {
	ID         int       `db:"id" json:"id"`
	Email      string    `db:"email" json:"-"`
	Username   string    `db:"username" json:"username"`
	Phone      string    `db:"phone" json:"-"`
	ProfilePic *string   `db:"profile_pic" json:"profile_pic"`
	Bio        *string   `db:"bio" json:"bio"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`

	// OnlineStatus is advisory, resolved from the presence store at read
	// time. It is never written to the profiles table.
	OnlineStatus bool `db:"-" json:"online_status"`
}

// PresenceRecord is a user's advisory online/offline state. One record per
// user, upserted by that user's own session.
type PresenceRecord struct {
	UserID   int       `json:"user_id"`
	IsOnline bool      `json:"is_online"`
	LastSeen time.Time `json:"last_seen"`
}

// Block is a directed block edge. Existence alone is its state; removing
// the row is the unblock action.
type Block struct {
	BlockerID int       `db:"blocker_id" json:"blocker_id"`
	BlockedID int       `db:"blocked_id" json:"blocked_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
