package models

import "time"

// User is a registered account, identified by a verified email or phone number.
type User struct {
	ID          int        `db:"id" json:"id"`
	Username    string     `db:"username" json:"username"`
	Email       string     `db:"email" json:"email,omitempty"`
	PhoneSuffix string     `db:"phone_suffix" json:"phone_suffix,omitempty"`
	PhoneNumber string     `db:"phone_number" json:"phone_number,omitempty"`
	About       string     `db:"about" json:"about,omitempty"`
	AvatarURL   string     `db:"avatar_url" json:"avatar_url,omitempty"`
	IsVerified  bool       `db:"is_verified" json:"is_verified"`
	IsOnline    bool       `db:"is_online" json:"is_online"`
	LastSeen    *time.Time `db:"last_seen" json:"last_seen,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// OTPChallenge holds a pending one-time code for a user. The code is cleared
// on successful verification or on expiry.
type OTPChallenge struct {
	Code      string    `db:"otp_code"`
	ExpiresAt time.Time `db:"otp_expires_at"`
}

// PresenceSnapshot answers a single get_user_status query.
type PresenceSnapshot struct {
	UserID   int        `json:"user_id"`
	IsOnline bool       `json:"is_online"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}
