package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"linkup/internal/models"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("session not found")
)

// UserRepository abstracts user accounts, OTP state, presence persistence and
// session tokens.
type UserRepository interface {
	FindOrCreateByEmail(ctx context.Context, email string) (models.User, error)
	FindOrCreateByPhone(ctx context.Context, suffix, number string) (models.User, error)
	GetUser(ctx context.Context, userID int) (models.User, error)
	ListUsers(ctx context.Context, excludeUserID int) ([]models.User, error)
	SetOTP(ctx context.Context, userID int, code string, expiresAt time.Time) error
	GetOTP(ctx context.Context, userID int) (models.OTPChallenge, error)
	ClearOTP(ctx context.Context, userID int) error
	MarkVerified(ctx context.Context, userID int) error
	UpdateProfile(ctx context.Context, userID int, username, about, avatarURL string) (models.User, error)
	SetPresence(ctx context.Context, userID int, online bool, lastSeen time.Time) error
	CreateSession(ctx context.Context, userID int, token string) error
	UserIDForToken(ctx context.Context, token string) (int, error)
}

// UserRepo is a sqlx-backed repository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, username, email, phone_suffix, phone_number, about, avatar_url, is_verified, is_online, last_seen, created_at`

// FindOrCreateByEmail returns the user for an email, creating an unverified
// account on first contact.
func (r *UserRepo) FindOrCreateByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.User{}, err
	}
	err = r.db.QueryRowxContext(ctx, `INSERT INTO users (email) VALUES ($1) RETURNING `+userColumns, email).StructScan(&user)
	return user, err
}

// FindOrCreateByPhone returns the user for a phone number, creating an
// unverified account on first contact.
func (r *UserRepo) FindOrCreateByPhone(ctx context.Context, suffix, number string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE phone_suffix=$1 AND phone_number=$2`, suffix, number)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.User{}, err
	}
	err = r.db.QueryRowxContext(ctx, `INSERT INTO users (phone_suffix, phone_number) VALUES ($1, $2) RETURNING `+userColumns, suffix, number).StructScan(&user)
	return user, err
}

// GetUser fetches a user by id.
func (r *UserRepo) GetUser(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// ListUsers returns all verified users except the given one.
func (r *UserRepo) ListUsers(ctx context.Context, excludeUserID int) ([]models.User, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users WHERE id<>$1 AND is_verified=TRUE ORDER BY username ASC`, excludeUserID)
	return users, err
}

// SetOTP stores a pending one-time code.
func (r *UserRepo) SetOTP(ctx context.Context, userID int, code string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET otp_code=$2, otp_expires_at=$3 WHERE id=$1`, userID, code, expiresAt)
	return err
}

// GetOTP retrieves the pending one-time code for a user.
func (r *UserRepo) GetOTP(ctx context.Context, userID int) (models.OTPChallenge, error) {
	var challenge models.OTPChallenge
	err := r.db.GetContext(ctx, &challenge, `SELECT otp_code, otp_expires_at FROM users WHERE id=$1 AND otp_code IS NOT NULL`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.OTPChallenge{}, ErrUserNotFound
	}
	return challenge, err
}

// ClearOTP removes any pending one-time code.
func (r *UserRepo) ClearOTP(ctx context.Context, userID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET otp_code=NULL, otp_expires_at=NULL WHERE id=$1`, userID)
	return err
}

// MarkVerified flags the account as verified.
func (r *UserRepo) MarkVerified(ctx context.Context, userID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET is_verified=TRUE WHERE id=$1`, userID)
	return err
}

// UpdateProfile updates display fields, skipping empty values.
func (r *UserRepo) UpdateProfile(ctx context.Context, userID int, username, about, avatarURL string) (models.User, error) {
	var user models.User
	err := r.db.QueryRowxContext(ctx, `UPDATE users SET
            username = COALESCE(NULLIF($2, ''), username),
            about = COALESCE(NULLIF($3, ''), about),
            avatar_url = COALESCE(NULLIF($4, ''), avatar_url)
        WHERE id=$1 RETURNING `+userColumns, userID, username, about, avatarURL).StructScan(&user)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// SetPresence persists the online flag and last-seen timestamp.
func (r *UserRepo) SetPresence(ctx context.Context, userID int, online bool, lastSeen time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET is_online=$2, last_seen=$3 WHERE id=$1`, userID, online, lastSeen)
	return err
}

// CreateSession stores a bearer session token.
func (r *UserRepo) CreateSession(ctx context.Context, userID int, token string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO sessions (token, user_id) VALUES ($1, $2)`, token, userID)
	return err
}

// UserIDForToken resolves a session token to its user.
func (r *UserRepo) UserIDForToken(ctx context.Context, token string) (int, error) {
	var userID int
	err := r.db.GetContext(ctx, &userID, `SELECT user_id FROM sessions WHERE token=$1`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrSessionNotFound
	}
	return userID, err
}
