// Package auth implements phone/email OTP authentication and opaque bearer
// session tokens.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"linkup/internal/models"
	"linkup/internal/otp"
	"linkup/internal/repositories"
)

// otpTTL is how long an issued code stays valid.
const otpTTL = 5 * time.Minute

var (
	ErrInvalidOTP     = errors.New("invalid or expired otp")
	ErrMissingContact = errors.New("email or phone number required")
)

// Service issues and verifies one-time codes and mints session tokens.
type Service struct {
	users    repositories.UserRepository
	provider otp.Provider
	now      func() time.Time
}

// NewService constructs the auth service.
func NewService(users repositories.UserRepository, provider otp.Provider) *Service {
	return &Service{users: users, provider: provider, now: time.Now}
}

// SendOTP finds or creates the account for the contact, stores a fresh code
// and hands it to the delivery provider. Exactly one of email or
// (suffix, number) must be set.
func (s *Service) SendOTP(ctx context.Context, email, phoneSuffix, phoneNumber string) (models.User, error) {
	var (
		user        models.User
		err         error
		channel     string
		destination string
	)
	switch {
	case email != "":
		user, err = s.users.FindOrCreateByEmail(ctx, email)
		channel, destination = otp.ChannelEmail, email
	case phoneSuffix != "" && phoneNumber != "":
		user, err = s.users.FindOrCreateByPhone(ctx, phoneSuffix, phoneNumber)
		channel, destination = otp.ChannelSMS, phoneSuffix+phoneNumber
	default:
		return models.User{}, ErrMissingContact
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find account: %w", err)
	}

	code, err := otp.GenerateCode()
	if err != nil {
		return models.User{}, err
	}
	if err := s.users.SetOTP(ctx, user.ID, code, s.now().Add(otpTTL)); err != nil {
		return models.User{}, fmt.Errorf("store otp: %w", err)
	}
	if err := s.provider.Deliver(ctx, channel, destination, code); err != nil {
		return models.User{}, fmt.Errorf("deliver otp: %w", err)
	}
	return user, nil
}

// VerifyOTP checks the code for the contact. A stale code is cleared either
// way; success marks the account verified and returns a session token.
func (s *Service) VerifyOTP(ctx context.Context, email, phoneSuffix, phoneNumber, code string) (models.User, string, error) {
	var (
		user models.User
		err  error
	)
	switch {
	case email != "":
		user, err = s.users.FindOrCreateByEmail(ctx, email)
	case phoneSuffix != "" && phoneNumber != "":
		user, err = s.users.FindOrCreateByPhone(ctx, phoneSuffix, phoneNumber)
	default:
		return models.User{}, "", ErrMissingContact
	}
	if err != nil {
		return models.User{}, "", fmt.Errorf("find account: %w", err)
	}

	challenge, err := s.users.GetOTP(ctx, user.ID)
	if err != nil {
		return models.User{}, "", ErrInvalidOTP
	}
	if s.now().After(challenge.ExpiresAt) {
		if clearErr := s.users.ClearOTP(ctx, user.ID); clearErr != nil {
			return models.User{}, "", fmt.Errorf("clear expired otp: %w", clearErr)
		}
		return models.User{}, "", ErrInvalidOTP
	}
	if challenge.Code != code {
		return models.User{}, "", ErrInvalidOTP
	}

	if err := s.users.ClearOTP(ctx, user.ID); err != nil {
		return models.User{}, "", fmt.Errorf("clear otp: %w", err)
	}
	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return models.User{}, "", fmt.Errorf("mark verified: %w", err)
	}

	token, err := newToken()
	if err != nil {
		return models.User{}, "", err
	}
	if err := s.users.CreateSession(ctx, user.ID, token); err != nil {
		return models.User{}, "", fmt.Errorf("create session: %w", err)
	}

	user.IsVerified = true
	return user, token, nil
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
