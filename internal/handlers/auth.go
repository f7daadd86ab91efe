package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"linkup/internal/auth"
	"linkup/internal/media"
	"linkup/internal/repositories"
	"linkup/internal/telemetry"
)

// AuthHandler manages OTP sign-in and profile endpoints.
type AuthHandler struct {
	auth     *auth.Service
	users    repositories.UserRepository
	uploader media.Uploader
	audit    *telemetry.AuditEmitter
}

// NewAuthHandler builds an AuthHandler.
func NewAuthHandler(authService *auth.Service, users repositories.UserRepository, uploader media.Uploader, audit *telemetry.AuditEmitter) *AuthHandler {
	return &AuthHandler{
		auth:     authService,
		users:    users,
		uploader: uploader,
		audit:    audit,
	}
}

type contactRequest struct {
	Email       string `json:"email"`
	PhoneSuffix string `json:"phone_suffix"`
	PhoneNumber string `json:"phone_number"`
}

// SendOTP issues a one-time code to the supplied email or phone number,
// creating the account on first contact.
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.auth.SendOTP(c.Request.Context(), req.Email, req.PhoneSuffix, req.PhoneNumber)
	if err != nil {
		if errors.Is(err, auth.ErrMissingContact) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email or phone number required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send otp"})
		return
	}

	h.emitAudit(c, "INFO", "otp issued")
	c.JSON(http.StatusOK, gin.H{"user_id": user.ID})
}

// VerifyOTP checks the submitted code and returns a session token.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req struct {
		contactRequest
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.auth.VerifyOTP(c.Request.Context(), req.Email, req.PhoneSuffix, req.PhoneNumber, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingContact):
			c.JSON(http.StatusBadRequest, gin.H{"error": "email or phone number required"})
		case errors.Is(err, auth.ErrInvalidOTP):
			h.emitAudit(c, "WARN", "otp verification failed")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired otp"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify otp"})
		}
		return
	}

	h.emitAudit(c, "INFO", "otp verified")
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetInt("userID")

	user, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateProfile updates username, about text and optionally the avatar.
// Accepts multipart form data so the avatar can be uploaded in the same call.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID := c.GetInt("userID")

	username := c.PostForm("username")
	about := c.PostForm("about")

	avatarURL := ""
	if file, err := c.FormFile("avatar"); err == nil {
		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read avatar"})
			return
		}
		defer src.Close()

		if _, ok := media.ContentTypeForMIME(file.Header.Get("Content-Type")); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported avatar type"})
			return
		}
		avatarURL, err = h.uploader.Upload(c.Request.Context(), file.Filename, src)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store avatar"})
			return
		}
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), userID, username, about, avatarURL)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListUsers returns every other registered user, for contact discovery.
func (h *AuthHandler) ListUsers(c *gin.Context) {
	userID := c.GetInt("userID")

	users, err := h.users.ListUsers(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *AuthHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
