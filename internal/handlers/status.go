package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"linkup/internal/media"
	"linkup/internal/models"
	"linkup/internal/repositories"
	"linkup/internal/telemetry"
	"linkup/internal/ws"
)

// StatusHandler manages ephemeral status endpoints.
type StatusHandler struct {
	statuses    repositories.StatusRepository
	broadcaster *ws.StatusBroadcaster
	uploader    media.Uploader
	audit       *telemetry.AuditEmitter
}

// NewStatusHandler builds a StatusHandler.
func NewStatusHandler(statuses repositories.StatusRepository, broadcaster *ws.StatusBroadcaster, uploader media.Uploader, audit *telemetry.AuditEmitter) *StatusHandler {
	return &StatusHandler{
		statuses:    statuses,
		broadcaster: broadcaster,
		uploader:    uploader,
		audit:       audit,
	}
}

// Create stores a new status and announces it to everyone else online.
func (h *StatusHandler) Create(c *gin.Context) {
	userID := c.GetInt("userID")

	content := c.PostForm("content")
	contentType := models.ContentTypeText

	if file, err := c.FormFile("media"); err == nil {
		ct, ok := media.ContentTypeForMIME(file.Header.Get("Content-Type"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported media type"})
			return
		}
		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read media"})
			return
		}
		defer src.Close()

		url, err := h.uploader.Upload(c.Request.Context(), file.Filename, src)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store media"})
			return
		}
		content, contentType = url, ct
	}

	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content or media required"})
		return
	}

	status, err := h.statuses.Create(c.Request.Context(), models.Status{
		UserID:      userID,
		Content:     content,
		ContentType: contentType,
		ExpiresAt:   time.Now().Add(models.StatusTTL),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store status"})
		return
	}

	h.broadcaster.BroadcastNew(status, userID)
	c.JSON(http.StatusCreated, status)
}

// List returns every status that has not yet expired.
func (h *StatusHandler) List(c *gin.Context) {
	statuses, err := h.statuses.ListActive(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load statuses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"statuses": statuses})
}

// View records that the caller has seen a status and notifies the author.
func (h *StatusHandler) View(c *gin.Context) {
	statusID, ok := parseStatusID(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	status, err := h.statuses.AddViewer(c.Request.Context(), statusID, userID)
	if err != nil {
		respStatus := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrStatusNotFound) {
			respStatus = http.StatusNotFound
		}
		c.JSON(respStatus, gin.H{"error": "status not found"})
		return
	}

	h.broadcaster.NotifyViewed(status.ID, userID, status.UserID, status.Viewers)
	c.JSON(http.StatusOK, status)
}

// Delete removes one of the caller's own statuses before it expires.
func (h *StatusHandler) Delete(c *gin.Context) {
	statusID, ok := parseStatusID(c)
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	if err := h.statuses.Delete(c.Request.Context(), statusID, userID); err != nil {
		respStatus := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrStatusNotFound) {
			respStatus = http.StatusForbidden
		}
		c.JSON(respStatus, gin.H{"error": "could not delete status"})
		return
	}

	if h.audit != nil {
		h.audit.Emit(c.Request.Context(), "INFO", "status deleted", requestIDFromContext(c), userIDFromContext(c))
	}
	h.broadcaster.BroadcastDeleted(statusID, userID)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func parseStatusID(c *gin.Context) (int, bool) {
	statusID, err := strconv.Atoi(c.Param("status_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status id"})
		return 0, false
	}
	return statusID, true
}
