package ws

import (
	"log"

	"linkup/internal/models"
)

// StatusBroadcaster fans ephemeral status events out to the connected user
// set, using the presence registry as its recipient list. Fan-out is
// O(online users) with no batching, fine at 1:1 chat scale.
type StatusBroadcaster struct {
	registry *Registry
}

// NewStatusBroadcaster constructs a StatusBroadcaster.
func NewStatusBroadcaster(registry *Registry) *StatusBroadcaster {
	return &StatusBroadcaster{registry: registry}
}

// BroadcastNew notifies every connected user except the author about a new
// status. Called after the status is persisted.
func (s *StatusBroadcaster) BroadcastNew(status models.Status, authorID int) {
	s.registry.Broadcast(models.EventNewStatus, status, authorID)
}

// NotifyViewed tells just the author that someone viewed their status.
func (s *StatusBroadcaster) NotifyViewed(statusID, viewerID, authorID int, viewers []int) {
	conn, ok := s.registry.Lookup(authorID)
	if !ok {
		return
	}
	err := conn.SendEvent(models.EventStatusViewed, models.StatusViewedPayload{
		StatusID:     statusID,
		ViewerID:     viewerID,
		TotalViewers: len(viewers),
		Viewers:      viewers,
	})
	if err != nil {
		log.Printf("status: viewed notice to author %d failed: %v", authorID, err)
	}
}

// BroadcastDeleted mirrors BroadcastNew for removals.
func (s *StatusBroadcaster) BroadcastDeleted(statusID, authorID int) {
	s.registry.Broadcast(models.EventStatusDeleted, models.StatusDeletedPayload{StatusID: statusID}, authorID)
}
