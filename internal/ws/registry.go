package ws

import (
	"context"
	"log"
	"sync"
	"time"

	"linkup/internal/models"
	"linkup/internal/repositories"
)

// Registry is the in-memory source of truth for which users are reachable
// right now. At most one connection per user: a second login evicts and
// closes the previous connection (last-connected-wins, made explicit).
//
// The persisted online flag and last-seen timestamp are updated best-effort
// after every in-memory change; a store failure is logged and never blocks
// the registry or its broadcasts.
type Registry struct {
	mu    sync.RWMutex
	conns map[int]Conn
	users repositories.UserRepository
}

// NewRegistry creates an empty registry backed by the user store.
func NewRegistry(users repositories.UserRepository) *Registry {
	return &Registry{
		conns: make(map[int]Conn),
		users: users,
	}
}

// Register installs the connection for a user and broadcasts the presence
// change to everyone else. Idempotent for repeated calls from the same
// connection.
func (r *Registry) Register(ctx context.Context, userID int, conn Conn) {
	r.mu.Lock()
	previous, hadPrevious := r.conns[userID]
	if hadPrevious && previous.ID() == conn.ID() {
		r.mu.Unlock()
		return
	}
	r.conns[userID] = conn
	r.mu.Unlock()

	if hadPrevious {
		log.Printf("presence: evicting previous session user=%d conn=%s", userID, previous.ID())
		previous.Close()
	}

	now := time.Now()
	go func() {
		if err := r.users.SetPresence(context.WithoutCancel(ctx), userID, true, now); err != nil {
			log.Printf("presence: persist online failed user=%d: %v", userID, err)
		}
	}()

	r.Broadcast(models.EventUserStatus, models.UserStatusPayload{
		UserID:   userID,
		IsOnline: true,
	}, userID)
}

// Lookup returns the live connection for a user, if any.
func (r *Registry) Lookup(userID int) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[userID]
	return conn, ok
}

// Unregister removes the user's entry, but only if it still belongs to the
// given connection: an evicted session disconnecting late must not remove
// its replacement. Reports whether the entry was removed.
func (r *Registry) Unregister(ctx context.Context, userID int, conn Conn) bool {
	r.mu.Lock()
	current, ok := r.conns[userID]
	if !ok || current.ID() != conn.ID() {
		r.mu.Unlock()
		return false
	}
	delete(r.conns, userID)
	r.mu.Unlock()

	now := time.Now()
	go func() {
		if err := r.users.SetPresence(context.WithoutCancel(ctx), userID, false, now); err != nil {
			log.Printf("presence: persist offline failed user=%d: %v", userID, err)
		}
	}()

	r.Broadcast(models.EventUserStatus, models.UserStatusPayload{
		UserID:   userID,
		IsOnline: false,
		LastSeen: now.UTC().Format(time.RFC3339),
	}, userID)
	return true
}

// QueryStatus answers a single on-demand presence poll. For an offline user
// the last-seen timestamp comes from the store, best-effort.
func (r *Registry) QueryStatus(ctx context.Context, userID int) models.PresenceSnapshot {
	if _, online := r.Lookup(userID); online {
		now := time.Now()
		return models.PresenceSnapshot{UserID: userID, IsOnline: true, LastSeen: &now}
	}

	snapshot := models.PresenceSnapshot{UserID: userID}
	user, err := r.users.GetUser(ctx, userID)
	if err != nil {
		log.Printf("presence: last-seen lookup failed user=%d: %v", userID, err)
		return snapshot
	}
	snapshot.LastSeen = user.LastSeen
	return snapshot
}

// Broadcast sends an event to every registered connection except the
// excluded user. Iteration happens over a snapshot so concurrent
// register/unregister cannot interleave with the fan-out.
func (r *Registry) Broadcast(event string, data any, excludeUserID int) {
	for _, conn := range r.Conns(excludeUserID) {
		if err := conn.SendEvent(event, data); err != nil {
			log.Printf("presence: broadcast %s failed conn=%s: %v", event, conn.ID(), err)
		}
	}
}

// Conns returns a snapshot of live connections, excluding one user.
func (r *Registry) Conns(excludeUserID int) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := make([]Conn, 0, len(r.conns))
	for userID, conn := range r.conns {
		if userID == excludeUserID {
			continue
		}
		conns = append(conns, conn)
	}
	return conns
}

// Online reports the number of registered connections.
func (r *Registry) Online() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
