package ws

import (
	"log"
	"sync"
	"time"

	"linkup/internal/models"
)

// typingTimeout is the quiet period after which a typing flag auto-clears.
const typingTimeout = 3 * time.Second

type typingKey struct {
	userID         int
	conversationID int
}

type typingEntry struct {
	timer      *time.Timer
	generation uint64
	receiverID int
}

// Tracker holds ephemeral per-(user, conversation) typing state. A start
// event (re)arms a countdown; expiry and explicit stop both emit the same
// is_typing=false payload so the receiver cannot tell them apart.
type Tracker struct {
	mu       sync.Mutex
	registry *Registry
	timeout  time.Duration
	entries  map[typingKey]*typingEntry
	lastGen  uint64
}

// NewTracker creates a Tracker bound to the presence registry.
func NewTracker(registry *Registry) *Tracker {
	return &Tracker{
		registry: registry,
		timeout:  typingTimeout,
		entries:  make(map[typingKey]*typingEntry),
	}
}

// Start transitions to typing, (re)starting the countdown, and notifies the
// receiver. Re-triggering while already typing replaces the timer.
func (t *Tracker) Start(userID, conversationID, receiverID int) {
	key := typingKey{userID: userID, conversationID: conversationID}

	t.mu.Lock()
	if entry, ok := t.entries[key]; ok {
		entry.timer.Stop()
	}
	t.lastGen++
	generation := t.lastGen
	entry := &typingEntry{generation: generation, receiverID: receiverID}
	entry.timer = time.AfterFunc(t.timeout, func() {
		t.expire(key, generation)
	})
	t.entries[key] = entry
	t.mu.Unlock()

	t.emit(userID, conversationID, receiverID, true)
}

// Stop transitions to idle immediately, cancelling the countdown, and
// notifies the receiver.
func (t *Tracker) Stop(userID, conversationID, receiverID int) {
	key := typingKey{userID: userID, conversationID: conversationID}

	t.mu.Lock()
	if entry, ok := t.entries[key]; ok {
		entry.timer.Stop()
		delete(t.entries, key)
	}
	t.mu.Unlock()

	t.emit(userID, conversationID, receiverID, false)
}

// CancelAll drops every entry for a disconnecting user without emitting stop
// events; peers infer idleness from the presence change instead.
func (t *Tracker) CancelAll(userID int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, entry := range t.entries {
		if key.userID != userID {
			continue
		}
		entry.timer.Stop()
		delete(t.entries, key)
	}
}

// Active reports whether the pair currently has a typing flag set.
func (t *Tracker) Active(userID, conversationID int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[typingKey{userID: userID, conversationID: conversationID}]
	return ok
}

// expire fires on countdown expiry. The generation check guards against a
// timer firing for an entry that was since replaced or cancelled.
func (t *Tracker) expire(key typingKey, generation uint64) {
	t.mu.Lock()
	entry, ok := t.entries[key]
	if !ok || entry.generation != generation {
		t.mu.Unlock()
		return
	}
	receiverID := entry.receiverID
	delete(t.entries, key)
	t.mu.Unlock()

	t.emit(key.userID, key.conversationID, receiverID, false)
}

func (t *Tracker) emit(userID, conversationID, receiverID int, isTyping bool) {
	conn, ok := t.registry.Lookup(receiverID)
	if !ok {
		return
	}
	err := conn.SendEvent(models.EventUserTyping, models.UserTypingPayload{
		UserID:         userID,
		ConversationID: conversationID,
		IsTyping:       isTyping,
	})
	if err != nil {
		log.Printf("typing: notify failed receiver=%d: %v", receiverID, err)
	}
}
