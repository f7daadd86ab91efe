package ws

import (
	"context"
	"log"

	"linkup/internal/models"
	"linkup/internal/repositories"
)

// Relay forwards message-level events between the two parties of a
// conversation. Except for reactions it owns no persistence: the durable
// copy of a message travels over the REST path, and an offline recipient is
// a normal branch, never an error; they catch up on the next history fetch.
type Relay struct {
	registry *Registry
	messages repositories.MessageRepository
}

// NewRelay constructs a Relay.
func NewRelay(registry *Registry, messages repositories.MessageRepository) *Relay {
	return &Relay{registry: registry, messages: messages}
}

// Send forwards a freshly sent message to the receiver for immediate UI
// update. Notify-only: if the receiver is offline nothing happens.
func (r *Relay) Send(msg models.Message) {
	conn, ok := r.registry.Lookup(msg.ReceiverID)
	if !ok {
		return
	}
	if err := conn.SendEvent(models.EventReceiveMessage, msg); err != nil {
		log.Printf("relay: forward message %d failed: %v", msg.ID, err)
	}
}

// ReadReceipt notifies the original sender that messages were read, one
// event per message id. The store was already updated by the caller; an
// offline sender simply sees the new status on their next fetch.
func (r *Relay) ReadReceipt(messageIDs []int, senderID int) {
	conn, ok := r.registry.Lookup(senderID)
	if !ok {
		return
	}
	for _, messageID := range messageIDs {
		err := conn.SendEvent(models.EventMessageStatusUpdate, models.MessageStatusUpdatePayload{
			MessageID: messageID,
			Status:    models.MessageStatusRead,
		})
		if err != nil {
			log.Printf("relay: read receipt for message %d failed: %v", messageID, err)
		}
	}
}

// Reaction applies the toggle rule to a message's reaction list, persists
// it, and notifies both participants with the full updated list. This is the
// one relay operation that writes durable state; on a store failure only the
// initiating connection gets a message_error.
func (r *Relay) Reaction(ctx context.Context, origin Conn, messageID int, emoji string, userID int) {
	msg, err := r.messages.Get(ctx, messageID)
	if err != nil {
		log.Printf("relay: reaction lookup failed message=%d: %v", messageID, err)
		r.sendError(origin, "failed to update reaction")
		return
	}

	updated := models.ToggleReaction(msg.Reactions, userID, emoji)
	if err := r.messages.ReplaceReactions(ctx, messageID, updated); err != nil {
		log.Printf("relay: reaction persist failed message=%d: %v", messageID, err)
		r.sendError(origin, "failed to update reaction")
		return
	}

	payload := models.ReactionUpdatePayload{MessageID: messageID, Reactions: updated}
	for _, participantID := range []int{msg.SenderID, msg.ReceiverID} {
		conn, ok := r.registry.Lookup(participantID)
		if !ok {
			continue
		}
		if err := conn.SendEvent(models.EventReactionUpdate, payload); err != nil {
			log.Printf("relay: reaction update to user %d failed: %v", participantID, err)
		}
	}
}

// Deletion fans out a message_deleted notification after the caller has
// performed the deletion. No durability concern here.
func (r *Relay) Deletion(messageID int, recipients ...int) {
	for _, userID := range recipients {
		conn, ok := r.registry.Lookup(userID)
		if !ok {
			continue
		}
		err := conn.SendEvent(models.EventMessageDeleted, models.MessageDeletedPayload{MessageID: messageID})
		if err != nil {
			log.Printf("relay: deletion notice to user %d failed: %v", userID, err)
		}
	}
}

func (r *Relay) sendError(origin Conn, text string) {
	if origin == nil {
		return
	}
	if err := origin.SendEvent(models.EventMessageError, models.MessageErrorPayload{Error: text}); err != nil {
		log.Printf("relay: error event failed: %v", err)
	}
}
