package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"linkup/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for chat messages and reactions.
type MessageRepository interface {
	Create(ctx context.Context, conversationID, senderID, receiverID int, content, contentType string) (models.Message, error)
	ListForConversation(ctx context.Context, conversationID int) ([]models.Message, error)
	Get(ctx context.Context, messageID int) (models.Message, error)
	MarkRead(ctx context.Context, messageIDs []int) error
	GetReactions(ctx context.Context, messageID int) ([]models.Reaction, error)
	ReplaceReactions(ctx context.Context, messageID int, reactions []models.Reaction) error
	Delete(ctx context.Context, messageID int, senderID int) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, conversation_id, sender_id, receiver_id, content, content_type, status, created_at`

// Create stores a message.
func (r *MessageRepo) Create(ctx context.Context, conversationID, senderID, receiverID int, content, contentType string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (conversation_id, sender_id, receiver_id, content, content_type)
        VALUES ($1, $2, $3, $4, $5) RETURNING `+messageColumns, conversationID, senderID, receiverID, content, contentType).StructScan(&msg)
	return msg, err
}

// ListForConversation returns ordered messages with their reactions.
func (r *MessageRepo) ListForConversation(ctx context.Context, conversationID int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages WHERE conversation_id=$1 ORDER BY created_at ASC`, conversationID)
	if err != nil {
		return nil, err
	}
	for i := range msgs {
		reactions, err := r.GetReactions(ctx, msgs[i].ID)
		if err != nil {
			return nil, err
		}
		msgs[i].Reactions = reactions
	}
	return msgs, nil
}

// Get retrieves a single message.
func (r *MessageRepo) Get(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	if err != nil {
		return models.Message{}, err
	}
	msg.Reactions, err = r.GetReactions(ctx, messageID)
	return msg, err
}

// MarkRead sets the read status on a batch of messages.
func (r *MessageRepo) MarkRead(ctx context.Context, messageIDs []int) error {
	if len(messageIDs) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE messages SET status=? WHERE id IN (?)`, models.MessageStatusRead, messageIDs)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	return err
}

// GetReactions returns a message's reactions in insertion order.
func (r *MessageRepo) GetReactions(ctx context.Context, messageID int) ([]models.Reaction, error) {
	var reactions []models.Reaction
	err := r.db.SelectContext(ctx, &reactions, `SELECT user_id, emoji FROM message_reactions WHERE message_id=$1 ORDER BY user_id ASC`, messageID)
	return reactions, err
}

// ReplaceReactions overwrites a message's reaction list atomically.
func (r *MessageRepo) ReplaceReactions(ctx context.Context, messageID int, reactions []models.Reaction) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM message_reactions WHERE message_id=$1`, messageID); err != nil {
		return err
	}
	for _, reaction := range reactions {
		if _, err := tx.ExecContext(ctx, `INSERT INTO message_reactions (message_id, user_id, emoji) VALUES ($1, $2, $3)`,
			messageID, reaction.UserID, reaction.Emoji); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Delete removes a message; only the sender may delete.
func (r *MessageRepo) Delete(ctx context.Context, messageID int, senderID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id=$1 AND sender_id=$2`, messageID, senderID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}
