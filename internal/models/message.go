package models

import "time"

// Message delivery statuses.
const (
	MessageStatusSent      = "sent"
	MessageStatusDelivered = "delivered"
	MessageStatusRead      = "read"
	MessageStatusFailed    = "failed"
)

// Message content types.
const (
	ContentTypeText  = "text"
	ContentTypeImage = "image"
	ContentTypeVideo = "video"
)

// Conversation is a private conversation between exactly two users.
type Conversation struct {
	ID        int       `db:"id" json:"id"`
	User1ID   int       `db:"user1_id" json:"user1_id"`
	User2ID   int       `db:"user2_id" json:"user2_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ConversationSummary provides an API-friendly view of a conversation for a user.
type ConversationSummary struct {
	ConversationID int       `db:"id" json:"conversation_id"`
	PeerID         int       `json:"peer_id"`
	Created        time.Time `db:"created_at" json:"created_at"`
}

// Message represents a chat message. Content holds either text or a media URL
// depending on ContentType.
type Message struct {
	ID             int        `db:"id" json:"id"`
	ConversationID int        `db:"conversation_id" json:"conversation_id"`
	SenderID       int        `db:"sender_id" json:"sender_id"`
	ReceiverID     int        `db:"receiver_id" json:"receiver_id"`
	Content        string     `db:"content" json:"content"`
	ContentType    string     `db:"content_type" json:"content_type"`
	Status         string     `db:"status" json:"status"`
	Reactions      []Reaction `db:"-" json:"reactions,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// Reaction is one user's emoji on a message. At most one reaction per user:
// the same emoji toggles off, a different emoji replaces in place.
type Reaction struct {
	UserID int    `db:"user_id" json:"user_id"`
	Emoji  string `db:"emoji" json:"emoji"`
}

// ToggleReaction applies the reaction rule and returns the updated list,
// leaving the input untouched.
func ToggleReaction(reactions []Reaction, userID int, emoji string) []Reaction {
	for i, r := range reactions {
		if r.UserID != userID {
			continue
		}
		if r.Emoji == emoji {
			out := make([]Reaction, 0, len(reactions)-1)
			out = append(out, reactions[:i]...)
			return append(out, reactions[i+1:]...)
		}
		out := make([]Reaction, len(reactions))
		copy(out, reactions)
		out[i].Emoji = emoji
		return out
	}
	out := make([]Reaction, 0, len(reactions)+1)
	out = append(out, reactions...)
	return append(out, Reaction{UserID: userID, Emoji: emoji})
}
