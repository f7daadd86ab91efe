package models

import "encoding/json"

// Client -> server socket event tags.
const (
	EventUserConnected   = "user_connected"
	EventGetUserStatus   = "get_user_status"
	EventSendMessage     = "send_message"
	EventMessageRead     = "message_read"
	EventAddReaction     = "add_reaction"
	EventTypingStart     = "typing_start"
	EventTypingStop      = "typing_stop"
	EventInitiateCall    = "initiate_call"
	EventAcceptCall      = "accept_call"
	EventRejectCall      = "reject_call"
	EventEndCall         = "end_call"
	EventWebRTCOffer     = "webrtc_offer"
	EventWebRTCAnswer    = "webrtc_answer"
	EventWebRTCCandidate = "webrtc_ice_candidate"
)

// Server -> client socket event tags.
const (
	EventUserStatus          = "user_status"
	EventReceiveMessage      = "receive_message"
	EventMessageStatusUpdate = "message_status_update"
	EventReactionUpdate      = "reaction_update"
	EventMessageDeleted      = "message_deleted"
	EventUserTyping          = "user_typing"
	EventIncomingCall        = "incoming_call"
	EventCallAccepted        = "call_accepted"
	EventCallRejected        = "call_rejected"
	EventCallEnded           = "call_ended"
	EventCallFailed          = "call_failed"
	EventNewStatus           = "new_status"
	EventStatusViewed        = "status_viewed"
	EventStatusDeleted       = "status_deleted"
	EventMessageError        = "message_error"
)

// SocketEvent is the tagged envelope multiplexing every event over one
// websocket connection.
type SocketEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// UserConnectedPayload announces the connection's identity after connect.
type UserConnectedPayload struct {
	UserID int `json:"user_id"`
}

// GetUserStatusPayload asks for one user's presence snapshot.
type GetUserStatusPayload struct {
	UserID int `json:"user_id"`
}

// UserStatusPayload is broadcast on presence changes and returned for
// get_user_status queries.
type UserStatusPayload struct {
	UserID   int    `json:"user_id"`
	IsOnline bool   `json:"is_online"`
	LastSeen string `json:"last_seen,omitempty"`
}

// MessageReadPayload marks a batch of messages read.
type MessageReadPayload struct {
	MessageIDs []int `json:"message_ids"`
	SenderID   int   `json:"sender_id"`
}

// MessageStatusUpdatePayload notifies a sender of one message's status change.
type MessageStatusUpdatePayload struct {
	MessageID int    `json:"message_id"`
	Status    string `json:"status"`
}

// AddReactionPayload toggles a reaction on a message.
type AddReactionPayload struct {
	MessageID int    `json:"message_id"`
	Emoji     string `json:"emoji"`
	UserID    int    `json:"user_id"`
}

// ReactionUpdatePayload carries the full updated reaction list.
type ReactionUpdatePayload struct {
	MessageID int        `json:"message_id"`
	Reactions []Reaction `json:"reactions"`
}

// MessageDeletedPayload notifies peers that a message was removed.
type MessageDeletedPayload struct {
	MessageID int `json:"message_id"`
}

// TypingPayload drives typing_start/typing_stop.
type TypingPayload struct {
	ConversationID int `json:"conversation_id"`
	ReceiverID     int `json:"receiver_id"`
}

// UserTypingPayload is emitted to the receiving side of a conversation.
type UserTypingPayload struct {
	UserID         int  `json:"user_id"`
	ConversationID int  `json:"conversation_id"`
	IsTyping       bool `json:"is_typing"`
}

// InitiateCallPayload starts a call attempt.
type InitiateCallPayload struct {
	CallerID   int        `json:"caller_id"`
	ReceiverID int        `json:"receiver_id"`
	CallKind   string     `json:"call_kind"`
	CallerInfo CallerInfo `json:"caller_info"`
}

// IncomingCallPayload rings the receiver.
type IncomingCallPayload struct {
	CallID     string     `json:"call_id"`
	CallerID   int        `json:"caller_id"`
	CallKind   string     `json:"call_kind"`
	CallerInfo CallerInfo `json:"caller_info"`
}

// AcceptCallPayload accepts a ringing call.
type AcceptCallPayload struct {
	CallID       string     `json:"call_id"`
	ReceiverInfo CallerInfo `json:"receiver_info"`
}

// CallAcceptedPayload tells the caller the receiver picked up.
type CallAcceptedPayload struct {
	CallID       string     `json:"call_id"`
	ReceiverInfo CallerInfo `json:"receiver_info"`
}

// CallRefPayload carries just a call identity (reject_call, end_call,
// call_rejected, call_ended).
type CallRefPayload struct {
	CallID string `json:"call_id"`
}

// CallFailedPayload reports that a call attempt could not proceed.
type CallFailedPayload struct {
	CallID string `json:"call_id,omitempty"`
	Reason string `json:"reason"`
}

// SignalPayload forwards a WebRTC negotiation payload (SDP offer/answer or
// ICE candidate) between the two parties of a call. SenderID is filled by
// the server before forwarding.
type SignalPayload struct {
	CallID     string          `json:"call_id"`
	ReceiverID int             `json:"receiver_id,omitempty"`
	SenderID   int             `json:"sender_id,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

// StatusViewedPayload notifies the author that someone viewed their status.
type StatusViewedPayload struct {
	StatusID     int   `json:"status_id"`
	ViewerID     int   `json:"viewer_id"`
	TotalViewers int   `json:"total_viewers"`
	Viewers      []int `json:"viewers"`
}

// StatusDeletedPayload tells everyone a status is gone.
type StatusDeletedPayload struct {
	StatusID int `json:"status_id"`
}

// MessageErrorPayload is the targeted error event for a failed relay
// operation, sent only to the initiating connection.
type MessageErrorPayload struct {
	Error string `json:"error"`
}
