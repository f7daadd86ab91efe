package ws

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"linkup/internal/models"
	"linkup/internal/observability"
)

// dispatch decodes the tagged envelope and routes to the matching subsystem.
// Every handler guards its payload and no-ops on missing identity fields; a
// panic in one handler is contained so a single bad event cannot take the
// process down with it.
func (g *Gateway) dispatch(c *Client, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("socket: handler panic conn=%s: %v", c.id, r)
		}
	}()

	var envelope models.SocketEvent
	if err := json.Unmarshal(raw, &envelope); err != nil {
		log.Printf("socket: invalid envelope conn=%s: %v", c.id, err)
		return
	}
	observability.IncWSEvent(envelope.Event)

	if envelope.Event == models.EventUserConnected {
		g.handleUserConnected(c, envelope.Data)
		return
	}
	if c.userID == 0 {
		log.Printf("socket: %s before user_connected conn=%s", envelope.Event, c.id)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch envelope.Event {
	case models.EventGetUserStatus:
		g.handleGetUserStatus(ctx, c, envelope.Data)
	case models.EventSendMessage:
		g.handleSendMessage(c, envelope.Data)
	case models.EventMessageRead:
		g.handleMessageRead(ctx, c, envelope.Data)
	case models.EventAddReaction:
		g.handleAddReaction(ctx, c, envelope.Data)
	case models.EventTypingStart, models.EventTypingStop:
		g.handleTyping(c, envelope.Event, envelope.Data)
	case models.EventInitiateCall:
		g.handleInitiateCall(c, envelope.Data)
	case models.EventAcceptCall:
		g.handleAcceptCall(c, envelope.Data)
	case models.EventRejectCall:
		g.handleCallRef(c, envelope.Data, g.broker.Reject)
	case models.EventEndCall:
		g.handleCallRef(c, envelope.Data, g.broker.End)
	case models.EventWebRTCOffer, models.EventWebRTCAnswer, models.EventWebRTCCandidate:
		g.handleSignal(c, envelope.Event, envelope.Data)
	default:
		log.Printf("socket: unknown event %q conn=%s", envelope.Event, c.id)
	}
}

func (g *Gateway) handleUserConnected(c *Client, data json.RawMessage) {
	var p models.UserConnectedPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Printf("socket: bad user_connected payload conn=%s: %v", c.id, err)
		return
	}
	// The registry identity comes from the authenticated token, not the
	// payload; a mismatch is logged and ignored.
	if p.UserID != 0 && p.UserID != c.authUserID {
		log.Printf("socket: user_connected id mismatch conn=%s claimed=%d actual=%d", c.id, p.UserID, c.authUserID)
	}
	c.userID = c.authUserID
	g.registry.Register(context.Background(), c.userID, c)
}

func (g *Gateway) handleGetUserStatus(ctx context.Context, c *Client, data json.RawMessage) {
	var p models.GetUserStatusPayload
	if err := json.Unmarshal(data, &p); err != nil || p.UserID == 0 {
		return
	}
	snapshot := g.registry.QueryStatus(ctx, p.UserID)
	reply := models.UserStatusPayload{UserID: snapshot.UserID, IsOnline: snapshot.IsOnline}
	if snapshot.LastSeen != nil {
		reply.LastSeen = snapshot.LastSeen.UTC().Format(time.RFC3339)
	}
	if err := c.SendEvent(models.EventUserStatus, reply); err != nil {
		log.Printf("socket: user_status reply failed conn=%s: %v", c.id, err)
	}
}

func (g *Gateway) handleSendMessage(c *Client, data json.RawMessage) {
	var msg models.Message
	if err := json.Unmarshal(data, &msg); err != nil || msg.ReceiverID == 0 {
		return
	}
	if msg.SenderID != c.userID {
		log.Printf("socket: send_message sender mismatch conn=%s", c.id)
		return
	}
	g.relay.Send(msg)
}

func (g *Gateway) handleMessageRead(ctx context.Context, c *Client, data json.RawMessage) {
	var p models.MessageReadPayload
	if err := json.Unmarshal(data, &p); err != nil || len(p.MessageIDs) == 0 || p.SenderID == 0 {
		return
	}
	if err := g.messages.MarkRead(ctx, p.MessageIDs); err != nil {
		log.Printf("socket: mark read failed conn=%s: %v", c.id, err)
		c.SendEvent(models.EventMessageError, models.MessageErrorPayload{Error: "failed to mark messages read"})
		return
	}
	g.relay.ReadReceipt(p.MessageIDs, p.SenderID)
}

func (g *Gateway) handleAddReaction(ctx context.Context, c *Client, data json.RawMessage) {
	var p models.AddReactionPayload
	if err := json.Unmarshal(data, &p); err != nil || p.MessageID == 0 || p.Emoji == "" {
		return
	}
	g.relay.Reaction(ctx, c, p.MessageID, p.Emoji, c.userID)
}

func (g *Gateway) handleTyping(c *Client, event string, data json.RawMessage) {
	var p models.TypingPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ConversationID == 0 || p.ReceiverID == 0 {
		return
	}
	if event == models.EventTypingStart {
		g.typing.Start(c.userID, p.ConversationID, p.ReceiverID)
		return
	}
	g.typing.Stop(c.userID, p.ConversationID, p.ReceiverID)
}

func (g *Gateway) handleInitiateCall(c *Client, data json.RawMessage) {
	var p models.InitiateCallPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ReceiverID == 0 {
		return
	}
	p.CallerID = c.userID
	g.broker.Initiate(c, p)
}

func (g *Gateway) handleAcceptCall(c *Client, data json.RawMessage) {
	var p models.AcceptCallPayload
	if err := json.Unmarshal(data, &p); err != nil || p.CallID == "" {
		return
	}
	g.broker.Accept(c.userID, p)
}

func (g *Gateway) handleCallRef(c *Client, data json.RawMessage, fn func(userID int, callID string)) {
	var p models.CallRefPayload
	if err := json.Unmarshal(data, &p); err != nil || p.CallID == "" {
		return
	}
	fn(c.userID, p.CallID)
}

func (g *Gateway) handleSignal(c *Client, event string, data json.RawMessage) {
	var p models.SignalPayload
	if err := json.Unmarshal(data, &p); err != nil || p.CallID == "" || p.ReceiverID == 0 {
		return
	}
	g.broker.Forward(event, c.userID, p)
}
