package ws

import (
	"fmt"
	"log"
	"sync"
	"time"

	"linkup/internal/models"
	"linkup/internal/observability"
)

// session is the signaling-layer record for one call attempt. It lives only
// in broker memory and dies with its terminal state.
type session struct {
	id         string
	callerID   int
	receiverID int
	kind       string
	state      models.CallState
}

func (s *session) other(userID int) int {
	if userID == s.callerID {
		return s.receiverID
	}
	return s.callerID
}

func (s *session) participant(userID int) bool {
	return userID == s.callerID || userID == s.receiverID
}

// Broker manages call lifecycles and forwards WebRTC negotiation payloads
// between exactly two parties. Parties are addressed by user identity, so
// every hop resolves a connection through the presence registry.
type Broker struct {
	mu       sync.Mutex
	registry *Registry
	sessions map[string]*session
	now      func() time.Time
}

// NewBroker constructs a Broker.
func NewBroker(registry *Registry) *Broker {
	return &Broker{
		registry: registry,
		sessions: make(map[string]*session),
		now:      time.Now,
	}
}

// Initiate starts a call attempt. An offline receiver fails synchronously
// with call_failed{reason: offline} and no session is created. Glare
// (simultaneous mutual initiate) is resolved deterministically: the initiate
// from the smaller user id wins, the other party gets
// call_failed{reason: busy}.
func (b *Broker) Initiate(origin Conn, p models.InitiateCallPayload) {
	receiverConn, online := b.registry.Lookup(p.ReceiverID)
	if !online {
		log.Printf("call: receiver %d offline, failing initiate from %d", p.ReceiverID, p.CallerID)
		b.sendEvent(origin, models.EventCallFailed, models.CallFailedPayload{Reason: "offline"})
		observability.IncCallOutcome("offline")
		return
	}

	b.mu.Lock()
	if mirror := b.findRinging(p.ReceiverID, p.CallerID); mirror != nil {
		if p.CallerID > p.ReceiverID {
			// The mirrored initiate from the smaller id stands; this one loses.
			b.mu.Unlock()
			b.sendEvent(origin, models.EventCallFailed, models.CallFailedPayload{Reason: "busy"})
			observability.IncCallOutcome("glare")
			return
		}
		delete(b.sessions, mirror.id)
		b.mu.Unlock()
		if loserConn, ok := b.registry.Lookup(mirror.callerID); ok {
			b.sendEvent(loserConn, models.EventCallFailed, models.CallFailedPayload{CallID: mirror.id, Reason: "busy"})
		}
		observability.IncCallOutcome("glare")
		b.mu.Lock()
	}

	sess := &session{
		id:         fmt.Sprintf("%d-%d-%d", p.CallerID, p.ReceiverID, b.now().UnixMilli()),
		callerID:   p.CallerID,
		receiverID: p.ReceiverID,
		kind:       p.CallKind,
		state:      models.CallRinging,
	}
	b.sessions[sess.id] = sess
	b.mu.Unlock()

	b.sendEvent(receiverConn, models.EventIncomingCall, models.IncomingCallPayload{
		CallID:     sess.id,
		CallerID:   p.CallerID,
		CallKind:   p.CallKind,
		CallerInfo: p.CallerInfo,
	})
}

// Accept moves a ringing call to accepted and notifies the caller. If the
// caller disconnected in the meantime the accept is dropped silently; the
// caller-side ring timeout covers that window.
func (b *Broker) Accept(userID int, p models.AcceptCallPayload) {
	b.mu.Lock()
	sess, ok := b.sessions[p.CallID]
	if !ok || sess.receiverID != userID {
		b.mu.Unlock()
		log.Printf("call: accept for unknown call %q from user %d", p.CallID, userID)
		return
	}
	next, err := sess.state.Transition(models.CallAccepted)
	if err != nil {
		b.mu.Unlock()
		log.Printf("call: %v", err)
		return
	}
	sess.state = next
	callerID := sess.callerID
	b.mu.Unlock()

	callerConn, ok := b.registry.Lookup(callerID)
	if !ok {
		log.Printf("call: caller %d gone, dropping accept for %s", callerID, p.CallID)
		b.terminate(p.CallID, models.CallEnded)
		return
	}
	b.sendEvent(callerConn, models.EventCallAccepted, models.CallAcceptedPayload{
		CallID:       p.CallID,
		ReceiverInfo: p.ReceiverInfo,
	})
}

// Reject declines a ringing call and discards the session.
func (b *Broker) Reject(userID int, callID string) {
	b.mu.Lock()
	sess, ok := b.sessions[callID]
	if !ok || sess.receiverID != userID {
		b.mu.Unlock()
		return
	}
	if _, err := sess.state.Transition(models.CallRejected); err != nil {
		b.mu.Unlock()
		log.Printf("call: %v", err)
		return
	}
	callerID := sess.callerID
	delete(b.sessions, callID)
	b.mu.Unlock()

	observability.IncCallOutcome("rejected")
	if callerConn, ok := b.registry.Lookup(callerID); ok {
		b.sendEvent(callerConn, models.EventCallRejected, models.CallRefPayload{CallID: callID})
	}
}

// End terminates a call from any non-terminal state. Either participant may
// call it; the other side is notified if reachable.
func (b *Broker) End(userID int, callID string) {
	b.mu.Lock()
	sess, ok := b.sessions[callID]
	if !ok || !sess.participant(userID) {
		b.mu.Unlock()
		return
	}
	if _, err := sess.state.Transition(models.CallEnded); err != nil {
		b.mu.Unlock()
		log.Printf("call: %v", err)
		return
	}
	otherID := sess.other(userID)
	delete(b.sessions, callID)
	b.mu.Unlock()

	observability.IncCallOutcome("ended")
	if conn, ok := b.registry.Lookup(otherID); ok {
		b.sendEvent(conn, models.EventCallEnded, models.CallRefPayload{CallID: callID})
	}
}

// Forward relays a WebRTC negotiation payload (offer, answer or ICE
// candidate) to its addressee, tagged with the sender identity. No
// state-machine transition is enforced here (the broker trusts the peer
// connection state machines on each client), but a first offer does move the
// session's bookkeeping to negotiating.
func (b *Broker) Forward(event string, senderID int, p models.SignalPayload) {
	if event == models.EventWebRTCOffer {
		b.mu.Lock()
		if sess, ok := b.sessions[p.CallID]; ok && sess.state == models.CallAccepted {
			sess.state = models.CallNegotiating
		}
		b.mu.Unlock()
	}

	conn, ok := b.registry.Lookup(p.ReceiverID)
	if !ok {
		log.Printf("call: receiver %d unreachable, dropping %s for %s", p.ReceiverID, event, p.CallID)
		return
	}
	b.sendEvent(conn, event, models.SignalPayload{
		CallID:   p.CallID,
		SenderID: senderID,
		Payload:  p.Payload,
	})
}

// DropParticipant ends every session a disconnecting user is part of; the
// other party gets call_ended for each.
func (b *Broker) DropParticipant(userID int) {
	b.mu.Lock()
	var dropped []*session
	for id, sess := range b.sessions {
		if sess.participant(userID) {
			dropped = append(dropped, sess)
			delete(b.sessions, id)
		}
	}
	b.mu.Unlock()

	for _, sess := range dropped {
		observability.IncCallOutcome("ended")
		if conn, ok := b.registry.Lookup(sess.other(userID)); ok {
			b.sendEvent(conn, models.EventCallEnded, models.CallRefPayload{CallID: sess.id})
		}
	}
}

// ActiveCalls reports the number of live sessions.
func (b *Broker) ActiveCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

// findRinging locates a ringing session with the given caller/receiver pair.
// Callers must hold b.mu.
func (b *Broker) findRinging(callerID, receiverID int) *session {
	for _, sess := range b.sessions {
		if sess.callerID == callerID && sess.receiverID == receiverID && sess.state == models.CallRinging {
			return sess
		}
	}
	return nil
}

// terminate discards a session without notifying anyone.
func (b *Broker) terminate(callID string, state models.CallState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.sessions[callID]; ok {
		delete(b.sessions, callID)
		observability.IncCallOutcome(string(state))
	}
}

func (b *Broker) sendEvent(conn Conn, event string, data any) {
	if conn == nil {
		return
	}
	if err := conn.SendEvent(event, data); err != nil {
		log.Printf("call: send %s failed conn=%s: %v", event, conn.ID(), err)
	}
}
