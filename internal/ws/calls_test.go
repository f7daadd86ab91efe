package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkup/internal/models"
)

func brokerSetup(t *testing.T) (*Broker, *fakeConn, *fakeConn) {
	t.Helper()
	registry, _ := newTestRegistry()
	caller := newFakeConn("caller")
	receiver := newFakeConn("receiver")
	registry.Register(context.Background(), 1, caller)
	registry.Register(context.Background(), 2, receiver)

	broker := NewBroker(registry)
	broker.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return broker, caller, receiver
}

func TestInitiateOfflineReceiverFails(t *testing.T) {
	registry, _ := newTestRegistry()
	caller := newFakeConn("caller")
	registry.Register(context.Background(), 1, caller)
	broker := NewBroker(registry)

	broker.Initiate(caller, models.InitiateCallPayload{CallerID: 1, ReceiverID: 2, CallKind: models.CallKindVideo})

	event, ok := caller.lastEvent(models.EventCallFailed)
	require.True(t, ok)
	assert.Equal(t, "offline", event.data.(models.CallFailedPayload).Reason)
	assert.Zero(t, broker.ActiveCalls())

	// A later accept against the failed attempt must be a no-op.
	broker.Accept(2, models.AcceptCallPayload{CallID: "1-2-0"})
	assert.Zero(t, broker.ActiveCalls())
}

func TestCallLifecycle(t *testing.T) {
	broker, caller, receiver := brokerSetup(t)

	broker.Initiate(caller, models.InitiateCallPayload{
		CallerID:   1,
		ReceiverID: 2,
		CallKind:   models.CallKindVideo,
		CallerInfo: models.CallerInfo{Username: "alice"},
	})

	ring, ok := receiver.lastEvent(models.EventIncomingCall)
	require.True(t, ok)
	incoming := ring.data.(models.IncomingCallPayload)
	assert.Equal(t, fmt.Sprintf("1-2-%d", int64(1700000000000)), incoming.CallID)
	assert.Equal(t, 1, incoming.CallerID)
	assert.Equal(t, models.CallKindVideo, incoming.CallKind)
	assert.Equal(t, "alice", incoming.CallerInfo.Username)
	assert.Equal(t, 1, broker.ActiveCalls())

	broker.Accept(2, models.AcceptCallPayload{CallID: incoming.CallID, ReceiverInfo: models.CallerInfo{Username: "bob"}})
	accepted, ok := caller.lastEvent(models.EventCallAccepted)
	require.True(t, ok)
	assert.Equal(t, "bob", accepted.data.(models.CallAcceptedPayload).ReceiverInfo.Username)

	sdp := json.RawMessage(`{"type":"offer"}`)
	broker.Forward(models.EventWebRTCOffer, 1, models.SignalPayload{CallID: incoming.CallID, ReceiverID: 2, Payload: sdp})
	offer, ok := receiver.lastEvent(models.EventWebRTCOffer)
	require.True(t, ok)
	signal := offer.data.(models.SignalPayload)
	assert.Equal(t, 1, signal.SenderID)
	assert.Equal(t, sdp, signal.Payload)

	broker.End(1, incoming.CallID)
	ended, ok := receiver.lastEvent(models.EventCallEnded)
	require.True(t, ok)
	assert.Equal(t, incoming.CallID, ended.data.(models.CallRefPayload).CallID)
	assert.Zero(t, broker.ActiveCalls())
}

func TestRejectDiscardsSession(t *testing.T) {
	broker, caller, receiver := brokerSetup(t)

	broker.Initiate(caller, models.InitiateCallPayload{CallerID: 1, ReceiverID: 2, CallKind: models.CallKindAudio})
	ring, _ := receiver.lastEvent(models.EventIncomingCall)
	callID := ring.data.(models.IncomingCallPayload).CallID

	broker.Reject(2, callID)

	rejected, ok := caller.lastEvent(models.EventCallRejected)
	require.True(t, ok)
	assert.Equal(t, callID, rejected.data.(models.CallRefPayload).CallID)
	assert.Zero(t, broker.ActiveCalls())

	// The discarded call cannot be ended a second time.
	broker.End(1, callID)
	assert.Zero(t, caller.countEvent(models.EventCallEnded))
}

func TestAcceptByNonReceiverIgnored(t *testing.T) {
	broker, caller, receiver := brokerSetup(t)

	broker.Initiate(caller, models.InitiateCallPayload{CallerID: 1, ReceiverID: 2, CallKind: models.CallKindAudio})
	ring, _ := receiver.lastEvent(models.EventIncomingCall)
	callID := ring.data.(models.IncomingCallPayload).CallID

	broker.Accept(1, models.AcceptCallPayload{CallID: callID})

	assert.Zero(t, caller.countEvent(models.EventCallAccepted))
	assert.Equal(t, 1, broker.ActiveCalls())
}

func TestEndFromEitherParticipant(t *testing.T) {
	broker, caller, receiver := brokerSetup(t)

	broker.Initiate(caller, models.InitiateCallPayload{CallerID: 1, ReceiverID: 2, CallKind: models.CallKindAudio})
	ring, _ := receiver.lastEvent(models.EventIncomingCall)
	callID := ring.data.(models.IncomingCallPayload).CallID

	// The receiver may end a call while it is still ringing.
	broker.End(2, callID)
	event, ok := caller.lastEvent(models.EventCallEnded)
	require.True(t, ok)
	assert.Equal(t, callID, event.data.(models.CallRefPayload).CallID)
	assert.Zero(t, broker.ActiveCalls())
}

func TestGlareLargerCallerLoses(t *testing.T) {
	broker, caller, receiver := brokerSetup(t)

	// User 1 rings user 2 first.
	broker.Initiate(caller, models.InitiateCallPayload{CallerID: 1, ReceiverID: 2, CallKind: models.CallKindAudio})
	require.Equal(t, 1, broker.ActiveCalls())

	// User 2's simultaneous initiate collides and loses the tie-break.
	broker.Initiate(receiver, models.InitiateCallPayload{CallerID: 2, ReceiverID: 1, CallKind: models.CallKindAudio})

	event, ok := receiver.lastEvent(models.EventCallFailed)
	require.True(t, ok)
	assert.Equal(t, "busy", event.data.(models.CallFailedPayload).Reason)
	assert.Equal(t, 1, broker.ActiveCalls())
	assert.Zero(t, caller.countEvent(models.EventIncomingCall))
}

func TestGlareSmallerCallerWins(t *testing.T) {
	broker, caller, receiver := brokerSetup(t)

	// User 2 rings user 1 first.
	broker.Initiate(receiver, models.InitiateCallPayload{CallerID: 2, ReceiverID: 1, CallKind: models.CallKindAudio})
	require.Equal(t, 1, broker.ActiveCalls())

	// User 1's colliding initiate wins: the mirror is discarded and user 2
	// both learns their attempt failed and starts ringing.
	broker.Initiate(caller, models.InitiateCallPayload{CallerID: 1, ReceiverID: 2, CallKind: models.CallKindAudio})

	failed, ok := receiver.lastEvent(models.EventCallFailed)
	require.True(t, ok)
	assert.Equal(t, "busy", failed.data.(models.CallFailedPayload).Reason)

	ring, ok := receiver.lastEvent(models.EventIncomingCall)
	require.True(t, ok)
	assert.Equal(t, 1, ring.data.(models.IncomingCallPayload).CallerID)
	assert.Equal(t, 1, broker.ActiveCalls())
}

func TestDropParticipantEndsCalls(t *testing.T) {
	broker, caller, receiver := brokerSetup(t)

	broker.Initiate(caller, models.InitiateCallPayload{CallerID: 1, ReceiverID: 2, CallKind: models.CallKindVideo})
	ring, _ := receiver.lastEvent(models.EventIncomingCall)
	callID := ring.data.(models.IncomingCallPayload).CallID

	broker.DropParticipant(1)

	event, ok := receiver.lastEvent(models.EventCallEnded)
	require.True(t, ok)
	assert.Equal(t, callID, event.data.(models.CallRefPayload).CallID)
	assert.Zero(t, broker.ActiveCalls())
}

func TestForwardToUnreachableReceiverDrops(t *testing.T) {
	broker, caller, _ := brokerSetup(t)

	broker.Forward(models.EventWebRTCCandidate, 1, models.SignalPayload{
		CallID:     "1-2-0",
		ReceiverID: 99,
		Payload:    json.RawMessage(`{}`),
	})
	assert.Zero(t, caller.countEvent(models.EventWebRTCCandidate))
}
