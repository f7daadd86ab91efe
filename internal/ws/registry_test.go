package ws

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"linkup/internal/models"
)

func TestRegisterBroadcastsPresence(t *testing.T) {
	registry, _ := newTestRegistry()
	alice := newFakeConn("a")
	bob := newFakeConn("b")

	registry.Register(context.Background(), 1, alice)
	registry.Register(context.Background(), 2, bob)

	// Alice was already connected, so she hears about Bob.
	event, ok := alice.lastEvent(models.EventUserStatus)
	require.True(t, ok)
	payload := event.data.(models.UserStatusPayload)
	assert.Equal(t, 2, payload.UserID)
	assert.True(t, payload.IsOnline)

	// The announcement never echoes back to the user it describes.
	assert.Zero(t, bob.countEvent(models.EventUserStatus))
	assert.Equal(t, 2, registry.Online())
}

func TestRegisterIsIdempotentForSameConn(t *testing.T) {
	registry, _ := newTestRegistry()
	alice := newFakeConn("a")

	registry.Register(context.Background(), 1, alice)
	registry.Register(context.Background(), 1, alice)

	assert.Zero(t, alice.closeCount())
	assert.Equal(t, 1, registry.Online())
}

func TestRegisterEvictsPreviousSession(t *testing.T) {
	registry, _ := newTestRegistry()
	first := newFakeConn("first")
	second := newFakeConn("second")

	registry.Register(context.Background(), 1, first)
	registry.Register(context.Background(), 1, second)

	assert.Equal(t, 1, first.closeCount())
	current, ok := registry.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, "second", current.ID())
	assert.Equal(t, 1, registry.Online())
}

func TestUnregisterIgnoresEvictedSession(t *testing.T) {
	registry, _ := newTestRegistry()
	first := newFakeConn("first")
	second := newFakeConn("second")

	registry.Register(context.Background(), 1, first)
	registry.Register(context.Background(), 1, second)

	// The evicted connection disconnects late; the replacement stays.
	assert.False(t, registry.Unregister(context.Background(), 1, first))
	current, ok := registry.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, "second", current.ID())

	assert.True(t, registry.Unregister(context.Background(), 1, second))
	_, ok = registry.Lookup(1)
	assert.False(t, ok)
}

func TestUnregisterBroadcastsLastSeen(t *testing.T) {
	registry, _ := newTestRegistry()
	alice := newFakeConn("a")
	bob := newFakeConn("b")

	registry.Register(context.Background(), 1, alice)
	registry.Register(context.Background(), 2, bob)
	require.True(t, registry.Unregister(context.Background(), 2, bob))

	event, ok := alice.lastEvent(models.EventUserStatus)
	require.True(t, ok)
	payload := event.data.(models.UserStatusPayload)
	assert.Equal(t, 2, payload.UserID)
	assert.False(t, payload.IsOnline)
	assert.NotEmpty(t, payload.LastSeen)
}

func TestQueryStatusOnline(t *testing.T) {
	registry, _ := newTestRegistry()
	registry.Register(context.Background(), 1, newFakeConn("a"))

	snapshot := registry.QueryStatus(context.Background(), 1)
	assert.True(t, snapshot.IsOnline)
	require.NotNil(t, snapshot.LastSeen)
}

func TestQueryStatusOfflineReadsStore(t *testing.T) {
	registry, users := newTestRegistry()
	lastSeen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	users.On("GetUser", mock.Anything, 7).Return(models.User{ID: 7, LastSeen: &lastSeen}, nil).Once()

	snapshot := registry.QueryStatus(context.Background(), 7)
	assert.False(t, snapshot.IsOnline)
	require.NotNil(t, snapshot.LastSeen)
	assert.Equal(t, lastSeen, *snapshot.LastSeen)
	users.AssertExpectations(t)
}

func TestBroadcastExcludesOneUser(t *testing.T) {
	registry, _ := newTestRegistry()
	alice := newFakeConn("a")
	bob := newFakeConn("b")
	carol := newFakeConn("c")

	registry.Register(context.Background(), 1, alice)
	registry.Register(context.Background(), 2, bob)
	registry.Register(context.Background(), 3, carol)

	registry.Broadcast("test_event", nil, 2)

	assert.Equal(t, 1, alice.countEvent("test_event"))
	assert.Zero(t, bob.countEvent("test_event"))
	assert.Equal(t, 1, carol.countEvent("test_event"))
}
