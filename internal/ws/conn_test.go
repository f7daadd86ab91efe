package ws

import (
	"errors"
	"sync"

	"github.com/stretchr/testify/mock"

	"linkup/internal/mocks"
)

type sentEvent struct {
	event string
	data  any
}

// fakeConn records every event sent through it.
type fakeConn struct {
	mu       sync.Mutex
	id       string
	events   []sentEvent
	closed   int
	failSend bool
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) SendEvent(event string, data any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSend {
		return errors.New("send failed")
	}
	c.events = append(c.events, sentEvent{event: event, data: data})
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

func (c *fakeConn) sent() []sentEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]sentEvent, len(c.events))
	copy(out, c.events)
	return out
}

func (c *fakeConn) countEvent(event string) int {
	n := 0
	for _, e := range c.sent() {
		if e.event == event {
			n++
		}
	}
	return n
}

func (c *fakeConn) lastEvent(event string) (sentEvent, bool) {
	var found sentEvent
	ok := false
	for _, e := range c.sent() {
		if e.event == event {
			found, ok = e, true
		}
	}
	return found, ok
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}

func (c *fakeConn) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// newTestRegistry builds a registry whose presence persistence is a
// tolerant mock, since those writes happen on background goroutines.
func newTestRegistry() (*Registry, *mocks.UserRepositoryMock) {
	users := new(mocks.UserRepositoryMock)
	users.On("SetPresence", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return NewRegistry(users), users
}
