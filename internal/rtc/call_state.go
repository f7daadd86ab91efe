package rtc

import (
	"log"
	"sync"
	"time"

	"linkup/internal/models"
)

const (
	// ringTimeout bounds how long an outgoing call rings before the caller
	// gives up. It also covers the window where an accept is dropped because
	// the caller vanished mid-ring.
	ringTimeout = 30 * time.Second

	// failTeardownDelay keeps a failed call on screen briefly before the
	// automatic teardown, so the user sees what happened.
	failTeardownDelay = 2 * time.Second
)

// CallSession tracks one call attempt on the client side, mirroring the
// broker's lifecycle with the timers only the client can own. Teardown is
// invoked exactly once per session, from whichever exit path fires first.
type CallSession struct {
	mu       sync.Mutex
	callID   string
	state    models.CallState
	queue    *CandidateQueue
	ringer   *time.Timer
	teardown func(callID string)
	done     bool
}

// NewCallSession creates a session in the idle state. The teardown callback
// ends the call (sends end_call, releases media).
func NewCallSession(callID string, teardown func(callID string)) *CallSession {
	return &CallSession{
		callID:   callID,
		state:    models.CallIdle,
		queue:    NewCandidateQueue(),
		teardown: teardown,
	}
}

// Queue exposes the session's ICE candidate queue.
func (s *CallSession) Queue() *CandidateQueue { return s.queue }

// State returns the current lifecycle state.
func (s *CallSession) State() models.CallState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StartRinging moves to ringing and arms the ring timeout; an unanswered
// call fails and tears down.
func (s *CallSession) StartRinging() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.state.Transition(models.CallRinging)
	if err != nil {
		return err
	}
	s.state = next
	s.ringer = time.AfterFunc(ringTimeout, func() {
		log.Printf("rtc: call %s unanswered, giving up", s.callID)
		s.TransportFailed()
	})
	return nil
}

// Advance applies a lifecycle transition (accepted, negotiating, connected).
// Reaching a state past ringing disarms the ring timer.
func (s *CallSession) Advance(next models.CallState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, err := s.state.Transition(next)
	if err != nil {
		return err
	}
	s.state = state
	if s.ringer != nil {
		s.ringer.Stop()
		s.ringer = nil
	}
	return nil
}

// TransportFailed records a peer-connection failure and schedules the
// delayed teardown.
func (s *CallSession) TransportFailed() {
	s.mu.Lock()
	if s.done || s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	s.state = models.CallFailed
	s.done = true
	if s.ringer != nil {
		s.ringer.Stop()
		s.ringer = nil
	}
	teardown := s.teardown
	callID := s.callID
	s.mu.Unlock()

	if teardown != nil {
		time.AfterFunc(failTeardownDelay, func() { teardown(callID) })
	}
}

// Terminate ends the session immediately (local hang-up, remote call_ended
// or call_rejected). No delayed teardown: the cause is already known.
func (s *CallSession) Terminate(state models.CallState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	if !state.Terminal() {
		state = models.CallEnded
	}
	s.state = state
	s.done = true
	if s.ringer != nil {
		s.ringer.Stop()
		s.ringer = nil
	}
}
