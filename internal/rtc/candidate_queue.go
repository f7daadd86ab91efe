// Package rtc implements the client half of the call signaling protocol:
// the ICE candidate queue that absorbs out-of-order candidate delivery, and
// the local call lifecycle with its ring and failure timers.
package rtc

import (
	"encoding/json"
	"sync"
)

// CandidateQueue buffers ICE candidates that arrive before the peer
// connection's remote description is set. Once the description is applied
// the queue is drained in arrival order, exactly once, and stays empty.
type CandidateQueue struct {
	mu        sync.Mutex
	pending   []json.RawMessage
	remoteSet bool
}

// NewCandidateQueue creates an empty queue.
func NewCandidateQueue() *CandidateQueue {
	return &CandidateQueue{}
}

// Add offers a candidate. Before the remote description is set the candidate
// is queued and Add reports true; afterwards it reports false and the caller
// applies the candidate directly.
func (q *CandidateQueue) Add(candidate json.RawMessage) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.remoteSet {
		return false
	}
	q.pending = append(q.pending, candidate)
	return true
}

// RemoteDescriptionSet marks the remote description as applied and returns
// the queued candidates in arrival order. The queue is empty afterwards and
// all later candidates bypass it.
func (q *CandidateQueue) RemoteDescriptionSet() []json.RawMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.remoteSet = true
	drained := q.pending
	q.pending = nil
	return drained
}

// Len reports the number of queued candidates.
func (q *CandidateQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Reset returns the queue to its initial state for the next call.
func (q *CandidateQueue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = nil
	q.remoteSet = false
}
