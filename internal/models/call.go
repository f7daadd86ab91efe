package models

import "fmt"

// CallState is the lifecycle state of one call attempt.
type CallState string

const (
	CallIdle        CallState = "idle"
	CallRinging     CallState = "ringing"
	CallAccepted    CallState = "accepted"
	CallNegotiating CallState = "negotiating"
	CallConnected   CallState = "connected"
	CallEnded       CallState = "ended"
	CallRejected    CallState = "rejected"
	CallFailed      CallState = "failed"
)

// Call kinds.
const (
	CallKindAudio = "audio"
	CallKindVideo = "video"
)

var callTransitions = map[CallState][]CallState{
	CallIdle:        {CallRinging},
	CallRinging:     {CallAccepted, CallRejected, CallEnded, CallFailed},
	CallAccepted:    {CallNegotiating, CallEnded, CallFailed},
	CallNegotiating: {CallConnected, CallEnded, CallFailed},
	CallConnected:   {CallEnded, CallFailed},
}

// Terminal reports whether no further transitions are possible.
func (s CallState) Terminal() bool {
	return s == CallEnded || s == CallRejected || s == CallFailed
}

// Transition validates and returns the next state.
func (s CallState) Transition(next CallState) (CallState, error) {
	for _, allowed := range callTransitions[s] {
		if allowed == next {
			return next, nil
		}
	}
	return s, fmt.Errorf("invalid call transition %s -> %s", s, next)
}

// CallerInfo is the display info shown with an incoming call.
type CallerInfo struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}
