package ws

import (
	"crypto/rand"
	"encoding/hex"
)

// Conn is one live client transport session. The concrete implementation is
// the gorilla-backed Client; tests substitute fakes.
type Conn interface {
	ID() string
	SendEvent(event string, data any) error
	Close() error
}

func newConnID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}
