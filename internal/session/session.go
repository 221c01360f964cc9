// Package session holds the short-lived identities that authorize document operations.
package session

import (
	"github.com/google/uuid"
)

// Mode is the access level granted by a session
type Mode string

const (
	// ModeSystem may perform any operation, including document creation
	ModeSystem Mode = "system"
	// ModeReadOnly may only read
	ModeReadOnly Mode = "readonly"
)

// Session is an ephemeral identity. It is never persisted into a document.
type Session struct {
	ID   uuid.UUID
	Name string
	Mode Mode
}

// MakeExceptional creates a system session that bypasses normal access
// checks, used for work such as populating a nascent document.
func MakeExceptional(name string) *Session {
	return &Session{
		ID:   uuid.New(),
		Name: name,
		Mode: ModeSystem,
	}
}

// MakeReadOnly creates a session that may only read
func MakeReadOnly(name string) *Session {
	return &Session{
		ID:   uuid.New(),
		Name: name,
		Mode: ModeReadOnly,
	}
}

// CanWrite reports whether the session may modify a document. A nil session cannot.
func (s *Session) CanWrite() bool {
	return s != nil && s.Mode == ModeSystem
}
