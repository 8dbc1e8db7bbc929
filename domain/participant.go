// Package domain contains core concepts of the chat system.
// This file defines participant identity and naming rules.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"strings"

	"github.com/google/uuid"
)

// DefaultName is assigned when the handshake yields no usable name.
const DefaultName = "Anonymous"

type SessionID uuid.UUID

func NewSessionID() SessionID {
	return SessionID(uuid.New())
}

func (id SessionID) String() string {
	return uuid.UUID(id).String()
}

// ResolveName maps the handshake line to a display name.
// A missing, empty or whitespace-only line yields DefaultName.
func ResolveName(line string, ok bool) string {
	if !ok {
		return DefaultName
	}
	name := strings.TrimSpace(line)
	if name == "" {
		return DefaultName
	}
	return name
}
