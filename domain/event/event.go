package event

import (
	"tcp-chat/domain"
	"time"
)

// DomainEvent is anything worth announcing to the room.
// It is rendered on the wire by Render and fanned out to permanent sinks.
type DomainEvent interface {
	SessionID() domain.SessionID
}

type ParticipantJoined struct {
	ID         domain.SessionID
	Name       string
	RemoteAddr string
	At         time.Time
}

func (p ParticipantJoined) SessionID() domain.SessionID {
	return p.ID
}

type MessagePosted struct {
	ID      domain.SessionID
	Author  string
	Content string
	At      time.Time
}

func (m MessagePosted) SessionID() domain.SessionID {
	return m.ID
}

type ParticipantLeft struct {
	ID         domain.SessionID
	Name       string
	RemoteAddr string
	JoinedAt   time.Time
	At         time.Time
	Reason     domain.LeaveReason
	Messages   int
}

func (p ParticipantLeft) SessionID() domain.SessionID {
	return p.ID
}

// Render returns the line every participant sees for the event.
// Unknown events render as an empty string.
func Render(e DomainEvent) string {
	switch evt := e.(type) {
	case ParticipantJoined:
		return domain.JoinedLine(evt.Name)
	case MessagePosted:
		return domain.ChatLine(evt.Author, evt.Content)
	case ParticipantLeft:
		return domain.LeftLine(evt.Name)
	default:
		return ""
	}
}
