// Package projection builds local read models from observed events.
// Does not emit events or talk to the network.
package projection

import (
	"context"
	"sort"
	"sync"
	"tcp-chat/domain"
	"tcp-chat/domain/event"

	"github.com/samber/lo"
)

type PresenceStats struct {
	Online   int
	Joins    int
	Leaves   int
	Messages int
}

// Presence tracks who is in the room.
type Presence struct {
	mu       sync.Mutex
	online   map[domain.SessionID]string
	joins    int
	leaves   int
	messages int
}

func NewPresence() *Presence {
	return &Presence{online: make(map[domain.SessionID]string)}
}

func (p *Presence) Consume(_ context.Context, e event.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch evt := e.(type) {
	case event.ParticipantJoined:
		p.online[evt.ID] = evt.Name
		p.joins++
	case event.ParticipantLeft:
		delete(p.online, evt.ID)
		p.leaves++
	case event.MessagePosted:
		p.messages++
	}
	return nil
}

// Online returns the names of connected participants, sorted.
// Two participants may share a name.
func (p *Presence) Online() []string {
	p.mu.Lock()
	names := lo.Values(p.online)
	p.mu.Unlock()

	sort.Strings(names)
	return names
}

func (p *Presence) Stats() PresenceStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PresenceStats{
		Online:   len(p.online),
		Joins:    p.joins,
		Leaves:   p.leaves,
		Messages: p.messages,
	}
}
