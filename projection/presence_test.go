package projection

import (
	"context"
	"sync"
	"tcp-chat/domain"
	"tcp-chat/domain/event"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPresence_Join_Then_Leave(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()
	ctx := context.Background()
	alice, bob := domain.NewSessionID(), domain.NewSessionID()

	// Given alice and bob joined and alice talked
	req.NoError(presence.Consume(ctx, event.ParticipantJoined{ID: bob, Name: "bob"}))
	req.NoError(presence.Consume(ctx, event.ParticipantJoined{ID: alice, Name: "alice"}))
	req.NoError(presence.Consume(ctx, event.MessagePosted{ID: alice, Author: "alice", Content: "hi"}))
	req.Equal([]string{"alice", "bob"}, presence.Online())

	// When bob leaves
	req.NoError(presence.Consume(ctx, event.ParticipantLeft{ID: bob, Name: "bob", Reason: domain.ReasonQuit}))

	// Then only alice is online
	req.Equal([]string{"alice"}, presence.Online())
	req.Equal(PresenceStats{Online: 1, Joins: 2, Leaves: 1, Messages: 1}, presence.Stats())
}

func TestPresence_Same_Name_Twice(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()
	ctx := context.Background()
	first, second := domain.NewSessionID(), domain.NewSessionID()

	req.NoError(presence.Consume(ctx, event.ParticipantJoined{ID: first, Name: domain.DefaultName}))
	req.NoError(presence.Consume(ctx, event.ParticipantJoined{ID: second, Name: domain.DefaultName}))
	req.NoError(presence.Consume(ctx, event.ParticipantLeft{ID: first, Name: domain.DefaultName}))

	req.Equal([]string{domain.DefaultName}, presence.Online())
}

func TestPresence_Concurrent(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := domain.NewSessionID()
			_ = presence.Consume(ctx, event.ParticipantJoined{ID: id, Name: "user"})
			_ = presence.Consume(ctx, event.ParticipantLeft{ID: id, Name: "user"})
		}()
	}
	wg.Wait()

	req.Equal(PresenceStats{Online: 0, Joins: 50, Leaves: 50}, presence.Stats())
	req.Empty(presence.Online())
}
