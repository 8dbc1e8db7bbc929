package runtime

import (
	"context"
	"sync"
	"tcp-chat/domain"
	"tcp-chat/errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	id   domain.SessionID
	name string
}

func newFakeSession(name string) *fakeSession {
	return &fakeSession{id: domain.NewSessionID(), name: name}
}

func (f *fakeSession) ID() domain.SessionID { return f.id }

func (f *fakeSession) Name() string { return f.name }

func (f *fakeSession) Deliver(_ context.Context, _ string) error { return nil }

func (f *fakeSession) Terminate() error { return nil }

func TestRegistry_Insert_One_Session(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice := newFakeSession("alice")

	// Given no session is registered
	req.Zero(registry.Len())
	req.Empty(registry.Snapshot())

	// When a session is inserted
	req.NoError(registry.Insert(alice))

	// Then it is part of the snapshot
	req.Equal(1, registry.Len())
	req.Len(registry.Snapshot(), 1)
	req.Contains(registry.Snapshot(), alice)
}

func TestRegistry_Insert_Rejects_Duplicate(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice := newFakeSession("alice")

	// Given a registered session
	req.NoError(registry.Insert(alice))

	// When the same session registers again
	err := registry.Insert(alice)

	// Then it is rejected and no duplicate exists
	req.ErrorIs(err, errors.ErrAlreadyRegistered)
	req.Equal(1, registry.Len())
}

func TestRegistry_Insert_Nil(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	req.ErrorIs(registry.Insert(nil), errors.ErrNilSession)
	req.Zero(registry.Len())
}

func TestRegistry_Remove_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice := newFakeSession("alice")
	bob := newFakeSession("bob")
	req.NoError(registry.Insert(alice))
	req.NoError(registry.Insert(bob))

	// When alice is removed twice
	req.True(registry.Remove(alice.ID()))
	req.False(registry.Remove(alice.ID()))

	// Then only bob is left
	req.Equal(1, registry.Len())
	req.Equal([]*fakeSession{bob}, toFakes(registry))
}

func TestRegistry_Snapshot_Is_Detached(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice := newFakeSession("alice")
	req.NoError(registry.Insert(alice))

	// Given a snapshot taken before a join and a leave
	snapshot := registry.Snapshot()
	req.NoError(registry.Insert(newFakeSession("bob")))
	registry.Remove(alice.ID())

	// Then the snapshot is unchanged
	req.Len(snapshot, 1)
	req.Equal(alice, snapshot[0])
}

func TestRegistry_Concurrent_Insert_Remove_Snapshot(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	const total = 200

	sessions := make([]*fakeSession, total)
	for i := range sessions {
		sessions[i] = newFakeSession("user")
	}

	var wg sync.WaitGroup
	// Every session joins, half of them leave, while snapshots are taken
	for i, s := range sessions {
		wg.Add(1)
		go func(i int, s *fakeSession) {
			defer wg.Done()
			assert.NoError(t, registry.Insert(s))
			_ = registry.Snapshot()
			if i%2 == 0 {
				assert.True(t, registry.Remove(s.ID()))
			}
		}(i, s)
	}
	wg.Wait()

	// Then the size matches exactly the sessions still registered
	req.Equal(total/2, registry.Len())
	req.Len(registry.Snapshot(), total/2)
}

func toFakes(registry *Registry) []*fakeSession {
	var res []*fakeSession
	for _, s := range registry.Snapshot() {
		res = append(res, s.(*fakeSession))
	}
	return res
}

type recordingSession struct {
	fakeSession
	mu    sync.Mutex
	lines []string
}

func newRecordingSession(name string) *recordingSession {
	return &recordingSession{fakeSession: *newFakeSession(name)}
}

func (r *recordingSession) Deliver(_ context.Context, line string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
	return nil
}

func (r *recordingSession) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}
