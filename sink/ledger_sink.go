package sink

import (
	"context"
	"tcp-chat/domain/event"
	"tcp-chat/repositories"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// LedgerSink records session joins and leaves in the session repository.
// Messages are not recorded.
type LedgerSink struct {
	repository repositories.ISessionRepository
}

func NewLedgerSink(repository repositories.ISessionRepository) LedgerSink {
	return LedgerSink{repository: repository}
}

func (l LedgerSink) Consume(ctx context.Context, e event.DomainEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch evt := e.(type) {
	case event.ParticipantJoined:
		return l.repository.StoreJoin(joinRecord(evt))
	case event.ParticipantLeft:
		return l.repository.StoreLeave(leaveRecord(evt))
	default:
		return nil
	}
}

func joinRecord(evt event.ParticipantJoined) repositories.SessionRecord {
	return repositories.SessionRecord{
		ID:         uuid.UUID(evt.ID),
		Name:       evt.Name,
		RemoteAddr: evt.RemoteAddr,
		JoinedAt:   evt.At,
	}
}

func leaveRecord(evt event.ParticipantLeft) repositories.SessionRecord {
	return repositories.SessionRecord{
		ID:         uuid.UUID(evt.ID),
		Name:       evt.Name,
		RemoteAddr: evt.RemoteAddr,
		JoinedAt:   evt.JoinedAt,
		LeftAt:     lo.ToPtr(evt.At),
		Reason:     string(evt.Reason),
		Messages:   evt.Messages,
	}
}
