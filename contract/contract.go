//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"tcp-chat/domain"
	"tcp-chat/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Session is the part of a live connection the registry and the broadcaster see.
// Deliver only queues the line, the session owns the actual write.
type Session interface {
	ID() domain.SessionID
	Name() string
	Deliver(ctx context.Context, line string) error
	Terminate() error
}

type IRegistry interface {
	Insert(session Session) error
	Remove(id domain.SessionID) bool
	Snapshot() []Session
	Len() int
}

type IBroadcaster interface {
	Broadcast(ctx context.Context, message string) int
	Announce(ctx context.Context, e event.DomainEvent) int
}

// Intake is the accepting side of the server, as seen by shutdown.
type Intake interface {
	Close() error
	Wait(ctx context.Context) error
}

type ICoordinator interface {
	Shutdown()
	Done() <-chan struct{}
}
