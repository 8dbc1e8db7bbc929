package errors

import "fmt"

var (
	ErrWorkerPanic       = fmt.Errorf("worker panic")
	ErrSessionClosed     = fmt.Errorf("session closed")
	ErrAlreadyRegistered = fmt.Errorf("session already registered")
	ErrListenerFailed    = fmt.Errorf("listener failed")
	ErrInvalidPort       = fmt.Errorf("invalid port")
	ErrNilSession        = fmt.Errorf("nil session")
)
