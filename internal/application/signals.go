package application

import (
	"log/slog"
	"sync/atomic"
)

// Signals is the process-wide state shared by every stage. Each flag is
// independently atomic and every method is safe for concurrent use.
type Signals struct {
	speakerActive atomic.Bool
	shuttingDown  atomic.Bool
	cause         atomic.Pointer[error]
	done          chan struct{}
	logger        *slog.Logger
}

func NewSignals(logger *slog.Logger) *Signals {
	return &Signals{
		done:   make(chan struct{}),
		logger: logger,
	}
}

func (s *Signals) IsSpeakerActive() bool {
	return s.speakerActive.Load()
}

func (s *Signals) SetSpeakerActive(active bool) {
	s.speakerActive.Store(active)
}

func (s *Signals) IsShuttingDown() bool {
	return s.shuttingDown.Load()
}

// RequestShutdown flips the shutdown flag. It is idempotent; a non-nil
// cause is logged on every call and the first one is kept for Err.
func (s *Signals) RequestShutdown(cause error) {
	if cause != nil {
		s.logger.Error("shutdown requested", "cause", cause)
		s.cause.CompareAndSwap(nil, &cause)
	}
	if s.shuttingDown.CompareAndSwap(false, true) {
		close(s.done)
	}
}

// Done is closed once shutdown has been requested.
func (s *Signals) Done() <-chan struct{} {
	return s.done
}

// Err returns the first cause passed to RequestShutdown.
func (s *Signals) Err() error {
	if p := s.cause.Load(); p != nil {
		return *p
	}
	return nil
}
