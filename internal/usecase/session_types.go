package usecase

import (
	"sync"
	"sync/atomic"

	"paisavoice/internal/ports"
)

type captureSession struct {
	cancel func()
	audio  ports.AudioSession
	stream ports.LiveSession

	buffer transcriptBuffer

	// finished flips exactly once, claimed by whichever path ends the
	// session first: user stop, turn completion, or failure.
	finished atomic.Bool

	teardownOnce sync.Once
	eventsDone   chan struct{}
	audioDone    chan struct{}
}

// claim marks the session finished and reports whether the caller won the
// race to end it.
func (s *captureSession) claim() bool {
	return s.finished.CompareAndSwap(false, true)
}

// teardown releases every acquired resource exactly once, in dependency
// order: stop producing audio frames, cancel the session context, close the
// upstream connection, then join the worker goroutines. Safe to invoke
// redundantly.
func (s *captureSession) teardown() {
	s.teardownOnce.Do(func() {
		_ = s.audio.Stop()
		s.cancel()
		_ = s.stream.Close()
	})
	<-s.audioDone
	<-s.eventsDone
}
