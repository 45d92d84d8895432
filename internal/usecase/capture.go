package usecase

import (
	"context"
	"errors"
	"sync"

	"paisavoice/internal/ports"
)

// ErrCaptureActive is returned when a capture session already exists.
var ErrCaptureActive = errors.New("a capture session is already active")

// CaptureObserver receives live transcript updates and terminal capture
// outcomes. TurnCompleted carries the full accumulated transcript, which is
// empty when the turn ended without any recognized speech.
type CaptureObserver interface {
	TranscriptUpdated(text string)
	TurnCompleted(transcript string)
	CaptureFailed(err error)
}

// CaptureConfig controls capture session behavior.
type CaptureConfig struct {
	Audio     ports.AudioConfig
	Live      ports.LiveConfig
	FrameSize int
}

// CaptureManager owns the lifecycle of the single live audio capture
// session: device acquisition, streaming, transcript accumulation, and
// teardown. Sessions are never shared; collaborators interact only through
// Start/Stop and the observer callbacks.
type CaptureManager struct {
	audio ports.AudioCapture
	live  ports.LiveTranscriber
	cfg   CaptureConfig

	mu      sync.Mutex
	current *captureSession
}

// NewCaptureManager expects cfg.FrameSize to be positive; config.Load is the
// single place frame-size defaults and clamping live.
func NewCaptureManager(audio ports.AudioCapture, live ports.LiveTranscriber, cfg CaptureConfig) *CaptureManager {
	return &CaptureManager{audio: audio, live: live, cfg: cfg}
}

// Start begins a new capture session. The upstream stream is opened before
// the device so a gateway failure never leaves the microphone held.
func (m *CaptureManager) Start(ctx context.Context, observer CaptureObserver) error {
	m.mu.Lock()
	if m.current != nil {
		m.mu.Unlock()
		return ErrCaptureActive
	}
	m.mu.Unlock()

	sessionCtx, cancel := context.WithCancel(ctx)
	stream, err := m.live.OpenSession(sessionCtx, m.cfg.Live)
	if err != nil {
		cancel()
		return err
	}

	audioSession, err := m.audio.Start(sessionCtx, m.cfg.Audio)
	if err != nil {
		_ = stream.Close()
		cancel()
		return err
	}

	session := &captureSession{
		cancel:     cancel,
		audio:      audioSession,
		stream:     stream,
		eventsDone: make(chan struct{}),
		audioDone:  make(chan struct{}),
	}

	m.mu.Lock()
	if m.current != nil {
		m.mu.Unlock()
		_ = audioSession.Stop()
		_ = stream.Close()
		cancel()
		return ErrCaptureActive
	}
	m.current = session
	m.mu.Unlock()

	go m.consumeLiveEvents(session, observer)
	go func() {
		if err := pumpAudioFrames(session.audio, session.stream, m.cfg.FrameSize, session.audioDone); err != nil {
			m.fail(session, err, observer)
		}
	}()

	return nil
}

// Stop tears the active session down. Idempotent, callable at any time, and
// a no-op when no session exists.
func (m *CaptureManager) Stop() {
	m.mu.Lock()
	session := m.current
	m.current = nil
	m.mu.Unlock()

	if session == nil {
		return
	}
	session.claim()
	session.teardown()
}

// Active reports whether a capture session currently exists.
func (m *CaptureManager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil
}

// consumeLiveEvents applies transcript events in arrival order; the
// turn-complete signal is therefore observed after every preceding fragment
// of the turn.
func (m *CaptureManager) consumeLiveEvents(session *captureSession, observer CaptureObserver) {
	defer close(session.eventsDone)

	for event := range session.stream.Events() {
		if event.Text != "" {
			session.buffer.Append(event.Text)
			observer.TranscriptUpdated(session.buffer.Text())
		}
		if event.TurnComplete {
			go m.finishTurn(session, session.buffer.Text(), observer)
			return
		}
	}

	if session.finished.Load() {
		return
	}
	err := session.stream.Wait()
	if err == nil {
		err = errors.New("transcription stream closed unexpectedly")
	}
	go m.fail(session, err, observer)
}

func (m *CaptureManager) finishTurn(session *captureSession, transcript string, observer CaptureObserver) {
	if !session.claim() {
		m.release(session)
		return
	}
	m.release(session)
	observer.TurnCompleted(transcript)
}

func (m *CaptureManager) fail(session *captureSession, err error, observer CaptureObserver) {
	if !session.claim() {
		return
	}
	m.release(session)
	observer.CaptureFailed(err)
}

func (m *CaptureManager) release(session *captureSession) {
	m.mu.Lock()
	if m.current == session {
		m.current = nil
	}
	m.mu.Unlock()
	session.teardown()
}
