package ports

import (
	"context"
	"io"

	"paisavoice/internal/domain"
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioSession is a live capture session yielding 32-bit float little-endian
// PCM frames.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture creates microphone capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// LiveConfig describes the live transcription stream settings.
type LiveConfig struct {
	SampleRate int
	Channels   int
	MIMEType   string
}

// LiveSession is an active streaming connection to the transcription gateway.
// SendAudio accepts 16-bit signed little-endian PCM.
type LiveSession interface {
	SendAudio(chunk []byte) error
	CloseSend() error
	Events() <-chan domain.TranscriptEvent
	Wait() error
	Close() error
}

// LiveTranscriber opens live transcription sessions.
type LiveTranscriber interface {
	OpenSession(ctx context.Context, cfg LiveConfig) (LiveSession, error)
}

// TransactionParser converts a finalized transcript or a still image into a
// structured transaction candidate.
type TransactionParser interface {
	ParseText(ctx context.Context, transcript string) (domain.DraftTransaction, error)
	ParseImage(ctx context.Context, image []byte, mimeType string) (domain.DraftTransaction, error)
}

// TransactionStore holds the ordered in-memory sequence of confirmed
// transactions, most recent first.
type TransactionStore interface {
	Prepend(tx domain.Transaction)
	Replace(txs []domain.Transaction)
	All() []domain.Transaction
	Len() int
}

// Archive persists the full transaction sequence as one named local record.
type Archive interface {
	Save(txs []domain.Transaction) error
	Load() ([]domain.Transaction, error)
}

// Normalizer applies deterministic substitutions to a finalized transcript.
type Normalizer interface {
	Apply(text string) (string, error)
}

// EventSink emits backend state and events to the UI.
type EventSink interface {
	ModeChanged(mode domain.AppMode, reason domain.ModeReason)
	TranscriptUpdated(text string)
	DraftPending(draft domain.DraftTransaction)
	AppError(code domain.ErrorCode, detail string)
}
