package usecase

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"paisavoice/internal/domain"
)

func TestPumpAudioFramesQuantizesAndForwards(t *testing.T) {
	t.Parallel()

	frame := f32leBytes(0.5, -1)
	audioSession := newFakeAudioSession(nil)
	audioSession.chunks = [][]byte{frame}
	stream := newFakeLiveSession()
	done := make(chan struct{})

	go func() {
		_ = pumpAudioFrames(audioSession, stream, 256, done)
	}()
	_ = audioSession.Stop()
	<-done

	sent := collectSent(stream)
	if len(sent) != 4 {
		t.Fatalf("unexpected sent byte count: %d", len(sent))
	}
	if got := int16(binary.LittleEndian.Uint16(sent[0:])); got != 16384 {
		t.Fatalf("unexpected first sample: %d", got)
	}
	if got := int16(binary.LittleEndian.Uint16(sent[2:])); got != -32768 {
		t.Fatalf("unexpected second sample: %d", got)
	}
}

func TestPumpAudioFramesCarriesPartialSamples(t *testing.T) {
	t.Parallel()

	frame := f32leBytes(0.25, 0.5)
	audioSession := newFakeAudioSession(nil)
	audioSession.chunks = [][]byte{frame[:6], frame[6:]}
	stream := newFakeLiveSession()
	done := make(chan struct{})

	go func() {
		_ = pumpAudioFrames(audioSession, stream, 256, done)
	}()
	_ = audioSession.Stop()
	<-done

	sent := collectSent(stream)
	if len(sent) != 4 {
		t.Fatalf("expected both samples despite split read, got %d bytes", len(sent))
	}
	if got := int16(binary.LittleEndian.Uint16(sent[0:])); got != 8192 {
		t.Fatalf("unexpected first sample: %d", got)
	}
	if got := int16(binary.LittleEndian.Uint16(sent[2:])); got != 16384 {
		t.Fatalf("unexpected second sample: %d", got)
	}
}

func TestPumpAudioFramesReturnsSendError(t *testing.T) {
	t.Parallel()

	audioSession := newFakeAudioSession(nil)
	audioSession.chunks = [][]byte{f32leBytes(0.5)}
	stream := &sendErrLiveSession{err: errors.New("send failed")}
	done := make(chan struct{})

	err := pumpAudioFrames(audioSession, stream, 256, done)
	if err == nil || !errors.Is(err, stream.err) {
		t.Fatalf("expected send error, got %v", err)
	}
	select {
	case <-done:
	default:
		t.Fatalf("expected done channel to be closed")
	}
}

func TestPumpAudioFramesReturnsReadError(t *testing.T) {
	t.Parallel()

	readErr := errors.New("device gone")
	audioSession := &errorAudioSession{err: readErr}
	done := make(chan struct{})

	err := pumpAudioFrames(audioSession, newFakeLiveSession(), 256, done)
	if err == nil || !errors.Is(err, readErr) {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestTranscriptBufferConcatenatesVerbatim(t *testing.T) {
	t.Parallel()

	var buf transcriptBuffer
	buf.Append("കാപ്പി")
	buf.Append("ക്ക് ")
	buf.Append("50 രൂപ")

	if got := buf.Text(); got != "കാപ്പിക്ക് 50 രൂപ" {
		t.Fatalf("unexpected buffer contents: %q", got)
	}
}

func f32leBytes(samples ...float32) []byte {
	out := make([]byte, 0, len(samples)*4)
	for _, s := range samples {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(s))
	}
	return out
}

func collectSent(stream *fakeLiveSession) []byte {
	stream.mu.Lock()
	defer stream.mu.Unlock()
	var out []byte
	for _, chunk := range stream.sent {
		out = append(out, chunk...)
	}
	return out
}

type sendErrLiveSession struct {
	err error
}

func (s *sendErrLiveSession) SendAudio(_ []byte) error { return s.err }
func (s *sendErrLiveSession) CloseSend() error         { return nil }
func (s *sendErrLiveSession) Events() <-chan domain.TranscriptEvent {
	ch := make(chan domain.TranscriptEvent)
	close(ch)
	return ch
}
func (s *sendErrLiveSession) Wait() error  { return nil }
func (s *sendErrLiveSession) Close() error { return nil }

type errorAudioSession struct {
	err error
}

func (s *errorAudioSession) Read(_ []byte) (int, error) { return 0, s.err }
func (s *errorAudioSession) Close() error               { return nil }
func (s *errorAudioSession) Stop() error                { return nil }
