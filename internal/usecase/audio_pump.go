package usecase

import (
	"errors"
	"fmt"
	"io"

	"paisavoice/internal/audio"
	"paisavoice/internal/ports"
)

// pumpAudioFrames reads 32-bit float PCM from the device, quantizes each
// frame to 16-bit PCM, and forwards it upstream. A carry buffer keeps reads
// aligned on sample boundaries. Returns the terminal read/send error, if any.
func pumpAudioFrames(
	audioSession ports.AudioSession,
	stream ports.LiveSession,
	frameSize int,
	done chan struct{},
) error {
	defer close(done)

	buf := make([]byte, frameSize*4)
	var carry []byte
	for {
		n, err := audioSession.Read(buf)
		if n > 0 {
			frame := append(carry, buf[:n]...)
			whole := len(frame) - len(frame)%4
			if sendErr := stream.SendAudio(audio.QuantizeFrame(frame[:whole])); sendErr != nil {
				return fmt.Errorf("failed to stream audio: %w", sendErr)
			}
			carry = append(carry[:0], frame[whole:]...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("audio capture error: %w", err)
		}
	}
}
