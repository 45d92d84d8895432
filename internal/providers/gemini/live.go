package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"paisavoice/internal/domain"
	"paisavoice/internal/ports"
)

const bidiGeneratePath = "/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

const liveSystemInstruction = "You are a transcription assistant. The user speaks Malayalam, " +
	"sometimes mixing in English numbers and brand names. Transcribe their speech faithfully."

// LiveConfig controls the Gemini live websocket settings.
type LiveConfig struct {
	APIKey   string
	Endpoint string
	Model    string
}

// LiveProvider implements ports.LiveTranscriber against the Gemini live API.
type LiveProvider struct {
	cfg LiveConfig
}

func NewLiveProvider(cfg LiveConfig) *LiveProvider {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "wss://generativelanguage.googleapis.com/ws"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash-native-audio-preview-09-2025"
	}
	return &LiveProvider{cfg: cfg}
}

func (p *LiveProvider) OpenSession(ctx context.Context, cfg ports.LiveConfig) (ports.LiveSession, error) {
	if strings.TrimSpace(p.cfg.APIKey) == "" {
		return nil, errors.New("GEMINI_API_KEY is not configured")
	}

	wsURL, err := buildLiveURL(p.cfg)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Gemini live websocket: %w", err)
	}

	if cfg.MIMEType == "" {
		cfg.MIMEType = "audio/pcm;rate=16000"
	}

	session := &liveSession{
		conn:     conn,
		mimeType: cfg.MIMEType,
		setup:    setupMessage(p.cfg.Model),
		events:   make(chan domain.TranscriptEvent, 64),
		audio:    make(chan []byte, 32),
		sendQuit: make(chan struct{}),
		done:     make(chan struct{}),
	}

	session.wg.Add(2)
	go session.readLoop()
	go session.writeLoop()
	go func() {
		session.wg.Wait()
		close(session.events)
		close(session.done)
		_ = conn.Close()
	}()

	go func() {
		<-ctx.Done()
		_ = session.Close()
	}()

	return session, nil
}

type liveSession struct {
	conn     *websocket.Conn
	mimeType string
	setup    []byte

	events chan domain.TranscriptEvent
	audio  chan []byte
	// sendQuit signals end-of-audio to writeLoop. The audio channel itself is
	// never closed, so a sender racing or blocked against CloseSend cannot
	// panic; it observes sendQuit instead.
	sendQuit chan struct{}
	done     chan struct{}

	wg sync.WaitGroup

	errMu sync.Mutex
	err   error

	closeSendOnce sync.Once
	closeOnce     sync.Once
}

func (s *liveSession) SendAudio(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}

	copied := append([]byte(nil), chunk...)
	select {
	case <-s.sendQuit:
		return errors.New("audio stream is already closed")
	default:
	}

	select {
	case s.audio <- copied:
		return nil
	case <-s.sendQuit:
		return errors.New("audio stream is already closed")
	case <-s.done:
		if err := s.waitErr(); err != nil {
			return err
		}
		return errors.New("session closed")
	}
}

func (s *liveSession) CloseSend() error {
	s.closeSendOnce.Do(func() {
		close(s.sendQuit)
	})
	return nil
}

func (s *liveSession) Events() <-chan domain.TranscriptEvent {
	return s.events
}

func (s *liveSession) Wait() error {
	<-s.done
	return s.waitErr()
}

func (s *liveSession) Close() error {
	s.closeOnce.Do(func() {
		_ = s.CloseSend()
		_ = s.conn.Close()
	})
	<-s.done
	return s.waitErr()
}

func (s *liveSession) waitErr() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *liveSession) setErr(err error) {
	if err == nil {
		return
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return
	}

	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// writeLoop sends the setup message before any audio; the gateway rejects
// media on an unconfigured stream.
func (s *liveSession) writeLoop() {
	defer s.wg.Done()

	if err := s.conn.WriteMessage(websocket.TextMessage, s.setup); err != nil {
		s.setErr(fmt.Errorf("failed to configure stream: %w", err))
		return
	}

	for {
		select {
		case chunk := <-s.audio:
			if err := s.writeChunk(chunk); err != nil {
				s.setErr(err)
				return
			}
		case <-s.sendQuit:
			// Flush chunks queued before the close signal, then end the
			// audio stream.
			for {
				select {
				case chunk := <-s.audio:
					if err := s.writeChunk(chunk); err != nil {
						s.setErr(err)
						return
					}
				default:
					if err := s.conn.WriteMessage(websocket.TextMessage, []byte(`{"realtimeInput":{"audioStreamEnd":true}}`)); err != nil {
						s.setErr(fmt.Errorf("failed to close stream: %w", err))
					}
					return
				}
			}
		}
	}
}

func (s *liveSession) writeChunk(chunk []byte) error {
	payload, err := json.Marshal(realtimeAudioMessage(s.mimeType, chunk))
	if err != nil {
		return fmt.Errorf("failed to encode audio chunk: %w", err)
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("failed to send audio: %w", err)
	}
	return nil
}

func (s *liveSession) readLoop() {
	defer s.wg.Done()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.setErr(fmt.Errorf("failed to read gateway event: %w", err))
			return
		}

		var response liveResponse
		if err := json.Unmarshal(payload, &response); err != nil {
			continue
		}

		if response.Error != nil {
			message := strings.TrimSpace(response.Error.Message)
			if message == "" {
				message = "gateway returned an unknown error"
			}
			s.setErr(errors.New(message))
			return
		}

		if response.ServerContent == nil {
			continue
		}

		event := domain.TranscriptEvent{
			TurnComplete: response.ServerContent.TurnComplete,
		}
		if response.ServerContent.InputTranscription != nil {
			event.Text = response.ServerContent.InputTranscription.Text
		}
		if event.Text == "" && !event.TurnComplete {
			continue
		}
		s.emit(event)
		if event.TurnComplete {
			return
		}
	}
}

func (s *liveSession) emit(event domain.TranscriptEvent) {
	select {
	case s.events <- event:
	case <-s.done:
	}
}

type liveResponse struct {
	SetupComplete *struct{} `json:"setupComplete"`

	ServerContent *struct {
		TurnComplete       bool `json:"turnComplete"`
		InputTranscription *struct {
			Text string `json:"text"`
		} `json:"inputTranscription"`
	} `json:"serverContent"`

	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func setupMessage(model string) []byte {
	payload := map[string]any{
		"setup": map[string]any{
			"model": "models/" + model,
			"generationConfig": map[string]any{
				"responseModalities": []string{"TEXT"},
			},
			"systemInstruction": map[string]any{
				"parts": []map[string]string{{"text": liveSystemInstruction}},
			},
			"inputAudioTranscription": map[string]any{},
		},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		// The payload is built from literals; marshalling cannot fail.
		panic(err)
	}
	return encoded
}

func realtimeAudioMessage(mimeType string, chunk []byte) map[string]any {
	return map[string]any{
		"realtimeInput": map[string]any{
			"mediaChunks": []map[string]string{
				{
					"mimeType": mimeType,
					"data":     base64.StdEncoding.EncodeToString(chunk),
				},
			},
		},
	}
}

func buildLiveURL(cfg LiveConfig) (string, error) {
	base := strings.TrimSpace(cfg.Endpoint)
	if base == "" {
		base = "wss://generativelanguage.googleapis.com/ws"
	}

	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	base = strings.TrimRight(base, "/")

	liveURL, err := url.Parse(base + bidiGeneratePath)
	if err != nil {
		return "", fmt.Errorf("invalid Gemini live endpoint: %w", err)
	}

	query := liveURL.Query()
	query.Set("key", cfg.APIKey)
	liveURL.RawQuery = query.Encode()
	return liveURL.String(), nil
}
