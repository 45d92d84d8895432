package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores runtime configuration for the app.
type Config struct {
	Gemini   GeminiConfig
	Audio    AudioConfig
	Session  SessionConfig
	Storage  StorageConfig
	Feedback FeedbackConfig
}

type GeminiConfig struct {
	APIKey       string
	ParseModel   string
	LiveModel    string
	LiveEndpoint string
}

type AudioConfig struct {
	RecorderCommand string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
}

type SessionConfig struct {
	FrameSize    int
	ParseTimeout time.Duration
	RulesFile    string
}

type StorageConfig struct {
	Path string
}

type FeedbackConfig struct {
	SuccessRevert time.Duration
	ErrorRevert   time.Duration
}

// Load resolves configuration from a .env file (when present), environment
// variables, and sensible defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}

	cfg := Config{
		Gemini: GeminiConfig{
			APIKey:       strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			ParseModel:   envOrDefault("PAISAVOICE_PARSE_MODEL", "gemini-2.5-flash"),
			LiveModel:    envOrDefault("PAISAVOICE_LIVE_MODEL", "gemini-2.5-flash-native-audio-preview-09-2025"),
			LiveEndpoint: envOrDefault("PAISAVOICE_LIVE_ENDPOINT", "wss://generativelanguage.googleapis.com/ws"),
		},
		Audio: AudioConfig{
			RecorderCommand: envOrDefault("PAISAVOICE_FFMPEG_COMMAND", "ffmpeg"),
			InputFormat:     envOrDefault("PAISAVOICE_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice:     envOrDefault("PAISAVOICE_AUDIO_INPUT_DEVICE", "default"),
			SampleRate:      envOrDefaultInt("PAISAVOICE_SAMPLE_RATE", 16000),
			Channels:        envOrDefaultInt("PAISAVOICE_CHANNELS", 1),
		},
		Session: SessionConfig{
			FrameSize:    envOrDefaultInt("PAISAVOICE_AUDIO_FRAME_SIZE", 4096),
			ParseTimeout: time.Duration(envOrDefaultInt("PAISAVOICE_PARSE_TIMEOUT_MS", 30000)) * time.Millisecond,
			RulesFile:    strings.TrimSpace(os.Getenv("PAISAVOICE_RULES_FILE")),
		},
		Storage: StorageConfig{
			Path: envOrDefault("PAISAVOICE_STORAGE_PATH",
				filepath.Join(home, ".local", "share", "paisavoice", "transactions.json")),
		},
		Feedback: FeedbackConfig{
			SuccessRevert: time.Duration(envOrDefaultInt("PAISAVOICE_SUCCESS_REVERT_MS", 3000)) * time.Millisecond,
			ErrorRevert:   time.Duration(envOrDefaultInt("PAISAVOICE_ERROR_REVERT_MS", 5000)) * time.Millisecond,
		},
	}

	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Session.FrameSize < 256 {
		cfg.Session.FrameSize = 4096
	}
	if cfg.Session.ParseTimeout <= 0 {
		cfg.Session.ParseTimeout = 30 * time.Second
	}

	return cfg, nil
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
