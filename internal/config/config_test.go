package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Gemini.APIKey != "test-key" {
		t.Fatalf("unexpected api key: %q", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.ParseModel != "gemini-2.5-flash" {
		t.Fatalf("unexpected parse model: %q", cfg.Gemini.ParseModel)
	}
	if cfg.Audio.SampleRate != 16000 || cfg.Audio.Channels != 1 {
		t.Fatalf("unexpected audio defaults: %+v", cfg.Audio)
	}
	if cfg.Session.FrameSize != 4096 {
		t.Fatalf("unexpected frame size: %d", cfg.Session.FrameSize)
	}
	if cfg.Feedback.SuccessRevert != 3*time.Second || cfg.Feedback.ErrorRevert != 5*time.Second {
		t.Fatalf("unexpected revert delays: %+v", cfg.Feedback)
	}
	want := filepath.Join(home, ".local", "share", "paisavoice", "transactions.json")
	if cfg.Storage.Path != want {
		t.Fatalf("unexpected storage path: %q", cfg.Storage.Path)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PAISAVOICE_SAMPLE_RATE", "8000")
	t.Setenv("PAISAVOICE_AUDIO_FRAME_SIZE", "1024")
	t.Setenv("PAISAVOICE_STORAGE_PATH", "/tmp/tx.json")
	t.Setenv("PAISAVOICE_ERROR_REVERT_MS", "250")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Audio.SampleRate != 8000 {
		t.Fatalf("unexpected sample rate: %d", cfg.Audio.SampleRate)
	}
	if cfg.Session.FrameSize != 1024 {
		t.Fatalf("unexpected frame size: %d", cfg.Session.FrameSize)
	}
	if cfg.Storage.Path != "/tmp/tx.json" {
		t.Fatalf("unexpected storage path: %q", cfg.Storage.Path)
	}
	if cfg.Feedback.ErrorRevert != 250*time.Millisecond {
		t.Fatalf("unexpected error revert: %v", cfg.Feedback.ErrorRevert)
	}
}

func TestLoadClampsInvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PAISAVOICE_SAMPLE_RATE", "-1")
	t.Setenv("PAISAVOICE_AUDIO_FRAME_SIZE", "16")
	t.Setenv("PAISAVOICE_PARSE_TIMEOUT_MS", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Audio.SampleRate != 16000 {
		t.Fatalf("expected clamped sample rate, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Session.FrameSize != 4096 {
		t.Fatalf("expected clamped frame size, got %d", cfg.Session.FrameSize)
	}
	if cfg.Session.ParseTimeout != 30*time.Second {
		t.Fatalf("expected clamped parse timeout, got %v", cfg.Session.ParseTimeout)
	}
}
