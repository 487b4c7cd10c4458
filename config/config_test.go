package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"home-voice/config"
)

func writeConfig(t *testing.T, body string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/config.yaml", []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return fs
}

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := config.LoadFile(writeConfig(t, "log:\n  level: debug\n"), "/config.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Audio.Source != "microphone" {
		t.Errorf("audio.source: got %s, want microphone", cfg.Audio.Source)
	}
	if cfg.Audio.CaptureRate != 48000 {
		t.Errorf("audio.capture_rate: got %d, want 48000", cfg.Audio.CaptureRate)
	}
	if cfg.Classifier.Threshold != 0.85 {
		t.Errorf("classifier.threshold: got %v, want 0.85", cfg.Classifier.Threshold)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "pretty" {
		t.Errorf("log: got %+v", cfg.Log)
	}
	if cfg.WakeWord.FollowUp != 10*time.Second {
		t.Errorf("wake_word.follow_up: got %v", cfg.WakeWord.FollowUp)
	}

	seg := cfg.Segmenter()
	if seg.FrameSize != 320 || seg.SilenceLimit != 50 || seg.MaxBufferSamples != 320000 {
		t.Errorf("segmenter: got %+v", seg)
	}
}

func TestLoadFile_ExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-test")

	body := `openai:
  api_key: ${TEST_OPENAI_KEY}
  timeout: 5s
audio:
  trailing_silence: 250ms
`
	cfg, err := config.LoadFile(writeConfig(t, body), "/config.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Errorf("api_key: got %q, want sk-test", cfg.OpenAI.APIKey)
	}
	if cfg.OpenAI.Timeout != 5*time.Second {
		t.Errorf("timeout: got %v, want 5s", cfg.OpenAI.Timeout)
	}
	if cfg.Audio.TrailingSilence != 250*time.Millisecond {
		t.Errorf("trailing_silence: got %v, want 250ms", cfg.Audio.TrailingSilence)
	}
}

func TestLoadFile_Pins(t *testing.T) {
	body := `gpio:
  pins:
    - location: living room
      subject: light
      line: 26
    - location: hallway
      subject: light
      line: 19
`
	cfg, err := config.LoadFile(writeConfig(t, body), "/config.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.GPIO.Pins) != 2 || cfg.GPIO.Pins[1].Line != 19 {
		t.Errorf("pins: got %+v", cfg.GPIO.Pins)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"capture rate not a multiple", "audio:\n  capture_rate: 44100\n", "audio.capture_rate"},
		{"vad rate", "vad:\n  sample_rate: 8000\n", "vad.sample_rate"},
		{"threshold", "classifier:\n  threshold: 1.5\n", "classifier.threshold"},
		{"unknown source", "audio:\n  source: http\n", "audio.source"},
		{"unknown stt", "stt:\n  provider: vosk\n", "stt.provider"},
		{"unknown action", "classifier:\n  actions: [dim]\n", "classifier.actions"},
		{"unknown executor", "executor:\n  backend: zigbee\n", "executor.backend"},
		{"home assistant without url", "executor:\n  backend: homeassistant\n", "homeassistant.url"},
		{"unknown pin subject", "gpio:\n  pins:\n    - location: hall\n      subject: door\n      line: 3\n", "gpio.pins[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadFile(writeConfig(t, tt.body), "/config.yaml")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want error mentioning %s", err, tt.want)
			}
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := config.LoadFile(afero.NewMemMapFs(), "/nope.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFile_BadYAML(t *testing.T) {
	if _, err := config.LoadFile(writeConfig(t, "audio: [unterminated"), "/config.yaml"); err == nil {
		t.Error("expected parse error")
	}
}
