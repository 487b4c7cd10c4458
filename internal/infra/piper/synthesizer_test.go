package piper_test

import (
	"context"
	"io"
	"log/slog"
	"os/exec"
	"testing"

	"home-voice/internal/infra/piper"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestSynthesizer_ReadsRawPCM(t *testing.T) {
	requireShell(t)

	// cat echoes stdin, so the trimmed text bytes come back as samples.
	s := piper.NewSynthesizer(piper.Config{Binary: "sh", Args: []string{"-c", "cat"}, SampleRate: 16000}, discardLogger())

	got, err := s.Synthesize(context.Background(), "  abcde \n")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}

	want := []int16{0x6261, 0x6463}
	if len(got.PCM) != len(want) {
		t.Fatalf("samples: got %v, want %v", got.PCM, want)
	}
	for i := range want {
		if got.PCM[i] != want[i] {
			t.Errorf("sample %d: got %#x, want %#x", i, got.PCM[i], want[i])
		}
	}
	if got.SampleRate != 16000 {
		t.Errorf("rate: got %d, want 16000", got.SampleRate)
	}
}

func TestSynthesizer_ProcessFailure(t *testing.T) {
	requireShell(t)

	s := piper.NewSynthesizer(piper.Config{Binary: "sh", Args: []string{"-c", "echo no model >&2; exit 3"}}, discardLogger())
	if _, err := s.Synthesize(context.Background(), "hello"); err == nil {
		t.Error("expected error from failing process")
	}
}

func TestSynthesizer_NoOutput(t *testing.T) {
	requireShell(t)

	s := piper.NewSynthesizer(piper.Config{Binary: "sh", Args: []string{"-c", "cat >/dev/null"}}, discardLogger())
	if _, err := s.Synthesize(context.Background(), "hello"); err == nil {
		t.Error("expected error for empty output")
	}
}

func TestSynthesizer_EmptyText(t *testing.T) {
	s := piper.NewSynthesizer(piper.Config{}, discardLogger())
	if _, err := s.Synthesize(context.Background(), "   "); err == nil {
		t.Error("expected error for blank text")
	}
}

func TestSynthesizer_MissingBinary(t *testing.T) {
	s := piper.NewSynthesizer(piper.Config{Binary: "definitely-not-piper-xyz"}, discardLogger())
	if _, err := s.Synthesize(context.Background(), "hello"); err == nil {
		t.Error("expected error for missing binary")
	}
}
