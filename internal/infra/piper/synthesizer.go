package piper

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"home-voice/internal/domain"
)

const (
	DefaultBinary     = "piper"
	DefaultModel      = "en_US-lessac-medium"
	DefaultSampleRate = 22050
)

type Config struct {
	Binary string
	Model  string
	// Args replaces the default "--model <Model> --output_raw" arguments.
	Args       []string
	SampleRate int
}

// Synthesizer pipes text into a piper process and reads raw signed 16-bit
// little-endian mono PCM back from its stdout.
type Synthesizer struct {
	binary     string
	args       []string
	sampleRate int
	logger     *slog.Logger
}

func NewSynthesizer(cfg Config, logger *slog.Logger) *Synthesizer {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	args := cfg.Args
	if args == nil {
		args = []string{"--model", cfg.Model, "--output_raw"}
	}
	return &Synthesizer{
		binary:     cfg.Binary,
		args:       args,
		sampleRate: cfg.SampleRate,
		logger:     logger,
	}
}

func (s *Synthesizer) Synthesize(ctx context.Context, text string) (domain.SpeechAudio, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.SpeechAudio{}, errors.New("nothing to synthesize")
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.binary, s.args...)
	cmd.Stdin = strings.NewReader(text)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return domain.SpeechAudio{}, fmt.Errorf("running %s: %w (%s)", s.binary, err, strings.TrimSpace(stderr.String()))
	}

	raw := stdout.Bytes()
	pcm := make([]int16, len(raw)/2)
	for i := range pcm {
		pcm[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
	}
	if len(pcm) == 0 {
		return domain.SpeechAudio{}, fmt.Errorf("%s produced no audio", s.binary)
	}

	audio := domain.SpeechAudio{PCM: pcm, SampleRate: s.sampleRate}
	s.logger.Debug("speech synthesized", "chars", len(text), "duration", audio.Duration())
	return audio, nil
}
