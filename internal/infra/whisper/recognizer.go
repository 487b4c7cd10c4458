//go:build whisper

package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"home-voice/internal/processing"
)

// Recognizer runs whisper.cpp in process. One model is shared by every
// caller, so contexts are created and run one at a time.
type Recognizer struct {
	model    whisper.Model
	language string
	threads  int
	mu       sync.Mutex
	logger   *slog.Logger
}

func NewRecognizer(cfg Config, logger *slog.Logger) (*Recognizer, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("empty model path")
	}
	m, err := whisper.New(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	language := cfg.Language
	if language == "" {
		language = "en"
	}

	logger.Info("whisper model loaded", "path", cfg.ModelPath, "language", language, "threads", threads)
	return &Recognizer{model: m, language: language, threads: threads, logger: logger}, nil
}

func (r *Recognizer) Close() error {
	if r.model == nil {
		return nil
	}
	return r.model.Close()
}

// Transcribe expects mono 16 kHz samples in [-1, 1].
func (r *Recognizer) Transcribe(ctx context.Context, samples []float32) (string, error) {
	if len(samples) == 0 {
		return "", errors.New("no audio samples provided")
	}
	samples = padShort(samples)

	r.mu.Lock()
	defer r.mu.Unlock()

	wctx, err := r.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("new context: %w", err)
	}
	if err := wctx.SetLanguage(r.language); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	wctx.SetThreads(uint(r.threads))

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("process: %w", err)
	}

	var parts []string
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		s, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("next segment: %w", err)
		}
		if text := strings.TrimSpace(s.Text); text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, " "), nil
}

// padShort appends one second of silence to clips under a second long;
// whisper.cpp refuses shorter input.
func padShort(samples []float32) []float32 {
	if len(samples) >= processing.WorkingSampleRate {
		return samples
	}
	padded := make([]float32, len(samples)+processing.WorkingSampleRate)
	copy(padded, samples)
	return padded
}
