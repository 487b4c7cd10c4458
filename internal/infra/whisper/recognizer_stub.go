//go:build !whisper

package whisper

import (
	"context"
	"fmt"
	"log/slog"
)

// Recognizer stub when whisper.cpp is not linked
type Recognizer struct{}

func NewRecognizer(_ Config, _ *slog.Logger) (*Recognizer, error) {
	return nil, fmt.Errorf("local whisper not available: rebuild with -tags whisper or set stt.backend to openai")
}

func (r *Recognizer) Close() error {
	return nil
}

func (r *Recognizer) Transcribe(_ context.Context, _ []float32) (string, error) {
	return "", fmt.Errorf("local whisper not available")
}
