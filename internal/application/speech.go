package application

import (
	"context"
	"errors"

	"home-voice/internal/domain"
)

// SpeechToText transcribes mono samples at the working sample rate.
type SpeechToText interface {
	Transcribe(ctx context.Context, samples []float32) (string, error)
}

type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) (domain.SpeechAudio, error)
}

// AnswerGenerator continues a free-form question.
type AnswerGenerator interface {
	Answer(ctx context.Context, question string) (string, error)
}

var ErrNoAnswerer = errors.New("answer generation not configured: set answer.provider to enable questions")

// NoopAnswerer is used when no text-generation backend is configured.
type NoopAnswerer struct{}

func (NoopAnswerer) Answer(_ context.Context, _ string) (string, error) {
	return "", ErrNoAnswerer
}
