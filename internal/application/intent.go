package application

import (
	"context"

	"home-voice/internal/domain"
)

// LabelScorer is a multi-label zero-shot classifier: it returns one
// independent score in [0,1] per label.
type LabelScorer interface {
	Score(ctx context.Context, text string, labels []string) ([]domain.Score, error)
}

type WakeWordDetector interface {
	Detect(ctx context.Context, u domain.Utterance) (bool, error)
}
