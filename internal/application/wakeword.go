package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"home-voice/internal/domain"
)

// PhraseDetector is a transcript-based wake-word gate. An utterance wakes
// the assistant when it contains one of the phrases, or when it arrives
// within the follow-up window of the last accepted one. It is owned by a
// single stage and not safe for concurrent use.
type PhraseDetector struct {
	stt      SpeechToText
	phrases  []string
	followUp time.Duration
	now      func() time.Time
	lastWake time.Time
	logger   *slog.Logger
}

func NewPhraseDetector(stt SpeechToText, phrases []string, followUp time.Duration, logger *slog.Logger) *PhraseDetector {
	normalized := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			normalized = append(normalized, p)
		}
	}
	return &PhraseDetector{
		stt:      stt,
		phrases:  normalized,
		followUp: followUp,
		now:      time.Now,
		logger:   logger,
	}
}

// WithClock replaces time.Now.
func (d *PhraseDetector) WithClock(now func() time.Time) *PhraseDetector {
	d.now = now
	return d
}

func (d *PhraseDetector) Detect(ctx context.Context, u domain.Utterance) (bool, error) {
	now := d.now()
	if d.followUp > 0 && !d.lastWake.IsZero() && now.Sub(d.lastWake) <= d.followUp {
		d.lastWake = now
		d.logger.Debug("follow-up utterance accepted", "utterance", u.ID)
		return true, nil
	}

	text, err := d.stt.Transcribe(ctx, u.Samples)
	if err != nil {
		return false, fmt.Errorf("transcribing for wake phrase: %w", err)
	}

	lower := strings.ToLower(text)
	for _, p := range d.phrases {
		if strings.Contains(lower, p) {
			d.lastWake = now
			d.logger.Info("wake phrase detected", "utterance", u.ID, "phrase", p)
			return true, nil
		}
	}
	return false, nil
}

// AlwaysAwake passes every utterance.
type AlwaysAwake struct{}

func (AlwaysAwake) Detect(_ context.Context, _ domain.Utterance) (bool, error) {
	return true, nil
}
