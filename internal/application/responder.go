package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"home-voice/internal/domain"
)

// Responder delivers one feedback sentence to the user.
type Responder interface {
	Respond(ctx context.Context, text string) error
}

// LogResponder only logs replies, for running without any audio output.
type LogResponder struct {
	Logger *slog.Logger
}

func (r *LogResponder) Respond(_ context.Context, text string) error {
	r.Logger.Info("reply", "text", text)
	return nil
}

// VoiceResponder synthesizes a reply and plays it, holding the speaker
// flag for exactly the duration of playback.
type VoiceResponder struct {
	synth    SpeechSynthesizer
	player   AudioPlayer
	fallback *domain.SpeechAudio
	signals  *Signals
	logger   *slog.Logger
}

// NewVoiceResponder builds a responder. fallback, when non-nil, is played
// whenever synthesis fails.
func NewVoiceResponder(synth SpeechSynthesizer, player AudioPlayer, fallback *domain.SpeechAudio, signals *Signals, logger *slog.Logger) *VoiceResponder {
	return &VoiceResponder{
		synth:    synth,
		player:   player,
		fallback: fallback,
		signals:  signals,
		logger:   logger,
	}
}

func (r *VoiceResponder) Respond(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	audio, err := r.synth.Synthesize(ctx, text)
	if err != nil {
		if r.fallback == nil {
			r.logger.Warn("synthesis failed, skipping reply", "error", err, "text", text)
			return nil
		}
		r.logger.Warn("synthesis failed, playing fallback", "error", err)
		audio = *r.fallback
	}

	if len(audio.PCM) == 0 {
		return nil
	}

	r.logger.Debug("playing reply", "player", r.player.Name(), "duration", audio.Duration())

	r.signals.SetSpeakerActive(true)
	defer r.signals.SetSpeakerActive(false)

	if err := r.player.Play(ctx, audio); err != nil {
		return fmt.Errorf("playing reply on %s: %w", r.player.Name(), err)
	}
	return nil
}

// MirrorResponder delivers through primary and then copies the reply to
// every mirror. Mirror failures are logged and never fatal.
type MirrorResponder struct {
	primary Responder
	mirrors []Responder
	logger  *slog.Logger
}

func NewMirrorResponder(primary Responder, logger *slog.Logger, mirrors ...Responder) *MirrorResponder {
	return &MirrorResponder{primary: primary, mirrors: mirrors, logger: logger}
}

func (r *MirrorResponder) Respond(ctx context.Context, text string) error {
	if err := r.primary.Respond(ctx, text); err != nil {
		return err
	}
	for _, m := range r.mirrors {
		if err := m.Respond(ctx, text); err != nil {
			r.logger.Warn("mirroring reply failed", "error", err)
		}
	}
	return nil
}
