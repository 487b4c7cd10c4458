package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"home-voice/internal/domain"
	"home-voice/internal/processing"
)

// Collaborators are the external services the assistant is wired from.
// Recorder may be nil.
type Collaborators struct {
	Source    AudioSource
	Wake      WakeWordDetector
	STT       SpeechToText
	Scorer    LabelScorer
	Executor  CommandExecutor
	Responder Responder
	Recorder  UtteranceRecorder
}

type Options struct {
	Segmenter processing.SegmenterConfig
	// MuteWhileSpeaking drops captured audio while a reply is playing.
	MuteWhileSpeaking bool
}

type Assistant struct {
	Collaborators
	resolver *IntentResolver
	feedback *FeedbackGenerator
	opts     Options
	signals  *Signals
	logger   *slog.Logger
	newID    func() string
}

func NewAssistant(
	c Collaborators,
	resolver *IntentResolver,
	feedback *FeedbackGenerator,
	opts Options,
	signals *Signals,
	logger *slog.Logger,
) *Assistant {
	return &Assistant{
		Collaborators: c,
		resolver:      resolver,
		feedback:      feedback,
		opts:          opts,
		signals:       signals,
		logger:        logger,
		newID:         uuid.NewString,
	}
}

// Run builds the stage chain and blocks until it has fully stopped.
func (a *Assistant) Run(ctx context.Context) error {
	a.logger.Info("starting audio source", "source", a.Source.Name(), "rate", a.Source.SampleRate())
	if err := a.Source.Start(ctx); err != nil {
		return fmt.Errorf("starting audio: %w", err)
	}
	defer func() {
		if err := a.Source.Stop(); err != nil {
			a.logger.Warn("stopping audio source", "error", err)
		}
	}()

	captured := NewQueue[[]float32]()
	utterances := NewQueue[domain.Utterance]()
	awake := NewQueue[domain.Utterance]()
	transcripts := NewQueue[domain.Transcript]()
	resolved := NewQueue[domain.Resolution]()
	executed := NewQueue[domain.Resolution]()
	replies := NewQueue[string]()

	seg := processing.NewSegmenter(a.opts.Segmenter)
	vocabulary := a.resolver.Labels().Vocabulary()

	pipeline := NewPipeline(a.signals, a.logger,
		NewSourceStage("capture", captured, a.capture),
		NewTransformStage("segment", captured, utterances, func(_ context.Context, samples []float32, emit func(domain.Utterance)) error {
			for _, u := range seg.Push(samples) {
				emit(a.utterance(u))
			}
			return nil
		}).WithFlush(func(_ context.Context, emit func(domain.Utterance)) {
			if u := seg.Flush(); u != nil {
				emit(a.utterance(u))
			}
		}),
		NewTransformStage("wake", utterances, awake, a.detectWake),
		NewTransformStage("transcribe", awake, transcripts, a.transcribe),
		NewTransformStage("resolve", transcripts, resolved, func(ctx context.Context, t domain.Transcript, emit func(domain.Resolution)) error {
			emit(a.resolve(ctx, t, vocabulary))
			return nil
		}),
		NewTransformStage("execute", resolved, executed, a.execute),
		NewTransformStage("feedback", executed, replies, func(ctx context.Context, res domain.Resolution, emit func(string)) error {
			emit(a.feedback.Generate(ctx, res))
			return nil
		}),
		NewSinkStage("speak", replies, a.Responder.Respond),
	)

	a.logger.Info("assistant ready, listening")
	return pipeline.Run(ctx)
}

func (a *Assistant) capture(ctx context.Context, emit func([]float32)) error {
	samples, err := a.Source.Read(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			a.logger.Info("audio source exhausted", "source", a.Source.Name())
			return io.EOF
		}
		return fmt.Errorf("reading from %s: %w", a.Source.Name(), err)
	}

	if len(samples) == 0 {
		return nil
	}
	if a.opts.MuteWhileSpeaking && a.signals.IsSpeakerActive() {
		return nil
	}

	if rate := a.Source.SampleRate(); rate != processing.WorkingSampleRate {
		samples = processing.Resample(samples, rate, processing.WorkingSampleRate)
	}
	emit(samples)
	return nil
}

func (a *Assistant) utterance(samples []float32) domain.Utterance {
	u := domain.Utterance{ID: a.newID(), Samples: samples}

	a.logger.Debug("utterance detected",
		"utterance", u.ID,
		"seconds", float64(len(samples))/processing.WorkingSampleRate,
	)

	if a.Recorder != nil {
		if err := a.Recorder.Record(u, processing.WorkingSampleRate); err != nil {
			a.logger.Warn("archiving utterance", "utterance", u.ID, "error", err)
		}
	}
	return u
}

func (a *Assistant) detectWake(ctx context.Context, u domain.Utterance, emit func(domain.Utterance)) error {
	ok, err := a.Wake.Detect(ctx, u)
	if err != nil {
		a.logger.Warn("wake word detection failed", "utterance", u.ID, "error", err)
		return nil
	}
	if ok {
		emit(u)
	}
	return nil
}

func (a *Assistant) transcribe(ctx context.Context, u domain.Utterance, emit func(domain.Transcript)) error {
	text, err := a.STT.Transcribe(ctx, u.Samples)
	if err != nil {
		a.logger.Warn("transcription failed", "utterance", u.ID, "error", err)
		emit(domain.Transcript{UtteranceID: u.ID, Err: err})
		return nil
	}

	text = strings.TrimSpace(text)
	if IsNoiseTranscript(text) {
		a.logger.Debug("ignoring non-speech transcript", "utterance", u.ID, "text", text)
		return nil
	}

	a.logger.Info("transcribed", "utterance", u.ID, "text", text)
	emit(domain.Transcript{UtteranceID: u.ID, Text: text})
	return nil
}

func (a *Assistant) resolve(ctx context.Context, t domain.Transcript, vocabulary []string) domain.Resolution {
	if t.Err != nil {
		return domain.Resolution{UtteranceID: t.UtteranceID, Failure: domain.FailureUnknown}
	}

	scores, err := a.Scorer.Score(ctx, t.Text, vocabulary)
	if err != nil {
		a.logger.Warn("classification failed", "utterance", t.UtteranceID, "error", err)
		return domain.Resolution{UtteranceID: t.UtteranceID, Instruction: t.Text, Failure: domain.FailureUnknown}
	}

	res := a.resolver.Resolve(t.Text, scores)
	res.UtteranceID = t.UtteranceID

	if res.OK() {
		a.logger.Info("resolved intent",
			"utterance", res.UtteranceID,
			"intent", describeIntent(res.Intent),
			"confidence", res.Confidence,
		)
	} else {
		a.logger.Info("instruction rejected",
			"utterance", res.UtteranceID,
			"reason", res.Failure.Error(),
			"confidence", res.Confidence,
		)
	}
	return res
}

func (a *Assistant) execute(ctx context.Context, res domain.Resolution, emit func(domain.Resolution)) error {
	if res.OK() && res.Intent.Kind == domain.IntentCommand {
		if err := a.Executor.Execute(ctx, res.Intent.Command); err != nil {
			a.logger.Error("executing command", "utterance", res.UtteranceID, "command", res.Intent.Command.String(), "error", err)
			res.Failure = domain.FailureUnknown
		}
	}
	emit(res)
	return nil
}

// IsNoiseTranscript reports whether text is empty or a bracketed
// non-speech marker such as "[BLANK_AUDIO]" or "(wind blowing)".
func IsNoiseTranscript(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return true
	}
	return (strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]")) ||
		(strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")"))
}

func describeIntent(i domain.Intent) string {
	if i.Kind == domain.IntentQuestion {
		return "question: " + i.Question
	}
	return i.Command.String()
}
