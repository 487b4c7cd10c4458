package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/afero"

	"home-voice/config"
	"home-voice/internal/application"
	"home-voice/internal/domain"
	"home-voice/internal/infra/anthropic"
	"home-voice/internal/infra/audio"
	"home-voice/internal/infra/commandmap"
	"home-voice/internal/infra/gemini"
	"home-voice/internal/infra/gpio"
	"home-voice/internal/infra/homeassistant"
	"home-voice/internal/infra/openai"
	"home-voice/internal/infra/piper"
	"home-voice/internal/infra/proxy"
	"home-voice/internal/infra/pushover"
	"home-voice/internal/infra/whisper"
	"home-voice/internal/processing"
)

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	fsys := afero.NewOsFs()

	var catalog application.CommandCatalog = commandmap.NewLoader(fsys, cfg.Audio.CommandMap, logger)
	commands, err := catalog.Load()
	if err != nil {
		return err
	}
	registry := application.NewCommandRegistry(commands)
	if registry.Len() == 0 {
		logger.Warn("command map has no supported commands", "path", cfg.Audio.CommandMap)
	}

	labels, err := domain.NewClassificationLabels(domain.IntentLabels(), registry.KnownLocations(), cfg.Classifier.Actions, domain.SubjectLabels())
	if err != nil {
		return fmt.Errorf("building label vocabulary: %w", err)
	}
	resolver := application.NewIntentResolver(labels, registry, cfg.Classifier.Threshold)

	remotes, err := newRemotes(cfg, logger)
	if err != nil {
		return err
	}

	stt, closeSTT, err := newSpeechToText(cfg, remotes, logger)
	if err != nil {
		return err
	}
	defer closeSTT()

	scorer := remotes.scorer(cfg.Classifier.Provider)
	answers := remotes.answerer(cfg.Answer.Provider)

	signals := application.NewSignals(logger)

	responder, err := newResponder(cfg, fsys, signals, logger)
	if err != nil {
		return err
	}

	source, mute := newSource(cfg, fsys, logger)

	var wake application.WakeWordDetector = application.AlwaysAwake{}
	if cfg.WakeWord.Enabled {
		wake = application.NewPhraseDetector(stt, cfg.WakeWord.Phrases, cfg.WakeWord.FollowUp, logger.With("component", "wake"))
	}

	collaborators := application.Collaborators{
		Source:    source,
		Wake:      wake,
		STT:       stt,
		Scorer:    scorer,
		Executor:  newExecutor(cfg, logger),
		Responder: responder,
	}
	if cfg.Audio.RecordDir != "" {
		archive, err := audio.NewUtteranceArchive(fsys, cfg.Audio.RecordDir)
		if err != nil {
			return err
		}
		collaborators.Recorder = archive
	}

	assistant := application.NewAssistant(
		collaborators,
		resolver,
		application.NewFeedbackGenerator(answers, logger.With("component", "feedback")),
		application.Options{
			Segmenter:         cfg.Segmenter(),
			MuteWhileSpeaking: mute,
		},
		signals,
		logger,
	)

	logger.Info("command map ready",
		"locations", len(registry.KnownLocations()),
		"commands", registry.Len(),
		"labels", len(labels.Vocabulary()),
	)

	return assistant.Run(ctx)
}

// remotes holds the lazily shared model API clients.
type remotes struct {
	openaiCfg    openai.Config
	anthropicCfg anthropic.Config
	geminiCfg    gemini.Config
	logger       *slog.Logger

	chat   *openai.ChatClient
	claude *anthropic.ClaudeClient
	gemini *gemini.Client
}

func newRemotes(cfg *config.Config, logger *slog.Logger) (*remotes, error) {
	openaiHTTP, err := proxy.NewSocksClient(cfg.OpenAI.Proxy, cfg.OpenAI.Timeout)
	if err != nil {
		return nil, fmt.Errorf("openai proxy: %w", err)
	}

	return &remotes{
		openaiCfg: openai.Config{
			APIKey:             cfg.OpenAI.APIKey,
			BaseURL:            cfg.OpenAI.BaseURL,
			ChatModel:          cfg.OpenAI.ChatModel,
			TranscriptionModel: cfg.OpenAI.TranscriptionModel,
			Language:           cfg.STT.Language,
			HTTPClient:         openaiHTTP,
		},
		anthropicCfg: anthropic.Config{
			APIKey:     cfg.Anthropic.APIKey,
			Model:      cfg.Anthropic.Model,
			BaseURL:    cfg.Anthropic.BaseURL,
			HTTPClient: &http.Client{Timeout: cfg.Anthropic.Timeout},
		},
		geminiCfg: gemini.Config{
			APIKey:     cfg.Gemini.APIKey,
			Model:      cfg.Gemini.Model,
			BaseURL:    cfg.Gemini.BaseURL,
			HTTPClient: &http.Client{Timeout: cfg.Gemini.Timeout},
		},
		logger: logger,
	}, nil
}

func (r *remotes) openaiChat() *openai.ChatClient {
	if r.chat == nil {
		r.chat = openai.NewChatClient(r.openaiCfg, r.logger.With("component", "openai"))
	}
	return r.chat
}

func (r *remotes) claudeClient() *anthropic.ClaudeClient {
	if r.claude == nil {
		r.claude = anthropic.NewClaudeClient(r.anthropicCfg, r.logger.With("component", "claude"))
	}
	return r.claude
}

func (r *remotes) geminiClient() *gemini.Client {
	if r.gemini == nil {
		r.gemini = gemini.NewClient(r.geminiCfg, r.logger.With("component", "gemini"))
	}
	return r.gemini
}

func (r *remotes) scorer(provider string) application.LabelScorer {
	switch provider {
	case "anthropic":
		return r.claudeClient()
	case "gemini":
		return r.geminiClient()
	default:
		return r.openaiChat()
	}
}

func (r *remotes) answerer(provider string) application.AnswerGenerator {
	switch provider {
	case "openai":
		return r.openaiChat()
	case "anthropic":
		return r.claudeClient()
	case "gemini":
		return r.geminiClient()
	default:
		return application.NoopAnswerer{}
	}
}

func newSpeechToText(cfg *config.Config, r *remotes, logger *slog.Logger) (application.SpeechToText, func(), error) {
	if cfg.STT.Provider == "openai" {
		return openai.NewTranscriptionClient(r.openaiCfg, logger.With("component", "whisper-api")), func() {}, nil
	}

	rec, err := whisper.NewRecognizer(whisper.Config{
		ModelPath: cfg.STT.ModelPath,
		Language:  cfg.STT.Language,
		Threads:   cfg.STT.Threads,
	}, logger.With("component", "whisper"))
	if err != nil {
		return nil, nil, err
	}
	return rec, func() {
		if err := rec.Close(); err != nil {
			logger.Warn("closing whisper model", "error", err)
		}
	}, nil
}

func newResponder(cfg *config.Config, fsys afero.Fs, signals *application.Signals, logger *slog.Logger) (application.Responder, error) {
	primary, err := newVoice(cfg, fsys, signals, logger)
	if err != nil {
		return nil, err
	}
	if !cfg.Pushover.Enabled {
		return primary, nil
	}
	push := pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey, logger.With("component", "pushover"))
	return application.NewMirrorResponder(primary, logger, push), nil
}

func newVoice(cfg *config.Config, fsys afero.Fs, signals *application.Signals, logger *slog.Logger) (application.Responder, error) {
	if cfg.TTS.Output == "log" {
		return &application.LogResponder{Logger: logger.With("component", "responder")}, nil
	}

	var player application.AudioPlayer
	if cfg.TTS.Output == "wav" {
		p, err := audio.NewWAVPlayer(fsys, cfg.TTS.OutputDir)
		if err != nil {
			return nil, err
		}
		player = p
	} else {
		player = audio.NewSpeaker(cfg.TTS.FramesPerBuffer, logger.With("component", "speaker"))
	}

	var fallback *domain.SpeechAudio
	if cfg.TTS.FallbackWAV != "" {
		a, err := audio.LoadSpeechAudio(fsys, cfg.TTS.FallbackWAV)
		if err != nil {
			return nil, fmt.Errorf("loading fallback reply: %w", err)
		}
		fallback = &a
	}

	synth := piper.NewSynthesizer(piper.Config{
		Binary:     cfg.TTS.Binary,
		Model:      cfg.TTS.Model,
		Args:       cfg.TTS.Args,
		SampleRate: cfg.TTS.SampleRate,
	}, logger.With("component", "piper"))

	return application.NewVoiceResponder(synth, player, fallback, signals, logger.With("component", "responder")), nil
}

func newExecutor(cfg *config.Config, logger *slog.Logger) application.CommandExecutor {
	switch cfg.Executor.Backend {
	case "homeassistant":
		entities := make([]homeassistant.Entity, 0, len(cfg.HomeAssist.Entities))
		for _, e := range cfg.HomeAssist.Entities {
			subject, _ := domain.ParseSubject(e.Subject)
			entities = append(entities, homeassistant.Entity{Location: e.Location, Subject: subject, EntityID: e.EntityID})
		}
		return homeassistant.NewClient(cfg.HomeAssist.URL, cfg.HomeAssist.Token, entities, logger.With("component", "homeassistant"))
	case "none":
		return application.NoopExecutor{}
	default:
		pins := make([]gpio.Pin, 0, len(cfg.GPIO.Pins))
		for _, p := range cfg.GPIO.Pins {
			subject, _ := domain.ParseSubject(p.Subject)
			pins = append(pins, gpio.Pin{Location: p.Location, Subject: subject, Line: p.Line})
		}
		return gpio.NewExecutor(cfg.GPIO.Command, pins, logger.With("component", "gpio"))
	}
}

// newSource also reports whether capture should be muted during replies.
func newSource(cfg *config.Config, fsys afero.Fs, logger *slog.Logger) (application.AudioSource, bool) {
	if cfg.Audio.Source == "file" {
		return audio.NewFileSource(fsys, audio.FileSourceConfig{
			Dir:             cfg.Audio.FileDir,
			Mode:            audio.FileMode(cfg.Audio.FileMode),
			SampleRate:      processing.WorkingSampleRate,
			TrailingSilence: cfg.Audio.TrailingSilence,
		}, logger.With("component", "file-source")), false
	}
	return audio.NewMicrophone(cfg.Audio.CaptureRate, cfg.Audio.FramesPerBuffer, logger.With("component", "microphone")), true
}
