package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"home-voice/internal/domain"
	"home-voice/internal/processing"
)

type Config struct {
	Audio      AudioConfig      `yaml:"audio"`
	VAD        VADConfig        `yaml:"vad"`
	WakeWord   WakeWordConfig   `yaml:"wake_word"`
	STT        STTConfig        `yaml:"stt"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Answer     AnswerConfig     `yaml:"answer"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	TTS        TTSConfig        `yaml:"tts"`
	Pushover   PushoverConfig   `yaml:"pushover"`
	Executor   ExecutorConfig   `yaml:"executor"`
	GPIO       GPIOConfig       `yaml:"gpio"`
	HomeAssist HomeAssistConfig `yaml:"homeassistant"`
	Log        LogConfig        `yaml:"log"`
}

type AudioConfig struct {
	Source          string        `yaml:"source"` // microphone | file
	CaptureRate     int           `yaml:"capture_rate"`
	FramesPerBuffer int           `yaml:"frames_per_buffer"`
	FileDir         string        `yaml:"file_dir"`
	FileMode        string        `yaml:"file_mode"` // once | watch
	TrailingSilence time.Duration `yaml:"trailing_silence"`
	RecordDir       string        `yaml:"record_dir"`
	CommandMap      string        `yaml:"command_map"`
}

type VADConfig struct {
	SampleRate      int     `yaml:"sample_rate"`
	FrameMS         int     `yaml:"frame_ms"`
	EnergyThreshold float64 `yaml:"energy_threshold"`
	SilenceFrames   int     `yaml:"silence_frames"`
	MaxFrames       int     `yaml:"max_frames"`
}

type WakeWordConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Phrases  []string      `yaml:"phrases"`
	FollowUp time.Duration `yaml:"follow_up"`
}

type STTConfig struct {
	Provider  string `yaml:"provider"` // whisper | openai
	ModelPath string `yaml:"model_path"`
	Language  string `yaml:"language"`
	Threads   int    `yaml:"threads"`
}

type ClassifierConfig struct {
	Provider  string   `yaml:"provider"` // openai | anthropic | gemini
	Threshold float64  `yaml:"threshold"`
	Actions   []string `yaml:"actions"`
}

type AnswerConfig struct {
	Provider string `yaml:"provider"` // openai | anthropic | gemini | none
}

type OpenAIConfig struct {
	APIKey             string        `yaml:"api_key"`
	BaseURL            string        `yaml:"base_url"`
	ChatModel          string        `yaml:"chat_model"`
	TranscriptionModel string        `yaml:"transcription_model"`
	Proxy              string        `yaml:"proxy"`
	Timeout            time.Duration `yaml:"timeout"`
}

type AnthropicConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type GeminiConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type TTSConfig struct {
	Output          string   `yaml:"output"` // speaker | wav | log
	OutputDir       string   `yaml:"output_dir"`
	Binary          string   `yaml:"binary"`
	Model           string   `yaml:"model"`
	Args            []string `yaml:"args"`
	SampleRate      int      `yaml:"sample_rate"`
	FallbackWAV     string   `yaml:"fallback_wav"`
	FramesPerBuffer int      `yaml:"frames_per_buffer"`
}

type PushoverConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
}

type ExecutorConfig struct {
	Backend string `yaml:"backend"` // gpio | homeassistant | none
}

type GPIOConfig struct {
	Command string      `yaml:"command"`
	Pins    []PinConfig `yaml:"pins"`
}

type PinConfig struct {
	Location string `yaml:"location"`
	Subject  string `yaml:"subject"`
	Line     int    `yaml:"line"`
}

type HomeAssistConfig struct {
	URL      string         `yaml:"url"`
	Token    string         `yaml:"token"`
	Entities []EntityConfig `yaml:"entities"`
}

type EntityConfig struct {
	Location string `yaml:"location"`
	Subject  string `yaml:"subject"`
	EntityID string `yaml:"entity_id"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // pretty | text | json
}

func Load(path string) (*Config, error) {
	return LoadFile(afero.NewOsFs(), path)
}

func LoadFile(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Audio.Source == "" {
		c.Audio.Source = "microphone"
	}
	if c.Audio.CaptureRate == 0 {
		c.Audio.CaptureRate = 48000
	}
	if c.Audio.FramesPerBuffer == 0 {
		c.Audio.FramesPerBuffer = 1024
	}
	if c.Audio.FileDir == "" {
		c.Audio.FileDir = "./audio"
	}
	if c.Audio.FileMode == "" {
		c.Audio.FileMode = "once"
	}
	if c.Audio.TrailingSilence == 0 {
		c.Audio.TrailingSilence = 1500 * time.Millisecond
	}
	if c.Audio.CommandMap == "" {
		c.Audio.CommandMap = "command_map.yaml"
	}
	if c.VAD.SampleRate == 0 {
		c.VAD.SampleRate = processing.WorkingSampleRate
	}
	if c.VAD.FrameMS == 0 {
		c.VAD.FrameMS = int(processing.DefaultFrameDuration / time.Millisecond)
	}
	if c.VAD.EnergyThreshold == 0 {
		c.VAD.EnergyThreshold = processing.DefaultEnergyThreshold
	}
	if c.VAD.SilenceFrames == 0 {
		c.VAD.SilenceFrames = processing.DefaultSilenceLimit
	}
	if c.VAD.MaxFrames == 0 {
		c.VAD.MaxFrames = processing.DefaultMaxFrames
	}
	if len(c.WakeWord.Phrases) == 0 {
		c.WakeWord.Phrases = []string{"hey jarvis", "jarvis"}
	}
	if c.WakeWord.FollowUp == 0 {
		c.WakeWord.FollowUp = 10 * time.Second
	}
	if c.STT.Provider == "" {
		c.STT.Provider = "whisper"
	}
	if c.STT.ModelPath == "" {
		c.STT.ModelPath = "models/ggml-base.en.bin"
	}
	if c.STT.Language == "" {
		c.STT.Language = "en"
	}
	if c.Classifier.Provider == "" {
		c.Classifier.Provider = "openai"
	}
	if c.Classifier.Threshold == 0 {
		c.Classifier.Threshold = 0.85
	}
	if len(c.Classifier.Actions) == 0 {
		c.Classifier.Actions = domain.ActionLabels()
	}
	if c.Answer.Provider == "" {
		c.Answer.Provider = "none"
	}
	if c.OpenAI.Timeout == 0 {
		c.OpenAI.Timeout = 30 * time.Second
	}
	if c.Anthropic.Timeout == 0 {
		c.Anthropic.Timeout = 30 * time.Second
	}
	if c.Gemini.Timeout == 0 {
		c.Gemini.Timeout = 30 * time.Second
	}
	if c.Executor.Backend == "" {
		c.Executor.Backend = "gpio"
	}
	if c.TTS.Output == "" {
		c.TTS.Output = "speaker"
	}
	if c.TTS.OutputDir == "" {
		c.TTS.OutputDir = "./replies"
	}
	if c.TTS.SampleRate == 0 {
		c.TTS.SampleRate = 22050
	}
	if c.TTS.FramesPerBuffer == 0 {
		c.TTS.FramesPerBuffer = 1024
	}
	if c.GPIO.Command == "" {
		c.GPIO.Command = "pinctrl"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "pretty"
	}
}

func (c *Config) Validate() error {
	var errs []error

	if c.VAD.SampleRate != processing.WorkingSampleRate {
		errs = append(errs, fmt.Errorf("vad.sample_rate must be %d, got %d", processing.WorkingSampleRate, c.VAD.SampleRate))
	}
	if c.Audio.CaptureRate <= 0 || c.Audio.CaptureRate%processing.WorkingSampleRate != 0 {
		errs = append(errs, fmt.Errorf("audio.capture_rate %d is not a multiple of %d", c.Audio.CaptureRate, processing.WorkingSampleRate))
	}
	if c.Classifier.Threshold <= 0 || c.Classifier.Threshold > 1 {
		errs = append(errs, fmt.Errorf("classifier.threshold must be in (0, 1], got %v", c.Classifier.Threshold))
	}

	errs = append(errs, oneOf("audio.source", c.Audio.Source, "microphone", "file"))
	errs = append(errs, oneOf("audio.file_mode", c.Audio.FileMode, "once", "watch"))
	errs = append(errs, oneOf("stt.provider", c.STT.Provider, "whisper", "openai"))
	errs = append(errs, oneOf("classifier.provider", c.Classifier.Provider, "openai", "anthropic", "gemini"))
	errs = append(errs, oneOf("answer.provider", c.Answer.Provider, "openai", "anthropic", "gemini", "none"))
	errs = append(errs, oneOf("tts.output", c.TTS.Output, "speaker", "wav", "log"))
	errs = append(errs, oneOf("executor.backend", c.Executor.Backend, "gpio", "homeassistant", "none"))
	errs = append(errs, oneOf("log.format", c.Log.Format, "pretty", "text", "json"))

	for _, a := range c.Classifier.Actions {
		if _, ok := domain.ParseActionLabel(a); !ok {
			errs = append(errs, fmt.Errorf("classifier.actions: unknown action label %q", a))
		}
	}
	for i, p := range c.GPIO.Pins {
		if _, ok := domain.ParseSubject(p.Subject); !ok {
			errs = append(errs, fmt.Errorf("gpio.pins[%d]: unknown subject %q", i, p.Subject))
		}
		if p.Location == "" {
			errs = append(errs, fmt.Errorf("gpio.pins[%d]: empty location", i))
		}
	}
	for i, e := range c.HomeAssist.Entities {
		if _, ok := domain.ParseSubject(e.Subject); !ok {
			errs = append(errs, fmt.Errorf("homeassistant.entities[%d]: unknown subject %q", i, e.Subject))
		}
		if e.EntityID == "" {
			errs = append(errs, fmt.Errorf("homeassistant.entities[%d]: empty entity_id", i))
		}
	}
	if c.Executor.Backend == "homeassistant" && c.HomeAssist.URL == "" {
		errs = append(errs, errors.New("homeassistant.url is required by executor.backend homeassistant"))
	}

	return errors.Join(errs...)
}

// Segmenter converts the vad section for the working sample rate.
func (c *Config) Segmenter() processing.SegmenterConfig {
	frame := processing.FrameSize(c.VAD.SampleRate, time.Duration(c.VAD.FrameMS)*time.Millisecond)
	return processing.SegmenterConfig{
		FrameSize:        frame,
		EnergyThreshold:  c.VAD.EnergyThreshold,
		SilenceLimit:     c.VAD.SilenceFrames,
		MaxBufferSamples: frame * c.VAD.MaxFrames,
	}
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s: unknown value %q, want one of %v", key, value, allowed)
}
