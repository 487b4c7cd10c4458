package processing

import "time"

const (
	// WorkingSampleRate is the rate every stage after capture runs at.
	WorkingSampleRate = 16000

	DefaultFrameDuration   = 20 * time.Millisecond
	DefaultEnergyThreshold = 0.01
	DefaultSilenceLimit    = 50
	DefaultMaxFrames       = 1000
)

type SegmenterConfig struct {
	FrameSize        int     // samples per frame
	EnergyThreshold  float64 // frame energy (sum of squares) above which a frame is voiced
	SilenceLimit     int     // consecutive silent frames that end an utterance
	MaxBufferSamples int     // utterance size at which it is emitted regardless of silence
}

// FrameSize returns the number of samples in one frame of d at sampleRate.
func FrameSize(sampleRate int, d time.Duration) int {
	return int(int64(sampleRate) * int64(d) / int64(time.Second))
}

func DefaultSegmenterConfig() SegmenterConfig {
	frame := FrameSize(WorkingSampleRate, DefaultFrameDuration)
	return SegmenterConfig{
		FrameSize:        frame,
		EnergyThreshold:  DefaultEnergyThreshold,
		SilenceLimit:     DefaultSilenceLimit,
		MaxBufferSamples: frame * DefaultMaxFrames,
	}
}

// Segmenter slices a continuous stream into utterances using short-time
// frame energy and a trailing-silence timeout. It is not safe for
// concurrent use; one pipeline stage owns it.
type Segmenter struct {
	cfg SegmenterConfig

	pending []float32 // samples not yet forming a whole frame
	speech  []float32
	silent  int
}

func NewSegmenter(cfg SegmenterConfig) *Segmenter {
	if cfg.FrameSize <= 0 {
		cfg.FrameSize = FrameSize(WorkingSampleRate, DefaultFrameDuration)
	}
	if cfg.SilenceLimit <= 0 {
		cfg.SilenceLimit = DefaultSilenceLimit
	}
	if cfg.MaxBufferSamples <= 0 {
		cfg.MaxBufferSamples = cfg.FrameSize * DefaultMaxFrames
	}
	return &Segmenter{cfg: cfg}
}

// Collecting reports whether voiced audio is currently buffered.
func (s *Segmenter) Collecting() bool {
	return len(s.speech) > 0
}

// Push feeds samples and returns the utterances completed by them, in
// order. Returned slices are owned by the caller.
func (s *Segmenter) Push(samples []float32) [][]float32 {
	s.pending = append(s.pending, samples...)

	var out [][]float32
	offset := 0
	for len(s.pending)-offset >= s.cfg.FrameSize {
		frame := s.pending[offset : offset+s.cfg.FrameSize]
		offset += s.cfg.FrameSize

		if u := s.frame(frame); u != nil {
			out = append(out, u)
		}
	}

	rest := copy(s.pending, s.pending[offset:])
	s.pending = s.pending[:rest]

	return out
}

func (s *Segmenter) frame(frame []float32) []float32 {
	if Energy(frame) > s.cfg.EnergyThreshold {
		s.speech = append(s.speech, frame...)
		s.silent = 0
		if len(s.speech) >= s.cfg.MaxBufferSamples {
			return s.take()
		}
		return nil
	}

	if len(s.speech) == 0 {
		return nil
	}

	s.silent++
	if s.silent < s.cfg.SilenceLimit {
		return nil
	}
	return s.take()
}

// Flush emits whatever speech is buffered, or nil. The partial frame is
// discarded.
func (s *Segmenter) Flush() []float32 {
	s.pending = s.pending[:0]
	if len(s.speech) == 0 {
		return nil
	}
	return s.take()
}

func (s *Segmenter) take() []float32 {
	u := s.speech
	s.speech = nil
	s.silent = 0
	return u
}

// Energy is the sum of squared samples.
func Energy(frame []float32) float64 {
	var e float64
	for _, v := range frame {
		e += float64(v) * float64(v)
	}
	return e
}
