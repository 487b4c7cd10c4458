package application

import (
	"context"

	"home-voice/internal/domain"
)

// AudioSource delivers mono capture at SampleRate. Read returns within a
// short poll interval, with no samples when nothing arrived, and io.EOF
// once a finite source is exhausted.
type AudioSource interface {
	Start(ctx context.Context) error
	Read(ctx context.Context) ([]float32, error)
	SampleRate() int
	Stop() error
	Name() string
}

// AudioPlayer blocks until the audio has finished playing.
type AudioPlayer interface {
	Play(ctx context.Context, audio domain.SpeechAudio) error
	Name() string
}

type UtteranceRecorder interface {
	Record(u domain.Utterance, sampleRate int) error
}

type AudioFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// WorkingAudioFormat is the format utterances are exchanged and archived in.
func WorkingAudioFormat() AudioFormat {
	return AudioFormat{
		SampleRate: 16000,
		Channels:   1,
		BitDepth:   16,
	}
}
