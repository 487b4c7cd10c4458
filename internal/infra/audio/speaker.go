//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gordonklaus/portaudio"

	"home-voice/internal/domain"
)

// Speaker plays PCM on the default output device. A stream is opened per
// reply at the reply's sample rate.
type Speaker struct {
	framesPerBuffer int
	logger          *slog.Logger
}

func NewSpeaker(framesPerBuffer int, logger *slog.Logger) *Speaker {
	if framesPerBuffer <= 0 {
		framesPerBuffer = 1024
	}
	return &Speaker{framesPerBuffer: framesPerBuffer, logger: logger}
}

func (s *Speaker) Name() string {
	return "speaker"
}

func (s *Speaker) Play(_ context.Context, a domain.SpeechAudio) (err error) {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}
	defer portaudio.Terminate()

	if _, err := portaudio.DefaultOutputDevice(); err != nil {
		return fmt.Errorf("no playback device: %w", err)
	}

	buffer := make([]int16, s.framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(a.SampleRate), len(buffer), buffer)
	if err != nil {
		return fmt.Errorf("opening output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("starting output stream: %w", err)
	}
	defer func() {
		if stopErr := stream.Stop(); stopErr != nil && err == nil {
			err = fmt.Errorf("stopping output stream: %w", stopErr)
		}
	}()

	for offset := 0; offset < len(a.PCM); offset += len(buffer) {
		n := copy(buffer, a.PCM[offset:])
		clear(buffer[n:])

		if err := stream.Write(); err != nil {
			if errors.Is(err, portaudio.OutputUnderflowed) {
				s.logger.Debug("output underflowed")
				continue
			}
			return fmt.Errorf("writing to output stream: %w", err)
		}
	}

	return nil
}
