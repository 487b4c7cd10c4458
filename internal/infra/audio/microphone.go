//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gordonklaus/portaudio"
)

// Microphone captures mono float32 audio from the default input device.
// Each Read blocks for one buffer, so callers regain control every
// FramesPerBuffer/SampleRate seconds.
type Microphone struct {
	sampleRate      int
	framesPerBuffer int
	logger          *slog.Logger

	stream *portaudio.Stream
	buffer []float32
}

func NewMicrophone(sampleRate, framesPerBuffer int, logger *slog.Logger) *Microphone {
	if framesPerBuffer <= 0 {
		framesPerBuffer = 1024
	}
	return &Microphone{
		sampleRate:      sampleRate,
		framesPerBuffer: framesPerBuffer,
		logger:          logger,
	}
}

func (m *Microphone) Name() string {
	return "microphone"
}

func (m *Microphone) SampleRate() int {
	return m.sampleRate
}

func (m *Microphone) Start(_ context.Context) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}

	device, err := portaudio.DefaultInputDevice()
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("no capture device: %w", err)
	}

	m.buffer = make([]float32, m.framesPerBuffer)

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.sampleRate), m.framesPerBuffer, m.buffer)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("opening stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("starting stream: %w", err)
	}

	m.stream = stream
	m.logger.Info("microphone started", "device", device.Name, "sampleRate", m.sampleRate)
	return nil
}

func (m *Microphone) Stop() error {
	if m.stream == nil {
		return nil
	}

	var errs []error
	if err := m.stream.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stopping stream: %w", err))
	}
	if err := m.stream.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing stream: %w", err))
	}
	m.stream = nil

	if err := portaudio.Terminate(); err != nil {
		errs = append(errs, fmt.Errorf("terminating portaudio: %w", err))
	}
	return errors.Join(errs...)
}

func (m *Microphone) Read(_ context.Context) ([]float32, error) {
	if m.stream == nil {
		return nil, fmt.Errorf("microphone not started")
	}

	if err := m.stream.Read(); err != nil {
		if !errors.Is(err, portaudio.InputOverflowed) {
			return nil, fmt.Errorf("reading from stream: %w", err)
		}
		m.logger.Debug("input overflowed, samples lost")
	}

	out := make([]float32, len(m.buffer))
	copy(out, m.buffer)
	return out, nil
}
