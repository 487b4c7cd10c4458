package audio

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"home-voice/internal/domain"
)

const wavPCMFormat = 1

// FloatToPCM16 converts [-1, 1] samples to 16-bit values, clipping.
func FloatToPCM16(samples []float32) []int {
	out := make([]int, len(samples))
	for i, s := range samples {
		switch {
		case s >= 1:
			out[i] = 32767
		case s <= -1:
			out[i] = -32768
		default:
			out[i] = int(s * 32767)
		}
	}
	return out
}

func PCM16ToInts(pcm []int16) []int {
	out := make([]int, len(pcm))
	for i, s := range pcm {
		out[i] = int(s)
	}
	return out
}

// WriteWAV writes 16-bit mono PCM to path on fs.
func WriteWAV(fs afero.Fs, path string, pcm []int, sampleRate int) error {
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, wavPCMFormat)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           pcm,
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalizing %s: %w", path, err)
	}
	return f.Close()
}

// EncodeWAV renders float samples as an in-memory 16-bit mono WAV file.
func EncodeWAV(samples []float32, sampleRate int) ([]byte, error) {
	fs := afero.NewMemMapFs()
	const name = "utterance.wav"

	if err := WriteWAV(fs, name, FloatToPCM16(samples), sampleRate); err != nil {
		return nil, err
	}
	return afero.ReadFile(fs, name)
}

// DecodeWAV reads a PCM WAV stream, downmixing to mono [-1, 1] samples.
func DecodeWAV(r io.ReadSeeker) ([]float32, int, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, 0, fmt.Errorf("not a valid WAV file")
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decoding PCM: %w", err)
	}

	if d.BitDepth == 0 || d.BitDepth > 32 {
		return nil, 0, fmt.Errorf("unsupported bit depth %d", d.BitDepth)
	}

	channels := int(d.NumChans)
	if channels < 1 {
		channels = 1
	}
	scale := float32(int(1) << (int(d.BitDepth) - 1))

	out := make([]float32, len(buf.Data)/channels)
	for i := range out {
		var sum int
		for c := 0; c < channels; c++ {
			sum += buf.Data[i*channels+c]
		}
		out[i] = float32(sum) / float32(channels) / scale
	}

	return out, int(d.SampleRate), nil
}

// LoadSpeechAudio reads a WAV file into playable 16-bit PCM.
func LoadSpeechAudio(fs afero.Fs, path string) (domain.SpeechAudio, error) {
	f, err := fs.Open(path)
	if err != nil {
		return domain.SpeechAudio{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	samples, rate, err := DecodeWAV(f)
	if err != nil {
		return domain.SpeechAudio{}, fmt.Errorf("reading %s: %w", path, err)
	}

	pcm := make([]int16, len(samples))
	for i, v := range FloatToPCM16(samples) {
		pcm[i] = int16(v)
	}
	return domain.SpeechAudio{PCM: pcm, SampleRate: rate}, nil
}

// UtteranceArchive stores every utterance as <dir>/<id>.wav.
type UtteranceArchive struct {
	fs  afero.Fs
	dir string
}

func NewUtteranceArchive(fs afero.Fs, dir string) (*UtteranceArchive, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive dir: %w", err)
	}
	return &UtteranceArchive{fs: fs, dir: dir}, nil
}

func (a *UtteranceArchive) Record(u domain.Utterance, sampleRate int) error {
	return WriteWAV(a.fs, filepath.Join(a.dir, u.ID+".wav"), FloatToPCM16(u.Samples), sampleRate)
}

// WAVPlayer "plays" replies by writing each one to a WAV file in dir.
type WAVPlayer struct {
	fs  afero.Fs
	dir string
}

func NewWAVPlayer(fs afero.Fs, dir string) (*WAVPlayer, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	return &WAVPlayer{fs: fs, dir: dir}, nil
}

func (p *WAVPlayer) Name() string {
	return "wav"
}

func (p *WAVPlayer) Play(_ context.Context, a domain.SpeechAudio) error {
	path := filepath.Join(p.dir, "reply-"+uuid.NewString()+".wav")
	return WriteWAV(p.fs, path, PCM16ToInts(a.PCM), a.SampleRate)
}
