package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"home-voice/internal/processing"
)

type FileMode string

const (
	// FileOnce replays the files present and then reports io.EOF.
	FileOnce FileMode = "once"
	// FileWatch keeps polling the directory for new files.
	FileWatch FileMode = "watch"
)

const processedSuffix = ".processed"

type FileSourceConfig struct {
	Dir        string
	Mode       FileMode
	SampleRate int
	ChunkSize  int
	// TrailingSilence is appended to each file so consecutive files are
	// segmented separately.
	TrailingSilence time.Duration
	PollInterval    time.Duration
}

// FileSource replays WAV files from a directory as if they were captured
// live. Each file is renamed with a .processed suffix once consumed.
type FileSource struct {
	fs     afero.Fs
	cfg    FileSourceConfig
	logger *slog.Logger

	mu      sync.Mutex
	pending []float32
}

func NewFileSource(fs afero.Fs, cfg FileSourceConfig, logger *slog.Logger) *FileSource {
	if cfg.Mode == "" {
		cfg.Mode = FileOnce
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = processing.WorkingSampleRate
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1024
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	return &FileSource{fs: fs, cfg: cfg, logger: logger}
}

func (f *FileSource) Name() string {
	return "file"
}

func (f *FileSource) SampleRate() int {
	return f.cfg.SampleRate
}

func (f *FileSource) Start(_ context.Context) error {
	if err := f.fs.MkdirAll(f.cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("creating audio dir: %w", err)
	}
	return nil
}

func (f *FileSource) Stop() error {
	return nil
}

// Read returns the next chunk of the current file, loading the next file
// when needed. With nothing to play it waits one poll interval in watch
// mode, or reports io.EOF in once mode.
func (f *FileSource) Read(ctx context.Context) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.pending) == 0 {
		if err := f.loadNext(); err != nil {
			return nil, err
		}
	}

	if len(f.pending) == 0 {
		if f.cfg.Mode == FileOnce {
			return nil, io.EOF
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.cfg.PollInterval):
		}
		return nil, nil
	}

	n := min(f.cfg.ChunkSize, len(f.pending))
	chunk := f.pending[:n:n]
	f.pending = f.pending[n:]
	return chunk, nil
}

func (f *FileSource) loadNext() error {
	entries, err := afero.ReadDir(f.fs, f.cfg.Dir)
	if err != nil {
		return fmt.Errorf("reading dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".wav") {
			continue
		}

		path := filepath.Join(f.cfg.Dir, entry.Name())
		samples, err := f.decode(path)

		if renameErr := f.fs.Rename(path, path+processedSuffix); renameErr != nil {
			return fmt.Errorf("marking %s processed: %w", path, renameErr)
		}

		if err != nil {
			f.logger.Warn("skipping audio file", "path", path, "error", err)
			continue
		}

		silence := int(int64(f.cfg.SampleRate) * int64(f.cfg.TrailingSilence) / int64(time.Second))
		f.pending = append(samples, make([]float32, silence)...)

		f.logger.Info("replaying audio file", "path", path, "samples", len(samples))
		return nil
	}

	return nil
}

func (f *FileSource) decode(path string) ([]float32, error) {
	file, err := f.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening: %w", err)
	}
	defer file.Close()

	samples, rate, err := DecodeWAV(file)
	if err != nil {
		return nil, err
	}

	switch {
	case rate == f.cfg.SampleRate:
		return samples, nil
	case rate > f.cfg.SampleRate && rate%f.cfg.SampleRate == 0:
		return processing.Resample(samples, rate, f.cfg.SampleRate), nil
	default:
		return nil, fmt.Errorf("sample rate %d Hz cannot be converted to %d Hz", rate, f.cfg.SampleRate)
	}
}
