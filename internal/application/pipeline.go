package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Stage is one independently running unit of the pipeline.
type Stage interface {
	Name() string
	Run(ctx context.Context, done <-chan struct{}) error
}

// SourceFunc produces zero or more values per call. Returning io.EOF ends
// the stage cleanly; any other error is fatal.
type SourceFunc[Out any] func(ctx context.Context, emit func(Out)) error

// TransformFunc handles one input, emitting zero or more outputs. A
// returned error is fatal.
type TransformFunc[In, Out any] func(ctx context.Context, in In, emit func(Out)) error

// SinkFunc consumes one input. A returned error is fatal.
type SinkFunc[In any] func(ctx context.Context, in In) error

type SourceStage[Out any] struct {
	name string
	out  *Queue[Out]
	fn   SourceFunc[Out]
}

func NewSourceStage[Out any](name string, out *Queue[Out], fn SourceFunc[Out]) *SourceStage[Out] {
	return &SourceStage[Out]{name: name, out: out, fn: fn}
}

func (s *SourceStage[Out]) Name() string { return s.name }

func (s *SourceStage[Out]) Run(ctx context.Context, done <-chan struct{}) error {
	defer s.out.Close()

	e := newEmitter(s.out)
	for {
		select {
		case <-done:
			return nil
		default:
		}

		if err := s.fn(ctx, e.emit); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if e.gone {
			return nil
		}
	}
}

type TransformStage[In, Out any] struct {
	name  string
	in    *Queue[In]
	out   *Queue[Out]
	fn    TransformFunc[In, Out]
	flush func(ctx context.Context, emit func(Out))
}

func NewTransformStage[In, Out any](name string, in *Queue[In], out *Queue[Out], fn TransformFunc[In, Out]) *TransformStage[In, Out] {
	return &TransformStage[In, Out]{name: name, in: in, out: out, fn: fn}
}

// WithFlush registers f to run once when the input closes normally, before
// the output is closed.
func (s *TransformStage[In, Out]) WithFlush(f func(ctx context.Context, emit func(Out))) *TransformStage[In, Out] {
	s.flush = f
	return s
}

func (s *TransformStage[In, Out]) Name() string { return s.name }

func (s *TransformStage[In, Out]) Run(ctx context.Context, done <-chan struct{}) error {
	defer s.in.Detach()
	defer s.out.Close()

	e := newEmitter(s.out)
	for {
		v, err := s.in.Pop(done)
		if errors.Is(err, ErrQueueClosed) {
			if s.flush != nil {
				s.flush(ctx, e.emit)
			}
			return nil
		}
		if err != nil {
			return nil
		}

		if err := s.fn(ctx, v, e.emit); err != nil {
			return err
		}
		if e.gone {
			return nil
		}
	}
}

type SinkStage[In any] struct {
	name string
	in   *Queue[In]
	fn   SinkFunc[In]
}

func NewSinkStage[In any](name string, in *Queue[In], fn SinkFunc[In]) *SinkStage[In] {
	return &SinkStage[In]{name: name, in: in, fn: fn}
}

func (s *SinkStage[In]) Name() string { return s.name }

func (s *SinkStage[In]) Run(ctx context.Context, done <-chan struct{}) error {
	defer s.in.Detach()

	for {
		v, err := s.in.Pop(done)
		if err != nil {
			return nil
		}
		if err := s.fn(ctx, v); err != nil {
			return err
		}
	}
}

type emitter[T any] struct {
	out  *Queue[T]
	gone bool
}

func newEmitter[T any](out *Queue[T]) *emitter[T] {
	return &emitter[T]{out: out}
}

func (e *emitter[T]) emit(v T) {
	if e.gone {
		return
	}
	if err := e.out.Push(v); err != nil {
		e.gone = true
	}
}

// Pipeline runs every stage on its own goroutine and supervises shutdown.
type Pipeline struct {
	stages  []Stage
	signals *Signals
	logger  *slog.Logger
}

func NewPipeline(signals *Signals, logger *slog.Logger, stages ...Stage) *Pipeline {
	return &Pipeline{
		stages:  stages,
		signals: signals,
		logger:  logger,
	}
}

// Run starts all stages and blocks until every one has returned. It
// returns when the input is exhausted, ctx is cancelled, or shutdown is
// requested. Messages already inside a stage run to completion even after
// ctx is cancelled. The returned error is the first fatal shutdown cause.
func (p *Pipeline) Run(ctx context.Context) error {
	stageCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for _, st := range p.stages {
		wg.Add(1)
		go func(st Stage) {
			defer wg.Done()
			logger := p.logger.With("stage", st.Name())
			logger.Debug("stage started")

			if err := st.Run(stageCtx, p.signals.Done()); err != nil {
				p.signals.RequestShutdown(fmt.Errorf("stage %s: %w", st.Name(), err))
				return
			}
			logger.Debug("stage finished")
		}(st)
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	select {
	case <-ctx.Done():
		p.logger.Info("interrupted, stopping pipeline")
		p.signals.RequestShutdown(nil)
	case <-p.signals.Done():
	case <-finished:
	}

	<-finished
	return p.signals.Err()
}
