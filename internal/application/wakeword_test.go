package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"home-voice/internal/application"
	"home-voice/internal/domain"
)

type scriptedSTT struct {
	texts []string
	err   error
	calls int
}

func (s *scriptedSTT) Transcribe(_ context.Context, _ []float32) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	i := s.calls
	s.calls++
	if i < len(s.texts) {
		return s.texts[i], nil
	}
	return "", nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestPhraseDetector_MatchesPhrase(t *testing.T) {
	stt := &scriptedSTT{texts: []string{"Hey Jarvis, turn on the light", "turn on the light"}}
	d := application.NewPhraseDetector(stt, []string{" jarvis "}, 0, discardLogger())

	ok, err := d.Detect(context.Background(), domain.Utterance{ID: "a"})
	if err != nil || !ok {
		t.Fatalf("first utterance: got %v, %v; want true", ok, err)
	}

	ok, err = d.Detect(context.Background(), domain.Utterance{ID: "b"})
	if err != nil || ok {
		t.Errorf("without follow-up window: got %v, %v; want false", ok, err)
	}
}

func TestPhraseDetector_FollowUpWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	stt := &scriptedSTT{texts: []string{"jarvis", "unused", "turn on the light"}}
	d := application.NewPhraseDetector(stt, []string{"jarvis"}, 10*time.Second, discardLogger()).
		WithClock(clock.now)

	if ok, _ := d.Detect(context.Background(), domain.Utterance{}); !ok {
		t.Fatal("wake phrase should be accepted")
	}

	clock.t = clock.t.Add(5 * time.Second)
	if ok, _ := d.Detect(context.Background(), domain.Utterance{}); !ok {
		t.Error("utterance inside follow-up window should pass")
	}
	if stt.calls != 1 {
		t.Errorf("follow-up should not transcribe: %d calls", stt.calls)
	}

	clock.t = clock.t.Add(11 * time.Second)
	if ok, _ := d.Detect(context.Background(), domain.Utterance{}); ok {
		t.Error("utterance after window without phrase should be rejected")
	}
}

func TestPhraseDetector_TranscriptionError(t *testing.T) {
	d := application.NewPhraseDetector(&scriptedSTT{err: errors.New("model crashed")}, []string{"jarvis"}, 0, discardLogger())

	ok, err := d.Detect(context.Background(), domain.Utterance{})
	if err == nil || ok {
		t.Errorf("got %v, %v; want false and an error", ok, err)
	}
}

func TestAlwaysAwake(t *testing.T) {
	ok, err := application.AlwaysAwake{}.Detect(context.Background(), domain.Utterance{})
	if err != nil || !ok {
		t.Errorf("got %v, %v; want true", ok, err)
	}
}
