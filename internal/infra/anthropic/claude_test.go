package anthropic_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"home-voice/internal/infra"
	"home-voice/internal/infra/anthropic"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func replyWith(t *testing.T, text string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("api key header: got %q", r.Header.Get("x-api-key"))
		}

		response := map[string]any{
			"content": []map[string]string{{"text": text}},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}

func newClient(url string) *anthropic.ClaudeClient {
	return anthropic.NewClaudeClient(anthropic.Config{
		APIKey:  "test-key",
		Model:   "claude-test",
		BaseURL: url,
		Retry:   infra.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 1},
	}, discardLogger())
}

func TestClaudeClient_Score(t *testing.T) {
	server := httptest.NewServer(replyWith(t, `{"living room":0.97,"turn on":0.91,"light":0.99,"question":0.02}`))
	defer server.Close()

	labels := []string{"living room", "kitchen", "turn on", "light", "question"}
	scores, err := newClient(server.URL).Score(context.Background(), "turn on the living room light", labels)
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}

	want := map[string]float64{"living room": 0.97, "kitchen": 0, "turn on": 0.91, "light": 0.99, "question": 0.02}
	if len(scores) != len(labels) {
		t.Fatalf("scores: got %d, want %d", len(scores), len(labels))
	}
	for _, s := range scores {
		if s.Score != want[s.Label] {
			t.Errorf("%s: got %v, want %v", s.Label, s.Score, want[s.Label])
		}
	}
}

func TestClaudeClient_ScoreFencedReply(t *testing.T) {
	server := httptest.NewServer(replyWith(t, "```json\n{\"question\":0.93}\n```"))
	defer server.Close()

	scores, err := newClient(server.URL).Score(context.Background(), "what time is it", []string{"question"})
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}
	if scores[0].Score != 0.93 {
		t.Errorf("question: got %v, want 0.93", scores[0].Score)
	}
}

func TestClaudeClient_Answer(t *testing.T) {
	server := httptest.NewServer(replyWith(t, "  Paris is the capital of France.  "))
	defer server.Close()

	answer, err := newClient(server.URL).Answer(context.Background(), "what is the capital of france")
	if err != nil {
		t.Fatalf("Answer error: %v", err)
	}
	if answer != "Paris is the capital of France." {
		t.Errorf("answer: got %q", answer)
	}
}

func TestClaudeClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		replyWith(t, "It is sunny.")(w, r)
	}))
	defer server.Close()

	answer, err := newClient(server.URL).Answer(context.Background(), "how is the weather")
	if err != nil {
		t.Fatalf("Answer error: %v", err)
	}
	if answer != "It is sunny." || calls.Load() != 3 {
		t.Errorf("got %q after %d calls", answer, calls.Load())
	}
}

func TestClaudeClient_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newClient(server.URL).Score(context.Background(), "turn on the light", []string{"light"})

	var status *infra.StatusError
	if !errors.As(err, &status) || status.Code != http.StatusUnauthorized {
		t.Fatalf("got %v, want 401 StatusError", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls: got %d, want 1", calls.Load())
	}
}

func TestClaudeClient_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":[]}`))
	}))
	defer server.Close()

	if _, err := newClient(server.URL).Answer(context.Background(), "hello"); err == nil {
		t.Error("expected error for empty content")
	}
}
