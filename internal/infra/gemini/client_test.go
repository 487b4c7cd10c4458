package gemini_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"home-voice/internal/infra"
	"home-voice/internal/infra/gemini"
)

func newClient(url string) *gemini.Client {
	return gemini.NewClient(gemini.Config{
		APIKey:  "test-key",
		Model:   "gemini-test",
		BaseURL: url,
		Retry:   infra.RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, Multiplier: 1},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func candidate(text string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"parts": []map[string]string{{"text": text}},
			},
		}},
	}
}

func TestClient_Score(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-test:generateContent" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("key: got %q", r.URL.Query().Get("key"))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(candidate(`{"hallway":0.9,"turn off":0.93,"light":0.96}`))
	}))
	defer server.Close()

	labels := []string{"hallway", "turn off", "light", "question"}
	scores, err := newClient(server.URL).Score(context.Background(), "switch off the hallway light", labels)
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}

	want := []float64{0.9, 0.93, 0.96, 0}
	for i, s := range scores {
		if s.Score != want[i] {
			t.Errorf("%s: got %v, want %v", s.Label, s.Score, want[i])
		}
	}
}

func TestClient_Answer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(candidate("It is half past seven."))
	}))
	defer server.Close()

	answer, err := newClient(server.URL).Answer(context.Background(), "what time is it")
	if err != nil {
		t.Fatalf("Answer error: %v", err)
	}
	if answer != "It is half past seven." {
		t.Errorf("answer: got %q", answer)
	}
}

func TestClient_EmbeddedError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"quota exceeded","code":429}}`))
	}))
	defer server.Close()

	if _, err := newClient(server.URL).Answer(context.Background(), "hi"); err == nil {
		t.Error("expected error for error payload")
	}
}

func TestClient_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newClient(server.URL).Score(context.Background(), "hi", []string{"question"})

	var status *infra.StatusError
	if !errors.As(err, &status) || status.Code != http.StatusForbidden {
		t.Errorf("got %v, want 403 StatusError", err)
	}
}
