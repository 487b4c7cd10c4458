package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"home-voice/internal/infra"
	"home-voice/internal/infra/openai"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(url string) openai.Config {
	return openai.Config{
		APIKey:    "test-key",
		BaseURL:   url,
		ChatModel: "gpt-test",
		Language:  "en",
		Retry:     infra.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 1},
	}
}

func chatReply(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 0,
		"model":   "gpt-test",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	}
}

func TestTranscriptionClient_Transcribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization: got %q", got)
		}

		file, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		defer file.Close()

		head := make([]byte, 4)
		if _, err := io.ReadFull(file, head); err != nil || string(head) != "RIFF" {
			t.Errorf("upload is not a WAV file: %q", head)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model: got %q, want whisper-1", got)
		}
		if got := r.FormValue("language"); got != "en" {
			t.Errorf("language: got %q, want en", got)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"text": " turn on the light "})
	}))
	defer server.Close()

	client := openai.NewTranscriptionClient(testConfig(server.URL), discardLogger())
	text, err := client.Transcribe(context.Background(), make([]float32, 16000))
	if err != nil {
		t.Fatalf("Transcribe error: %v", err)
	}
	if text != "turn on the light" {
		t.Errorf("text: got %q", text)
	}
}

func TestTranscriptionClient_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "hello"})
	}))
	defer server.Close()

	client := openai.NewTranscriptionClient(testConfig(server.URL), discardLogger())
	text, err := client.Transcribe(context.Background(), make([]float32, 1600))
	if err != nil {
		t.Fatalf("Transcribe error: %v", err)
	}
	if text != "hello" || calls.Load() != 2 {
		t.Errorf("got %q after %d calls", text, calls.Load())
	}
}

func TestTranscriptionClient_BadRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unsupported file", http.StatusBadRequest)
	}))
	defer server.Close()

	client := openai.NewTranscriptionClient(testConfig(server.URL), discardLogger())
	_, err := client.Transcribe(context.Background(), make([]float32, 1600))

	var status *infra.StatusError
	if !errors.As(err, &status) || status.Code != http.StatusBadRequest {
		t.Errorf("got %v, want 400 StatusError", err)
	}
}

func TestChatClient_Score(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if body.Model != "gpt-test" || len(body.Messages) != 2 || body.Messages[0].Role != "system" {
			t.Errorf("unexpected request: %+v", body)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatReply(`{"kitchen":0.92,"turn on":0.88,"teapot":0.97,"question":0.03}`))
	}))
	defer server.Close()

	labels := []string{"kitchen", "turn on", "teapot", "question"}
	scores, err := openai.NewChatClient(testConfig(server.URL), discardLogger()).Score(context.Background(), "boil the kettle", labels)
	if err != nil {
		t.Fatalf("Score error: %v", err)
	}

	want := []float64{0.92, 0.88, 0.97, 0.03}
	for i, s := range scores {
		if s.Label != labels[i] || s.Score != want[i] {
			t.Errorf("score %d: got %+v, want %s=%v", i, s, labels[i], want[i])
		}
	}
}

func TestChatClient_Answer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatReply("Water boils at one hundred degrees."))
	}))
	defer server.Close()

	answer, err := openai.NewChatClient(testConfig(server.URL), discardLogger()).Answer(context.Background(), "when does water boil")
	if err != nil {
		t.Fatalf("Answer error: %v", err)
	}
	if answer != "Water boils at one hundred degrees." {
		t.Errorf("answer: got %q", answer)
	}
}

func TestChatClient_UnauthorizedNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	_, err := openai.NewChatClient(testConfig(server.URL), discardLogger()).Answer(context.Background(), "hi")

	var status *infra.StatusError
	if !errors.As(err, &status) || status.Code != http.StatusUnauthorized {
		t.Fatalf("got %v, want 401 StatusError", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls: got %d, want 1", calls.Load())
	}
}
