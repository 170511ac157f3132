package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newMurekaTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *MurekaClient) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewMurekaClient(MurekaConfig{
		APIKey:          "test-key",
		BaseURL:         srv.URL,
		PollInterval:    time.Millisecond,
		MaxPollAttempts: 3,
	})
	return srv, c
}

func TestGenerateInstrumentalHappyPath(t *testing.T) {
	var gotPrompt string
	queries := 0

	srv, c := newMurekaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/instrumental/generate":
			if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
				t.Errorf("Authorization header = %q", auth)
			}
			var req map[string]string
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("failed to decode request: %v", err)
			}
			if req["model"] != "auto" {
				t.Errorf("model = %q, want auto", req["model"])
			}
			gotPrompt = req["prompt"]
			json.NewEncoder(w).Encode(map[string]any{"id": "task-1", "status": "preparing"})

		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v1/instrumental/query/"):
			queries++
			if queries == 1 {
				json.NewEncoder(w).Encode(map[string]any{"id": "task-1", "status": "running"})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"id":     "task-1",
				"status": "succeeded",
				"choices": []map[string]any{
					{"url": "http://" + r.Host + "/track.mp3", "duration": 95.0},
				},
			})

		case r.URL.Path == "/track.mp3":
			w.Write([]byte("audio-bytes"))

		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	_ = srv

	data, err := c.GenerateInstrumental(context.Background(), "mellow lo-fi beat")
	if err != nil {
		t.Fatalf("GenerateInstrumental returned error: %v", err)
	}
	if string(data) != "audio-bytes" {
		t.Errorf("downloaded %q, want audio-bytes", data)
	}
	if gotPrompt != "mellow lo-fi beat" {
		t.Errorf("submitted prompt = %q", gotPrompt)
	}
}

func TestGenerateInstrumentalTruncatesLongPrompt(t *testing.T) {
	var gotPrompt string

	_, c := newMurekaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/instrumental/generate":
			var req map[string]string
			json.NewDecoder(r.Body).Decode(&req)
			gotPrompt = req["prompt"]
			json.NewEncoder(w).Encode(map[string]any{
				"id":     "task-2",
				"status": "succeeded",
				"choices": []map[string]any{
					{"url": "http://" + r.Host + "/t.mp3"},
				},
			})
		case r.URL.Path == "/t.mp3":
			w.Write([]byte("x"))
		}
	})

	long := strings.Repeat("a", maxPromptLength+1)
	if _, err := c.GenerateInstrumental(context.Background(), long); err != nil {
		t.Fatalf("GenerateInstrumental returned error: %v", err)
	}
	if len(gotPrompt) != maxPromptLength {
		t.Errorf("submitted prompt length = %d, want %d", len(gotPrompt), maxPromptLength)
	}

	exact := strings.Repeat("b", maxPromptLength)
	if _, err := c.GenerateInstrumental(context.Background(), exact); err != nil {
		t.Fatalf("GenerateInstrumental returned error: %v", err)
	}
	if gotPrompt != exact {
		t.Errorf("prompt at the limit should pass through unmodified")
	}
}

func TestGenerateInstrumentalMissingTaskID(t *testing.T) {
	_, c := newMurekaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "preparing"})
	})

	_, err := c.GenerateInstrumental(context.Background(), "prompt")
	if !errors.Is(err, ErrNoTaskID) {
		t.Fatalf("error = %v, want ErrNoTaskID", err)
	}
}

func TestGenerateInstrumentalVendorFailure(t *testing.T) {
	_, c := newMurekaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/instrumental/generate":
			json.NewEncoder(w).Encode(map[string]any{"id": "task-3", "status": "queued"})
		default:
			json.NewEncoder(w).Encode(map[string]any{
				"id":            "task-3",
				"status":        "failed",
				"failed_reason": "model overloaded",
			})
		}
	})

	_, err := c.GenerateInstrumental(context.Background(), "prompt")
	if err == nil || !strings.Contains(err.Error(), "model overloaded") {
		t.Fatalf("error = %v, want vendor failure reason", err)
	}
}

func TestGenerateInstrumentalUnconfigured(t *testing.T) {
	c := NewMurekaClient(MurekaConfig{})
	if c.IsConfigured() {
		t.Fatal("client without API key should not report configured")
	}
	if _, err := c.GenerateInstrumental(context.Background(), "prompt"); err == nil {
		t.Fatal("unconfigured client should return an error")
	}
}
